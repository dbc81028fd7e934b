package domain

import (
	"context"
)

// EventBus defines the interface for event-driven communication.
// Supports Go channels (Community) or NATS (Pro).
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string

	// Channel settings (Community tier)
	ChannelBufferSize int

	// NATS settings (Pro tier)
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds
}

// Standard topic names for the analysis pipeline.
const (
	TopicBatchIngested = "kestrel.batch.ingested"
	TopicBatchAnalyzed = "kestrel.batch.analyzed"
	TopicAlert         = "kestrel.alert"
)

// BatchIngested is the payload published on TopicBatchIngested.
type BatchIngested struct {
	BatchID      string        `json:"batchId"`
	Transactions []Transaction `json:"transactions"`
}

// BatchAnalyzed is the payload published on TopicBatchAnalyzed.
type BatchAnalyzed struct {
	BatchID string `json:"batchId"`
	Rows    int    `json:"rows"`
	Alerts  int    `json:"alerts"`
}

// Alert is the payload published on TopicAlert for every row classified
// as "Needs Your Attention".
type Alert struct {
	BatchID       string      `json:"batchId"`
	TransactionID string      `json:"transactionId"`
	CustomerID    string      `json:"customerId"`
	RiskScore     int         `json:"riskScore"`
	SafetyLevel   SafetyLevel `json:"safetyLevel"`
	AnomalyFlags  string      `json:"anomalyFlags"`
}
