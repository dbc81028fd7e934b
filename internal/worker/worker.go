// Package worker provides async batch processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-risk/kestrel/internal/domain"
	"github.com/opensource-risk/kestrel/internal/scoring"
)

// Worker consumes ingested batches from the EventBus, scores them and
// persists the results. Rows classified "Needs Your Attention" are
// republished as alerts.
type Worker struct {
	bus    domain.EventBus
	repo   domain.Repository
	engine *scoring.Engine

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, engine *scoring.Engine) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		engine: engine,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the batch ingestion topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicBatchIngested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started",
		"topic", domain.TopicBatchIngested,
	)

	return nil
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var batch domain.BatchIngested
	if err := json.Unmarshal(msg.Payload, &batch); err != nil {
		slog.Error("failed to parse batch message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	return w.processBatch(ctx, &batch)
}

// processBatch scores a batch, persists it, and publishes results.
func (w *Worker) processBatch(ctx context.Context, batch *domain.BatchIngested) error {
	start := time.Now()

	slog.Debug("processing batch",
		"batch_id", batch.BatchID,
		"rows", len(batch.Transactions),
	)

	analyzed, err := w.engine.AnalyzeBatch(ctx, batch.Transactions)
	if err != nil {
		slog.Error("batch analysis failed",
			"batch_id", batch.BatchID,
			"error", err,
		)
		return err
	}

	if w.repo != nil {
		if err := w.repo.SaveBatch(ctx, batch.BatchID, analyzed); err != nil {
			slog.Error("failed to save batch",
				"batch_id", batch.BatchID,
				"error", err,
			)
			return err
		}
	}

	alerts := 0
	for i := range analyzed {
		row := &analyzed[i]
		if row.SafetyLevel != domain.LevelAttention {
			continue
		}
		alerts++

		payload, _ := json.Marshal(domain.Alert{
			BatchID:       batch.BatchID,
			TransactionID: row.TransactionID,
			CustomerID:    row.CustomerID,
			RiskScore:     row.RiskScore,
			SafetyLevel:   row.SafetyLevel,
			AnomalyFlags:  row.AnomalyFlags,
		})
		if err := w.bus.Publish(ctx, domain.TopicAlert, payload); err != nil {
			slog.Error("failed to publish alert",
				"tx_id", row.TransactionID,
				"error", err,
			)
		}
	}

	resultPayload, _ := json.Marshal(domain.BatchAnalyzed{
		BatchID: batch.BatchID,
		Rows:    len(analyzed),
		Alerts:  alerts,
	})
	if err := w.bus.Publish(ctx, domain.TopicBatchAnalyzed, resultPayload); err != nil {
		slog.Error("failed to publish batch result",
			"batch_id", batch.BatchID,
			"error", err,
		)
	}

	slog.Info("batch processed",
		"batch_id", batch.BatchID,
		"rows", len(analyzed),
		"alerts", alerts,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
