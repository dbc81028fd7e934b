// Package velocity provides cross-batch transaction velocity counts.
package velocity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/opensource-risk/kestrel/internal/domain"
	"github.com/opensource-risk/kestrel/internal/rules"
)

// Service counts a customer's recent stored transactions. The in-batch
// velocity detector only sees rows of the current batch; this service
// backs the velocity_count rule variable with everything persisted
// before the batch arrived.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
}

// NewService creates a new velocity service.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// GetTransactionCount returns the number of stored transactions for a
// customer within the trailing window.
func (s *Service) GetTransactionCount(ctx context.Context, customerID string, windowSecs int) (int64, error) {
	if customerID == "" {
		return 0, fmt.Errorf("customerID is required")
	}
	if windowSecs <= 0 {
		return 0, fmt.Errorf("windowSecs must be positive")
	}

	window := time.Duration(windowSecs) * time.Second

	// Short-lived cache avoids hammering the database when one batch
	// evaluates the same customer against several rules.
	cacheKey := "velocity:" + customerID + ":" + strconv.Itoa(windowSecs)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil && raw != nil {
			if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
				return n, nil
			}
		}
	}

	since := time.Now().UTC().Add(-window)
	count, err := s.repo.CountByCustomerSince(ctx, customerID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	if s.cache != nil {
		ttl := 30 * time.Second
		if window < ttl {
			ttl = window
		}
		_ = s.cache.Set(ctx, cacheKey, []byte(strconv.FormatInt(count, 10)), ttl)
	}

	return count, nil
}

// RecordTransaction bumps the customer's rolling counter. The counter
// lets rules see activity from batches still in flight, before rows
// reach the repository.
func (s *Service) RecordTransaction(ctx context.Context, customerID string, window time.Duration) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.IncrementCounter(ctx, "velocity:"+customerID, window)
}

// Getter returns the VelocityGetter function wired into the rule engine.
func (s *Service) Getter() rules.VelocityGetter {
	return s.GetTransactionCount
}
