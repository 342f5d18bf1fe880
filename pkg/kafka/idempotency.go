package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// IdempotencyStore records which event IDs a consumer group has already
// handled. Implementations must be safe for concurrent use.
type IdempotencyStore interface {
	// Contains reports whether the event ID has already been processed.
	Contains(ctx context.Context, eventID string) (bool, error)
	// Add marks an event ID as processed, after the handler succeeded.
	Add(ctx context.Context, eventID string) error
}

// sweepInterval bounds how often the in-memory store scans for expired
// entries. A full sweep is linear in the map size, so it is amortized
// across writes instead of running on every Add.
const sweepInterval = time.Minute

// MemoryIdempotencyStore keeps processed event IDs in a map with a TTL.
// It covers single-instance deployments; a shared cache is needed once the
// same consumer group runs on more than one instance.
type MemoryIdempotencyStore struct {
	mu        sync.RWMutex
	seen      map[string]time.Time
	ttl       time.Duration
	lastSweep time.Time

	now func() time.Time // stubbed in tests
}

// NewMemoryIdempotencyStore returns a store whose entries expire ttl after
// they were added.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Contains reports whether eventID was added within the TTL window.
func (s *MemoryIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	added, ok := s.seen[eventID]
	s.mu.RUnlock()

	if !ok || s.now().Sub(added) > s.ttl {
		return false, nil
	}
	return true, nil
}

// Add marks eventID as processed and opportunistically drops expired entries.
func (s *MemoryIdempotencyStore) Add(_ context.Context, eventID string) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[eventID] = now
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.lastSweep = now
		for id, added := range s.seen {
			if now.Sub(added) > s.ttl {
				delete(s.seen, id)
			}
		}
	}
	return nil
}

// Len returns the number of tracked entries, expired ones included.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// IdempotentHandler wraps inner so that events whose EventID is already in
// the store are skipped with a nil error. The groupID labels the duplicate
// counter. Store failures fail open: a broken dedup cache must not stop
// bookings or reviews from being handled.
func IdempotentHandler(store IdempotencyStore, groupID string, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}

		seen, err := store.Contains(ctx, event.EventID)
		switch {
		case err != nil:
			logger.Warn("idempotency lookup failed, handling event anyway",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
		case seen:
			EventsDuplicate.WithLabelValues(event.EventType, groupID).Inc()
			logger.Debug("duplicate event skipped",
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
			)
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}

		if addErr := store.Add(ctx, event.EventID); addErr != nil {
			logger.Warn("could not record processed event ID",
				slog.String("event_id", event.EventID),
				slog.String("error", addErr.Error()),
			)
		}
		return nil
	}
}
