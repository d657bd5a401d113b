package subscription

import (
	"context"
	"fmt"
	"log"
	"time"

	"animehub/pkg/models"
)

// Store is the slice of the persistent subscription store the sync loop
// needs.
type Store interface {
	ListAll(ctx context.Context) ([]models.Subscription, error)
	MaxChangeSeq(ctx context.Context) (int64, error)
	ListChangesSince(ctx context.Context, seq int64) ([]models.SubscriptionChange, error)
}

// Syncer keeps an Index consistent with the persistent store: a full load at
// startup, then incremental change-log polling. Store failures never block
// matching; the index simply serves its last known-good state while the next
// poll retries.
type Syncer struct {
	store       Store
	index       *Index
	interval    time.Duration
	maxFailures int

	lastSeq  int64
	failures int
}

func NewSyncer(store Store, index *Index, interval time.Duration, maxFailures int) *Syncer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if maxFailures <= 0 {
		maxFailures = 20
	}
	return &Syncer{store: store, index: index, interval: interval, maxFailures: maxFailures}
}

// Load populates the index from scratch. The change-log tail is captured
// before the row scan so no mutation between the two can be skipped;
// re-applying a change the scan already saw is harmless because Insert and
// Remove are idempotent.
func (s *Syncer) Load(ctx context.Context) error {
	seq, err := s.store.MaxChangeSeq(ctx)
	if err != nil {
		return fmt.Errorf("read change log tail: %w", err)
	}

	subs, err := s.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	for _, sub := range subs {
		if err := s.index.Insert(sub); err != nil {
			log.Printf("[sync] skipping invalid subscription %s: %v", sub.ID, err)
		}
	}
	s.lastSeq = seq

	log.Printf("[sync] loaded %d subscriptions (change seq %d)", s.index.Len(), seq)
	return nil
}

// Run polls the change log until the context is cancelled. Transient store
// errors are logged and retried on the next tick; after maxFailures
// consecutive failures Run gives up and returns the last error so the
// operator notices, leaving the index serving its last known-good state.
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.failures++
				log.Printf("[sync] poll failed (%d/%d): %v", s.failures, s.maxFailures, err)
				if s.failures >= s.maxFailures {
					return fmt.Errorf("subscription sync halted after %d failures: %w", s.failures, err)
				}
				continue
			}
			s.failures = 0
		}
	}
}

// Poll applies all change-log entries past the last seen sequence number.
func (s *Syncer) Poll(ctx context.Context) error {
	changes, err := s.store.ListChangesSince(ctx, s.lastSeq)
	if err != nil {
		return err
	}

	for _, ch := range changes {
		switch ch.Op {
		case models.ChangeCreate:
			if err := s.index.Insert(ch.Subscription); err != nil {
				log.Printf("[sync] skipping invalid subscription %s: %v", ch.Subscription.ID, err)
			}
		case models.ChangeDelete:
			s.index.Remove(ch.Subscription)
		default:
			log.Printf("[sync] unknown change op %q (seq %d)", ch.Op, ch.Seq)
		}
		s.lastSeq = ch.Seq
	}

	if len(changes) > 0 {
		log.Printf("[sync] applied %d changes, index size %d", len(changes), s.index.Len())
	}
	return nil
}
