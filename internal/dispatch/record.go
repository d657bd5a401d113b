package dispatch

import (
	"context"
	"log"
	"sync"
	"time"
)

type recordKey struct {
	channelID string
	identity  string
}

type record struct {
	deliveredAt time.Time
	pending     bool
}

// RecordStore remembers which release identities were recently posted to
// which channels, making stream redelivery idempotent. Reserve/Commit/Release
// make the check-then-record sequence atomic per key, so two workers racing
// on the same (channel, identity) cannot both post.
//
// Entries older than the retention window are evicted by Trim; a Run loop
// does this periodically.
type RecordStore struct {
	mu      sync.Mutex
	entries map[recordKey]record
	ttl     time.Duration
	now     func() time.Time
}

func NewRecordStore(ttl time.Duration) *RecordStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RecordStore{
		entries: make(map[recordKey]record),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Reserve claims (channelID, identity) for delivery. It returns false when a
// delivery within the retention window already happened or another worker
// holds the claim. A successful reservation must be finished with Commit or
// Release.
func (rs *RecordStore) Reserve(channelID, identity string) bool {
	key := recordKey{channelID, identity}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if entry, ok := rs.entries[key]; ok {
		if entry.pending || rs.now().Sub(entry.deliveredAt) < rs.ttl {
			return false
		}
	}
	rs.entries[key] = record{pending: true}
	return true
}

// Commit marks a reserved delivery as done, starting its retention window.
func (rs *RecordStore) Commit(channelID, identity string) {
	key := recordKey{channelID, identity}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.entries[key] = record{deliveredAt: rs.now()}
}

// Release drops a reservation after a failed delivery so a later redelivery
// can try again.
func (rs *RecordStore) Release(channelID, identity string) {
	key := recordKey{channelID, identity}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if entry, ok := rs.entries[key]; ok && entry.pending {
		delete(rs.entries, key)
	}
}

// Trim evicts entries past the retention window.
func (rs *RecordStore) Trim() {
	cutoff := rs.now().Add(-rs.ttl)

	rs.mu.Lock()
	defer rs.mu.Unlock()
	for key, entry := range rs.entries {
		if !entry.pending && entry.deliveredAt.Before(cutoff) {
			delete(rs.entries, key)
		}
	}
}

// Run trims on an interval until the context is cancelled.
func (rs *RecordStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := rs.Len()
			rs.Trim()
			if evicted := before - rs.Len(); evicted > 0 {
				log.Printf("[dispatch] trimmed %d dedup records", evicted)
			}
		}
	}
}

func (rs *RecordStore) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.entries)
}
