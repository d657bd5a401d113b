package subscription

import (
	"errors"
	"strings"
	"sync"

	"animehub/pkg/models"
)

// ErrInvalidSubscription rejects subscriptions with an empty substring at
// insertion time, so matching never has to deal with them.
var ErrInvalidSubscription = errors.New("subscription substring is empty")

// Index holds the in-memory mirror of all live subscriptions, bucketed by
// partition key so a lookup touches only the buckets reachable from the
// title's character windows instead of every subscription.
//
// Lookups are frequent and concurrent (one per stream announcement);
// mutations are occasional (change-log sync). A reader-writer lock keeps the
// writer critical section to a single bucket update.
type Index struct {
	mu      sync.RWMutex
	buckets map[string]map[string]models.Subscription // partition key -> sub ID -> sub
	size    int
}

func NewIndex() *Index {
	return &Index{buckets: make(map[string]map[string]models.Subscription)}
}

// Insert adds a subscription to its bucket. The partition key is recomputed
// from the substring, never trusted from the stored row.
func (ix *Index) Insert(sub models.Subscription) error {
	key := PartitionKey(sub.Substring)
	if key == "" {
		return ErrInvalidSubscription
	}
	sub.PartitionKey = key

	ix.mu.Lock()
	defer ix.mu.Unlock()

	bucket, ok := ix.buckets[key]
	if !ok {
		bucket = make(map[string]models.Subscription)
		ix.buckets[key] = bucket
	}
	if _, exists := bucket[sub.ID]; !exists {
		ix.size++
	}
	bucket[sub.ID] = sub
	return nil
}

// Remove deletes a subscription from its bucket. Removing a subscription that
// was never inserted is a no-op.
func (ix *Index) Remove(sub models.Subscription) {
	key := PartitionKey(sub.Substring)
	if key == "" {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	bucket, ok := ix.buckets[key]
	if !ok {
		return
	}
	if _, exists := bucket[sub.ID]; !exists {
		return
	}
	delete(bucket, sub.ID)
	ix.size--
	if len(bucket) == 0 {
		delete(ix.buckets, key)
	}
}

// Lookup returns every subscription whose normalized substring occurs in the
// normalized title.
//
// Candidate buckets are found by generating, at each rune offset of the
// title, every window of length 1..PartitionWidth (bounded by the remaining
// length). Windows shorter than the partition width are required: a
// subscription whose substring is shorter than the width is bucketed under
// its full normalized substring, which only ever appears as a short window.
// The bucket fetch is a pre-filter; each candidate is confirmed by checking
// that its full substring occurs in the title.
func (ix *Index) Lookup(title string) []models.Subscription {
	norm := Normalize(title)
	if norm == "" {
		return nil
	}
	runes := []rune(norm)

	keys := make(map[string]struct{})
	for i := range runes {
		max := len(runes) - i
		if max > PartitionWidth {
			max = PartitionWidth
		}
		for l := 1; l <= max; l++ {
			keys[string(runes[i:i+l])] = struct{}{}
		}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []models.Subscription
	seen := make(map[string]struct{})
	for key := range keys {
		for id, sub := range ix.buckets[key] {
			if _, dup := seen[id]; dup {
				continue
			}
			if strings.Contains(norm, Normalize(sub.Substring)) {
				seen[id] = struct{}{}
				out = append(out, sub)
			}
		}
	}
	return out
}

// Len reports the number of indexed subscriptions.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}
