package dispatch

import (
	"context"
	"errors"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"animehub/internal/discord"
	"animehub/internal/matcher"
	"animehub/pkg/models"
)

// ChatClient posts a message to a channel and returns the message ID.
type ChatClient interface {
	Post(ctx context.Context, channelID, content string) (string, error)
}

// AnimeDirectory resolves linked anime metadata for richer notifications.
// A nil result with a nil error means the anime is unknown.
type AnimeDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Anime, error)
}

// CleanupFunc is called when a delivery fails permanently, for example when
// the bot has been removed from the channel. The subscription is a candidate
// for removal but is never deleted here.
type CleanupFunc func(sub models.Subscription, err error)

// Dispatcher delivers matched announcements through a fixed pool of workers.
// Matches are routed to a worker by hashing the destination channel ID, so
// deliveries to one channel happen in arrival order while distinct channels
// proceed concurrently.
type Dispatcher struct {
	chat    ChatClient
	anime   AnimeDirectory
	records *RecordStore
	cleanup CleanupFunc

	queues []chan matcher.Match
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// drainMu orders Enqueue against Drain's queue closure: senders hold the
	// read side across the channel send, so the queues are only closed when
	// no send is in flight.
	drainMu sync.RWMutex
	closed  bool

	once sync.Once
}

func NewDispatcher(chat ChatClient, anime AnimeDirectory, records *RecordStore, workers, queueSize int, cleanup CleanupFunc) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		chat:    chat,
		anime:   anime,
		records: records,
		cleanup: cleanup,
		queues:  make([]chan matcher.Match, workers),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := range d.queues {
		d.queues[i] = make(chan matcher.Match, queueSize)
	}
	return d
}

// Start launches the worker pool. It is safe to call once.
func (d *Dispatcher) Start() {
	d.once.Do(func() {
		for _, q := range d.queues {
			d.wg.Add(1)
			go d.worker(q)
		}
	})
}

// Enqueue hands a match to the worker owning its channel. It blocks when the
// worker's queue is full, which pushes backpressure up to the stream consumer.
// Enqueue after Drain has started drops the match with a log line instead of
// panicking on the closed queue; callers that must not lose work stop their
// intake before draining.
func (d *Dispatcher) Enqueue(m matcher.Match) {
	h := fnv.New32a()
	h.Write([]byte(m.Subscription.ChannelID))
	i := h.Sum32() % uint32(len(d.queues))

	d.drainMu.RLock()
	defer d.drainMu.RUnlock()
	if d.closed {
		log.Printf("[dispatch] dropping match for channel %s: dispatcher is draining", m.Subscription.ChannelID)
		return
	}
	d.queues[i] <- m
}

// Drain closes the queues, lets workers finish in-flight and queued work for
// up to grace, then cancels whatever is left. Drain is safe to call while
// other goroutines are still in Enqueue, and is idempotent.
func (d *Dispatcher) Drain(grace time.Duration) {
	d.drainMu.Lock()
	if !d.closed {
		d.closed = true
		for _, q := range d.queues {
			close(q)
		}
	}
	d.drainMu.Unlock()
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		log.Printf("[dispatch] drain grace expired, abandoning in-flight deliveries")
	}
	d.cancel()
}

func (d *Dispatcher) worker(queue <-chan matcher.Match) {
	defer d.wg.Done()
	for m := range queue {
		d.deliver(m)
	}
}

func (d *Dispatcher) deliver(m matcher.Match) {
	identity := releaseIdentity(m.Subscription, m.Announcement)
	channelID := m.Subscription.ChannelID

	if !d.records.Reserve(channelID, identity) {
		return
	}

	var meta *models.Anime
	if m.Subscription.AnimeID != "" && d.anime != nil {
		a, err := d.anime.GetByID(d.ctx, m.Subscription.AnimeID)
		if err != nil {
			log.Printf("[dispatch] anime lookup failed for %s: %v", m.Subscription.AnimeID, err)
		} else {
			meta = a
		}
	}

	content := formatNotification(m.Announcement, meta)
	if _, err := d.chat.Post(d.ctx, channelID, content); err != nil {
		d.records.Release(channelID, identity)
		if discord.IsPermanent(err) {
			log.Printf("[dispatch] permanent delivery failure for channel %s: %v", channelID, err)
			if d.cleanup != nil {
				d.cleanup(m.Subscription, err)
			}
			return
		}
		if !errors.Is(err, context.Canceled) {
			log.Printf("[dispatch] delivery failed for channel %s: %v", channelID, err)
		}
		return
	}

	d.records.Commit(channelID, identity)
}
