package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"estate_admin/logging"
	"estate_admin/models"
	"estate_admin/services"
	"estate_admin/storage"
)

const (
	subscriberBuffer = 16
	// an expected value whose write never landed is forgotten after this
	pendingTTL = time.Minute
)

// ListingWatcher fans listing events out to subscribers. Mutations made
// through this process arrive via Publish; writes by other processes sharing
// the substrate are noticed by polling the raw collection value.
type ListingWatcher struct {
	kv        storage.KV
	triggerCh chan struct{}
	logFunc   LogFunc
	now       func() time.Time

	mu     sync.Mutex
	subs   map[int]chan models.ListingEvent
	nextID int

	// snapshot of the raw collection value as last observed
	last     string
	baseline bool
	// values this process is writing that neither poll nor Publish has
	// accounted for yet
	pending map[string]time.Time
}

func NewListingWatcher(kv storage.KV) *ListingWatcher {
	return &ListingWatcher{
		kv:        kv,
		triggerCh: make(chan struct{}, 1),
		logFunc:   NoOpLogger,
		now:       func() time.Time { return time.Now().UTC() },
		subs:      make(map[int]chan models.ListingEvent),
		pending:   make(map[string]time.Time),
	}
}

func (w *ListingWatcher) SetLogger(fn LogFunc) {
	w.logFunc = fn
}

// Subscribe returns a channel of events that is closed once ctx is done.
// A subscriber that falls behind misses events rather than blocking writers.
func (w *ListingWatcher) Subscribe(ctx context.Context) <-chan models.ListingEvent {
	ch := make(chan models.ListingEvent, subscriberBuffer)

	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = ch
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		delete(w.subs, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// Expect implements services.WriteExpecter. A poll that sees value before
// the matching Publish adopts it silently.
func (w *ListingWatcher) Expect(value string) {
	w.mu.Lock()
	w.pending[value] = w.now()
	w.mu.Unlock()
}

// Publish implements services.Publisher.
func (w *ListingWatcher) Publish(event models.ListingEvent) {
	if event.State != "" {
		w.mu.Lock()
		// Only move the snapshot if no poll has seen this value yet. A poll
		// that already adopted it may have moved on to a newer external value.
		if _, ok := w.pending[event.State]; ok {
			delete(w.pending, event.State)
			if w.baseline {
				w.last = event.State
			}
		}
		w.mu.Unlock()
	}

	w.broadcast(event)
}

// Trigger causes the watcher to poll immediately
func (w *ListingWatcher) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run polls the substrate every interval until ctx is done.
func (w *ListingWatcher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			logging.Debugf("Listing watcher stopping")
			return
		case <-ticker.C:
			w.poll(ctx)
		case <-w.triggerCh:
			w.poll(ctx)
		}
	}
}

func (w *ListingWatcher) poll(ctx context.Context) {
	raw, _, err := w.kv.Get(ctx, services.PropertiesKey)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warnf("Listing watcher: read failed: %v", err)
			w.logFunc(logging.LevelWarn, "watcher", fmt.Sprintf("read failed: %v", err))
		}
		return
	}

	w.mu.Lock()
	changed := w.baseline && raw != w.last
	if _, own := w.pending[raw]; own {
		delete(w.pending, raw)
		changed = false
	}
	w.last = raw
	w.baseline = true
	w.prunePending()
	w.mu.Unlock()

	if changed {
		logging.Infof("Listing watcher: collection changed externally")
		w.logFunc(logging.LevelInfo, "watcher", "listings changed by another process")
		w.broadcast(models.ListingEvent{Kind: models.ListingEventExternal, Timestamp: w.now()})
	}
}

// prunePending drops expected values whose write failed. Callers hold w.mu.
func (w *ListingWatcher) prunePending() {
	cutoff := w.now().Add(-pendingTTL)
	for v, at := range w.pending {
		if at.Before(cutoff) {
			delete(w.pending, v)
		}
	}
}

func (w *ListingWatcher) broadcast(event models.ListingEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, ch := range w.subs {
		select {
		case ch <- event:
		default:
			logging.Debugf("Listing watcher: subscriber %d full, dropped %s event", id, event.Kind)
		}
	}
}

// SubscriberCount reports how many subscriptions are live.
func (w *ListingWatcher) SubscriberCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}
