package workers

import (
	"context"
	"testing"
	"time"

	"estate_admin/models"
	"estate_admin/services"
	"estate_admin/storage"
)

func receive(t *testing.T, ch <-chan models.ListingEvent) models.ListingEvent {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return e
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return models.ListingEvent{}
}

func expectNone(t *testing.T, ch <-chan models.ListingEvent) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
}

func TestListingWatcher_DeliversServiceEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := storage.NewMemoryKV()
	w := NewListingWatcher(kv)
	svc := services.NewListingService(kv)
	svc.SetPublisher(w)

	events := w.Subscribe(ctx)

	p, err := svc.CreateProperty(ctx, models.PropertyInput{Title: "A", Type: models.PropertyTypeHouse, Operation: models.OperationSale})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	e := receive(t, events)
	if e.Kind != models.ListingEventCreated || e.ID != p.ID {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestListingWatcher_DetectsExternalWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := storage.NewMemoryKV()
	w := NewListingWatcher(kv)
	events := w.Subscribe(ctx)

	// first poll only records the baseline
	w.poll(ctx)
	expectNone(t, events)

	w.poll(ctx)
	expectNone(t, events)

	kv.Set(ctx, services.PropertiesKey, `[{"id":"x"}]`)
	w.poll(ctx)

	e := receive(t, events)
	if e.Kind != models.ListingEventExternal {
		t.Fatalf("expected external event, got %+v", e)
	}
}

func TestListingWatcher_OwnWritesAreNotExternal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := storage.NewMemoryKV()
	w := NewListingWatcher(kv)
	svc := services.NewListingService(kv)
	svc.SetPublisher(w)
	events := w.Subscribe(ctx)

	w.poll(ctx)
	if _, err := svc.InitializeSampleData(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if e := receive(t, events); e.Kind != models.ListingEventSeeded {
		t.Fatalf("expected seeded event, got %+v", e)
	}

	w.poll(ctx)
	expectNone(t, events)
}

func TestListingWatcher_SubscriptionEndsWithContext(t *testing.T) {
	kv := storage.NewMemoryKV()
	w := NewListingWatcher(kv)

	ctx, cancel := context.WithCancel(context.Background())
	events := w.Subscribe(ctx)
	if w.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber")
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription not closed")
	}
	if w.SubscriberCount() != 0 {
		t.Fatalf("expected subscriber removed")
	}

	// publishing with nobody listening must not block or panic
	w.Publish(models.ListingEvent{Kind: models.ListingEventDeleted, ID: "x"})
}

func TestListingWatcher_SlowSubscriberDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewListingWatcher(storage.NewMemoryKV())
	events := w.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			w.Publish(models.ListingEvent{Kind: models.ListingEventUpdated, ID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
	if len(events) != subscriberBuffer {
		t.Fatalf("expected buffer full at %d, got %d", subscriberBuffer, len(events))
	}
}

func TestListingWatcher_RunPollsOnTrigger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := storage.NewMemoryKV()
	w := NewListingWatcher(kv)
	events := w.Subscribe(ctx)

	go w.Run(ctx, time.Hour)
	// wait until the initial baseline poll has happened
	deadline := time.Now().Add(time.Second)
	for {
		w.mu.Lock()
		ready := w.baseline
		w.mu.Unlock()
		if ready {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher never polled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	kv.Set(ctx, services.PropertiesKey, "[]")
	w.Trigger()

	if e := receive(t, events); e.Kind != models.ListingEventExternal {
		t.Fatalf("expected external event, got %+v", e)
	}
}

func TestListingWatcher_ExternalWriteAfterOwnWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := storage.NewMemoryKV()
	w := NewListingWatcher(kv)
	svc := services.NewListingService(kv)
	svc.SetPublisher(w)
	events := w.Subscribe(ctx)

	w.poll(ctx)
	if _, err := svc.CreateProperty(ctx, models.PropertyInput{Title: "A", Type: models.PropertyTypeHouse, Operation: models.OperationSale}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if e := receive(t, events); e.Kind != models.ListingEventCreated {
		t.Fatalf("expected created event, got %+v", e)
	}

	// another process overwrites before we poll again
	kv.Set(ctx, services.PropertiesKey, `[{"id":"other-process"}]`)
	w.poll(ctx)

	if e := receive(t, events); e.Kind != models.ListingEventExternal {
		t.Fatalf("expected external event, got %+v", e)
	}
	w.poll(ctx)
	expectNone(t, events)
}

func TestListingWatcher_PollBetweenWriteAndPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := storage.NewMemoryKV()
	w := NewListingWatcher(kv)
	events := w.Subscribe(ctx)
	w.poll(ctx)

	own := `[{"id":"mine"}]`
	w.Expect(own)
	kv.Set(ctx, services.PropertiesKey, own)
	w.poll(ctx)
	expectNone(t, events)

	w.Publish(models.ListingEvent{Kind: models.ListingEventCreated, ID: "mine", State: own})
	if e := receive(t, events); e.Kind != models.ListingEventCreated {
		t.Fatalf("expected created event, got %+v", e)
	}
	w.poll(ctx)
	expectNone(t, events)
}

func TestListingWatcher_ForgetsFailedWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := storage.NewMemoryKV()
	w := NewListingWatcher(kv)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }
	events := w.Subscribe(ctx)
	w.poll(ctx)

	// the write never reaches the substrate
	w.Expect(`[{"id":"lost"}]`)
	clock = clock.Add(2 * pendingTTL)
	w.poll(ctx)

	w.mu.Lock()
	left := len(w.pending)
	w.mu.Unlock()
	if left != 0 {
		t.Fatalf("expected stale expectation dropped, %d left", left)
	}

	// the same content later written by someone else is external
	kv.Set(ctx, services.PropertiesKey, `[{"id":"lost"}]`)
	w.poll(ctx)
	if e := receive(t, events); e.Kind != models.ListingEventExternal {
		t.Fatalf("expected external event, got %+v", e)
	}
}
