package stream

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestHubBroadcastReachesTopicSubscribers(t *testing.T) {
	hub := NewHub()
	a := newRecorder(nil)
	b := newRecorder(nil)
	other := newRecorder(nil)

	hub.Register("link-1", a)
	hub.Register("link-1", b)
	hub.Register("link-2", other)

	hub.Broadcast("link-1", []byte("event"))

	waitFor(t, func() bool { return a.count() == 1 && b.count() == 1 })
	if other.count() != 0 {
		t.Fatalf("subscriber on another topic received %d messages", other.count())
	}
}

func TestHubEvictsFailingSubscriber(t *testing.T) {
	hub := NewHub()
	failing := newRecorder(errors.New("write failed"))
	healthy := newRecorder(nil)

	hub.Register("link-1", failing)
	hub.Register("link-1", healthy)

	hub.Broadcast("link-1", []byte("first"))
	waitFor(t, func() bool { return healthy.count() == 1 })
	waitFor(t, func() bool { return failing.closedCount() == 1 })

	hub.Broadcast("link-1", []byte("second"))
	waitFor(t, func() bool { return healthy.count() == 2 })
	if failing.count() != 1 {
		t.Fatalf("evicted subscriber received %d sends", failing.count())
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	sub := newRecorder(nil)
	hub.Register("link-1", sub)
	hub.Broadcast("link-1", []byte("one"))
	waitFor(t, func() bool { return sub.count() == 1 })

	hub.Unregister("link-1", sub)
	hub.Broadcast("link-1", []byte("two"))

	time.Sleep(50 * time.Millisecond)
	if sub.count() != 1 {
		t.Fatalf("expected no delivery after unregister, got %d", sub.count())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

type recorder struct {
	mu      sync.Mutex
	sendErr error
	sends   int
	closes  int
}

func newRecorder(sendErr error) *recorder {
	return &recorder{sendErr: sendErr}
}

func (r *recorder) Send(_ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends++
	return r.sendErr
}

func (r *recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sends
}

func (r *recorder) closedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closes
}
