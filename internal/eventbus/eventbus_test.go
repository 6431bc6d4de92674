package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBus_PublishDelivers(t *testing.T) {
	b := New(zap.NewNop(), 8)
	b.Start()
	defer b.Stop()

	var mu sync.Mutex
	var got []Event
	b.Subscribe(EventQueue, nil, func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	})

	b.Publish(Event{Type: EventQueue, Source: "test"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, time.Millisecond)
}

func TestBus_FilterExcludes(t *testing.T) {
	b := New(zap.NewNop(), 8)
	b.Start()
	defer b.Stop()

	delivered := make(chan struct{}, 1)
	b.Subscribe(EventUpdate, func(ev Event) bool { return ev.Source == "match" }, func(ev Event) {
		delivered <- struct{}{}
	})

	b.Publish(Event{Type: EventUpdate, Source: "nomatch"})
	select {
	case <-delivered:
		t.Fatal("handler should not have been invoked")
	case <-time.After(50 * time.Millisecond):
	}

	b.Publish(Event{Type: EventUpdate, Source: "match"})
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked for matching event")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New(zap.NewNop(), 8)
	b.Start()
	defer b.Stop()

	called := make(chan struct{}, 1)
	id := b.Subscribe(EventRating, nil, func(ev Event) { called <- struct{}{} })
	b.Unsubscribe(id)

	b.Publish(Event{Type: EventRating})
	select {
	case <-called:
		t.Fatal("unsubscribed handler should not fire")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_Replace(t *testing.T) {
	b := New(zap.NewNop(), 8)
	b.Start()
	defer b.Stop()

	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)
	id := b.Subscribe(EventPairing, nil, func(ev Event) { first <- struct{}{} })
	b.Replace(id, EventPairing, nil, func(ev Event) { second <- struct{}{} })

	b.Publish(Event{Type: EventPairing})
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("replacement handler did not fire")
	}
	select {
	case <-first:
		t.Fatal("original handler should have been replaced")
	default:
	}
}

func TestBus_PublishBeforeStart_QueuesUntilStart(t *testing.T) {
	b := New(zap.NewNop(), 8)
	called := make(chan struct{}, 1)
	b.Subscribe(EventDatabase, nil, func(ev Event) { called <- struct{}{} })

	b.Publish(Event{Type: EventDatabase})
	b.Start()
	defer b.Stop()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("queued event was not delivered after Start")
	}
}

func TestBus_HandlerPanicDoesNotCrashDispatch(t *testing.T) {
	b := New(zap.NewNop(), 8)
	b.Start()
	defer b.Stop()

	b.Subscribe(EventSpotify, nil, func(ev Event) { panic("boom") })

	after := make(chan struct{}, 1)
	b.Subscribe(EventSpotify, nil, func(ev Event) { after <- struct{}{} })

	b.Publish(Event{Type: EventSpotify})
	select {
	case <-after:
	case <-time.After(time.Second):
		t.Fatal("subsequent handler did not run after a panicking one")
	}
	assert.True(t, true)
}
