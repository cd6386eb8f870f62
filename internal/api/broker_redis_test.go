package api

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"fleetplan/internal/model"
)

func newTestRedisBroker(t *testing.T) *RedisBroker {
	t.Helper()
	mr := miniredis.RunT(t)
	b, err := NewRedisBroker("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisBroker: %v", err)
	}
	return b
}

func TestRedisBrokerPublishSubscribe(t *testing.T) {
	b := newTestRedisBroker(t)
	ch := b.Subscribe("j1")
	defer b.Unsubscribe("j1", ch)

	b.Publish("j1", model.ProgressEvent{JobID: "j1", Generation: 5, BestCost: 10.5})

	select {
	case got := <-ch:
		if got.Generation != 5 || got.BestCost != 10.5 {
			t.Fatalf("bad event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

// A client unsubscribing while the solver is still publishing must not
// bring the process down: only the reader goroutine closes the channel,
// and it closes it exactly once.
func TestRedisBrokerUnsubscribeDuringPublish(t *testing.T) {
	b := newTestRedisBroker(t)
	ch := b.Subscribe("j2")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			b.Publish("j2", model.ProgressEvent{JobID: "j2", Generation: i})
		}
	}()

	// wait until events are flowing, then drop the subscription mid-stream
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no events before unsubscribe")
	}
	b.Unsubscribe("j2", ch)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				close(stop)
				wg.Wait()
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after unsubscribe")
		}
	}
}

func TestRedisBrokerUnsubscribeUnknownChannelIsNoop(t *testing.T) {
	b := newTestRedisBroker(t)
	ch := make(chan model.ProgressEvent)
	b.Unsubscribe("j3", ch) // never subscribed; must not panic or close ch
	select {
	case <-ch:
		t.Fatal("channel should stay open")
	default:
	}
}
