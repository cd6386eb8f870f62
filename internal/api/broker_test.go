package api

import (
	"testing"
	"time"

	"fleetplan/internal/model"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	jobID := "j1"
	ch := b.Subscribe(jobID)

	evt := model.ProgressEvent{JobID: jobID, Generation: 3, BestCost: 42.5}
	b.Publish(jobID, evt)

	select {
	case got := <-ch:
		if got.Generation != 3 || got.BestCost != 42.5 {
			t.Fatalf("bad event: %+v", got)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(jobID, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		// acceptable if already drained and closed
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("j2")
	defer b.Unsubscribe("j2", ch)

	// overflow the buffered channel; Publish must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("j2", model.ProgressEvent{Generation: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBrokerIsolatesJobs(t *testing.T) {
	b := NewBroker()
	chA := b.Subscribe("a")
	defer b.Unsubscribe("a", chA)
	chB := b.Subscribe("b")
	defer b.Unsubscribe("b", chB)

	b.Publish("a", model.ProgressEvent{JobID: "a"})
	select {
	case evt := <-chA:
		if evt.JobID != "a" {
			t.Fatalf("wrong event: %+v", evt)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("subscriber a got nothing")
	}
	select {
	case evt := <-chB:
		t.Fatalf("subscriber b should get nothing, got %+v", evt)
	default:
	}
}
