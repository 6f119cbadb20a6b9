package eventbus

import (
	"testing"
	"time"
)

func TestEventBus_PublishAndSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe(TopicGenerationRecorded)

	bus.Publish(TopicGenerationRecorded, "gen-1")

	select {
	case evt := <-ch:
		if evt.Topic != TopicGenerationRecorded {
			t.Errorf("expected topic %q, got %q", TopicGenerationRecorded, evt.Topic)
		}
		if evt.Payload != "gen-1" {
			t.Errorf("expected payload 'gen-1', got %v", evt.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout: expected event to be received within 100ms")
	}
}

func TestEventBus_MultipleSubscribers_AllReceive(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe("multi.topic")
	ch2 := bus.Subscribe("multi.topic")

	bus.Publish("multi.topic", 42)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Payload != 42 {
				t.Errorf("subscriber %d: expected payload 42, got %v", i, evt.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d: timeout waiting for event", i)
		}
	}
}

func TestEventBus_DifferentTopics_NoInterference(t *testing.T) {
	bus := New()
	chCompleted := bus.Subscribe(TopicTraceCompleted)
	chFailed := bus.Subscribe(TopicTraceFailed)

	bus.Publish(TopicTraceCompleted, "trace-1")

	select {
	case evt := <-chCompleted:
		if evt.Payload != "trace-1" {
			t.Errorf("trace.completed: unexpected payload %v", evt.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("trace.completed: timeout waiting for event")
	}

	// trace.failed should have received nothing
	select {
	case evt := <-chFailed:
		t.Errorf("trace.failed: received unexpected event: %v", evt)
	default:
		// correct — no event
	}
}

func TestEventBus_NonBlockingPublish_FullBuffer(t *testing.T) {
	bus := New()
	// Subscribe but never consume — buffer will fill up
	_ = bus.Subscribe("overflow.topic")

	done := make(chan struct{})
	go func() {
		for i := 0; i <= defaultBufferSize+10; i++ {
			bus.Publish("overflow.topic", i)
		}
		close(done)
	}()

	select {
	case <-done:
		// correct — publish never blocked
	case <-time.After(500 * time.Millisecond):
		t.Error("Publish blocked when buffer was full (should be non-blocking)")
	}
}
