package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := New()
	_, ch1 := bus.Subscribe(4)
	_, ch2 := bus.Subscribe(4)

	bus.PublishNew(EventTaskCreated, "T1", "", map[string]string{"origin": "schedule"})

	for _, ch := range []<-chan *Event{ch1, ch2} {
		ev := <-ch
		assert.Equal(t, EventTaskCreated, ev.Type)
		assert.Equal(t, "T1", ev.ResourceID)
		assert.Equal(t, "schedule", ev.Metadata["origin"])
		assert.NotEmpty(t, ev.ID)
	}
}

func TestPublishNeverBlocksOnFullBuffer(t *testing.T) {
	bus := New()
	_, ch := bus.Subscribe(1)

	bus.PublishNew(EventTaskCreated, "T1", "", nil)
	// The second publish overflows the buffer and is dropped, not queued.
	bus.PublishNew(EventTaskCreated, "T2", "", nil)

	ev := <-ch
	assert.Equal(t, "T1", ev.ResourceID)
	select {
	case extra := <-ch:
		t.Fatalf("expected dropped event, got %v", extra)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe reaches nobody and does not panic.
	bus.PublishNew(EventTaskDeleted, "T1", "", nil)
}
