package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelops/turnkey/internal/eventbus"
)

type memoryRepo struct {
	events []*Event
}

func (r *memoryRepo) Save(_ context.Context, ev *Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *memoryRepo) List(_ context.Context, _, _ string) ([]*Event, error) {
	return r.events, nil
}

type stubDetector struct {
	change Change
	fired  bool
}

func (d stubDetector) Detect(_ context.Context, _, _ Snapshot) (Change, bool) {
	return d.change, d.fired
}

type panicDetector struct{}

func (panicDetector) Detect(_ context.Context, _, _ Snapshot) (Change, bool) {
	panic("boom")
}

func TestTrackerRecordsFiredChangesInOrder(t *testing.T) {
	repo := &memoryRepo{}
	tracker := NewTracker(repo, "task", []Detector{
		stubDetector{change: Change{Event: "first"}, fired: true},
		stubDetector{fired: false},
		stubDetector{change: Change{Event: "third"}, fired: true},
	})

	committer := Committer{ID: "op1", Name: "Ana", Role: RoleOperator}
	recorded := tracker.Track(context.Background(), committer, "T1", Snapshot{"x": "1"}, Snapshot{"x": "2"})
	require.True(t, recorded)

	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, "task", ev.ContextAlias)
	assert.Equal(t, "T1", ev.ContextID)
	assert.Equal(t, committer, ev.Committer)
	assert.NotEmpty(t, ev.ID)
	require.Len(t, ev.Changes, 2)
	assert.Equal(t, "first", ev.Changes[0].Event)
	assert.Equal(t, "third", ev.Changes[1].Event)
}

func TestTrackerNothingFiredNothingWritten(t *testing.T) {
	repo := &memoryRepo{}
	tracker := NewTracker(repo, "task", []Detector{
		stubDetector{fired: false},
		stubDetector{fired: false},
	})

	recorded := tracker.Track(context.Background(), Committer{Role: RoleAdmin}, "T1", Snapshot{"x": "1"}, Snapshot{"x": "1"})
	assert.False(t, recorded)
	assert.Empty(t, repo.events)
}

func TestTrackerSkipsPanickingDetector(t *testing.T) {
	repo := &memoryRepo{}
	tracker := NewTracker(repo, "task", []Detector{
		panicDetector{},
		stubDetector{change: Change{Event: "survivor"}, fired: true},
	})

	recorded := tracker.Track(context.Background(), Committer{Role: RoleAdmin}, "T1", Snapshot{}, Snapshot{"x": "1"})
	require.True(t, recorded)
	require.Len(t, repo.events, 1)
	require.Len(t, repo.events[0].Changes, 1)
	assert.Equal(t, "survivor", repo.events[0].Changes[0].Event)
}

func TestTrackerGuestSubstitution(t *testing.T) {
	repo := &memoryRepo{}
	tracker := NewTracker(repo, "task", []Detector{
		stubDetector{change: Change{Event: "any"}, fired: true},
	}, WithGuestSubstitution())

	guest := Committer{ID: "guest-123", Name: "Walk In", Role: RoleGuest}
	recorded := tracker.Track(context.Background(), guest, "T1", Snapshot{}, Snapshot{"x": "1"})
	require.True(t, recorded)

	// The guest identity never reaches storage.
	got := repo.events[0].Committer
	assert.Equal(t, ScheduleCommitter(), got)
	assert.Empty(t, got.ID)
	assert.Empty(t, got.Name)

	// Non-guest committers pass through untouched.
	op := Committer{ID: "op1", Name: "Ana", Role: RoleOperator}
	tracker.Track(context.Background(), op, "T2", Snapshot{}, Snapshot{"x": "1"})
	assert.Equal(t, op, repo.events[1].Committer)
}

func TestTrackerWithoutSubstitutionKeepsGuest(t *testing.T) {
	repo := &memoryRepo{}
	tracker := NewTracker(repo, "booking", []Detector{
		stubDetector{change: Change{Event: "any"}, fired: true},
	})

	guest := Committer{ID: "guest-123", Role: RoleGuest}
	tracker.Track(context.Background(), guest, "B1", Snapshot{}, Snapshot{"x": "1"})
	assert.Equal(t, guest, repo.events[0].Committer)
}

type failingRepo struct{}

func (failingRepo) Save(_ context.Context, _ *Event) error {
	return errors.New("disk full")
}

func (failingRepo) List(_ context.Context, _, _ string) ([]*Event, error) {
	return nil, nil
}

func TestTrackerSwallowsSaveFailure(t *testing.T) {
	bus := eventbus.New()
	_, ch := bus.Subscribe(1)
	tracker := NewTracker(failingRepo{}, "task", []Detector{
		stubDetector{change: Change{Event: "any"}, fired: true},
	}, WithBus(bus))

	recorded := tracker.Track(context.Background(), Committer{Role: RoleAdmin}, "T1", Snapshot{}, Snapshot{"x": "1"})

	// The change was detected even though persisting it failed.
	assert.True(t, recorded)
	// An event that never reached storage is never announced.
	select {
	case ev := <-ch:
		t.Fatalf("unexpected bus event %q", ev.Type)
	default:
	}
}

func TestTrackerAnnouncesRecordedEvent(t *testing.T) {
	repo := &memoryRepo{}
	bus := eventbus.New()
	_, ch := bus.Subscribe(1)
	tracker := NewTracker(repo, "task", []Detector{
		stubDetector{change: Change{Event: "any"}, fired: true},
	}, WithBus(bus))

	require.True(t, tracker.Track(context.Background(), Committer{Role: RoleAdmin}, "T1", Snapshot{}, Snapshot{"x": "1"}))

	select {
	case ev := <-ch:
		assert.Equal(t, eventbus.EventHistoryRecorded, ev.Type)
		assert.Equal(t, "T1", ev.ResourceID)
		assert.Equal(t, repo.events[0].ID, ev.Payload)
		assert.Equal(t, "task", ev.Metadata["context_alias"])
	default:
		t.Fatal("no bus event published")
	}
}
