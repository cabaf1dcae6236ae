package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelops/turnkey/internal/history"
)

type memoryHistoryRepo struct {
	events []*history.Event
}

func (r *memoryHistoryRepo) Save(_ context.Context, ev *history.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *memoryHistoryRepo) List(_ context.Context, _, _ string) ([]*history.Event, error) {
	return r.events, nil
}

type staticResolver map[string]string

func (r staticResolver) OperatorName(_ context.Context, id string) string {
	return r[id]
}

func passthroughLabel(s string) string { return s }

func TestSnapshot(t *testing.T) {
	due := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	snap := Snapshot(&Task{
		Title:       "Turnover Cleaning",
		Status:      "pending",
		DueAt:       due,
		BookingID:   "B1",
		RoomID:      "204",
		TagIDs:      []string{"deep"},
		OperatorIDs: nil,
	})

	assert.Equal(t, "Turnover Cleaning", snap[FieldTitle])
	assert.Equal(t, "pending", snap[FieldStatus])
	assert.Equal(t, "2026-03-12T10:00:00Z", snap[FieldDueAt])
	assert.Equal(t, `["deep"]`, snap[FieldTagIDs])
	assert.Equal(t, "[]", snap[FieldOperatorIDs])
}

func TestSnapshotNilTaskIsEmpty(t *testing.T) {
	assert.Empty(t, Snapshot(nil))
}

func TestHistoryTrackerRecordsCreation(t *testing.T) {
	repo := &memoryHistoryRepo{}
	tracker := NewHistoryTracker(repo, nil, passthroughLabel)

	created := &Task{ID: "T1", Title: "Turnover Cleaning", Status: "pending"}
	recorded := tracker.Track(context.Background(),
		history.Committer{ID: "op1", Role: history.RoleOperator},
		created.ID, history.Snapshot{}, Snapshot(created))
	require.True(t, recorded)

	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, HistoryContextAlias, ev.ContextAlias)
	require.Len(t, ev.Changes, 1)
	assert.Equal(t, "insert", ev.Changes[0].Event)
	assert.Contains(t, ev.Changes[0].Description, "Turnover Cleaning")
}

func TestHistoryTrackerNoChangeNoEvent(t *testing.T) {
	repo := &memoryHistoryRepo{}
	tracker := NewHistoryTracker(repo, nil, passthroughLabel)

	tk := &Task{ID: "T1", Title: "Same", Status: "pending"}
	recorded := tracker.Track(context.Background(),
		history.Committer{Role: history.RoleAdmin},
		tk.ID, Snapshot(tk), Snapshot(tk))
	assert.False(t, recorded)
	assert.Empty(t, repo.events)
}

func TestHistoryTrackerResolvesOperatorNames(t *testing.T) {
	repo := &memoryHistoryRepo{}
	tracker := NewHistoryTracker(repo, staticResolver{"op1": "Ana"}, passthroughLabel)

	before := &Task{ID: "T1", Title: "Clean", Status: "pending"}
	after := &Task{ID: "T1", Title: "Clean", Status: "pending", OperatorIDs: []string{"op1", "op2"}}
	recorded := tracker.Track(context.Background(),
		history.Committer{Role: history.RoleAdmin},
		"T1", Snapshot(before), Snapshot(after))
	require.True(t, recorded)

	require.Len(t, repo.events, 1)
	require.Len(t, repo.events[0].Changes, 1)
	desc := repo.events[0].Changes[0].Description
	// op1 resolves to a display name; op2 is unknown and stays raw.
	assert.Contains(t, desc, "Ana")
	assert.Contains(t, desc, "op2")
}

func TestHistoryTrackerSubstitutesGuests(t *testing.T) {
	repo := &memoryHistoryRepo{}
	tracker := NewHistoryTracker(repo, nil, passthroughLabel)

	created := &Task{ID: "T1", Title: "Clean", Status: "pending"}
	tracker.Track(context.Background(),
		history.Committer{ID: "guest-1", Name: "Walk In", Role: history.RoleGuest},
		"T1", history.Snapshot{}, Snapshot(created))

	require.Len(t, repo.events, 1)
	assert.Equal(t, history.ScheduleCommitter(), repo.events[0].Committer)
}

func TestHistoryTrackerChangeOrdering(t *testing.T) {
	repo := &memoryHistoryRepo{}
	tracker := NewHistoryTracker(repo, nil, passthroughLabel)

	due := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	before := &Task{ID: "T1", Title: "Old", Status: "pending", DueAt: due}
	after := &Task{ID: "T1", Title: "New", Status: "ongoing", DueAt: due.AddDate(0, 0, 1)}

	tracker.Track(context.Background(),
		history.Committer{Role: history.RoleAdmin},
		"T1", Snapshot(before), Snapshot(after))

	require.Len(t, repo.events, 1)
	changes := repo.events[0].Changes
	require.Len(t, changes, 3)
	assert.Equal(t, "title", changes[0].Event)
	assert.Equal(t, "status", changes[1].Event)
	assert.Equal(t, "due_date", changes[2].Event)
}
