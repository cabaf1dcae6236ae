package driver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelops/turnkey/internal/booking"
	"github.com/hostelops/turnkey/internal/schedule"
	"github.com/hostelops/turnkey/internal/task"
	"github.com/hostelops/turnkey/pkg/cerr"
)

type memoryTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*task.Task
}

func newMemoryTaskRepo() *memoryTaskRepo {
	return &memoryTaskRepo{tasks: map[string]*task.Task{}}
}

func (r *memoryTaskRepo) Create(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
	return nil
}

func (r *memoryTaskRepo) Get(_ context.Context, id string) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return t, nil
}

func (r *memoryTaskRepo) List(_ context.Context, filter task.Filter) ([]*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*task.Task
	for _, t := range r.tasks {
		if filter.AreaID != "" && t.AreaID != filter.AreaID {
			continue
		}
		if filter.BookingID != "" && t.BookingID != filter.BookingID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *memoryTaskRepo) Update(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
	return nil
}

func (r *memoryTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

func confirmedBooking(nights int) *booking.Booking {
	checkIn := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &booking.Booking{
		ID:        "B1",
		RoomID:    "204",
		CheckIn:   checkIn,
		CheckOut:  checkIn.AddDate(0, 0, nights),
		Nights:    nights,
		Confirmed: true,
	}
}

func TestScheduleConfirmation(t *testing.T) {
	repo := newMemoryTaskRepo()
	d, err := NewCleaning(Config{
		Schedules: []schedule.Type{schedule.TypeEvery2, schedule.TypeTurnover},
	}, Deps{Tasks: repo})
	require.NoError(t, err)

	col := NewCollector()
	// 10 nights at every-2 yields four mid-stay cleans plus the turnover.
	require.NoError(t, d.ScheduleConfirmation(context.Background(), confirmedBooking(10), col))

	require.Len(t, col.Created, 5)
	assert.Len(t, repo.tasks, 5)

	titles := make(map[string]bool)
	for _, e := range col.Created {
		titles[e.Title] = true
	}
	for _, want := range []string{
		"Every 2 days Cleaning #1",
		"Every 2 days Cleaning #2",
		"Every 2 days Cleaning #3",
		"Every 2 days Cleaning #4",
		"Turnover Cleaning",
	} {
		assert.True(t, titles[want], "missing %q", want)
	}

	for _, created := range repo.tasks {
		assert.Equal(t, "cleaning", created.AreaID)
		assert.Equal(t, "B1", created.BookingID)
		assert.Equal(t, "204", created.RoomID)
		assert.Equal(t, "pending", created.Status)
	}
}

func TestScheduleConfirmationSkipsNonSchedulable(t *testing.T) {
	repo := newMemoryTaskRepo()
	d, err := NewCleaning(Config{Schedules: []schedule.Type{schedule.TypeTurnover}}, Deps{Tasks: repo})
	require.NoError(t, err)

	for _, b := range []*booking.Booking{
		func() *booking.Booking { b := confirmedBooking(3); b.Confirmed = false; return b }(),
		func() *booking.Booking { b := confirmedBooking(3); b.Cancelled = true; return b }(),
		func() *booking.Booking { b := confirmedBooking(3); b.Closure = true; return b }(),
		func() *booking.Booking { b := confirmedBooking(3); b.Overbooking = true; return b }(),
	} {
		col := NewCollector()
		require.NoError(t, d.ScheduleConfirmation(context.Background(), b, col))
		assert.Empty(t, col.Created)
	}
	assert.Empty(t, repo.tasks)
}

func TestSameDayCollisionNarrowerTypeWins(t *testing.T) {
	repo := newMemoryTaskRepo()
	d, err := NewMaintenance(Config{
		Schedules: []schedule.Type{schedule.TypeTurnover, schedule.TypeMonthly},
	}, Deps{Tasks: repo})
	require.NoError(t, err)

	// A 28-night stay puts the monthly visit on the check-out day, on top
	// of the turnover. Only the monthly task survives.
	col := NewCollector()
	require.NoError(t, d.ScheduleConfirmation(context.Background(), confirmedBooking(28), col))

	require.Len(t, col.Created, 1)
	assert.Equal(t, "Monthly Maintenance", col.Created[0].Title)
}

func TestAutoAssign(t *testing.T) {
	repo := newMemoryTaskRepo()
	d, err := NewCleaning(Config{
		Schedules:   []schedule.Type{schedule.TypeTurnover},
		AutoAssign:  true,
		OperatorIDs: []string{"op1", "op2"},
	}, Deps{Tasks: repo})
	require.NoError(t, err)

	col := NewCollector()
	require.NoError(t, d.ScheduleConfirmation(context.Background(), confirmedBooking(2), col))

	require.Len(t, col.Created, 1)
	created := repo.tasks[col.Created[0].TaskID]
	assert.Equal(t, []string{"op1", "op2"}, created.OperatorIDs)
}

func TestScheduleCancellation(t *testing.T) {
	repo := newMemoryTaskRepo()
	d, err := NewCleaning(Config{
		Schedules: []schedule.Type{schedule.TypeEvery2, schedule.TypeTurnover},
	}, Deps{Tasks: repo})
	require.NoError(t, err)

	b := confirmedBooking(10)
	require.NoError(t, d.ScheduleConfirmation(context.Background(), b, NewCollector()))
	require.Len(t, repo.tasks, 5)

	b.Cancelled = true
	col := NewCollector()
	require.NoError(t, d.ScheduleCancellation(context.Background(), b, col))
	assert.Len(t, col.Cancelled, 5)
	assert.Empty(t, repo.tasks)
}

func TestScheduleCancellationIgnoresLiveBookings(t *testing.T) {
	repo := newMemoryTaskRepo()
	d, err := NewCleaning(Config{Schedules: []schedule.Type{schedule.TypeTurnover}}, Deps{Tasks: repo})
	require.NoError(t, err)

	b := confirmedBooking(2)
	require.NoError(t, d.ScheduleConfirmation(context.Background(), b, NewCollector()))

	col := NewCollector()
	require.NoError(t, d.ScheduleCancellation(context.Background(), b, col))
	assert.Empty(t, col.Cancelled)
	assert.Len(t, repo.tasks, 1)
}

func TestScheduleAlterationRegeneratesTasks(t *testing.T) {
	repo := newMemoryTaskRepo()
	d, err := NewCleaning(Config{
		Schedules: []schedule.Type{schedule.TypeEvery2, schedule.TypeTurnover},
	}, Deps{Tasks: repo})
	require.NoError(t, err)

	b := confirmedBooking(10)
	require.NoError(t, d.ScheduleConfirmation(context.Background(), b, NewCollector()))
	require.Len(t, repo.tasks, 5)

	// The stay shrinks to four nights: two mid-stay cleans plus turnover.
	prev := *b
	b.CheckOut = b.CheckIn.AddDate(0, 0, 4)
	b.Nights = 4
	b.Altered = true
	b.Previous = &prev

	col := NewCollector()
	require.NoError(t, d.ScheduleAlteration(context.Background(), b, col))
	assert.Len(t, col.Cancelled, 5)
	assert.Len(t, col.Created, 3)
	assert.Len(t, repo.tasks, 3)
}

func TestNewDriverRejectsUnsupportedSchedules(t *testing.T) {
	_, err := NewSprintboard(Config{
		Schedules: []schedule.Type{schedule.TypeDaily},
	}, Deps{Tasks: newMemoryTaskRepo()})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}
