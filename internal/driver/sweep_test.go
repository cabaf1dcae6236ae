package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelops/turnkey/internal/booking"
	"github.com/hostelops/turnkey/internal/schedule"
	"github.com/hostelops/turnkey/pkg/cerr"
)

type memoryBookingRepo struct {
	bookings map[string]*booking.Booking
}

func newMemoryBookingRepo(bookings ...*booking.Booking) *memoryBookingRepo {
	r := &memoryBookingRepo{bookings: map[string]*booking.Booking{}}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *memoryBookingRepo) Upsert(_ context.Context, b *booking.Booking) error {
	r.bookings[b.ID] = b
	return nil
}

func (r *memoryBookingRepo) Get(_ context.Context, id string) (*booking.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "booking not found", nil)
	}
	return b, nil
}

func (r *memoryBookingRepo) List(_ context.Context) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range r.bookings {
		out = append(out, b)
	}
	return out, nil
}

func (r *memoryBookingRepo) Delete(_ context.Context, id string) error {
	delete(r.bookings, id)
	return nil
}

func TestSweepCreatesMissingTasks(t *testing.T) {
	tasks := newMemoryTaskRepo()
	d, err := NewCleaning(Config{Schedules: []schedule.Type{schedule.TypeTurnover}}, Deps{Tasks: tasks})
	require.NoError(t, err)

	fresh := confirmedBooking(3)
	cancelled := confirmedBooking(3)
	cancelled.ID = "B2"
	cancelled.Cancelled = true
	covered := confirmedBooking(3)
	covered.ID = "B3"

	bookings := newMemoryBookingRepo(fresh, cancelled, covered)

	// B3 already has its task; the sweep must not duplicate it.
	require.NoError(t, d.ScheduleConfirmation(context.Background(), covered, NewCollector()))
	require.Len(t, tasks.tasks, 1)

	sweeper := NewSweeper(bookings, tasks, []*Driver{d}, 2)
	col, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)

	require.Len(t, col.Created, 1)
	assert.Equal(t, "B1", func() string {
		for _, tk := range tasks.tasks {
			if tk.ID == col.Created[0].TaskID {
				return tk.BookingID
			}
		}
		return ""
	}())
	assert.Len(t, tasks.tasks, 2)
}

func TestSweepIsIdempotent(t *testing.T) {
	tasks := newMemoryTaskRepo()
	d, err := NewCleaning(Config{Schedules: []schedule.Type{schedule.TypeTurnover}}, Deps{Tasks: tasks})
	require.NoError(t, err)

	bookings := newMemoryBookingRepo(confirmedBooking(3))
	sweeper := NewSweeper(bookings, tasks, []*Driver{d}, 2)

	col, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Len(t, col.Created, 1)

	col, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, col.Created)
	assert.Len(t, tasks.tasks, 1)
}
