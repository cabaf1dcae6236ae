package driver

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/hostelops/turnkey/internal/booking"
	"github.com/hostelops/turnkey/internal/task"
)

// Sweeper reconciles stored bookings with their derived tasks. It exists for
// operators who imported bookings out of band or recovered from a partial
// outage: a sweep replays the confirmation hook for every schedulable
// booking that has no tasks yet.
type Sweeper struct {
	bookings booking.Repository
	tasks    task.Repository
	drivers  []*Driver
	workers  int
}

func NewSweeper(bookings booking.Repository, tasks task.Repository, drivers []*Driver, workers int) *Sweeper {
	if workers <= 0 {
		workers = 4
	}
	return &Sweeper{
		bookings: bookings,
		tasks:    tasks,
		drivers:  drivers,
		workers:  workers,
	}
}

// Sweep walks every stored booking and returns what it created. Bookings
// that already have tasks are left alone, so a sweep is safe to re-run.
func (s *Sweeper) Sweep(ctx context.Context) (*Collector, error) {
	bookings, err := s.bookings.List(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		total = NewCollector()
	)
	p := pool.New().WithMaxGoroutines(s.workers).WithContext(ctx)
	for _, b := range bookings {
		p.Go(func(ctx context.Context) error {
			col, err := s.sweepBooking(ctx, b)
			if err != nil {
				return err
			}
			if col == nil {
				return nil
			}
			mu.Lock()
			total.Created = append(total.Created, col.Created...)
			total.Cancelled = append(total.Cancelled, col.Cancelled...)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return total, err
	}
	return total, nil
}

func (s *Sweeper) sweepBooking(ctx context.Context, b *booking.Booking) (*Collector, error) {
	if !b.Schedulable() {
		return nil, nil
	}

	existing, err := s.tasks.List(ctx, task.Filter{BookingID: b.ID})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		slog.DebugContext(ctx, "booking already has tasks, skipping",
			"booking_id", b.ID,
			"task_count", len(existing),
		)
		return nil, nil
	}

	col := NewCollector()
	for _, d := range s.drivers {
		if err := d.ScheduleConfirmation(ctx, b, col); err != nil {
			return col, err
		}
	}
	slog.InfoContext(ctx, "swept booking",
		"booking_id", b.ID,
		"created", len(col.Created),
	)
	return col, nil
}
