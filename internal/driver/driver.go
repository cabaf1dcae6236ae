// Package driver binds schedule types, status rules and parameter schemas
// per task area, and orchestrates the booking lifecycle hooks that create
// and delete scheduled tasks.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hostelops/turnkey/internal/booking"
	"github.com/hostelops/turnkey/internal/eventbus"
	"github.com/hostelops/turnkey/internal/history"
	"github.com/hostelops/turnkey/internal/hook"
	"github.com/hostelops/turnkey/internal/schedule"
	"github.com/hostelops/turnkey/internal/task"
	"github.com/hostelops/turnkey/internal/task/status"
	"github.com/hostelops/turnkey/pkg/cerr"
)

// Config is the operator-facing configuration of one driver instance.
type Config struct {
	Schedules   []schedule.Type
	AutoAssign  bool
	OperatorIDs []string
}

// Deps are the collaborators shared by all drivers.
type Deps struct {
	Tasks   task.Repository
	Tracker *history.Tracker
	Bus     *eventbus.Bus
	Hooks   *hook.Runner
}

// Driver generates and retires tasks for one area in reaction to booking
// lifecycle events.
type Driver struct {
	area    string
	label   string
	allowed []schedule.Type
	params  []Param
	cfg     Config
	deps    Deps
	now     func() time.Time
}

// NewCleaning builds the housekeeping driver. Cleaning supports every
// schedule type.
func NewCleaning(cfg Config, deps Deps) (*Driver, error) {
	return newDriver("cleaning", "Cleaning", schedule.All(),
		mergeParams(schedulingParams(schedule.All()), filterParams(), durationParams(), assistParams(), visibilityParams()),
		cfg, deps)
}

// NewMaintenance builds the maintenance driver. Maintenance runs on the
// wide recurrences plus turnover inspection.
func NewMaintenance(cfg Config, deps Deps) (*Driver, error) {
	allowed := []schedule.Type{schedule.TypeTurnover, schedule.TypeWeekly, schedule.TypeMonthly}
	return newDriver("maintenance", "Maintenance", allowed,
		mergeParams(schedulingParams(allowed), filterParams(), durationParams(), visibilityParams()),
		cfg, deps)
}

// NewSprintboard builds the sprintboard driver for one-off preparation
// work pinned to arrival and departure days.
func NewSprintboard(cfg Config, deps Deps) (*Driver, error) {
	allowed := []schedule.Type{schedule.TypePreArrival, schedule.TypeTurnover}
	return newDriver("sprint", "Sprint", allowed,
		mergeParams(schedulingParams(allowed), filterParams(), assistParams(), visibilityParams()),
		cfg, deps)
}

func newDriver(area, label string, allowed []schedule.Type, params []Param, cfg Config, deps Deps) (*Driver, error) {
	for _, t := range cfg.Schedules {
		if !contains(allowed, t) {
			return nil, cerr.NewError(cerr.InvalidArgument,
				fmt.Sprintf("schedule type %q is not supported by the %s driver", t, area), nil)
		}
	}
	return &Driver{
		area:    area,
		label:   label,
		allowed: allowed,
		params:  params,
		cfg:     cfg,
		deps:    deps,
		now:     time.Now,
	}, nil
}

func contains(types []schedule.Type, t schedule.Type) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

// Area returns the driver's task area id.
func (d *Driver) Area() string {
	return d.area
}

// Schema returns the driver's parameter schema.
func (d *Driver) Schema() []Param {
	return d.params
}

type occurrence struct {
	typ     schedule.Type
	date    time.Time
	counter int
}

// occurrences computes the deduplicated, date-ordered occurrence list for a
// stay. When two schedule types land on the same calendar day, the one with
// the lower ordering wins: the narrower recurrence beats the wider one.
func (d *Driver) occurrences(stay schedule.Stay) []occurrence {
	const dayKey = "2006-01-02"

	byDay := make(map[string]occurrence)
	for _, typ := range d.cfg.Schedules {
		for _, date := range typ.Dates(stay) {
			key := date.Format(dayKey)
			if existing, ok := byDay[key]; ok && existing.typ.Ordering() <= typ.Ordering() {
				continue
			}
			byDay[key] = occurrence{typ: typ, date: date}
		}
	}

	occs := make([]occurrence, 0, len(byDay))
	for _, occ := range byDay {
		occs = append(occs, occ)
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i].date.Before(occs[j].date) })

	// Number repeated occurrences of the same type so their titles stay
	// distinguishable within one booking.
	perType := make(map[schedule.Type]int)
	for _, occ := range occs {
		perType[occ.typ]++
	}
	seen := make(map[schedule.Type]int)
	for i := range occs {
		typ := occs[i].typ
		seen[typ]++
		if perType[typ] > 1 {
			occs[i].counter = seen[typ]
		}
	}
	return occs
}

// ScheduleConfirmation creates the driver's tasks for a freshly confirmed
// booking. Closure blocks, overbookings and cancelled bookings are skipped.
// Task creation errors propagate per task; tasks created before the failure
// stay, matching the no-batch-transaction contract.
func (d *Driver) ScheduleConfirmation(ctx context.Context, b *booking.Booking, col *Collector) error {
	if !b.Schedulable() {
		return nil
	}

	for _, occ := range d.occurrences(b.Stay()) {
		now := d.now()
		t := &task.Task{
			ID:        ulid.Make().String(),
			AreaID:    d.area,
			Title:     occ.typ.Describe(d.label, occ.counter),
			Status:    string(status.Pending),
			DueAt:     occ.date,
			BookingID: b.ID,
			RoomID:    b.RoomID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if d.cfg.AutoAssign && len(d.cfg.OperatorIDs) > 0 {
			t.OperatorIDs = append([]string(nil), d.cfg.OperatorIDs...)
		}

		if err := d.deps.Tasks.Create(ctx, t); err != nil {
			return err
		}

		if d.deps.Tracker != nil {
			d.deps.Tracker.Track(ctx, history.ScheduleCommitter(), t.ID, history.Snapshot{}, task.Snapshot(t))
		}
		if d.deps.Bus != nil {
			d.deps.Bus.PublishNew(eventbus.EventTaskCreated, t.ID, "", map[string]string{
				"origin":     "schedule",
				"area_id":    d.area,
				"booking_id": b.ID,
			})
		}
		d.deps.Hooks.Fire(ctx, hook.EventTaskCreated, map[string]string{
			"task_id":    t.ID,
			"task_title": t.Title,
			"area_id":    d.area,
			"booking_id": b.ID,
			"room_id":    b.RoomID,
			"due_at":     t.DueAt.Format(time.RFC3339),
		})
		col.AddCreated(Entry{TaskID: t.ID, Area: d.area, Title: t.Title, DueAt: t.DueAt})
	}
	return nil
}

// ScheduleAlteration reacts to a changed booking by deleting the full task
// set and regenerating it. Recurring-task sets are cheap to rebuild;
// reconciling date shifts task by task is where the bugs live.
func (d *Driver) ScheduleAlteration(ctx context.Context, b *booking.Booking, col *Collector) error {
	if !b.Altered {
		return nil
	}
	if err := d.ScheduleCancellation(ctx, b, col); err != nil {
		return err
	}
	return d.ScheduleConfirmation(ctx, b, col)
}

// ScheduleCancellation deletes every task the driver holds for the booking.
// It runs for cancelled bookings and for bookings carrying a previous
// version, which marks an in-flight alteration.
func (d *Driver) ScheduleCancellation(ctx context.Context, b *booking.Booking, col *Collector) error {
	if !b.Cancelled && b.Previous == nil && !b.Altered {
		return nil
	}

	tasks, err := d.deps.Tasks.List(ctx, task.Filter{AreaID: d.area, BookingID: b.ID})
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := d.deps.Tasks.Delete(ctx, t.ID); err != nil {
			return err
		}
		if d.deps.Bus != nil {
			d.deps.Bus.PublishNew(eventbus.EventTaskDeleted, t.ID, "", map[string]string{
				"origin":     "schedule",
				"area_id":    d.area,
				"booking_id": b.ID,
			})
		}
		d.deps.Hooks.Fire(ctx, hook.EventTaskCancelled, map[string]string{
			"task_id":    t.ID,
			"task_title": t.Title,
			"area_id":    d.area,
			"booking_id": b.ID,
		})
		col.AddCancelled(Entry{TaskID: t.ID, Area: d.area, Title: t.Title, DueAt: t.DueAt})
		slog.DebugContext(ctx, "cancelled scheduled task", "task_id", t.ID, "booking_id", b.ID, "area", d.area)
	}
	return nil
}
