package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc/panics"

	"github.com/hostelops/turnkey/internal/eventbus"
)

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithGuestSubstitution replaces guest-role committers with the synthetic
// scheduler identity before persisting. The task tracker uses this: tasks
// can never be mutated by guests, so a guest-attributed task change must
// have come from an automated path.
func WithGuestSubstitution() TrackerOption {
	return func(t *Tracker) {
		t.substituteGuest = true
	}
}

// WithBus announces every persisted change event on the bus. The preview
// tracker runs without it; a dry run must not be observable.
func WithBus(bus *eventbus.Bus) TrackerOption {
	return func(t *Tracker) {
		t.bus = bus
	}
}

// Tracker runs a registered list of detectors against a before/after
// snapshot pair and persists the fired ones as a single change event.
//
// Tracking is best-effort by design: a panicking detector is skipped, and a
// failing save is logged and swallowed. History must never block the primary
// write it is auditing.
type Tracker struct {
	repo            Repository
	contextAlias    string
	detectors       []Detector
	substituteGuest bool
	bus             *eventbus.Bus
	now             func() time.Time
}

func NewTracker(repo Repository, contextAlias string, detectors []Detector, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		repo:         repo,
		contextAlias: contextAlias,
		detectors:    detectors,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track evaluates every detector against the snapshot pair and saves one
// change event containing the fired ones, in registration order. It returns
// true when an event was recorded, false when nothing changed.
func (t *Tracker) Track(ctx context.Context, committer Committer, contextID string, prev, curr Snapshot) bool {
	var changes []Change
	for _, d := range t.detectors {
		var (
			change Change
			fired  bool
		)
		var catcher panics.Catcher
		catcher.Try(func() {
			change, fired = d.Detect(ctx, prev, curr)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			// One bad detector must not block the others.
			slog.WarnContext(ctx, "history detector panicked, skipping",
				"context_alias", t.contextAlias,
				"context_id", contextID,
				"panic", recovered.Value,
			)
			continue
		}
		if fired {
			changes = append(changes, change)
		}
	}

	if len(changes) == 0 {
		return false
	}

	if t.substituteGuest && committer.Role == RoleGuest {
		committer = ScheduleCommitter()
	}

	ev := &Event{
		ID:           ulid.Make().String(),
		CreatedAt:    t.now().UTC(),
		Committer:    committer,
		ContextAlias: t.contextAlias,
		ContextID:    contextID,
		Changes:      changes,
	}
	if err := t.repo.Save(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "failed to save change event",
			"context_alias", t.contextAlias,
			"context_id", contextID,
			"error", err,
		)
		return true
	}
	if t.bus != nil {
		t.bus.PublishNew(eventbus.EventHistoryRecorded, contextID, ev.ID, map[string]string{
			"context_alias": t.contextAlias,
		})
	}
	return true
}
