package status

import (
	"context"
	"fmt"
	"time"

	"github.com/hostelops/turnkey/internal/history"
	"github.com/hostelops/turnkey/internal/task"
	"github.com/hostelops/turnkey/pkg/cerr"
)

// Messenger posts fire-and-forget system messages to a task's collaborators.
type Messenger interface {
	PostSystemMessage(ctx context.Context, t *task.Task, body string)
}

// capability is one side effect a status carries. Capabilities run after the
// status field is set and before the task is saved.
type capability interface {
	run(ctx context.Context, m *Machine, t *task.Task, committer history.Committer)
}

// assigner assigns the acting committer as an operator on the task.
type assigner struct{}

func (assigner) run(_ context.Context, _ *Machine, t *task.Task, committer history.Committer) {
	if committer.ID == "" || committer.Role == history.RoleGuest {
		return
	}
	if !t.HasOperator(committer.ID) {
		t.OperatorIDs = append(t.OperatorIDs, committer.ID)
	}
}

// worker drives the task's internal work timer.
type worker struct {
	action workerAction
}

type workerAction int

const (
	workerStart workerAction = iota
	workerPause
	workerFinish
)

func (w worker) run(_ context.Context, m *Machine, t *task.Task, _ history.Committer) {
	now := m.now()
	switch w.action {
	case workerStart:
		if t.WorkStartedAt == nil {
			t.WorkStartedAt = &now
		}
	case workerPause, workerFinish:
		if t.WorkStartedAt != nil {
			t.WorkedSeconds += int64(now.Sub(*t.WorkStartedAt).Seconds())
			t.WorkStartedAt = nil
		}
	}
}

// archiver toggles the archive flag. Completed un-archives: a completed task
// is reopenable, not terminal. Archived archives.
type archiver struct {
	archive bool
}

func (a archiver) run(_ context.Context, _ *Machine, t *task.Task, _ history.Committer) {
	t.Archived = a.archive
}

// chatter announces the status change to the task's collaborators.
type chatter struct{}

func (chatter) run(ctx context.Context, m *Machine, t *task.Task, _ history.Committer) {
	if m.messenger == nil {
		return
	}
	m.messenger.PostSystemMessage(ctx, t, fmt.Sprintf("Task %q was cancelled", t.Title))
}

var capabilities = map[Status][]capability{
	Accepted:  {assigner{}},
	Ongoing:   {worker{workerStart}},
	Paused:    {worker{workerPause}},
	Completed: {worker{workerFinish}, archiver{archive: false}},
	Archived:  {worker{workerFinish}, archiver{archive: true}},
	Cancelled: {chatter{}},
}

// Machine applies status transitions to tasks. There is no transition graph:
// any status may follow any status. Restricting the subgraph is a product
// decision left to callers.
type Machine struct {
	repo      task.Repository
	tracker   *history.Tracker
	messenger Messenger
	now       func() time.Time
}

func NewMachine(repo task.Repository, tracker *history.Tracker, messenger Messenger) *Machine {
	return &Machine{
		repo:      repo,
		tracker:   tracker,
		messenger: messenger,
		now:       time.Now,
	}
}

// Apply is the sole mutator entry point for status transitions. It loads the
// task, sets the new status, runs the status's capabilities, saves, and
// records the change in history.
func (m *Machine) Apply(ctx context.Context, taskID string, target Status, committer history.Committer) (*task.Task, error) {
	if !target.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown status %q", target), nil)
	}

	t, err := m.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	prev := task.Snapshot(t)
	t.Status = string(target)
	for _, c := range capabilities[target] {
		c.run(ctx, m, t, committer)
	}
	t.UpdatedAt = m.now()

	if err := m.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	if m.tracker != nil {
		m.tracker.Track(ctx, committer, t.ID, prev, task.Snapshot(t))
	}
	return t, nil
}

// ApplyStatus parses a raw status name and applies it. Satisfies
// task.StatusApplier.
func (m *Machine) ApplyStatus(ctx context.Context, taskID, statusName string, committer history.Committer) (*task.Task, error) {
	target, err := Parse(statusName)
	if err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown status %q", statusName), err)
	}
	return m.Apply(ctx, taskID, target, committer)
}
