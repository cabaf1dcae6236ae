// Package status implements the task lifecycle state machine. Statuses are
// stateless singletons; all task mutation goes through Machine.Apply, which
// runs the capabilities each status carries (operator assignment, work
// timer, archive flag, cancellation message).
package status

import (
	"fmt"

	"github.com/hostelops/turnkey/pkg/cerr"
)

// Group is the coarse bucket a status belongs to. Groups drive board
// columns but are also meaningful to history rendering.
type Group string

const (
	GroupScheduled Group = "scheduled"
	GroupOngoing   Group = "ongoing"
	GroupClosed    Group = "closed"
)

// Status is one task lifecycle state.
type Status string

const (
	Pending   Status = "pending"
	Accepted  Status = "accepted"
	Ongoing   Status = "ongoing"
	Paused    Status = "paused"
	Completed Status = "completed"
	Archived  Status = "archived"
	Cancelled Status = "cancelled"
)

type spec struct {
	label    string
	color    string
	group    Group
	ordering int
}

var specs = map[Status]spec{
	Pending:   {label: "Pending", color: "#999999", group: GroupScheduled, ordering: 10},
	Accepted:  {label: "Accepted", color: "#2f81f7", group: GroupScheduled, ordering: 20},
	Ongoing:   {label: "Ongoing", color: "#d29922", group: GroupOngoing, ordering: 30},
	Paused:    {label: "Paused", color: "#8957e5", group: GroupOngoing, ordering: 40},
	Completed: {label: "Completed", color: "#3fb950", group: GroupClosed, ordering: 50},
	Archived:  {label: "Archived", color: "#6e7681", group: GroupClosed, ordering: 60},
	Cancelled: {label: "Cancelled", color: "#f85149", group: GroupClosed, ordering: 70},
}

// All returns every status in display order.
func All() []Status {
	return []Status{Pending, Accepted, Ongoing, Paused, Completed, Archived, Cancelled}
}

// Parse validates a status name.
func Parse(s string) (Status, error) {
	st := Status(s)
	if _, ok := specs[st]; !ok {
		return "", cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown status %q", s), nil)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := specs[s]
	return ok
}

func (s Status) Group() Group {
	return specs[s].group
}

func (s Status) Color() string {
	return specs[s].color
}

// Ordering is the display/sort weight, not a transition constraint.
func (s Status) Ordering() int {
	return specs[s].ordering
}

func (s Status) Label() string {
	sp, ok := specs[s]
	if !ok {
		if s == "" {
			return "none"
		}
		return string(s)
	}
	return sp.label
}

// Label renders a raw status string; unknown values pass through. Used by
// history descriptions where old events may carry retired status names.
func Label(raw string) string {
	return Status(raw).Label()
}
