package history

import "time"

// Role identifies who is credited with a tracked change.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	// RoleSchedule is the synthetic identity credited with automated
	// changes. Guests can never mutate tasks, so a guest-attributed task
	// change is re-attributed to the scheduler.
	RoleSchedule Role = "schedule"
)

// Committer is the identity attributed to a change event.
type Committer struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Role Role   `yaml:"role" json:"role"`
}

// ScheduleCommitter returns the synthetic scheduler identity. It carries no
// trace of the identity it replaces.
func ScheduleCommitter() Committer {
	return Committer{ID: "", Name: "", Role: RoleSchedule}
}

// Snapshot is the flattened before/after view of a record handed to
// detectors. A brand-new record has an empty previous snapshot.
type Snapshot map[string]string

// Change is one fired detector inside a change event.
type Change struct {
	Event       string `yaml:"event"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon,omitempty"`
}

// Event is one persisted change event: everything that changed in a single
// tracked mutation of one record. An event is only created when at least one
// detector fired; empty change sets are never persisted.
type Event struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
	Committer Committer `yaml:"committer"`

	// ContextAlias and ContextID form the polymorphic reference to the
	// record the event belongs to, e.g. ("task", "01J...").
	ContextAlias string `yaml:"context_alias"`
	ContextID    string `yaml:"context_id"`

	Changes []Change `yaml:"changes"`
}
