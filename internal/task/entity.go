package task

import "time"

// Task is one unit of housekeeping or maintenance work, usually generated
// from a booking by a driver but also creatable by hand.
type Task struct {
	ID          string    `yaml:"id"`
	AreaID      string    `yaml:"area_id"`
	Title       string    `yaml:"title"`
	Notes       string    `yaml:"notes"`
	Status      string    `yaml:"status"`
	DueAt       time.Time `yaml:"due_at"`
	TagIDs      []string  `yaml:"tag_ids"`
	OperatorIDs []string  `yaml:"operator_ids"`
	BookingID   string    `yaml:"booking_id"`
	RoomID      string    `yaml:"room_id"`

	Archived bool `yaml:"archived"`

	// Work-timer bookkeeping, driven by status transitions.
	WorkStartedAt *time.Time `yaml:"work_started_at,omitempty"`
	WorkedSeconds int64      `yaml:"worked_seconds"`

	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// HasOperator reports whether the operator is already assigned.
func (t *Task) HasOperator(operatorID string) bool {
	for _, id := range t.OperatorIDs {
		if id == operatorID {
			return true
		}
	}
	return false
}
