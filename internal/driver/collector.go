package driver

import "time"

// Entry records one task a driver created or cancelled during an
// orchestration pass.
type Entry struct {
	TaskID string    `json:"task_id"`
	Area   string    `json:"area"`
	Title  string    `json:"title"`
	DueAt  time.Time `json:"due_at"`
}

// Collector accumulates the results of one booking-lifecycle pass across
// drivers. It is request-scoped and not safe for concurrent use.
type Collector struct {
	Created   []Entry `json:"created"`
	Cancelled []Entry `json:"cancelled"`
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) AddCreated(e Entry) {
	c.Created = append(c.Created, e)
}

func (c *Collector) AddCancelled(e Entry) {
	c.Cancelled = append(c.Cancelled, e)
}
