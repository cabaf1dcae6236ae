package task

import "context"

// Filter narrows List results. Zero values match everything.
type Filter struct {
	AreaID    string
	BookingID string
	Status    string
	Archived  *bool
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, filter Filter) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
}
