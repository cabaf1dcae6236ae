package booking

import "context"

type Repository interface {
	Upsert(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
	Delete(ctx context.Context, id string) error
}
