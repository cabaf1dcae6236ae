package history

import "context"

// Repository persists change events. Save failures must be treated as
// non-fatal by callers; history is best-effort observability.
type Repository interface {
	Save(ctx context.Context, ev *Event) error
	List(ctx context.Context, contextAlias, contextID string) ([]*Event, error)
}
