package operator

import "context"

type Repository interface {
	Create(ctx context.Context, o *Operator) error
	Get(ctx context.Context, id string) (*Operator, error)
	List(ctx context.Context) ([]*Operator, error)
	Delete(ctx context.Context, id string) error
}

// Directory resolves operator ids to display names for history rendering.
// Unknown ids resolve to the empty string; callers fall back to the raw id.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) OperatorName(ctx context.Context, id string) string {
	o, err := d.repo.Get(ctx, id)
	if err != nil {
		return ""
	}
	return o.Name
}
