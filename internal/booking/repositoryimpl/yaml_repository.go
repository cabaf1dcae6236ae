package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hostelops/turnkey/internal/booking"
	"github.com/hostelops/turnkey/pkg/cerr"
	"github.com/hostelops/turnkey/pkg/storage"
)

const bookingsPrefix = "bookings"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", bookingsPrefix, id)
}

func (r *YAMLRepository) Upsert(ctx context.Context, b *booking.Booking) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal booking: %w", err))
	}
	if err := r.storage.Write(ctx, path(b.ID), data); err != nil {
		return cerr.WrapStorageWriteError("booking", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*booking.Booking, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("booking", err)
	}
	var b booking.Booking
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal booking: %w", err))
	}
	return &b, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*booking.Booking, error) {
	paths, err := r.storage.List(ctx, bookingsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("bookings", err)
	}

	sort.Strings(paths)

	var all []*booking.Booking
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var b booking.Booking
		if err := yaml.Unmarshal(data, &b); err != nil {
			continue
		}
		all = append(all, &b)
	}
	return all, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("booking", err)
	}
	return nil
}
