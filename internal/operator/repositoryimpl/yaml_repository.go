package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hostelops/turnkey/internal/operator"
	"github.com/hostelops/turnkey/pkg/cerr"
	"github.com/hostelops/turnkey/pkg/storage"
)

const operatorsPrefix = "operators"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", operatorsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, o *operator.Operator) error {
	exists, err := r.storage.Exists(ctx, path(o.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("operator", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "operator already exists", nil)
	}
	data, err := yaml.Marshal(o)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal operator: %w", err))
	}
	if err := r.storage.Write(ctx, path(o.ID), data); err != nil {
		return cerr.WrapStorageWriteError("operator", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*operator.Operator, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("operator", err)
	}
	var o operator.Operator
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal operator: %w", err))
	}
	return &o, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*operator.Operator, error) {
	paths, err := r.storage.List(ctx, operatorsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("operators", err)
	}

	sort.Strings(paths)

	var all []*operator.Operator
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var o operator.Operator
		if err := yaml.Unmarshal(data, &o); err != nil {
			continue
		}
		all = append(all, &o)
	}
	return all, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("operator", err)
	}
	return nil
}
