package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hostelops/turnkey/internal/history"
	"github.com/hostelops/turnkey/pkg/cerr"
	"github.com/hostelops/turnkey/pkg/storage"
)

const historyPrefix = "history"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(ev *history.Event) string {
	return fmt.Sprintf("%s/%s/%s/%s.yaml", historyPrefix, ev.ContextAlias, ev.ContextID, ev.ID)
}

func (r *YAMLRepository) Save(ctx context.Context, ev *history.Event) error {
	data, err := yaml.Marshal(ev)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal change event: %w", err))
	}
	if err := r.storage.Write(ctx, path(ev), data); err != nil {
		return cerr.WrapStorageWriteError("change event", err)
	}
	return nil
}

func (r *YAMLRepository) List(ctx context.Context, contextAlias, contextID string) ([]*history.Event, error) {
	prefix := fmt.Sprintf("%s/%s/%s", historyPrefix, contextAlias, contextID)
	paths, err := r.storage.List(ctx, prefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("change events", err)
	}

	// Event ids are ULIDs, so lexical order is creation order.
	sort.Strings(paths)

	var events []*history.Event
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var ev history.Event
		if err := yaml.Unmarshal(data, &ev); err != nil {
			continue
		}
		events = append(events, &ev)
	}
	return events, nil
}
