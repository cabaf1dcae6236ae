package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelops/turnkey/internal/task"
	"github.com/hostelops/turnkey/pkg/cerr"
	"github.com/hostelops/turnkey/pkg/storage"
)

func newTestRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(store)
}

func sampleTask(id string) *task.Task {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &task.Task{
		ID:        id,
		AreaID:    "cleaning",
		Title:     "Turnover Cleaning",
		Status:    "pending",
		DueAt:     now.AddDate(0, 0, 2),
		BookingID: "B1",
		RoomID:    "204",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestYAMLRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created := sampleTask("T1")
	require.NoError(t, repo.Create(ctx, created))

	// Creating the same id twice is rejected.
	err := repo.Create(ctx, sampleTask("T1"))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	got, err := repo.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.BookingID, got.BookingID)
	assert.True(t, created.DueAt.Equal(got.DueAt))

	got.Status = "ongoing"
	require.NoError(t, repo.Update(ctx, got))
	updated, err := repo.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "ongoing", updated.Status)

	require.NoError(t, repo.Delete(ctx, "T1"))
	_, err = repo.Get(ctx, "T1")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryUpdateMissing(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.Update(context.Background(), sampleTask("ghost"))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t1 := sampleTask("T1")
	t2 := sampleTask("T2")
	t2.AreaID = "maintenance"
	t3 := sampleTask("T3")
	t3.BookingID = "B2"
	t3.Archived = true
	for _, tk := range []*task.Task{t1, t2, t3} {
		require.NoError(t, repo.Create(ctx, tk))
	}

	all, err := repo.List(ctx, task.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cleaning, err := repo.List(ctx, task.Filter{AreaID: "cleaning"})
	require.NoError(t, err)
	assert.Len(t, cleaning, 2)

	booked, err := repo.List(ctx, task.Filter{BookingID: "B1"})
	require.NoError(t, err)
	assert.Len(t, booked, 2)

	archived := true
	got, err := repo.List(ctx, task.Filter{Archived: &archived})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "T3", got[0].ID)

	both, err := repo.List(ctx, task.Filter{AreaID: "cleaning", BookingID: "B2"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "T3", both[0].ID)
}
