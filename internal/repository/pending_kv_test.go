package repository

import (
	"context"
	"testing"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingUpdate(id string, timeSpent int, createdAt int64) *domain.PendingProgressUpdate {
	return &domain.PendingProgressUpdate{
		ID:           id,
		LessonID:     "L1",
		CourseID:     "C1",
		EnrollmentID: "E1",
		Delta:        domain.ProgressDelta{TimeSpentDelta: timeSpent},
		CreatedAt:    createdAt,
	}
}

func TestPendingKV_Append(t *testing.T) {
	ctx := context.Background()
	repo := NewPendingKV(driver.NewMemoryKV())

	assert.ErrorIs(t, repo.Append(ctx, pendingUpdate("", 1, 1)), errMissingEntryID)

	require.NoError(t, repo.Append(ctx, pendingUpdate("a", 10, 2000)))
	require.NoError(t, repo.Append(ctx, pendingUpdate("b", 20, 1000)))

	all, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID, "insertion order is kept")
	assert.Equal(t, 10, all[0].Delta.TimeSpentDelta)
	assert.Equal(t, "E1", all[1].EnrollmentID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPendingKV_ReadAllDropsCorrupted(t *testing.T) {
	ctx := context.Background()
	kv := driver.NewMemoryKV()
	repo := NewPendingKV(kv)
	require.NoError(t, kv.Push(ctx, domain.PendingProgressKey, "{not json"))
	require.NoError(t, repo.Append(ctx, pendingUpdate("a", 10, 1000)))

	all, err := repo.ReadAll(ctx)

	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0].ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the corrupted value is removed from the queue")

	require.NoError(t, repo.CompareAndClear(ctx, all))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPendingKV_CompareAndClear(t *testing.T) {
	ctx := context.Background()
	repo := NewPendingKV(driver.NewMemoryKV())
	require.NoError(t, repo.Append(ctx, pendingUpdate("a", 10, 1000)))
	require.NoError(t, repo.Append(ctx, pendingUpdate("b", 20, 2000)))

	snapshot, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, pendingUpdate("c", 30, 3000)))

	require.NoError(t, repo.CompareAndClear(ctx, snapshot))

	left, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "c", left[0].ID)

	// entries already gone are ignored
	require.NoError(t, repo.CompareAndClear(ctx, snapshot))
	require.NoError(t, repo.CompareAndClear(ctx, nil))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
