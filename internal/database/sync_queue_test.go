package database

import (
	"context"
	"testing"
	"time"

	"bettersaved/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncQueueLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.SyncTask{
		TaskType:  models.TaskAppendRow,
		AccountID: 1,
		ItemID:    10,
		Status:    models.TaskStatusPending,
	}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	assert.NotZero(t, task.ID)

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.TaskAppendRow, pending[0].TaskType)
	assert.Equal(t, int64(10), pending[0].ItemID)

	// retry увеличивает счётчик и откладывает задачу
	next := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.TaskStatusRetry, "boom", &next))

	pending, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "deferred task must not be picked up before next_retry_at")

	stored, err := db.GetSyncTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, "boom", stored.LastError)

	// completed проставляет processed_at и убирает из очереди
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.TaskStatusCompleted, "", nil))
	stored, err = db.GetSyncTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestFailedSyncTasks(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.SyncTask{TaskType: models.TaskFixSpreadsheet, AccountID: 2, Status: models.TaskStatusPending}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.TaskStatusFailed, "quota", nil))

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "quota", failed[0].LastError)
}
