package models

import "time"

// Sync task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusRetry     = "retry"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// Sync task types.
const (
	TaskAppendRow      = "append_row"
	TaskFixSpreadsheet = "fix_spreadsheet"
)

// SyncTask is a unit of Sheets work. Tasks are persisted in the
// sync_queue table before being pushed to the queue, so a restart never
// loses a pending append.
type SyncTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	AccountID   int64      `json:"account_id"`
	ItemID      int64      `json:"item_id"`
	Payload     string     `json:"payload,omitempty"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
