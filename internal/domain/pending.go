package domain

import "context"

// PendingProgressKey fixed storage key of the pending-write queue
const PendingProgressKey = "pending_progress"

// PendingProgressUpdate progress update that failed to reach the server
type PendingProgressUpdate struct {
	ID           string        `json:"id"`
	LessonID     string        `json:"lesson_id"`
	CourseID     string        `json:"course_id"`
	EnrollmentID string        `json:"enrollment_id"`
	Delta        ProgressDelta `json:"delta"`
	CreatedAt    int64         `json:"created_at"` // milliseconds
}

// PendingStore persisted pending-write queue.
//
// Each call is atomic. CompareAndClear removes exactly the given entries,
// so entries appended after a ReadAll are never lost.
type PendingStore interface {
	Append(ctx context.Context, update *PendingProgressUpdate) error
	ReadAll(ctx context.Context) ([]*PendingProgressUpdate, error)
	CompareAndClear(ctx context.Context, updates []*PendingProgressUpdate) error
	Count(ctx context.Context) (int, error)
	Ping() error
}

// ConnectivitySource emits a signal every time connectivity is restored
type ConnectivitySource interface {
	Subscribe() (<-chan struct{}, func())
}
