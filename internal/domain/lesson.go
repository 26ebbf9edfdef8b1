package domain

import (
	"context"
	"time"
)

// ProgressStatus learning status shared by lessons and courses
type ProgressStatus string

// progress status
const (
	StatusNotStarted ProgressStatus = "NOT_STARTED"
	StatusInProgress ProgressStatus = "IN_PROGRESS"
	StatusCompleted  ProgressStatus = "COMPLETED"
)

// LessonProgressModel learner state within one lesson
type LessonProgressModel struct {
	LessonID           string         `json:"lesson_id"`
	CourseID           string         `json:"course_id"`
	EnrollmentID       string         `json:"enrollment_id"`
	Status             ProgressStatus `json:"status"`
	ProgressPercentage float64        `json:"progress_percentage"`
	TimeSpent          int            `json:"time_spent"`                // seconds
	VideoPosition      *float64       `json:"video_position,omitempty"` // seconds
	QuizScore          *float64       `json:"quiz_score,omitempty"`
	StartedAt          *time.Time     `json:"started_at,omitempty"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
}

// ProgressDelta incremental lesson progress update
type ProgressDelta struct {
	ProgressPercentage *float64 `json:"progress_percentage,omitempty" validate:"omitempty,min=0,max=100"`
	TimeSpentDelta     int      `json:"time_spent_delta" validate:"min=0"`
	VideoPosition      *float64 `json:"video_position,omitempty" validate:"omitempty,min=0"`
	QuizScore          *float64 `json:"quiz_score,omitempty" validate:"omitempty,min=0,max=100"`
}

// LessonRef identifies the enrollment context a lesson mutation runs in
type LessonRef struct {
	LessonID     string `json:"lesson_id"`
	CourseID     string `json:"course_id"`
	EnrollmentID string `json:"enrollment_id"`
}

// ProgressAPI remote progress endpoints consumed by the controllers
type ProgressAPI interface {
	GetLessonProgress(ctx context.Context, lessonID string) (*LessonProgressModel, error)
	StartLesson(ctx context.Context, ref *LessonRef) error
	CompleteLesson(ctx context.Context, ref *LessonRef) error
	UpdateLessonProgress(ctx context.Context, ref *LessonRef, delta *ProgressDelta) error
	GetCourseProgress(ctx context.Context, courseID string) (*CourseProgressModel, error)
	GetUserSummary(ctx context.Context) (*UserProgressSummary, error)
	Ping(ctx context.Context) error
}
