package domain

import "time"

// CourseProgressModel aggregate progress of one course
type CourseProgressModel struct {
	CourseID             string                `json:"course_id"`
	CompletionPercentage float64               `json:"completion_percentage"`
	Detail               *CourseProgressDetail `json:"course_progress,omitempty"`
	NextLesson           *NextLesson           `json:"next_lesson,omitempty"`
}

// CourseProgressDetail nested course_progress payload
type CourseProgressDetail struct {
	CompletionPercentage float64        `json:"completion_percentage"`
	LessonsCompleted     int            `json:"lessons_completed"`
	TotalLessons         int            `json:"total_lessons"`
	TotalTimeSpent       int            `json:"total_time_spent"` // seconds
	CertificateAvailable bool           `json:"certificate_available"`
	Status               ProgressStatus `json:"status"`
}

// NextLesson lesson to resume
type NextLesson struct {
	LessonID string `json:"lesson_id"`
	ModuleID string `json:"module_id,omitempty"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
}

// CourseStats reduced course view
type CourseStats struct {
	CompletionPercentage float64        `json:"completion_percentage"`
	LessonsCompleted     int            `json:"lessons_completed"`
	TotalLessons         int            `json:"total_lessons"`
	TotalTimeSpent       int            `json:"total_time_spent"`
	CertificateAvailable bool           `json:"certificate_available"`
	Status               ProgressStatus `json:"status"`
}

// UserProgressSummary cross-course statistics of the signed-in user
type UserProgressSummary struct {
	Summary       *SummaryTotals  `json:"summary,omitempty"`
	RecentCourses []*RecentCourse `json:"recent_courses"`
}

// SummaryTotals summary counters
type SummaryTotals struct {
	TotalCourses       int     `json:"total_courses"`
	CompletedCourses   int     `json:"completed_courses"`
	InProgressCourses  int     `json:"in_progress_courses"`
	TotalTimeSpent     int     `json:"total_time_spent"`
	CertificatesEarned int     `json:"certificates_earned"`
	CompletionRate     float64 `json:"completion_rate"`
}

// RecentCourse course entry in the summary listing
type RecentCourse struct {
	CourseID             string         `json:"course_id"`
	Title                string         `json:"title"`
	Status               ProgressStatus `json:"status"`
	CompletionPercentage float64        `json:"completion_percentage"`
	LastAccessed         *time.Time     `json:"last_accessed,omitempty"`
}
