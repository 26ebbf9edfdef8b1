package usecase

import (
	"context"
	"sync"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/i18n"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// CourseProgressState snapshot exposed to the UI
type CourseProgressState struct {
	CourseID   string                      `json:"course_id"`
	Progress   *domain.CourseProgressModel `json:"progress"`
	Loading    bool                        `json:"loading"`
	Error      string                      `json:"error,omitempty"`
	Status     LoadStatus                  `json:"status"`
	NextLesson *domain.NextLesson          `json:"next_lesson"`
	Stats      *domain.CourseStats         `json:"stats"`
}

// CourseProgressController read-mostly view of one course
type CourseProgressController struct {
	deps *ProgressUseCase

	mu         sync.RWMutex
	courseID   string
	generation uint64
	progress   *domain.CourseProgressModel
	loading    bool
	errMsg     string
	status     LoadStatus
}

func newCourseProgressController(pu *ProgressUseCase) *CourseProgressController {
	return &CourseProgressController{
		deps:   pu,
		status: StatusIdle,
	}
}

// Bind switch to courseID, progress is fetched again only when the id changes
func (cc *CourseProgressController) Bind(ctx context.Context, courseID string) {
	if cc.Select(courseID) {
		cc.Load(ctx)
	}
}

// Select switch to courseID without fetching. It returns false when courseID
// is already bound and was loaded at least once.
func (cc *CourseProgressController) Select(courseID string) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.courseID == courseID && cc.status != StatusIdle {
		return false
	}
	cc.courseID = courseID
	cc.generation++
	cc.progress = nil
	cc.loading = false
	cc.errMsg = ""
	cc.status = StatusIdle
	return true
}

// Load fetch the course aggregate, errors are swallowed into State().Error
func (cc *CourseProgressController) Load(ctx context.Context) {
	cc.mu.Lock()
	courseID, gen := cc.courseID, cc.generation
	if courseID == "" {
		cc.mu.Unlock()
		return
	}
	cc.loading = true
	cc.errMsg = ""
	cc.status = StatusLoading
	cc.mu.Unlock()

	span, ctx := apm.StartSpan(ctx, "CourseProgressController.Load", "service")
	defer span.End()

	progress, err := cc.deps.API.GetCourseProgress(ctx, courseID)

	cc.mu.Lock()
	defer cc.mu.Unlock()
	if gen != cc.generation {
		return
	}
	cc.loading = false
	if err != nil {
		cc.deps.Logger.Error("failed to load course progress", zap.String("course.id", courseID), zap.Error(err))
		cc.errMsg = cc.deps.Messages.Message(i18n.MsgCourseLoadFailed)
		cc.status = StatusErrored
		return
	}
	cc.progress = progress
	cc.status = StatusLoaded
}

// Reload alias of Load
func (cc *CourseProgressController) Reload(ctx context.Context) {
	cc.Load(ctx)
}

// CourseID bound course
func (cc *CourseProgressController) CourseID() string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.courseID
}

// NextLesson lesson to resume, nil when unknown
func (cc *CourseProgressController) NextLesson() *domain.NextLesson {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return nextLessonOf(cc.progress)
}

// Stats reduced course view, nil until a progress with detail is loaded
func (cc *CourseProgressController) Stats() *domain.CourseStats {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return statsOf(cc.progress)
}

// State snapshot of the controller
func (cc *CourseProgressController) State() CourseProgressState {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	state := CourseProgressState{
		CourseID:   cc.courseID,
		Loading:    cc.loading,
		Error:      cc.errMsg,
		Status:     cc.status,
		NextLesson: nextLessonOf(cc.progress),
		Stats:      statsOf(cc.progress),
	}
	if cc.progress != nil {
		p := *cc.progress
		state.Progress = &p
	}
	return state
}

func nextLessonOf(progress *domain.CourseProgressModel) *domain.NextLesson {
	if progress == nil || progress.NextLesson == nil {
		return nil
	}
	next := *progress.NextLesson
	return &next
}

func statsOf(progress *domain.CourseProgressModel) *domain.CourseStats {
	if progress == nil || progress.Detail == nil {
		return nil
	}
	d := progress.Detail
	return &domain.CourseStats{
		CompletionPercentage: d.CompletionPercentage,
		LessonsCompleted:     d.LessonsCompleted,
		TotalLessons:         d.TotalLessons,
		TotalTimeSpent:       d.TotalTimeSpent,
		CertificateAvailable: d.CertificateAvailable,
		Status:               d.Status,
	}
}
