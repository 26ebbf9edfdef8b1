package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/i18n"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// LessonProgressState snapshot exposed to the UI
type LessonProgressState struct {
	LessonID string                      `json:"lesson_id"`
	Progress *domain.LessonProgressModel `json:"progress"`
	Loading  bool                        `json:"loading"`
	Error    string                      `json:"error,omitempty"`
	Status   LoadStatus                  `json:"status"`
}

// LessonProgressController owns the progress record of one lesson
type LessonProgressController struct {
	deps *ProgressUseCase

	mu         sync.RWMutex
	lessonID   string
	generation uint64
	progress   *domain.LessonProgressModel
	loading    bool
	errMsg     string
	status     LoadStatus
}

func newLessonProgressController(pu *ProgressUseCase, lessonID string) *LessonProgressController {
	return &LessonProgressController{
		deps:     pu,
		lessonID: lessonID,
		status:   StatusIdle,
	}
}

// Bind re-bind to another lesson and reset to idle, results of operations
// still running for the previous lesson are dropped
func (lc *LessonProgressController) Bind(lessonID string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lessonID = lessonID
	lc.generation++
	lc.progress = nil
	lc.loading = false
	lc.errMsg = ""
	lc.status = StatusIdle
}

// State snapshot of the controller
func (lc *LessonProgressController) State() LessonProgressState {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	state := LessonProgressState{
		LessonID: lc.lessonID,
		Loading:  lc.loading,
		Error:    lc.errMsg,
		Status:   lc.status,
	}
	if lc.progress != nil {
		p := *lc.progress
		state.Progress = &p
	}
	return state
}

// Load fetch the bound lesson progress, failures only end up in State().Error
func (lc *LessonProgressController) Load(ctx context.Context) {
	lessonID, gen := lc.binding()
	if lessonID == "" {
		return
	}
	release, err := lc.deps.Gate.Acquire(ctx, lessonID)
	if err != nil {
		lc.fail(gen, i18n.MsgLessonLoadFailed)
		return
	}
	defer release()
	lc.load(ctx, lessonID, gen)
}

// Reload alias of Load
func (lc *LessonProgressController) Reload(ctx context.Context) {
	lc.Load(ctx)
}

// StartLesson signal lesson start then reload
func (lc *LessonProgressController) StartLesson(ctx context.Context, courseID, enrollmentID string) error {
	return lc.mutate(ctx, "LessonProgressController.StartLesson", i18n.MsgLessonStartFailed, courseID, enrollmentID,
		lc.deps.API.StartLesson)
}

// CompleteLesson signal lesson completion then reload
func (lc *LessonProgressController) CompleteLesson(ctx context.Context, courseID, enrollmentID string) error {
	return lc.mutate(ctx, "LessonProgressController.CompleteLesson", i18n.MsgLessonCompleteFailed, courseID, enrollmentID,
		lc.deps.API.CompleteLesson)
}

// UpdateProgress send an incremental update then reload.
//
// A failed update is appended to the pending store before the error is
// returned, so the offline sync can replay it later.
func (lc *LessonProgressController) UpdateProgress(ctx context.Context, courseID, enrollmentID string, delta *domain.ProgressDelta) error {
	if delta == nil {
		return fmt.Errorf("%w: delta is required", domain.ErrInvalidDelta)
	}
	if errs := lc.deps.Validator.Struct(delta); len(errs) > 0 {
		reasons := make([]string, 0, len(errs))
		for _, e := range errs {
			reasons = append(reasons, e.Reason)
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidDelta, strings.Join(reasons, "; "))
	}

	snapshot := *delta
	return lc.mutate(ctx, "LessonProgressController.UpdateProgress", i18n.MsgLessonUpdateFailed, courseID, enrollmentID,
		func(ctx context.Context, ref *domain.LessonRef) error {
			err := lc.deps.API.UpdateLessonProgress(ctx, ref, &snapshot)
			if err != nil {
				lc.enqueue(ctx, ref, &snapshot)
			}
			return err
		})
}

func (lc *LessonProgressController) mutate(
	ctx context.Context,
	spanName string,
	failure i18n.MessageKey,
	courseID, enrollmentID string,
	call func(context.Context, *domain.LessonRef) error,
) error {
	lessonID, gen := lc.binding()
	if lessonID == "" {
		return domain.ErrNoLessonBound
	}
	release, err := lc.deps.Gate.Acquire(ctx, lessonID)
	if err != nil {
		lc.fail(gen, failure)
		return err
	}
	defer release()

	span, ctx := apm.StartSpan(ctx, spanName, "service")
	defer span.End()

	ref := &domain.LessonRef{LessonID: lessonID, CourseID: courseID, EnrollmentID: enrollmentID}
	lc.begin(gen)
	if err := call(ctx, ref); err != nil {
		lc.deps.Logger.Error("lesson mutation failed",
			zap.String("operation", spanName),
			zap.String("lesson.id", lessonID),
			zap.String("course.id", courseID),
			zap.Error(err),
		)
		lc.fail(gen, failure)
		return err
	}
	lc.load(ctx, lessonID, gen)
	return nil
}

// load fetch progress, the lesson slot must be held by the caller
func (lc *LessonProgressController) load(ctx context.Context, lessonID string, gen uint64) {
	span, ctx := apm.StartSpan(ctx, "LessonProgressController.Load", "service")
	defer span.End()

	lc.begin(gen)
	progress, err := lc.deps.API.GetLessonProgress(ctx, lessonID)
	if err != nil {
		lc.deps.Logger.Error("failed to load lesson progress", zap.String("lesson.id", lessonID), zap.Error(err))
		lc.fail(gen, i18n.MsgLessonLoadFailed)
		return
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if gen != lc.generation {
		return
	}
	lc.progress = progress
	lc.loading = false
	lc.errMsg = ""
	lc.status = StatusLoaded
}

func (lc *LessonProgressController) enqueue(ctx context.Context, ref *domain.LessonRef, delta *domain.ProgressDelta) {
	logger := lc.deps.Logger.With(zap.String("lesson.id", ref.LessonID))
	id, err := lc.deps.IDs.Generate()
	if err != nil {
		logger.Error("failed to generate pending update id", zap.Error(err))
		return
	}
	update := &domain.PendingProgressUpdate{
		ID:           id,
		LessonID:     ref.LessonID,
		CourseID:     ref.CourseID,
		EnrollmentID: ref.EnrollmentID,
		Delta:        *delta,
		CreatedAt:    lc.deps.Now().UnixNano() / 1e6, // milliseconds
	}
	// the request context may be the reason the update failed
	if err := lc.deps.Store.Append(context.WithoutCancel(ctx), update); err != nil {
		logger.Error("failed to queue pending update", zap.Error(err))
		return
	}
	logger.Info("queued pending update", zap.String("pending.id", id))
}

func (lc *LessonProgressController) binding() (string, uint64) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.lessonID, lc.generation
}

func (lc *LessonProgressController) begin(gen uint64) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if gen != lc.generation {
		return
	}
	lc.loading = true
	lc.errMsg = ""
	lc.status = StatusLoading
}

func (lc *LessonProgressController) fail(gen uint64, key i18n.MessageKey) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if gen != lc.generation {
		return
	}
	lc.loading = false
	lc.errMsg = lc.deps.Messages.Message(key)
	lc.status = StatusErrored
}
