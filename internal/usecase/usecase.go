package usecase

import (
	"context"
	"time"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/i18n"
	"github.com/pot-code/learn-progress/internal/infrastructure/uuid"
	"github.com/pot-code/learn-progress/internal/infrastructure/validate"
	"go.uber.org/zap"
)

// LoadStatus lifecycle of a controller binding
type LoadStatus string

// load status
const (
	StatusIdle    LoadStatus = "idle"
	StatusLoading LoadStatus = "loading"
	StatusLoaded  LoadStatus = "loaded"
	StatusErrored LoadStatus = "errored"
)

// ProgressUseCase shared collaborators of the progress controllers
type ProgressUseCase struct {
	API       domain.ProgressAPI
	Store     domain.PendingStore
	Gate      *LessonGate
	IDs       uuid.Generator
	Validator validate.Validator
	Messages  *i18n.Catalog
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewProgressUseCase ...
func NewProgressUseCase(
	API domain.ProgressAPI,
	Store domain.PendingStore,
	IDs uuid.Generator,
	Validator validate.Validator,
	Messages *i18n.Catalog,
	Logger *zap.Logger,
) *ProgressUseCase {
	return &ProgressUseCase{
		API:       API,
		Store:     Store,
		Gate:      NewLessonGate(),
		IDs:       IDs,
		Validator: Validator,
		Messages:  Messages,
		Logger:    Logger,
		Now:       time.Now,
	}
}

// LessonController create a controller bound to lessonID, empty id leaves it unbound
func (pu *ProgressUseCase) LessonController(lessonID string) *LessonProgressController {
	return newLessonProgressController(pu, lessonID)
}

// CourseController create a controller bound to courseID and load it
func (pu *ProgressUseCase) CourseController(ctx context.Context, courseID string) *CourseProgressController {
	c := newCourseProgressController(pu)
	c.Bind(ctx, courseID)
	return c
}

// UserSummaryController create a controller and load the summary once
func (pu *ProgressUseCase) UserSummaryController(ctx context.Context) *UserSummaryController {
	c := newUserSummaryController(pu)
	c.Load(ctx)
	return c
}

// SyncController create the offline sync controller
func (pu *ProgressUseCase) SyncController(failureThreshold int) *SyncController {
	return newSyncController(pu, failureThreshold)
}

// Dashboard compose a course controller bound to courseID with the shared sync
// controller. Nothing is fetched, call Course.Load or RefreshAll.
func (pu *ProgressUseCase) Dashboard(courseID string, sync *SyncController) *Dashboard {
	c := newCourseProgressController(pu)
	c.Select(courseID)
	return NewDashboard(c, sync)
}
