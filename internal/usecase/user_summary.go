package usecase

import (
	"context"
	"sync"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/i18n"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// UserSummaryState snapshot exposed to the UI
type UserSummaryState struct {
	Summary        *domain.UserProgressSummary `json:"summary"`
	Loading        bool                        `json:"loading"`
	Error          string                      `json:"error,omitempty"`
	Status         LoadStatus                  `json:"status"`
	CompletionRate float64                     `json:"completion_rate"`
	ActiveCourses  []*domain.RecentCourse      `json:"active_courses"`
	TotalStats     *domain.SummaryTotals       `json:"total_stats"`
}

// UserSummaryController cross-course statistics of the signed-in user
type UserSummaryController struct {
	deps *ProgressUseCase

	mu      sync.RWMutex
	summary *domain.UserProgressSummary
	loading bool
	errMsg  string
	status  LoadStatus
}

func newUserSummaryController(pu *ProgressUseCase) *UserSummaryController {
	return &UserSummaryController{
		deps:   pu,
		status: StatusIdle,
	}
}

// Load fetch the summary, errors are swallowed into State().Error
func (uc *UserSummaryController) Load(ctx context.Context) {
	uc.mu.Lock()
	uc.loading = true
	uc.errMsg = ""
	uc.status = StatusLoading
	uc.mu.Unlock()

	span, ctx := apm.StartSpan(ctx, "UserSummaryController.Load", "service")
	defer span.End()

	summary, err := uc.deps.API.GetUserSummary(ctx)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.loading = false
	if err != nil {
		uc.deps.Logger.Error("failed to load user summary", zap.Error(err))
		uc.errMsg = uc.deps.Messages.Message(i18n.MsgSummaryLoadFailed)
		uc.status = StatusErrored
		return
	}
	uc.summary = summary
	uc.status = StatusLoaded
}

// Reload alias of Load
func (uc *UserSummaryController) Reload(ctx context.Context) {
	uc.Load(ctx)
}

// CompletionRate 0 when nothing is loaded
func (uc *UserSummaryController) CompletionRate() float64 {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return completionRateOf(uc.summary)
}

// ActiveCourses recent courses still in progress
func (uc *UserSummaryController) ActiveCourses() []*domain.RecentCourse {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return activeCoursesOf(uc.summary)
}

// TotalStats flattened counters, nil when nothing is loaded
func (uc *UserSummaryController) TotalStats() *domain.SummaryTotals {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return totalStatsOf(uc.summary)
}

// State snapshot of the controller
func (uc *UserSummaryController) State() UserSummaryState {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return UserSummaryState{
		Summary:        uc.summary,
		Loading:        uc.loading,
		Error:          uc.errMsg,
		Status:         uc.status,
		CompletionRate: completionRateOf(uc.summary),
		ActiveCourses:  activeCoursesOf(uc.summary),
		TotalStats:     totalStatsOf(uc.summary),
	}
}

func completionRateOf(summary *domain.UserProgressSummary) float64 {
	if summary == nil || summary.Summary == nil {
		return 0
	}
	return summary.Summary.CompletionRate
}

func activeCoursesOf(summary *domain.UserProgressSummary) []*domain.RecentCourse {
	active := make([]*domain.RecentCourse, 0)
	if summary == nil {
		return active
	}
	for _, c := range summary.RecentCourses {
		if c != nil && c.Status == domain.StatusInProgress {
			active = append(active, c)
		}
	}
	return active
}

func totalStatsOf(summary *domain.UserProgressSummary) *domain.SummaryTotals {
	if summary == nil || summary.Summary == nil {
		return nil
	}
	totals := *summary.Summary
	return &totals
}
