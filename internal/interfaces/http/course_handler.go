package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-progress/internal/usecase"
)

// CourseHandler read-only course and summary views
type CourseHandler struct {
	Progress *usecase.ProgressUseCase
	Sync     *usecase.SyncController
}

// NewCourseHandler ...
func NewCourseHandler(Progress *usecase.ProgressUseCase, Sync *usecase.SyncController) *CourseHandler {
	return &CourseHandler{Progress: Progress, Sync: Sync}
}

// HandleGetCourseProgress ...
func (ch *CourseHandler) HandleGetCourseProgress(c echo.Context) error {
	cc := ch.Progress.CourseController(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, cc.State())
}

// HandleGetSummary ...
func (ch *CourseHandler) HandleGetSummary(c echo.Context) error {
	uc := ch.Progress.UserSummaryController(c.Request().Context())
	return c.JSON(http.StatusOK, uc.State())
}

// HandleGetDashboard ...
func (ch *CourseHandler) HandleGetDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	d := ch.Progress.Dashboard(c.Param("id"), ch.Sync)
	d.Course.Load(ctx)
	d.Sync.HasPendingUpdates(ctx)
	return c.JSON(http.StatusOK, d.State())
}

// HandleRefreshDashboard reload the course and flush pending updates
func (ch *CourseHandler) HandleRefreshDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	d := ch.Progress.Dashboard(c.Param("id"), ch.Sync)
	if err := d.RefreshAll(ctx); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d.State())
}
