package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/validate"
	"github.com/pot-code/learn-progress/internal/usecase"
)

// LessonHandler lesson progress operations
type LessonHandler struct {
	Progress  *usecase.ProgressUseCase
	Validator validate.Validator
}

// NewLessonHandler ...
func NewLessonHandler(Progress *usecase.ProgressUseCase, Validator validate.Validator) *LessonHandler {
	return &LessonHandler{Progress: Progress, Validator: Validator}
}

type enrollmentBody struct {
	CourseID     string `json:"course_id" validate:"required"`
	EnrollmentID string `json:"enrollment_id" validate:"required"`
}

type progressBody struct {
	CourseID     string `json:"course_id" validate:"required"`
	EnrollmentID string `json:"enrollment_id" validate:"required"`
	domain.ProgressDelta
}

// HandleGetProgress load and return the lesson state
func (lh *LessonHandler) HandleGetProgress(c echo.Context) error {
	lc := lh.Progress.LessonController(c.Param("id"))
	lc.Load(c.Request().Context())
	return c.JSON(http.StatusOK, lc.State())
}

// HandleStart ...
func (lh *LessonHandler) HandleStart(c echo.Context) error {
	body, err := lh.bindEnrollment(c)
	if err != nil || body == nil {
		return err
	}
	lc := lh.Progress.LessonController(c.Param("id"))
	if err := lc.StartLesson(c.Request().Context(), body.CourseID, body.EnrollmentID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lc.State())
}

// HandleComplete ...
func (lh *LessonHandler) HandleComplete(c echo.Context) error {
	body, err := lh.bindEnrollment(c)
	if err != nil || body == nil {
		return err
	}
	lc := lh.Progress.LessonController(c.Param("id"))
	if err := lc.CompleteLesson(c.Request().Context(), body.CourseID, body.EnrollmentID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lc.State())
}

// HandleUpdateProgress send a progress delta, failed updates are queued for sync
func (lh *LessonHandler) HandleUpdateProgress(c echo.Context) error {
	body := new(progressBody)
	if err := c.Bind(body); err != nil {
		return c.JSON(http.StatusUnprocessableEntity,
			NewRESTStandardError(http.StatusUnprocessableEntity, "Failed to bind progress entity"))
	}
	if errs := lh.Validator.Struct(body); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}

	lc := lh.Progress.LessonController(c.Param("id"))
	if err := lc.UpdateProgress(c.Request().Context(), body.CourseID, body.EnrollmentID, &body.ProgressDelta); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lc.State())
}

// bindEnrollment returns nil body when a response was already written
func (lh *LessonHandler) bindEnrollment(c echo.Context) (*enrollmentBody, error) {
	body := new(enrollmentBody)
	if err := c.Bind(body); err != nil {
		return nil, c.JSON(http.StatusUnprocessableEntity,
			NewRESTStandardError(http.StatusUnprocessableEntity, "Failed to bind enrollment entity"))
	}
	if errs := lh.Validator.Struct(body); len(errs) > 0 {
		return nil, c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs))
	}
	return body, nil
}
