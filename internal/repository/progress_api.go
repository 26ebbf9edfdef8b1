package repository

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/auth"
)

// ProgressAPIConfig options of the progress backend client
type ProgressAPIConfig struct {
	BaseURL string
	Timeout time.Duration
	Token   *auth.BearerToken
}

// ProgressAPIClient REST client of the progress backend
type ProgressAPIClient struct {
	client *resty.Client
	token  *auth.BearerToken
}

var _ domain.ProgressAPI = &ProgressAPIClient{}

type apiErrorBody struct {
	Message string `json:"message"`
	Title   string `json:"title"`
	Detail  string `json:"detail"`
}

func (b *apiErrorBody) text() string {
	switch {
	case b.Detail != "":
		return b.Detail
	case b.Message != "":
		return b.Message
	}
	return b.Title
}

type lessonMutationBody struct {
	CourseID     string `json:"course_id"`
	EnrollmentID string `json:"enrollment_id"`
	*domain.ProgressDelta
}

// NewProgressAPIClient create a ProgressAPIClient
func NewProgressAPIClient(cfg *ProgressAPIConfig) *ProgressAPIClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetError(&apiErrorBody{})
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	token := cfg.Token
	if token == nil {
		token = auth.NewBearerToken("")
	}
	return &ProgressAPIClient{client: client, token: token}
}

func (pc *ProgressAPIClient) request(ctx context.Context) (*resty.Request, error) {
	token, err := pc.token.Value()
	if err != nil {
		return nil, err
	}
	req := pc.client.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	return req, nil
}

func (pc *ProgressAPIClient) do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		apiErr := &domain.APIError{StatusCode: resp.StatusCode()}
		if body, ok := resp.Error().(*apiErrorBody); ok {
			apiErr.Message = body.text()
		}
		return apiErr
	}
	return nil
}

func (pc *ProgressAPIClient) mutateLesson(ctx context.Context, method, path string, ref *domain.LessonRef, delta *domain.ProgressDelta) error {
	req, err := pc.request(ctx)
	if err != nil {
		return err
	}
	req.SetPathParam("lessonID", ref.LessonID).
		SetBody(&lessonMutationBody{
			CourseID:      ref.CourseID,
			EnrollmentID:  ref.EnrollmentID,
			ProgressDelta: delta,
		})
	return pc.do(req, method, path)
}

// GetLessonProgress GET /progress/lessons/{lessonID}
func (pc *ProgressAPIClient) GetLessonProgress(ctx context.Context, lessonID string) (*domain.LessonProgressModel, error) {
	req, err := pc.request(ctx)
	if err != nil {
		return nil, err
	}
	result := new(domain.LessonProgressModel)
	req.SetPathParam("lessonID", lessonID).SetResult(result)
	if err := pc.do(req, http.MethodGet, "/progress/lessons/{lessonID}"); err != nil {
		return nil, err
	}
	return result, nil
}

// StartLesson POST /progress/lessons/{lessonID}/start
func (pc *ProgressAPIClient) StartLesson(ctx context.Context, ref *domain.LessonRef) error {
	return pc.mutateLesson(ctx, http.MethodPost, "/progress/lessons/{lessonID}/start", ref, nil)
}

// CompleteLesson POST /progress/lessons/{lessonID}/complete
func (pc *ProgressAPIClient) CompleteLesson(ctx context.Context, ref *domain.LessonRef) error {
	return pc.mutateLesson(ctx, http.MethodPost, "/progress/lessons/{lessonID}/complete", ref, nil)
}

// UpdateLessonProgress PATCH /progress/lessons/{lessonID}
func (pc *ProgressAPIClient) UpdateLessonProgress(ctx context.Context, ref *domain.LessonRef, delta *domain.ProgressDelta) error {
	return pc.mutateLesson(ctx, http.MethodPatch, "/progress/lessons/{lessonID}", ref, delta)
}

// GetCourseProgress GET /progress/courses/{courseID}
func (pc *ProgressAPIClient) GetCourseProgress(ctx context.Context, courseID string) (*domain.CourseProgressModel, error) {
	req, err := pc.request(ctx)
	if err != nil {
		return nil, err
	}
	result := new(domain.CourseProgressModel)
	req.SetPathParam("courseID", courseID).SetResult(result)
	if err := pc.do(req, http.MethodGet, "/progress/courses/{courseID}"); err != nil {
		return nil, err
	}
	return result, nil
}

// GetUserSummary GET /progress/users/me/summary
func (pc *ProgressAPIClient) GetUserSummary(ctx context.Context) (*domain.UserProgressSummary, error) {
	req, err := pc.request(ctx)
	if err != nil {
		return nil, err
	}
	result := new(domain.UserProgressSummary)
	req.SetResult(result)
	if err := pc.do(req, http.MethodGet, "/progress/users/me/summary"); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping GET /healthz, any answer below 500 means the backend is reachable
func (pc *ProgressAPIClient) Ping(ctx context.Context) error {
	resp, err := pc.client.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return err
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return &domain.APIError{StatusCode: resp.StatusCode()}
	}
	return nil
}
