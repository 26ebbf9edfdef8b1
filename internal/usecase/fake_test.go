package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/driver"
	"github.com/pot-code/learn-progress/internal/infrastructure/i18n"
	"github.com/pot-code/learn-progress/internal/infrastructure/uuid"
	"github.com/pot-code/learn-progress/internal/infrastructure/validate"
	"github.com/pot-code/learn-progress/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errNetwork = errors.New("network unreachable")

type recordedUpdate struct {
	Ref   domain.LessonRef
	Delta domain.ProgressDelta
}

// fakeAPI in-memory progress backend
type fakeAPI struct {
	mu      sync.Mutex
	lessons map[string]*domain.LessonProgressModel
	courses map[string]*domain.CourseProgressModel
	summary *domain.UserProgressSummary

	err        error // returned by every call when set
	updateErrs []error
	updates    []recordedUpdate
	calls      map[string]int

	// concurrency tracking of UpdateLessonProgress
	inflight    int
	maxInflight int
	updateDelay time.Duration
	onUpdate    func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		lessons: make(map[string]*domain.LessonProgressModel),
		courses: make(map[string]*domain.CourseProgressModel),
		calls:   make(map[string]int),
	}
}

func (f *fakeAPI) enter(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.err
}

func (f *fakeAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) recorded() []recordedUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedUpdate(nil), f.updates...)
}

func (f *fakeAPI) lesson(ref *domain.LessonRef) *domain.LessonProgressModel {
	l, ok := f.lessons[ref.LessonID]
	if !ok {
		l = &domain.LessonProgressModel{
			LessonID:     ref.LessonID,
			CourseID:     ref.CourseID,
			EnrollmentID: ref.EnrollmentID,
			Status:       domain.StatusNotStarted,
		}
		f.lessons[ref.LessonID] = l
	}
	return l
}

func (f *fakeAPI) GetLessonProgress(ctx context.Context, lessonID string) (*domain.LessonProgressModel, error) {
	if err := f.enter("GetLessonProgress"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lessons[lessonID]
	if !ok {
		return &domain.LessonProgressModel{LessonID: lessonID, Status: domain.StatusNotStarted}, nil
	}
	copied := *l
	return &copied, nil
}

func (f *fakeAPI) StartLesson(ctx context.Context, ref *domain.LessonRef) error {
	if err := f.enter("StartLesson"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.lesson(ref)
	now := time.Now()
	l.Status = domain.StatusInProgress
	l.StartedAt = &now
	return nil
}

func (f *fakeAPI) CompleteLesson(ctx context.Context, ref *domain.LessonRef) error {
	if err := f.enter("CompleteLesson"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.lesson(ref)
	now := time.Now()
	l.Status = domain.StatusCompleted
	l.ProgressPercentage = 100
	l.CompletedAt = &now
	return nil
}

func (f *fakeAPI) UpdateLessonProgress(ctx context.Context, ref *domain.LessonRef, delta *domain.ProgressDelta) error {
	if err := f.enter("UpdateLessonProgress"); err != nil {
		return err
	}

	f.mu.Lock()
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	delay, hook := f.updateDelay, f.onUpdate
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	f.updates = append(f.updates, recordedUpdate{Ref: *ref, Delta: *delta})
	l := f.lesson(ref)
	l.TimeSpent += delta.TimeSpentDelta
	if delta.ProgressPercentage != nil {
		l.ProgressPercentage = *delta.ProgressPercentage
	}
	if delta.VideoPosition != nil {
		pos := *delta.VideoPosition
		l.VideoPosition = &pos
	}
	if l.Status == domain.StatusNotStarted {
		l.Status = domain.StatusInProgress
	}
	return nil
}

func (f *fakeAPI) GetCourseProgress(ctx context.Context, courseID string) (*domain.CourseProgressModel, error) {
	if err := f.enter("GetCourseProgress"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[courseID]
	if !ok {
		return &domain.CourseProgressModel{CourseID: courseID}, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeAPI) GetUserSummary(ctx context.Context) (*domain.UserProgressSummary, error) {
	if err := f.enter("GetUserSummary"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary, nil
}

func (f *fakeAPI) Ping(ctx context.Context) error {
	return f.enter("Ping")
}

type testEnv struct {
	api   *fakeAPI
	kv    *driver.MemoryKV
	store *repository.PendingKV
	pu    *ProgressUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog, err := i18n.NewCatalog("en")
	require.NoError(t, err)
	validator, err := validate.NewValidator(catalog)
	require.NoError(t, err)
	ids, err := uuid.NewNanoIDGenerator(21)
	require.NoError(t, err)

	api := newFakeAPI()
	kv := driver.NewMemoryKV()
	store := repository.NewPendingKV(kv)
	return &testEnv{
		api:   api,
		kv:    kv,
		store: store,
		pu:    NewProgressUseCase(api, store, ids, validator, catalog, zap.NewNop()),
	}
}

func (env *testEnv) queue(t *testing.T) []*domain.PendingProgressUpdate {
	t.Helper()
	entries, err := env.store.ReadAll(context.Background())
	require.NoError(t, err)
	return entries
}

func (env *testEnv) enqueue(t *testing.T, id, lessonID string, timeSpent int, createdAt int64) {
	t.Helper()
	require.NoError(t, env.store.Append(context.Background(), &domain.PendingProgressUpdate{
		ID:           id,
		LessonID:     lessonID,
		CourseID:     "C1",
		EnrollmentID: "E1",
		Delta:        domain.ProgressDelta{TimeSpentDelta: timeSpent},
		CreatedAt:    createdAt,
	}))
}

func float(v float64) *float64 {
	return &v
}
