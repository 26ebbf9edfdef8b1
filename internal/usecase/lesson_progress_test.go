package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonProgressController_LoadWithoutLesson(t *testing.T) {
	env := newTestEnv(t)
	lc := env.pu.LessonController("")
	before := lc.State()

	lc.Load(context.Background())
	lc.Reload(context.Background())

	assert.Equal(t, 0, env.api.callCount("GetLessonProgress"))
	assert.Equal(t, before, lc.State())
	assert.Equal(t, StatusIdle, lc.State().Status)
}

func TestLessonProgressController_MutationWithoutLesson(t *testing.T) {
	env := newTestEnv(t)
	lc := env.pu.LessonController("")
	ctx := context.Background()

	assert.ErrorIs(t, lc.StartLesson(ctx, "C1", "E1"), domain.ErrNoLessonBound)
	assert.ErrorIs(t, lc.CompleteLesson(ctx, "C1", "E1"), domain.ErrNoLessonBound)
	assert.ErrorIs(t, lc.UpdateProgress(ctx, "C1", "E1", &domain.ProgressDelta{TimeSpentDelta: 1}), domain.ErrNoLessonBound)
	assert.Equal(t, 0, env.api.callCount("StartLesson"))
	assert.Empty(t, env.queue(t))
}

func TestLessonProgressController_StartThenComplete(t *testing.T) {
	env := newTestEnv(t)
	lc := env.pu.LessonController("L1")
	ctx := context.Background()

	require.NoError(t, lc.StartLesson(ctx, "C1", "E1"))
	state := lc.State()
	require.NotNil(t, state.Progress)
	assert.Equal(t, domain.StatusInProgress, state.Progress.Status)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)

	require.NoError(t, lc.CompleteLesson(ctx, "C1", "E1"))
	state = lc.State()
	assert.Equal(t, domain.StatusCompleted, state.Progress.Status)
	assert.Equal(t, float64(100), state.Progress.ProgressPercentage)
	assert.NotNil(t, state.Progress.CompletedAt)
}

func TestLessonProgressController_StartFailure(t *testing.T) {
	env := newTestEnv(t)
	lc := env.pu.LessonController("L1")
	env.api.setErr(errNetwork)

	err := lc.StartLesson(context.Background(), "C1", "E1")

	assert.ErrorIs(t, err, errNetwork)
	state := lc.State()
	assert.Equal(t, StatusErrored, state.Status)
	assert.Equal(t, "Failed to start lesson", state.Error)
	assert.Empty(t, env.queue(t), "start failures are not queued")
}

func TestLessonProgressController_UpdateProgress(t *testing.T) {
	env := newTestEnv(t)
	lc := env.pu.LessonController("L1")
	ctx := context.Background()

	require.NoError(t, lc.UpdateProgress(ctx, "C1", "E1", &domain.ProgressDelta{TimeSpentDelta: 30}))
	state := lc.State()
	require.NotNil(t, state.Progress)
	assert.Equal(t, 30, state.Progress.TimeSpent)
	assert.Empty(t, env.queue(t))

	env.api.setErr(errNetwork)
	err := lc.UpdateProgress(ctx, "C1", "E1", &domain.ProgressDelta{TimeSpentDelta: 30})
	assert.ErrorIs(t, err, errNetwork)

	queued := env.queue(t)
	require.Len(t, queued, 1)
	assert.Equal(t, "L1", queued[0].LessonID)
	assert.Equal(t, "C1", queued[0].CourseID)
	assert.Equal(t, "E1", queued[0].EnrollmentID)
	assert.Equal(t, 30, queued[0].Delta.TimeSpentDelta)
	assert.NotEmpty(t, queued[0].ID)
	assert.Equal(t, "Failed to update lesson progress", lc.State().Error)
}

func TestLessonProgressController_EveryFailedUpdateQueued(t *testing.T) {
	env := newTestEnv(t)
	lc := env.pu.LessonController("L1")
	env.api.setErr(errNetwork)

	for i := 1; i <= 3; i++ {
		assert.Error(t, lc.UpdateProgress(context.Background(), "C1", "E1", &domain.ProgressDelta{TimeSpentDelta: i}))
		assert.Len(t, env.queue(t), i)
	}
}

func TestLessonProgressController_InvalidDelta(t *testing.T) {
	tests := []struct {
		name  string
		delta *domain.ProgressDelta
	}{
		{"nil delta", nil},
		{"negative time", &domain.ProgressDelta{TimeSpentDelta: -1}},
		{"percentage above 100", &domain.ProgressDelta{ProgressPercentage: float(120)}},
		{"negative video position", &domain.ProgressDelta{VideoPosition: float(-3)}},
		{"quiz score above 100", &domain.ProgressDelta{QuizScore: float(101)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			lc := env.pu.LessonController("L1")

			err := lc.UpdateProgress(context.Background(), "C1", "E1", tt.delta)

			assert.ErrorIs(t, err, domain.ErrInvalidDelta)
			assert.Equal(t, 0, env.api.callCount("UpdateLessonProgress"))
			assert.Empty(t, env.queue(t))
		})
	}
}

func TestLessonProgressController_LoadFailure(t *testing.T) {
	env := newTestEnv(t)
	lc := env.pu.LessonController("L1")
	env.api.setErr(errNetwork)

	lc.Load(context.Background())

	state := lc.State()
	assert.Equal(t, StatusErrored, state.Status)
	assert.Equal(t, "Failed to load lesson progress", state.Error)
	assert.Nil(t, state.Progress)
	assert.False(t, state.Loading)
}

func TestLessonProgressController_Bind(t *testing.T) {
	env := newTestEnv(t)
	lc := env.pu.LessonController("L1")
	require.NoError(t, lc.StartLesson(context.Background(), "C1", "E1"))

	lc.Bind("L2")

	state := lc.State()
	assert.Equal(t, "L2", state.LessonID)
	assert.Equal(t, StatusIdle, state.Status)
	assert.Nil(t, state.Progress)
}

func TestLessonProgressController_SerializedPerLesson(t *testing.T) {
	env := newTestEnv(t)
	env.api.updateDelay = 10 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lc := env.pu.LessonController("L1")
			assert.NoError(t, lc.UpdateProgress(context.Background(), "C1", "E1", &domain.ProgressDelta{TimeSpentDelta: 10}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, env.api.maxInflight)
	lc := env.pu.LessonController("L1")
	lc.Load(context.Background())
	assert.Equal(t, 50, lc.State().Progress.TimeSpent)
	assert.Equal(t, 0, env.pu.Gate.size())
}

func TestLessonProgressController_CancelledWhileWaiting(t *testing.T) {
	env := newTestEnv(t)
	release, err := env.pu.Gate.Acquire(context.Background(), "L1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	lc := env.pu.LessonController("L1")
	err = lc.UpdateProgress(ctx, "C1", "E1", &domain.ProgressDelta{TimeSpentDelta: 10})

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, env.api.callCount("UpdateLessonProgress"))
}
