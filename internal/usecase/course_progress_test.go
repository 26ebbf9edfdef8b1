package usecase

import (
	"context"
	"testing"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseProgressController_Stats(t *testing.T) {
	tests := []struct {
		name     string
		progress *domain.CourseProgressModel
		want     *domain.CourseStats
	}{
		{
			name:     "no detail",
			progress: &domain.CourseProgressModel{CourseID: "C1", CompletionPercentage: 42},
			want:     nil,
		},
		{
			name: "with detail",
			progress: &domain.CourseProgressModel{
				CourseID:             "C1",
				CompletionPercentage: 42,
				Detail: &domain.CourseProgressDetail{
					CompletionPercentage: 42,
					LessonsCompleted:     5,
					TotalLessons:         12,
					TotalTimeSpent:       3600,
					CertificateAvailable: false,
					Status:               domain.StatusInProgress,
				},
			},
			want: &domain.CourseStats{
				CompletionPercentage: 42,
				LessonsCompleted:     5,
				TotalLessons:         12,
				TotalTimeSpent:       3600,
				CertificateAvailable: false,
				Status:               domain.StatusInProgress,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.api.courses["C1"] = tt.progress

			cc := env.pu.CourseController(context.Background(), "C1")

			assert.Equal(t, StatusLoaded, cc.State().Status)
			assert.Equal(t, tt.want, cc.Stats())
			assert.Equal(t, tt.want, cc.State().Stats)
		})
	}
}

func TestCourseProgressController_NoDataYet(t *testing.T) {
	env := newTestEnv(t)
	cc := env.pu.CourseController(context.Background(), "")

	assert.Nil(t, cc.Stats())
	assert.Nil(t, cc.NextLesson())
	assert.Equal(t, 0, env.api.callCount("GetCourseProgress"))
}

func TestCourseProgressController_NextLesson(t *testing.T) {
	env := newTestEnv(t)
	env.api.courses["C1"] = &domain.CourseProgressModel{
		CourseID:   "C1",
		NextLesson: &domain.NextLesson{LessonID: "L3", Title: "Closures", Order: 3},
	}
	env.api.courses["C2"] = &domain.CourseProgressModel{CourseID: "C2"}

	cc := env.pu.CourseController(context.Background(), "C1")
	require.NotNil(t, cc.NextLesson())
	assert.Equal(t, "L3", cc.NextLesson().LessonID)

	cc.Bind(context.Background(), "C2")
	assert.Nil(t, cc.NextLesson())
}

func TestCourseProgressController_BindRefetchOnChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cc := env.pu.CourseController(ctx, "C1")
	require.Equal(t, 1, env.api.callCount("GetCourseProgress"))

	cc.Bind(ctx, "C1")
	assert.Equal(t, 1, env.api.callCount("GetCourseProgress"), "same id must not refetch")

	cc.Bind(ctx, "C2")
	assert.Equal(t, 2, env.api.callCount("GetCourseProgress"))
	assert.Equal(t, "C2", cc.CourseID())

	cc.Reload(ctx)
	assert.Equal(t, 3, env.api.callCount("GetCourseProgress"))
}

func TestCourseProgressController_LoadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.api.setErr(errNetwork)

	cc := env.pu.CourseController(context.Background(), "C1")

	state := cc.State()
	assert.Equal(t, StatusErrored, state.Status)
	assert.Equal(t, "Failed to load course progress", state.Error)
	assert.Nil(t, state.Progress)
	assert.False(t, state.Loading)
}

func TestCourseProgressController_SelectDoesNotFetch(t *testing.T) {
	env := newTestEnv(t)
	cc := newCourseProgressController(env.pu)

	assert.True(t, cc.Select("C1"))
	assert.Equal(t, "C1", cc.CourseID())
	assert.Equal(t, StatusIdle, cc.State().Status)
	assert.Equal(t, 0, env.api.callCount("GetCourseProgress"))

	cc.Bind(context.Background(), "C1")
	assert.Equal(t, 1, env.api.callCount("GetCourseProgress"), "a selected but idle course is fetched on bind")
	assert.False(t, cc.Select("C1"))
}
