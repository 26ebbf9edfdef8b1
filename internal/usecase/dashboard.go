package usecase

import (
	"context"

	"go.elastic.co/apm"
	"golang.org/x/sync/errgroup"
)

// DashboardState union of course and sync state
type DashboardState struct {
	Course CourseProgressState `json:"course"`
	Sync   SyncState           `json:"sync"`
}

// Dashboard course progress plus offline sync of one course page
type Dashboard struct {
	Course *CourseProgressController
	Sync   *SyncController
}

// NewDashboard ...
func NewDashboard(course *CourseProgressController, sync *SyncController) *Dashboard {
	return &Dashboard{Course: course, Sync: sync}
}

// RefreshAll reload course progress and flush pending updates concurrently.
// Course load failures stay in the course state, the sync error is returned.
func (d *Dashboard) RefreshAll(ctx context.Context) error {
	span, ctx := apm.StartSpan(ctx, "Dashboard.RefreshAll", "service")
	defer span.End()

	// a failed sync must not cancel the course reload
	var g errgroup.Group
	g.Go(func() error {
		d.Course.Reload(ctx)
		return nil
	})
	g.Go(func() error {
		if !d.Sync.HasPendingUpdates(ctx) {
			return nil
		}
		return d.Sync.SyncPendingProgress(ctx)
	})
	return g.Wait()
}

// State snapshot of both controllers
func (d *Dashboard) State() DashboardState {
	return DashboardState{
		Course: d.Course.State(),
		Sync:   d.Sync.State(),
	}
}
