package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/i18n"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// SyncState snapshot exposed to the UI
type SyncState struct {
	Syncing             bool       `json:"syncing"`
	LastSync            *time.Time `json:"last_sync"`
	Pending             int        `json:"pending"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Error               string     `json:"error,omitempty"`
}

// SyncController flush the pending-write queue back to the progress API
type SyncController struct {
	deps      *ProgressUseCase
	threshold int
	running   chan struct{} // one flush at a time

	mu       sync.RWMutex
	syncing  bool
	lastSync time.Time
	pending  int
	failures int
	errMsg   string

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan SyncState
}

func newSyncController(pu *ProgressUseCase, failureThreshold int) *SyncController {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &SyncController{
		deps:      pu,
		threshold: failureThreshold,
		running:   make(chan struct{}, 1),
		subs:      make(map[int]chan SyncState),
	}
}

// SyncPendingProgress replay every queued update in creation order.
//
// Entries acknowledged by the server are removed from the store even when a
// later entry fails, the rest stay queued for the next attempt. A concurrent
// call waits for the running one and then works on what is left.
func (sc *SyncController) SyncPendingProgress(ctx context.Context) error {
	select {
	case sc.running <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sc.running }()

	span, ctx := apm.StartSpan(ctx, "SyncController.SyncPendingProgress", "service")
	defer span.End()

	logger := sc.deps.Logger
	entries, err := sc.deps.Store.ReadAll(ctx)
	if err != nil {
		err = fmt.Errorf("read pending progress: %w", err)
		sc.recordFailure(err)
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	sc.setSyncing(true)
	defer sc.setSyncing(false)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt < entries[j].CreatedAt
	})

	var (
		replayed  = make([]*domain.PendingProgressUpdate, 0, len(entries))
		replayErr error
	)
	for _, entry := range entries {
		ref := &domain.LessonRef{
			LessonID:     entry.LessonID,
			CourseID:     entry.CourseID,
			EnrollmentID: entry.EnrollmentID,
		}
		delta := entry.Delta
		if err := sc.deps.API.UpdateLessonProgress(ctx, ref, &delta); err != nil {
			replayErr = fmt.Errorf("replay pending update %s: %w", entry.ID, err)
			break
		}
		replayed = append(replayed, entry)
	}

	if len(replayed) > 0 {
		// acknowledged entries must leave the queue even if ctx is done
		if err := sc.deps.Store.CompareAndClear(context.WithoutCancel(ctx), replayed); err != nil {
			logger.Error("failed to clear replayed updates", zap.Int("replayed", len(replayed)), zap.Error(err))
			if replayErr == nil {
				replayErr = fmt.Errorf("clear pending progress: %w", err)
			}
		}
	}
	sc.refreshPending(ctx)

	if replayErr != nil {
		sc.recordFailure(replayErr)
		return replayErr
	}

	sc.mu.Lock()
	sc.lastSync = sc.deps.Now()
	sc.failures = 0
	sc.errMsg = ""
	sc.mu.Unlock()
	logger.Info("pending progress synced", zap.Int("replayed", len(replayed)))
	return nil
}

// HasPendingUpdates whether the store holds at least one entry
func (sc *SyncController) HasPendingUpdates(ctx context.Context) bool {
	n, err := sc.deps.Store.Count(ctx)
	if err != nil {
		sc.deps.Logger.Error("failed to count pending progress", zap.Error(err))
		return false
	}
	sc.mu.Lock()
	changed := sc.pending != n
	sc.pending = n
	sc.mu.Unlock()
	if changed {
		sc.publish()
	}
	return n > 0
}

// Run sync on every connectivity restore until ctx is done
func (sc *SyncController) Run(ctx context.Context, source domain.ConnectivitySource) {
	online, unsubscribe := source.Subscribe()
	defer unsubscribe()

	logger := sc.deps.Logger
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-online:
			if !ok {
				return
			}
			if !sc.HasPendingUpdates(ctx) {
				continue
			}
			logger.Info("connectivity restored, syncing pending progress")
			if err := sc.SyncPendingProgress(ctx); err != nil {
				logger.Warn("automatic sync failed", zap.Error(err))
			}
		}
	}
}

// State snapshot of the controller
func (sc *SyncController) State() SyncState {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	state := SyncState{
		Syncing:             sc.syncing,
		Pending:             sc.pending,
		ConsecutiveFailures: sc.failures,
		Error:               sc.errMsg,
	}
	if !sc.lastSync.IsZero() {
		last := sc.lastSync
		state.LastSync = &last
	}
	return state
}

// Subscribe receive the latest state after every change. Slow readers only
// see the most recent state.
func (sc *SyncController) Subscribe() (<-chan SyncState, func()) {
	ch := make(chan SyncState, 1)

	sc.subMu.Lock()
	id := sc.nextID
	sc.nextID++
	sc.subs[id] = ch
	sc.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sc.subMu.Lock()
			delete(sc.subs, id)
			sc.subMu.Unlock()
		})
	}
}

func (sc *SyncController) publish() {
	state := sc.State()

	sc.subMu.Lock()
	defer sc.subMu.Unlock()
	for _, ch := range sc.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

func (sc *SyncController) setSyncing(syncing bool) {
	sc.mu.Lock()
	sc.syncing = syncing
	sc.mu.Unlock()
	sc.publish()
}

func (sc *SyncController) refreshPending(ctx context.Context) {
	n, err := sc.deps.Store.Count(context.WithoutCancel(ctx))
	if err != nil {
		sc.deps.Logger.Error("failed to count pending progress", zap.Error(err))
		return
	}
	sc.mu.Lock()
	sc.pending = n
	sc.mu.Unlock()
}

func (sc *SyncController) recordFailure(err error) {
	sc.deps.Logger.Error("pending progress sync failed", zap.Error(err))

	sc.mu.Lock()
	sc.failures++
	if sc.failures >= sc.threshold {
		sc.errMsg = sc.deps.Messages.Message(i18n.MsgSyncFailing)
	}
	sc.mu.Unlock()
	sc.publish()
}
