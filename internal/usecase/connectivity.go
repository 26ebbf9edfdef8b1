package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const probeTimeout = 5 * time.Second

// Pinger reachability check of the progress backend
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityProber track backend reachability and notify subscribers
// every time it goes from offline to online.
//
// It starts offline, so the first successful probe counts as a restore.
type ConnectivityProber struct {
	target Pinger
	logger *zap.Logger
	cron   *cron.Cron

	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]chan struct{}
}

var _ domain.ConnectivitySource = &ConnectivityProber{}

// NewConnectivityProber probe target on schedule (standard cron spec or descriptors like "@every 15s")
func NewConnectivityProber(target Pinger, schedule string, logger *zap.Logger) (*ConnectivityProber, error) {
	cp := &ConnectivityProber{
		target: target,
		logger: logger,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		subs:   make(map[int]chan struct{}),
	}
	if _, err := cp.cron.AddFunc(schedule, func() { cp.Probe(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid probe schedule %q: %w", schedule, err)
	}
	return cp, nil
}

// Start run the schedule in background
func (cp *ConnectivityProber) Start() {
	cp.cron.Start()
	cp.logger.Info("connectivity prober started")
}

// Stop stop the schedule and wait for a running probe
func (cp *ConnectivityProber) Stop() {
	<-cp.cron.Stop().Done()
}

// Probe ping the backend once and report the outcome
func (cp *ConnectivityProber) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := cp.target.Ping(ctx)
	if err != nil {
		cp.logger.Debug("connectivity probe failed", zap.Error(err))
	}
	cp.Report(err == nil)
	return err == nil
}

// Report record reachability observed elsewhere, eg. by the UI
func (cp *ConnectivityProber) Report(online bool) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	restored := online && !cp.online
	if online != cp.online {
		cp.logger.Info("connectivity changed", zap.Bool("online", online))
	}
	cp.online = online
	if !restored {
		return
	}
	for _, ch := range cp.subs {
		select {
		case ch <- struct{}{}:
		default: // a restore is already pending for this subscriber
		}
	}
}

// Online last known reachability
func (cp *ConnectivityProber) Online() bool {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.online
}

// Subscribe receive a signal on every restore
func (cp *ConnectivityProber) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	cp.mu.Lock()
	id := cp.nextID
	cp.nextID++
	cp.subs[id] = ch
	cp.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			cp.mu.Lock()
			delete(cp.subs, id)
			cp.mu.Unlock()
		})
	}
}
