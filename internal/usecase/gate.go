package usecase

import (
	"context"
	"sync"
)

// LessonGate serializes operations per lesson id: one in-flight operation
// per lesson, later callers wait for the running one
type LessonGate struct {
	mu    sync.Mutex
	slots map[string]*gateSlot
}

type gateSlot struct {
	sem  chan struct{}
	refs int
}

// NewLessonGate create a LessonGate
func NewLessonGate() *LessonGate {
	return &LessonGate{slots: make(map[string]*gateSlot)}
}

// Acquire wait for the lesson slot, the returned release func must be called once done
func (g *LessonGate) Acquire(ctx context.Context, lessonID string) (func(), error) {
	g.mu.Lock()
	slot, ok := g.slots[lessonID]
	if !ok {
		slot = &gateSlot{sem: make(chan struct{}, 1)}
		g.slots[lessonID] = slot
	}
	slot.refs++
	g.mu.Unlock()

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		g.unref(lessonID, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.sem
			g.unref(lessonID, slot)
		})
	}, nil
}

func (g *LessonGate) unref(lessonID string, slot *gateSlot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(g.slots, lessonID)
	}
}

// size number of lessons with a holder or waiter
func (g *LessonGate) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.slots)
}
