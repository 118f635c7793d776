package app

import (
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// timerSet tracks the pending question countdown per session id. Scheduling
// a new countdown cancels the previous one, so a session never has two
// auto-advances in flight.
type timerSet struct {
	mu      sync.Mutex
	pending map[string]chan struct{}
}

func newTimerSet() *timerSet {
	return &timerSet{pending: make(map[string]chan struct{})}
}

// schedule cancels any pending countdown for sessionID and returns the
// cancellation channel for the new one.
func (t *timerSet) schedule(sessionID string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.pending[sessionID]; ok {
		close(prev)
	}
	cancel := make(chan struct{})
	t.pending[sessionID] = cancel
	return cancel
}

// cancel stops the pending countdown for sessionID, if any.
func (t *timerSet) cancel(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.pending[sessionID]; ok {
		close(prev)
		delete(t.pending, sessionID)
	}
}

// startQuestionTimer launches the countdown for the question at
// questionIndex. Must be called inside the session's critical section so the
// timer can never race a concurrent host command.
func (c *Coordinator) startQuestionTimer(sessionID, code string, questionIndex, limitSeconds int) {
	cancel := c.timers.schedule(sessionID)
	go c.runQuestionTimer(sessionID, code, questionIndex, limitSeconds, cancel)
}

func (c *Coordinator) runQuestionTimer(sessionID, code string, questionIndex, limitSeconds int, cancel <-chan struct{}) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	timeLeft := limitSeconds
	for timeLeft > 0 {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			timeLeft--
			c.notifier.Publish(code, domain.TimerTick{TimeLeft: timeLeft})
		}
	}

	// Short grace so an in-flight host advance wins over the timer.
	grace := time.NewTimer(c.grace)
	defer grace.Stop()
	select {
	case <-cancel:
		return
	case <-grace.C:
	}
	c.autoAdvance(sessionID, questionIndex)
}
