// Package notify carries success/error signals from the auth and filter
// flows to their presentation subscribers. Flows publish tagged events and
// never depend on who is listening; presentation is a pure subscriber of
// the stream.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/kindify/kindify-gateway/pkg/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Event subjects
const (
	LoginSucceeded    = "auth.login.succeeded"
	LoginFailed       = "auth.login.failed"
	SignupSucceeded   = "auth.signup.succeeded"
	SignupFailed      = "auth.signup.failed"
	SessionEnded      = "auth.session.ended"
	RecoveryCodeSent  = "recovery.code.sent"
	RecoveryFailed    = "recovery.failed"
	RecoveryCompleted = "recovery.completed"
	FilterApplied     = "filter.applied"
	FilterFailed      = "filter.failed"
)

type Event struct {
	Subject string    `json:"subject"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func Success(subject, message string) Event {
	return Event{Subject: subject, Level: LevelSuccess, Message: message, At: time.Now()}
}

func Error(subject, message string) Event {
	return Event{Subject: subject, Level: LevelError, Message: message, At: time.Now()}
}

type Bus interface {
	Publish(ctx context.Context, event Event)
	Subscribe(fn func(Event)) func()
}

// MemoryBus dispatches events synchronously in process. Session and filter
// state live in this process only, so there is nothing to broker externally.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[int]func(Event)
	next int
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]func(Event))}
}

func (b *MemoryBus) Publish(ctx context.Context, event Event) {
	b.mu.Lock()
	listeners := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	logger.DebugContext(ctx, "Publishing event",
		"subject", event.Subject,
		"level", string(event.Level),
	)

	for _, fn := range listeners {
		fn(event)
	}
}

// Subscribe registers a listener. The returned func cancels it.
func (b *MemoryBus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
