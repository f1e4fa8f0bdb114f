// Package events runs side effects of reviews and votes after the primary
// write has succeeded.
package events

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

type Kind string

const (
	ReviewCreated Kind = "review.created"
	ReviewHelpful Kind = "review.helpful"
)

type Event struct {
	Kind     Kind
	ReviewID string
	UserID   string // author credited by the event
	Category string

	HasNotes      bool
	HasAttributes bool
	Recommend     bool
}

// Handler processes one event. Errors are logged, never retried.
type Handler func(ctx context.Context, e Event) error

// Publisher is what the review service depends on.
type Publisher interface {
	Publish(e Event) bool
}

type Outbox struct {
	handler Handler
	log     *logrus.Entry

	mu     sync.RWMutex
	ch     chan Event
	closed bool
	done   chan struct{}
}

func NewOutbox(buffer int, handler Handler) *Outbox {
	if buffer <= 0 {
		buffer = 256
	}
	return &Outbox{
		handler: handler,
		log:     logger.Component("outbox"),
		ch:      make(chan Event, buffer),
		done:    make(chan struct{}),
	}
}

// Start launches the worker. ctx is passed to every handler call.
func (o *Outbox) Start(ctx context.Context) {
	go func() {
		defer close(o.done)
		for e := range o.ch {
			o.dispatch(ctx, e)
		}
	}()
}

func (o *Outbox) dispatch(ctx context.Context, e Event) {
	defer func() {
		if r := recover(); r != nil {
			o.log.WithFields(logrus.Fields{"kind": e.Kind, "review_id": e.ReviewID}).
				Errorf("panic in event handler: %v\n%s", r, debug.Stack())
		}
	}()
	if err := o.handler(ctx, e); err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"kind":      e.Kind,
			"review_id": e.ReviewID,
			"user_id":   e.UserID,
		}).Warn("event handler failed")
	}
}

// Publish enqueues e without blocking. It returns false when the outbox is
// full or already shut down.
func (o *Outbox) Publish(e Event) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return false
	}
	select {
	case o.ch <- e:
		return true
	default:
		o.log.WithField("kind", e.Kind).Warn("outbox full, dropping event")
		return false
	}
}

// Shutdown stops intake and waits for queued events until ctx expires.
func (o *Outbox) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
	o.mu.Unlock()

	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("outbox drain: %w", ctx.Err())
	}
}
