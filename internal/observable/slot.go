// Package observable provides single-writer value slots with revocable
// subscriptions.
package observable

import (
	"io"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const postBuffer = 64

type message[T any] struct {
	value  T
	accept func() bool
	ack    chan struct{}
}

// Slot holds the latest value of one kind of data. Writers post values from
// any goroutine; a single consumer loop applies them in arrival order and
// fans each applied value out to subscribers.
type Slot[T any] struct {
	name   string
	logger *slog.Logger
	clone  func(T) T

	posts     chan message[T]
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.RWMutex
	value T
	has   bool
	subs  map[string]*Subscription[T]
}

// NewSlot starts a slot. clone copies values on the way out so subscribers
// never share mutable state with the slot; nil means values are copied by
// assignment.
func NewSlot[T any](name string, logger *slog.Logger, clone func(T) T) *Slot[T] {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	s := &Slot[T]{
		name:   name,
		logger: logger,
		clone:  clone,
		posts:  make(chan message[T], postBuffer),
		done:   make(chan struct{}),
		subs:   make(map[string]*Subscription[T]),
	}
	go s.run()
	return s
}

// Name returns the slot name used in logs.
func (s *Slot[T]) Name() string { return s.name }

// Post queues v for publication. It reports false when the slot is closed.
func (s *Slot[T]) Post(v T) bool {
	return s.PostIf(v, nil)
}

// PostIf queues v and publishes it only if accept, evaluated on the consumer
// loop at apply time, returns true. A nil accept always publishes.
func (s *Slot[T]) PostIf(v T, accept func() bool) bool {
	return s.enqueue(message[T]{value: v, accept: accept})
}

// Sync blocks until every value posted before the call has been applied.
func (s *Slot[T]) Sync() {
	ack := make(chan struct{})
	if !s.enqueue(message[T]{ack: ack}) {
		return
	}
	select {
	case <-ack:
	case <-s.done:
	}
}

func (s *Slot[T]) enqueue(msg message[T]) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.posts <- msg:
		return true
	case <-s.done:
		return false
	}
}

// Get returns the latest applied value and whether one exists yet.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has {
		var zero T
		return zero, false
	}
	return s.clone(s.value), true
}

// Subscribe registers an observer. If the slot already holds a value the
// subscriber receives it straight away.
func (s *Slot[T]) Subscribe() *Subscription[T] {
	id, err := gonanoid.New()
	if err != nil {
		id = s.name
	}
	sub := &Subscription[T]{
		id:   s.name + "-" + id,
		ch:   make(chan T, 1),
		slot: s,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		sub.closed = true
		close(sub.ch)
		return sub
	default:
	}
	s.subs[sub.id] = sub
	if s.has {
		sub.deliver(s.clone(s.value))
	}
	s.logger.Debug("slot subscribed",
		slog.String("slot", s.name),
		slog.String("subscription", sub.id),
		slog.Int("subscribers", len(s.subs)))
	return sub
}

// Close stops the consumer loop and closes every subscription. Values posted
// afterwards are dropped.
func (s *Slot[T]) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		subs := s.subs
		s.subs = make(map[string]*Subscription[T])
		s.mu.Unlock()
		for _, sub := range subs {
			sub.close()
		}
	})
}

func (s *Slot[T]) run() {
	for {
		select {
		case msg := <-s.posts:
			if msg.ack != nil {
				close(msg.ack)
				continue
			}
			if msg.accept != nil && !msg.accept() {
				s.logger.Debug("slot value superseded", slog.String("slot", s.name))
				continue
			}
			s.apply(msg.value)
		case <-s.done:
			return
		}
	}
}

func (s *Slot[T]) apply(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = s.clone(v)
	s.has = true
	for _, sub := range s.subs {
		sub.deliver(s.clone(v))
	}
}

func (s *Slot[T]) unsubscribe(id string) {
	s.mu.Lock()
	delete(s.subs, id)
	remaining := len(s.subs)
	s.mu.Unlock()
	s.logger.Debug("slot unsubscribed",
		slog.String("slot", s.name),
		slog.String("subscription", id),
		slog.Int("subscribers", remaining))
}

// Subscription receives the values applied to a slot. Its channel holds at
// most one pending value; a slow reader only ever skips intermediate values.
type Subscription[T any] struct {
	id   string
	ch   chan T
	slot *Slot[T]

	mu     sync.Mutex
	closed bool
}

// ID identifies the subscription in logs.
func (sub *Subscription[T]) ID() string { return sub.id }

// C returns the delivery channel. It is closed when the subscription is
// cancelled or the slot is closed.
func (sub *Subscription[T]) C() <-chan T { return sub.ch }

// Cancel revokes the subscription. It is safe to call more than once.
func (sub *Subscription[T]) Cancel() {
	if sub.close() {
		sub.slot.unsubscribe(sub.id)
	}
}

func (sub *Subscription[T]) close() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return false
	}
	sub.closed = true
	close(sub.ch)
	return true
}

// deliver replaces any undelivered value with v. It never blocks: the
// subscription is the only sender and holds mu while sending.
func (sub *Subscription[T]) deliver(v T) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- v
}
