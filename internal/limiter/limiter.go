package limiter

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Limiter runs scheduled units with at most Max of them in flight.
// Units that cannot start immediately wait in a FIFO queue.
type Limiter struct {
	max int64
	sem *semaphore.Weighted

	mu      sync.Mutex
	queue   []func()
	running int
}

type Result[T any] struct {
	Value T
	Err   error
}

func New(max int) *Limiter {
	if max < 1 {
		max = 1
	}
	return &Limiter{
		max: int64(max),
		sem: semaphore.NewWeighted(int64(max)),
	}
}

func (l *Limiter) Max() int { return int(l.max) }

func (l *Limiter) Running() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Limiter) Queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Do schedules fn and returns immediately. The returned channel receives
// exactly one Result once fn settles; its error is forwarded unchanged.
func Do[T any](l *Limiter, fn func() (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	l.submit(func() {
		v, err := call(fn)
		out <- Result[T]{Value: v, Err: err}
	})
	return out
}

// Wait drains ch. It exists so callers can join on a context deadline.
func Wait[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	select {
	case r := <-ch:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (l *Limiter) submit(unit func()) {
	l.mu.Lock()
	l.queue = append(l.queue, unit)
	l.dispatchLocked()
	l.mu.Unlock()
}

func (l *Limiter) dispatchLocked() {
	for len(l.queue) > 0 && l.sem.TryAcquire(1) {
		unit := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.running++
		go l.run(unit)
	}
}

func (l *Limiter) run(unit func()) {
	defer func() {
		l.mu.Lock()
		l.running--
		l.sem.Release(1)
		l.dispatchLocked()
		l.mu.Unlock()
	}()
	unit()
}

func call[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("limiter: task panicked: %v", r)
		}
	}()
	return fn()
}
