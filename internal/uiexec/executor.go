// Package uiexec runs platform calls that need thread affinity on a single goroutine
package uiexec

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultQueueSize is the task buffer used when New is given a non-positive size
const DefaultQueueSize = 64

// ErrClosed is returned when posting to an executor that has been closed
var ErrClosed = errors.New("uiexec: executor closed")

// Executor is a single-threaded FIFO task queue. Every task posted to it runs on
// the same goroutine, one at a time, in submission order.
type Executor struct {
	tasks  chan func()
	logger *zap.Logger

	mu      sync.RWMutex
	closed  bool
	started bool

	done chan struct{}
}

// New creates an executor. Call Start before posting work.
func New(size int, logger *zap.Logger) *Executor {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		tasks:  make(chan func(), size),
		logger: logger.Named("uiexec"),
		done:   make(chan struct{}),
	}
}

// Start launches the executor goroutine. Calling it twice is a no-op.
func (e *Executor) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.closed {
		return
	}
	e.started = true

	go e.loop()
}

func (e *Executor) loop() {
	defer close(e.done)

	for task := range e.tasks {
		e.run(task)
	}
}

func (e *Executor) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("task panicked", zap.Any("panic", r))
		}
	}()
	task()
}

// Post queues fn without waiting for it to run
func (e *Executor) Post(fn func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	e.tasks <- fn
	return nil
}

// Do runs fn on the executor and waits for its result. It must not be called
// from a task that is itself running on the executor.
func (e *Executor) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	err := e.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("uiexec: task panicked: %v", r)
				panic(r)
			}
		}()
		result <- fn()
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, runs whatever is already queued and waits for
// the executor goroutine to exit.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	started := e.started
	close(e.tasks)
	e.mu.Unlock()

	if started {
		<-e.done
	}
}
