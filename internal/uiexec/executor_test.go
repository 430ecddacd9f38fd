package uiexec

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasksRunInOrder(t *testing.T) {
	e := New(8, nil)
	e.Start()
	defer e.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, e.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}

	require.NoError(t, e.Do(context.Background(), func() error { return nil }))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDoReturnsTaskError(t *testing.T) {
	e := New(0, nil)
	e.Start()
	defer e.Close()

	want := errors.New("boom")
	err := e.Do(context.Background(), func() error { return want })
	assert.ErrorIs(t, err, want)
}

func TestDoRespectsContext(t *testing.T) {
	e := New(1, nil)
	e.Start()
	defer e.Close()

	release := make(chan struct{})
	require.NoError(t, e.Post(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := e.Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestPanicIsRecovered(t *testing.T) {
	e := New(1, nil)
	e.Start()
	defer e.Close()

	err := e.Do(context.Background(), func() error { panic("bad task") })
	require.Error(t, err)

	// The executor keeps running after a panicking task.
	assert.NoError(t, e.Do(context.Background(), func() error { return nil }))
}

func TestCloseDrainsAndRejects(t *testing.T) {
	e := New(4, nil)
	e.Start()

	ran := make(chan struct{}, 1)
	require.NoError(t, e.Post(func() { ran <- struct{}{} }))
	e.Close()
	e.Close()

	select {
	case <-ran:
	default:
		t.Fatal("queued task did not run before Close returned")
	}
	assert.ErrorIs(t, e.Post(func() {}), ErrClosed)
}
