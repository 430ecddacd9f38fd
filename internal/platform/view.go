package platform

import (
	"context"
	"sync"

	"github.com/jellyshell/jellyshell/internal/bridge"
	"go.uber.org/zap"
)

// WindowView tracks the host window's fullscreen state
type WindowView struct {
	mu         sync.Mutex
	fullscreen bool
	notify     func(fullscreen bool)
	logger     *zap.Logger
}

// NewWindowView creates a windowed view. notify may be nil.
func NewWindowView(notify func(fullscreen bool), logger *zap.Logger) *WindowView {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WindowView{notify: notify, logger: logger.Named("view")}
}

// EnterFullscreen implements display.View
func (v *WindowView) EnterFullscreen() error {
	return v.set(true)
}

// ExitFullscreen implements display.View
func (v *WindowView) ExitFullscreen() error {
	return v.set(false)
}

// Fullscreen reports the current state
func (v *WindowView) Fullscreen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fullscreen
}

func (v *WindowView) set(on bool) error {
	v.mu.Lock()
	changed := v.fullscreen != on
	v.fullscreen = on
	v.mu.Unlock()

	if changed {
		v.logger.Debug("fullscreen changed", zap.Bool("fullscreen", on))
		if v.notify != nil {
			v.notify(on)
		}
	}
	return nil
}

// WakeLock is a reference-counted display request
type WakeLock struct {
	mu    sync.Mutex
	count int
}

// Acquire implements display.WakeLock
func (w *WakeLock) Acquire() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.count++
	return nil
}

// Release implements display.WakeLock. Releasing an unheld lock does nothing.
func (w *WakeLock) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.count > 0 {
		w.count--
	}
	return nil
}

// Held reports whether any request is active
func (w *WakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count > 0
}

// Navigator records the current native page
type Navigator struct {
	mu      sync.Mutex
	current bridge.Page
	history []bridge.Page
	notify  func(bridge.Page)
}

// NewNavigator starts on start. notify may be nil.
func NewNavigator(start bridge.Page, notify func(bridge.Page)) *Navigator {
	return &Navigator{current: start, notify: notify}
}

// Navigate implements bridge.Navigator
func (n *Navigator) Navigate(page bridge.Page) error {
	n.mu.Lock()
	n.history = append(n.history, n.current)
	n.current = page
	n.mu.Unlock()

	if n.notify != nil {
		n.notify(page)
	}
	return nil
}

// Back returns to the previous page. It reports false on the first page, so
// it can serve as a lowest priority back handler.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	if len(n.history) == 0 {
		n.mu.Unlock()
		return false
	}
	page := n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]
	n.current = page
	n.mu.Unlock()

	if n.notify != nil {
		n.notify(page)
	}
	return true
}

// Current returns the page being shown
func (n *Navigator) Current() bridge.Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Terminator cancels the host context once
type Terminator struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTerminator wraps cancel, which may be nil
func NewTerminator(cancel context.CancelFunc) *Terminator {
	return &Terminator{cancel: cancel, done: make(chan struct{})}
}

// Terminate implements bridge.Terminator
func (t *Terminator) Terminate() {
	t.once.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
		close(t.done)
	})
}

// Done is closed after Terminate
func (t *Terminator) Done() <-chan struct{} {
	return t.done
}
