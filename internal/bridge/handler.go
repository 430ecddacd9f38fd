// Package bridge routes JSON messages from web content to native actions
package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/jellyshell/jellyshell/internal/backevent"
	"github.com/jellyshell/jellyshell/internal/config"
	"github.com/jellyshell/jellyshell/internal/event"
	"github.com/jellyshell/jellyshell/internal/logging"
	"github.com/jellyshell/jellyshell/internal/metrics"
	"github.com/jellyshell/jellyshell/internal/redact"
	"github.com/jellyshell/jellyshell/internal/uiexec"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrTerminated is returned for every message after exit was handled
var ErrTerminated = errors.New("bridge: application terminated")

// Page is a native view the shell can show
type Page string

const (
	PageMain            Page = "main"
	PageServerSelection Page = "serverSelection"
	PageSettings        Page = "settings"
)

// Display handles fullscreen requests
type Display interface {
	EnableFullscreen(ctx context.Context, args map[string]any) error
	DisableFullscreen(ctx context.Context) error
}

// Navigator switches native views
type Navigator interface {
	Navigate(page Page) error
}

// Terminator ends the application
type Terminator interface {
	Terminate()
}

// Renderer is the embedded web view
type Renderer interface {
	// GoBack navigates web history back and reports whether it could
	GoBack() bool
}

// Defaults for the web log flood guard
const (
	DefaultLogRate  = rate.Limit(50)
	DefaultLogBurst = 100
)

// Options configures a Handler
type Options struct {
	Display    Display
	Navigator  Navigator
	Terminator Terminator
	Settings   config.Store
	Executor   *uiexec.Executor
	Logger     *zap.Logger
	Metrics    *metrics.Metrics

	LogRate  rate.Limit
	LogBurst int
}

// Handler dispatches messages. It never lets a bad message reach the caller
// as an error.
type Handler struct {
	display    Display
	navigator  Navigator
	terminator Terminator
	settings   config.Store
	exec       *uiexec.Executor
	logger     *zap.Logger
	web        *zap.Logger
	metrics    *metrics.Metrics
	limiter    *rate.Limiter

	loaded     atomic.Bool
	onLoaded   event.Observers[struct{}]
	terminated atomic.Bool
	exitOnce   sync.Once
}

// New creates a message handler
func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LogRate == 0 {
		opts.LogRate = DefaultLogRate
	}
	if opts.LogBurst <= 0 {
		opts.LogBurst = DefaultLogBurst
	}

	return &Handler{
		display:    opts.Display,
		navigator:  opts.Navigator,
		terminator: opts.Terminator,
		settings:   opts.Settings,
		exec:       opts.Executor,
		logger:     logger.Named("bridge"),
		web:        logger.Named("web"),
		metrics:    opts.Metrics,
		limiter:    rate.NewLimiter(opts.LogRate, opts.LogBurst),
	}
}

// Loaded reports whether web content has signalled it is ready
func (h *Handler) Loaded() bool {
	return h.loaded.Load()
}

// OnLoaded registers fn for the "loaded" message
func (h *Handler) OnLoaded(fn func()) *event.Subscription {
	return h.onLoaded.Subscribe(func(struct{}) { fn() })
}

// Handle decodes and dispatches one message. The only error it returns is
// ErrTerminated, once exit has been processed.
func (h *Handler) Handle(ctx context.Context, raw []byte) error {
	if h.terminated.Load() {
		return ErrTerminated
	}

	var msg Message
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn("dropping malformed message", zap.Error(err))
		h.metrics.RecordMessage("malformed")
		return nil
	}
	if msg.Type == "" {
		h.logger.Warn("dropping message without type")
		h.metrics.RecordMessage("malformed")
		return nil
	}

	h.Dispatch(ctx, msg)
	return nil
}

// Dispatch routes a decoded message. A panic in any collaborator is logged
// and does not reach the caller.
func (h *Handler) Dispatch(ctx context.Context, msg Message) {
	if h.terminated.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("message handler panicked", zap.String("type", msg.Type), zap.Any("panic", r))
		}
	}()
	h.metrics.RecordMessage(msg.Type)

	switch msg.Type {
	case TypeEnableFullscreen:
		if h.display == nil {
			return
		}
		if err := h.display.EnableFullscreen(ctx, msg.Args); err != nil {
			h.logger.Warn("enableFullscreen failed", zap.Error(err))
		}

	case TypeDisableFullscreen:
		if h.display == nil {
			return
		}
		if err := h.display.DisableFullscreen(ctx); err != nil {
			h.logger.Warn("disableFullscreen failed", zap.Error(err))
		}

	case TypeSelectServer:
		h.selectServer()

	case TypeOpenClientSettings:
		h.navigate(PageSettings)

	case TypeExit:
		h.exit()

	case TypeLog:
		h.forwardLog(msg.Args)

	case TypeLoaded:
		h.loaded.Store(true)
		h.onLoaded.Publish(struct{}{})

	default:
		h.logger.Warn("unexpected message", zap.String("type", msg.Type))
	}
}

func (h *Handler) selectServer() {
	if h.settings != nil {
		if err := h.settings.SetString(config.KeyServer, ""); err != nil {
			h.logger.Error("failed to clear server", zap.Error(err))
		}
		if err := h.settings.SetBool(config.KeyServerValidated, false); err != nil {
			h.logger.Error("failed to clear server validation", zap.Error(err))
		}
	}
	h.navigate(PageServerSelection)
}

// navigate switches views on the UI executor without waiting
func (h *Handler) navigate(page Page) {
	if h.navigator == nil {
		return
	}
	run := func() {
		if err := h.navigator.Navigate(page); err != nil {
			h.logger.Warn("navigation failed", zap.String("page", string(page)), zap.Error(err))
		}
	}
	if h.exec == nil {
		run()
		return
	}
	if err := h.exec.Post(run); err != nil {
		h.logger.Warn("cannot schedule navigation", zap.String("page", string(page)), zap.Error(err))
	}
}

func (h *Handler) exit() {
	h.exitOnce.Do(func() {
		h.terminated.Store(true)
		h.logger.Info("exit requested by web content")
		if h.terminator != nil {
			h.terminator.Terminate()
		}
	})
}

func (h *Handler) forwardLog(args map[string]any) {
	if !h.limiter.Allow() {
		h.metrics.RecordLogDropped()
		return
	}
	level, text := logArgs(args)
	if redact.ContainsSecret(text) {
		h.web.Log(logging.WebLevel(level), redact.RedactSecrets(text), zap.Bool("redacted", true))
		return
	}
	h.web.Log(logging.WebLevel(level), text)
}

// BindBack registers the web view's history navigation as the first back
// handler on src. Release the registration when the view goes away.
func BindBack(d *backevent.Dispatcher, src backevent.Source, r Renderer) *backevent.Registration {
	return d.Observe(src, func(e *backevent.Event) {
		if r.GoBack() {
			e.Handled = true
		}
	}, 0)
}
