package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// clearLine returns the cursor to column 0 and erases the line
const clearLine = "\r\033[K"

// Spinner redraws a one-line progress indicator while a command waits on the
// network. It is silent unless stdout is a terminal.
type Spinner struct {
	out      io.Writer
	draw     bool
	interval time.Duration

	mu      sync.Mutex
	message string
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a stopped spinner writing to out
func NewSpinner(out io.Writer, message string) *Spinner {
	return &Spinner{
		out:      out,
		draw:     stdoutTTY,
		interval: 80 * time.Millisecond,
		message:  message,
	}
}

// Start begins drawing. Starting a running spinner does nothing.
func (s *Spinner) Start() {
	if !s.draw {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(time.Now(), s.stop, s.done)
}

func (s *Spinner) loop(started time.Time, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-stop:
			fmt.Fprint(s.out, clearLine)
			return
		case <-ticker.C:
			fmt.Fprint(s.out, clearLine+s.line(frame, time.Since(started)))
		}
	}
}

func (s *Spinner) line(frame int, elapsed time.Duration) string {
	s.mu.Lock()
	msg := s.message
	s.mu.Unlock()

	glyph := Color(Cyan, spinnerFrames[frame%len(spinnerFrames)])
	if elapsed < 2*time.Second {
		return glyph + " " + msg
	}
	return fmt.Sprintf("%s %s (%ds)", glyph, msg, int(elapsed.Seconds()))
}

// Stop erases the line and waits for the drawing goroutine
func (s *Spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// SetMessage replaces the text shown next to the glyph
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}
