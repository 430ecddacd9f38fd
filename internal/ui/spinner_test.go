package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := NewSpinner(&out, "Searching")
	s.draw = true
	s.interval = time.Millisecond

	s.Start()
	s.Start()
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Searching")
	}, time.Second, time.Millisecond)

	s.SetMessage("Searching... 2 found")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "2 found")
	}, time.Second, time.Millisecond)

	s.Stop()
	s.Stop()
	assert.True(t, strings.HasSuffix(out.String(), clearLine))
}

func TestSpinnerSilentWithoutTerminal(t *testing.T) {
	var out syncBuffer
	s := NewSpinner(&out, "Searching")
	s.draw = false

	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	assert.Empty(t, out.String())
}
