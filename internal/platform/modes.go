// Package platform provides host-side implementations of the display, view
// and lifecycle ports used by the native shell
package platform

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/jellyshell/jellyshell/internal/display"
)

// ModeTableFile is the YAML layout of a display mode table
type ModeTableFile struct {
	Default display.Mode   `yaml:"default"`
	Modes   []display.Mode `yaml:"modes"`
	// Reject lists modes the display refuses to switch to
	Reject []display.Mode `yaml:"reject,omitempty"`
}

// ModeTable is a DisplayInfo backed by a fixed list of modes
type ModeTable struct {
	mu          sync.Mutex
	modes       []display.Mode
	defaultMode display.Mode
	reject      map[display.Mode]bool
	current     display.Mode
	hdr         display.HdrOption
}

// NewModeTable creates a table whose current mode starts at def
func NewModeTable(modes []display.Mode, def display.Mode) *ModeTable {
	return &ModeTable{
		modes:       append([]display.Mode(nil), modes...),
		defaultMode: def,
		reject:      make(map[display.Mode]bool),
		current:     def,
	}
}

// ParseModeTable decodes a YAML mode table
func ParseModeTable(data []byte) (*ModeTable, error) {
	var f ModeTableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse mode table: %w", err)
	}
	if len(f.Modes) == 0 {
		return nil, fmt.Errorf("mode table has no modes")
	}
	if f.Default.Width == 0 || f.Default.Height == 0 {
		f.Default = f.Modes[0]
	}

	t := NewModeTable(f.Modes, f.Default)
	for _, m := range f.Reject {
		t.reject[m] = true
	}
	return t, nil
}

// LoadModeTable reads a YAML mode table from path
func LoadModeTable(path string) (*ModeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mode table: %w", err)
	}
	return ParseModeTable(data)
}

// Marshal encodes the table back to YAML
func (t *ModeTable) Marshal() ([]byte, error) {
	t.mu.Lock()
	f := ModeTableFile{Default: t.defaultMode, Modes: t.modes}
	for m := range t.reject {
		f.Reject = append(f.Reject, m)
	}
	t.mu.Unlock()
	return yaml.Marshal(f)
}

// Reject makes RequestSetMode refuse m
func (t *ModeTable) Reject(m display.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reject[m] = true
}

// SupportedModes implements display.DisplayInfo
func (t *ModeTable) SupportedModes(ctx context.Context) ([]display.Mode, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]display.Mode(nil), t.modes...), nil
}

// CurrentMode implements display.DisplayInfo
func (t *ModeTable) CurrentMode(ctx context.Context) (display.Mode, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, nil
}

// CurrentHdr returns the HDR option of the last accepted request
func (t *ModeTable) CurrentHdr() display.HdrOption {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hdr
}

// RequestSetMode implements display.DisplayInfo
func (t *ModeTable) RequestSetMode(ctx context.Context, m display.Mode, hdr display.HdrOption) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reject[m] || !t.supports(m) {
		return false, nil
	}
	t.current = m
	t.hdr = hdr
	return true, nil
}

// SetDefaultMode implements display.DisplayInfo
func (t *ModeTable) SetDefaultMode(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = t.defaultMode
	t.hdr = display.HdrNone
	return nil
}

func (t *ModeTable) supports(m display.Mode) bool {
	for _, s := range t.modes {
		if s == m {
			return true
		}
	}
	return false
}

// TVModes is a typical 4K HDR television mode list
func TVModes() []display.Mode {
	var modes []display.Mode
	for _, res := range []struct{ w, h int }{{3840, 2160}, {1920, 1080}, {1280, 720}} {
		for _, hz := range []float64{23.976, 24, 25, 29.97, 30, 50, 59.94, 60} {
			modes = append(modes, display.Mode{
				Width:                 res.w,
				Height:                res.h,
				RefreshRate:           hz,
				HDR10:                 res.h >= 1080,
				DolbyVisionLowLatency: res.h == 2160 && hz <= 60,
			})
		}
	}
	return modes
}
