package platform

import (
	"errors"

	"github.com/jellyshell/jellyshell/internal/display"
	"github.com/kbinani/screenshot"
)

// ErrNoDisplay is returned when no active display can be found
var ErrNoDisplay = errors.New("platform: no active display")

// assumedRefreshRate is used because the screen bounds API has no refresh rate
const assumedRefreshRate = 60

// ScreenDefaultMode returns the primary display's resolution as an SDR mode
func ScreenDefaultMode() (display.Mode, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return display.Mode{}, ErrNoDisplay
	}
	bounds := screenshot.GetDisplayBounds(0)
	if bounds.Empty() {
		return display.Mode{}, ErrNoDisplay
	}
	return display.Mode{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		RefreshRate: assumedRefreshRate,
	}, nil
}

// ScreenModeTable builds a single-mode table for desktop hosts
func ScreenModeTable() (*ModeTable, error) {
	m, err := ScreenDefaultMode()
	if err != nil {
		return nil, err
	}
	return NewModeTable([]display.Mode{m}, m), nil
}
