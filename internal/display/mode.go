// Package display negotiates the physical display mode for video playback
package display

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidArgs is returned when enableFullscreen args cannot be parsed
var ErrInvalidArgs = errors.New("display: invalid video target")

// Mode is one selectable output mode reported by the display subsystem
type Mode struct {
	Width                 int     `json:"width" yaml:"width"`
	Height                int     `json:"height" yaml:"height"`
	RefreshRate           float64 `json:"refreshRate" yaml:"refreshRate"`
	HDR10                 bool    `json:"hdr10" yaml:"hdr10"`
	DolbyVisionLowLatency bool    `json:"dolbyVisionLowLatency" yaml:"dolbyVisionLowLatency"`
}

// Pixels returns the total pixel count
func (m Mode) Pixels() int {
	return m.Width * m.Height
}

func (m Mode) String() string {
	s := fmt.Sprintf("%dx%d@%s", m.Width, m.Height, strconv.FormatFloat(m.RefreshRate, 'f', -1, 64))
	if m.DolbyVisionLowLatency {
		s += " dv"
	}
	if m.HDR10 {
		s += " hdr10"
	}
	return s
}

// HdrOption is the dynamic range requested when applying a mode
type HdrOption int

const (
	HdrNone HdrOption = iota
	HdrEotf2084
	HdrDolbyVisionLowLatency
)

func (o HdrOption) String() string {
	switch o {
	case HdrEotf2084:
		return "eotf2084"
	case HdrDolbyVisionLowLatency:
		return "dolbyVisionLowLatency"
	default:
		return "none"
	}
}

// Video range types sent by the web client
const (
	RangeDOVI          = "DOVI"
	RangeDOVIWithHDR10 = "DOVIWithHDR10"
	RangeDOVIWithHLG   = "DOVIWithHLG"
	RangeHDR           = "HDR"
	RangeHDR10         = "HDR10"
	RangeHDR10Plus     = "HDR10Plus"
	RangeHLG           = "HLG"
	RangeDOVIWithSDR   = "DOVIWithSDR"
	RangeSDR           = "SDR"
	RangeUnknown       = "Unknown"
)

// VideoTarget describes the content about to be played
type VideoTarget struct {
	Width     int
	Height    int
	FrameRate float64
	RangeType string
}

// Preferences are the user's auto-switching settings, read per negotiation
type Preferences struct {
	AutoResolution  bool
	AutoRefreshRate bool
}

// Capabilities reports whether any mode supports HDR10 or Dolby Vision low latency
func Capabilities(modes []Mode) (hdr10, dolbyVision bool) {
	for _, m := range modes {
		hdr10 = hdr10 || m.HDR10
		dolbyVision = dolbyVision || m.DolbyVisionLowLatency
	}
	return hdr10, dolbyVision
}

// HdrRequirement maps a video range type to the HDR option to request, given
// what the display supports. Unknown range types request no HDR.
func HdrRequirement(modes []Mode, rangeType string) HdrOption {
	hdr10, dv := Capabilities(modes)

	hdrOtherwiseSdr := HdrNone
	if hdr10 {
		hdrOtherwiseSdr = HdrEotf2084
	}
	dvOtherwiseHdr := hdrOtherwiseSdr
	if dv {
		dvOtherwiseHdr = HdrDolbyVisionLowLatency
	}

	switch rangeType {
	// Only profile 5 is played back as Dolby Vision.
	case RangeDOVI:
		return dvOtherwiseHdr
	case RangeDOVIWithHDR10, RangeDOVIWithHLG, RangeHDR, RangeHDR10, RangeHDR10Plus, RangeHLG:
		return hdrOtherwiseSdr
	default:
		return HdrNone
	}
}

// ParseVideoTarget reads videoWidth, videoHeight, videoFrameRate and
// videoRangeType from an enableFullscreen payload. A missing range type is
// treated as Unknown.
func ParseVideoTarget(args map[string]any) (VideoTarget, error) {
	var t VideoTarget
	if args == nil {
		return t, fmt.Errorf("%w: no args", ErrInvalidArgs)
	}

	w, err := number(args, "videoWidth")
	if err != nil {
		return t, err
	}
	h, err := number(args, "videoHeight")
	if err != nil {
		return t, err
	}
	fps, err := number(args, "videoFrameRate")
	if err != nil {
		return t, err
	}
	if w < 0 || h < 0 || fps < 0 {
		return t, fmt.Errorf("%w: negative dimension", ErrInvalidArgs)
	}
	if w > math.MaxInt32 || h > math.MaxInt32 || fps > math.MaxInt32 {
		return t, fmt.Errorf("%w: dimension out of range", ErrInvalidArgs)
	}

	t.Width = int(w)
	t.Height = int(h)
	t.FrameRate = fps
	t.RangeType = RangeUnknown
	if v, ok := args["videoRangeType"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return t, fmt.Errorf("%w: videoRangeType is %T", ErrInvalidArgs, v)
		}
		t.RangeType = s
	}
	return t, nil
}

func number(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidArgs, key)
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, key, err)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, key, err)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrInvalidArgs, key, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s is not finite", ErrInvalidArgs, key)
	}
	return f, nil
}
