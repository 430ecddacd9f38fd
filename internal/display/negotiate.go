package display

import (
	"math"
	"sort"
)

const (
	refreshTolerance = 0.5
	minRefreshSlack  = 3.0
)

func filter(modes []Mode, keep func(Mode) bool) []Mode {
	out := make([]Mode, 0, len(modes))
	for _, m := range modes {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func hdrMatches(opt HdrOption) func(Mode) bool {
	return func(m Mode) bool {
		switch opt {
		case HdrDolbyVisionLowLatency:
			return m.DolbyVisionLowLatency
		case HdrEotf2084:
			return m.HDR10
		default:
			return true
		}
	}
}

// Width or height is enough; this admits cropped and ultrawide encodes.
func resolutionMatches(w, h int) func(Mode) bool {
	return func(m Mode) bool {
		return m.Width == w || m.Height == h
	}
}

func minResolutionMatches(w, h int) func(Mode) bool {
	return func(m Mode) bool {
		return m.Width >= w || m.Height >= h
	}
}

func refreshRateMatches(fps float64) func(Mode) bool {
	return func(m Mode) bool {
		return math.Abs(fps-m.RefreshRate) <= refreshTolerance
	}
}

func minRefreshRateMatches(fps float64) func(Mode) bool {
	return func(m Mode) bool {
		return m.RefreshRate >= fps-minRefreshSlack
	}
}

// SelectBestModes returns the HDR option to request and the candidates to try,
// best first. An empty slice means the default mode should be applied.
func SelectBestModes(candidates []Mode, target VideoTarget, prefs Preferences) (HdrOption, []Mode) {
	hdr := HdrRequirement(candidates, target.RangeType)

	// Every mode past this point satisfies the HDR requirement.
	modes := filter(candidates, hdrMatches(hdr))

	if prefs.AutoResolution {
		if matching := filter(modes, resolutionMatches(target.Width, target.Height)); len(matching) > 0 {
			modes = matching
		}
	}

	if prefs.AutoRefreshRate {
		if matching := filter(modes, refreshRateMatches(target.FrameRate)); len(matching) > 0 {
			return hdr, matching
		}
	}

	ranked := filter(modes, minResolutionMatches(target.Width, target.Height))
	ranked = filter(ranked, minRefreshRateMatches(target.FrameRate))
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Pixels() != b.Pixels() {
			return a.Pixels() < b.Pixels()
		}
		return a.RefreshRate < b.RefreshRate
	})
	return hdr, ranked
}

// SelectBestMode returns the single best candidate, or false when the default
// mode should be used.
func SelectBestMode(candidates []Mode, target VideoTarget, prefs Preferences) (Mode, HdrOption, bool) {
	hdr, modes := SelectBestModes(candidates, target, prefs)
	if len(modes) == 0 {
		return Mode{}, hdr, false
	}
	return modes[0], hdr, true
}
