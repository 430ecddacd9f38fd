// Package formfactor detects what kind of device the host is running on
package formfactor

import (
	"fmt"
	"os"
	"runtime"
)

// FormFactor is the device family
type FormFactor string

const (
	Desktop     FormFactor = "desktop"
	Mobile      FormFactor = "mobile"
	Holographic FormFactor = "holographic"
	Xbox        FormFactor = "xbox"
	TV          FormFactor = "tv"
)

// IsTV reports whether the device drives a television-style display and so
// gets display mode negotiation
func (f FormFactor) IsTV() bool {
	switch f {
	case Xbox, Holographic, TV:
		return true
	default:
		return false
	}
}

// Parse converts a stored or user supplied name. Unknown names are Desktop.
func Parse(s string) FormFactor {
	switch FormFactor(s) {
	case Mobile, Holographic, Xbox, TV:
		return FormFactor(s)
	default:
		return Desktop
	}
}

// DeviceInfo contains detected device information
type DeviceInfo struct {
	FormFactor FormFactor
	OS         string
	OSVersion  string
	Arch       string
	Hostname   string
	Forced     bool
}

// String returns a human-readable representation of DeviceInfo
func (d DeviceInfo) String() string {
	s := fmt.Sprintf("%s %s (%s)", d.FormFactor, d.OS, d.Arch)
	if d.OSVersion != "" {
		s = fmt.Sprintf("%s %s %s (%s)", d.FormFactor, d.OS, d.OSVersion, d.Arch)
	}
	if d.Forced {
		s += " [forced]"
	}
	return s
}

// DeviceName is what servers see as the client device name
func (d DeviceInfo) DeviceName() string {
	if d.Hostname != "" {
		return d.Hostname
	}
	return string(d.FormFactor)
}

// Detect detects the current device. forceTV overrides the detected form
// factor, for hosts plugged into a TV that look like desktops.
func Detect(forceTV bool) *DeviceInfo {
	info := &DeviceInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	detectPlatform(info)

	if forceTV && !info.FormFactor.IsTV() {
		info.FormFactor = TV
		info.Forced = true
	}
	return info
}
