//go:build darwin && !ios

package formfactor

import (
	"os/exec"
	"strings"
)

// detectPlatform populates DeviceInfo for macOS
func detectPlatform(info *DeviceInfo) {
	info.FormFactor = Desktop

	if out, err := exec.Command("sw_vers", "-productVersion").Output(); err == nil {
		info.OSVersion = strings.TrimSpace(string(out))
	}
}
