//go:build windows

package formfactor

import (
	"os/exec"
	"strings"
)

// detectPlatform populates DeviceInfo for Windows
func detectPlatform(info *DeviceInfo) {
	info.FormFactor = Desktop

	if out, err := exec.Command("cmd", "/c", "ver").Output(); err == nil {
		info.OSVersion = parseVer(string(out))
	}
}

// parseVer extracts the version from "Microsoft Windows [Version 10.0.22631.4317]"
func parseVer(out string) string {
	start := strings.Index(out, "[Version ")
	if start < 0 {
		return ""
	}
	rest := out[start+len("[Version "):]
	if end := strings.Index(rest, "]"); end >= 0 {
		return strings.TrimSpace(rest[:end])
	}
	return ""
}
