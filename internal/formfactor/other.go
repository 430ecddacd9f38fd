//go:build !linux && !darwin && !windows

package formfactor

func detectPlatform(info *DeviceInfo) {
	info.FormFactor = Desktop
}
