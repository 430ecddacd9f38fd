//go:build android || ios

package formfactor

// detectPlatform populates DeviceInfo for phones and tablets
func detectPlatform(info *DeviceInfo) {
	info.FormFactor = Mobile
}
