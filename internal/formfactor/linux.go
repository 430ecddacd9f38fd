//go:build linux && !android

package formfactor

import (
	"bufio"
	"os"
	"strings"
)

// Distributions that only ship on television hardware or media centers
var tvDistros = map[string]bool{
	"libreelec": true,
	"coreelec":  true,
	"osmc":      true,
	"webos":     true,
	"tizen":     true,
}

// detectPlatform populates DeviceInfo for Linux
func detectPlatform(info *DeviceInfo) {
	info.FormFactor = Desktop

	release, err := parseOSRelease("/etc/os-release")
	if err != nil {
		return
	}
	info.OSVersion = release["VERSION_ID"]
	info.FormFactor = classifyRelease(release)
}

func classifyRelease(release map[string]string) FormFactor {
	id := strings.ToLower(release["ID"])
	variant := strings.ToLower(release["VARIANT_ID"])

	switch {
	case tvDistros[id]:
		return TV
	case variant == "tv" || strings.HasSuffix(variant, "-tv"):
		return TV
	default:
		return Desktop
	}
}

// parseOSRelease parses an os-release file into key/value pairs
func parseOSRelease(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if parts := strings.SplitN(line, "=", 2); len(parts) == 2 {
			data[parts[0]] = strings.Trim(parts[1], `"`)
		}
	}
	return data, scanner.Err()
}
