// Package shellscript renders the JavaScript adapter injected into web content
package shellscript

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

//go:embed nativeshell.js
var scriptSource string

// AppInfo is substituted into the script
type AppInfo struct {
	Name       string
	Version    string
	DeviceName string
	DeviceID   string
	FormFactor string
	// Capabilities are nil when the display cannot be queried.
	SupportsHDR10       *bool
	SupportsDolbyVision *bool
}

// Load returns the script with every placeholder replaced by a JavaScript literal
func Load(info AppInfo) (string, error) {
	pairs := []string{}
	for _, kv := range []struct {
		key, value string
	}{
		{"APP_NAME", info.Name},
		{"APP_VERSION", info.Version},
		{"DEVICE_NAME", info.DeviceName},
		{"DEVICE_ID", info.DeviceID},
		{"FORM_FACTOR", info.FormFactor},
	} {
		lit, err := sonic.MarshalString(kv.value)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", kv.key, err)
		}
		pairs = append(pairs, kv.key, lit)
	}
	pairs = append(pairs,
		"SUPPORTS_HDR", boolLiteral(info.SupportsHDR10),
		"SUPPORTS_DOVI", boolLiteral(info.SupportsDolbyVision),
	)

	return strings.NewReplacer(pairs...).Replace(scriptSource), nil
}

// Bool is a helper for filling the optional capability fields
func Bool(v bool) *bool {
	return &v
}

func boolLiteral(v *bool) string {
	switch {
	case v == nil:
		return "undefined"
	case *v:
		return "true"
	default:
		return "false"
	}
}
