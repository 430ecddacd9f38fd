package bridge

import (
	"strings"

	"github.com/bytedance/sonic"
)

// Message types sent by the injected script
const (
	TypeEnableFullscreen   = "enableFullscreen"
	TypeDisableFullscreen  = "disableFullscreen"
	TypeSelectServer       = "selectServer"
	TypeOpenClientSettings = "openClientSettings"
	TypeExit               = "exit"
	TypeLog                = "log"
	TypeLoaded             = "loaded"
)

// Message is one JSON object posted by web content
type Message struct {
	Type string         `json:"type"`
	Args map[string]any `json:"args,omitempty"`
}

// logArgs returns the level and the space-joined messages of a log payload
func logArgs(args map[string]any) (string, string) {
	level, _ := args["level"].(string)

	items, _ := args["messages"].([]any)
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			parts = append(parts, v)
		case nil:
			parts = append(parts, "null")
		default:
			s, err := sonic.MarshalString(v)
			if err != nil {
				continue
			}
			parts = append(parts, s)
		}
	}
	return level, strings.Join(parts, " ")
}
