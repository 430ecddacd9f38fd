// Package deviceid persists the identifier the shell reports to the server
package deviceid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jellyshell/jellyshell/internal/config"
)

// FileName is the device ID file inside the config directory
const FileName = "device_id"

// GetOrCreate returns the device ID stored under ~/.jellyshell, creating one
// on first use.
func GetOrCreate() (string, error) {
	paths, err := config.GetPaths()
	if err != nil {
		return "", err
	}
	return GetOrCreateAt(paths.ConfigDir)
}

// GetOrCreateAt is GetOrCreate rooted at dir.
func GetOrCreateAt(dir string) (string, error) {
	path := filepath.Join(dir, FileName)

	id, err := read(path)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id), 0600); err != nil {
		return "", fmt.Errorf("failed to write device id: %w", err)
	}
	return id, nil
}

// GetAt returns the stored device ID, or an empty string when none exists.
func GetAt(dir string) (string, error) {
	return read(filepath.Join(dir, FileName))
}

func read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", nil
	}
	if _, err := uuid.Parse(id); err != nil {
		// A corrupt file is replaced rather than reported.
		return "", nil
	}
	return id, nil
}
