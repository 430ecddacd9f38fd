// Package config manages persisted shell settings and runtime configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

const (
	// ConfigDirName is the name of the config directory
	ConfigDirName = ".jellyshell"
	// SettingsFileName is the name of the settings file
	SettingsFileName = "settings.json"
)

// Settings keys
const (
	KeyServer          = "SERVER"
	KeyServerVersion   = "SERVER_VERSION"
	KeyAutoResolution  = "AUTO_RESOLUTION"
	KeyAutoRefreshRate = "AUTO_REFRESH_RATE"
	KeyForceTVMode     = "FORCE_TV_MODE"

	// Session-only keys. They are never written to disk.
	KeyServerValidated = "SERVER_VALIDATED"
	KeyAccessToken     = "ACCESS_TOKEN"
)

var sessionKeys = map[string]bool{
	KeyServerValidated: true,
	KeyAccessToken:     true,
}

// Store is the key/value settings contract consumed by the shell components
type Store interface {
	GetBool(key string) bool
	SetBool(key string, value bool) error
	GetString(key string) string
	SetString(key string, value string) error
}

// Paths holds commonly used paths
type Paths struct {
	// ConfigDir is ~/.jellyshell
	ConfigDir string
	// SettingsFile is ~/.jellyshell/settings.json
	SettingsFile string
}

// GetPaths returns the standard paths
func GetPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ConfigDirName)
	return &Paths{
		ConfigDir:    configDir,
		SettingsFile: filepath.Join(configDir, SettingsFileName),
	}, nil
}

// EnsureDirectories creates all required directories
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.ConfigDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.ConfigDir, err)
	}
	return nil
}

// FileStore is a Store persisted as a JSON object. An empty path keeps
// everything in memory.
type FileStore struct {
	path    string
	mu      sync.RWMutex
	values  map[string]any
	session map[string]any
}

// NewMemoryStore returns a store that never touches disk
func NewMemoryStore() *FileStore {
	return &FileStore{
		values:  make(map[string]any),
		session: make(map[string]any),
	}
}

// Open loads the settings file at path. A missing file yields an empty store.
func Open(path string) (*FileStore, error) {
	s := NewMemoryStore()
	s.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := sonic.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	for key := range sessionKeys {
		delete(s.values, key)
	}
	return s, nil
}

// OpenDefault opens the settings file under the user's home directory
func OpenDefault() (*FileStore, error) {
	paths, err := GetPaths()
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	return Open(paths.SettingsFile)
}

// Path returns the backing file path, empty for memory stores
func (s *FileStore) Path() string {
	return s.path
}

// GetBool returns the boolean stored at key, false when unset or not a bool
func (s *FileStore) GetBool(key string) bool {
	v, _ := s.get(key).(bool)
	return v
}

// SetBool stores a boolean
func (s *FileStore) SetBool(key string, value bool) error {
	return s.set(key, value)
}

// GetString returns the string stored at key, empty when unset
func (s *FileStore) GetString(key string) string {
	v, _ := s.get(key).(string)
	return v
}

// SetString stores a string. An empty value removes the key.
func (s *FileStore) SetString(key string, value string) error {
	if value == "" {
		return s.set(key, nil)
	}
	return s.set(key, value)
}

// Snapshot returns the persisted and session values, for display
func (s *FileStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.values)+len(s.session))
	for k, v := range s.values {
		out[k] = v
	}
	for k, v := range s.session {
		out[k] = v
	}
	return out
}

func (s *FileStore) get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sessionKeys[key] {
		return s.session[key]
	}
	return s.values[key]
}

func (s *FileStore) set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.values
	if sessionKeys[key] {
		target = s.session
	}
	if value == nil {
		delete(target, key)
	} else {
		target[key] = value
	}

	if sessionKeys[key] {
		return nil
	}
	return s.save()
}

// save writes the persisted values. Caller holds s.mu.
func (s *FileStore) save() error {
	if s.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := sonic.ConfigStd.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
