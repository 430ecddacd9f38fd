// Package registry keeps the servers found during a discovery session
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/jellyshell/jellyshell/internal/discovery"
)

// Entry holds a server and when it last answered
type Entry struct {
	Server    discovery.Server
	FirstSeen time.Time
	LastSeen  time.Time
	Responses int
}

// Registry deduplicates discovery responses by server ID
type Registry struct {
	servers map[string]*Entry
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		servers: make(map[string]*Entry),
	}
}

// Upsert adds or updates a server. Returns true if the ID was not known yet.
func (r *Registry) Upsert(srv discovery.Server) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	entry, exists := r.servers[srv.ID]
	if exists {
		// Same server, possibly from a new address
		entry.Server = srv
		entry.LastSeen = now
		entry.Responses++
		return false
	}

	r.servers[srv.ID] = &Entry{
		Server:    srv,
		FirstSeen: now,
		LastSeen:  now,
		Responses: 1,
	}
	return true
}

// List returns all known servers ordered by ID
func (r *Registry) List() []discovery.Server {
	r.mu.RLock()
	defer r.mu.RUnlock()

	servers := make([]discovery.Server, 0, len(r.servers))
	for _, entry := range r.servers {
		servers = append(servers, entry.Server)
	}
	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Compare(servers[j]) < 0
	})
	return servers
}

// Get returns a copy of the entry for id
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.servers[id]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Count returns the number of known servers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servers)
}

// Clear forgets every server, e.g. when a new session starts
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers = make(map[string]*Entry)
}
