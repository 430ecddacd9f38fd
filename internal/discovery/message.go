package discovery

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ProbeMessage is broadcast to ask servers to identify themselves
const ProbeMessage = "Who is JellyfinServer?"

// MaxMessageSize bounds a single response datagram
const MaxMessageSize = 4096

// ErrMalformed is returned for a response that is not a server description
var ErrMalformed = errors.New("discovery: malformed response")

// Server is a server that answered a probe. Identity is ID alone; a server
// may answer from a different address between probes.
type Server struct {
	ID              string `json:"Id"`
	Name            string `json:"Name"`
	Address         string `json:"Address"`
	EndpointAddress string `json:"EndpointAddress,omitempty"`
}

// Equal reports whether two responses describe the same server
func (s Server) Equal(other Server) bool {
	return s.ID == other.ID
}

// Compare orders servers by ID
func (s Server) Compare(other Server) int {
	switch {
	case s.ID < other.ID:
		return -1
	case s.ID > other.ID:
		return 1
	default:
		return 0
	}
}

// ParseResponse decodes a response datagram
func ParseResponse(data []byte) (Server, error) {
	var srv Server
	if err := sonic.Unmarshal(data, &srv); err != nil {
		return srv, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if srv.ID == "" {
		return srv, fmt.Errorf("%w: missing Id", ErrMalformed)
	}
	return srv, nil
}

// isProbe reports whether data is empty or our own probe echoed back
func isProbe(data []byte) bool {
	return len(data) == 0 || string(data) == ProbeMessage
}
