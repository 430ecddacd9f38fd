package servercheck

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL wraps every ParseServerURL failure. The rest of the message is
// meant for the user.
var ErrInvalidURL = errors.New("invalid server address")

// ParseServerURL validates user input and turns it into an absolute http(s)
// URL. Input without a scheme is assumed to be http.
func ParseServerURL(input string) (*url.URL, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: please enter a server address", ErrInvalidURL)
	}

	sep := strings.Index(input, "://")
	if sep == 0 {
		return nil, fmt.Errorf("%w: please enter a valid HTTP or HTTPS URL scheme", ErrInvalidURL)
	}
	if sep < 0 {
		input = "http://" + input
	}

	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: please enter a valid server URL", ErrInvalidURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: please enter a valid HTTP or HTTPS URL scheme", ErrInvalidURL)
	}
	return u, nil
}
