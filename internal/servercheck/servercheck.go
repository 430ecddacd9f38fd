// Package servercheck verifies that an address points at a supported media server
package servercheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

const (
	// MinimumVersion is the oldest server this client talks to
	MinimumVersion = "10.9.0"
	// DeprecatedVersion and newer are supported by upcoming releases too
	DeprecatedVersion = "10.10.0"
)

const (
	webUIBasePath    = "/web/"
	systemInfoRoute  = "/System/Info/Public"
	validProductName = "Jellyfin Server"
	defaultTimeout   = 10 * time.Second
)

// Result is the outcome of a check. Failures are results, not errors.
type Result struct {
	Valid   bool
	Message string
	// BaseURL is the API root after redirects
	BaseURL    string
	Version    string
	Deprecated bool
}

type systemInfo struct {
	ProductName string `json:"ProductName"`
	ServerName  string `json:"ServerName"`
	Version     string `json:"Version"`
	ID          string `json:"Id"`
}

// Checker validates server addresses over HTTP
type Checker struct {
	client *resty.Client
	logger *zap.Logger
}

// NewChecker creates a checker with the default 10 second timeout
func NewChecker(logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", "jellyshell")

	return &Checker{
		client: client,
		logger: logger.Named("servercheck"),
	}
}

// SetTimeout configures the per-request timeout
func (c *Checker) SetTimeout(d time.Duration) {
	c.client.SetTimeout(d)
}

// Check follows redirects from u, then asks the server to describe itself
func (c *Checker) Check(ctx context.Context, u *url.URL) Result {
	head, err := c.client.R().SetContext(ctx).Head(u.String())
	if err != nil {
		return c.failure(u, err)
	}

	// Servers redirect to the web client; the API lives one level up.
	base := u.String()
	if head.RawResponse != nil && head.RawResponse.Request != nil {
		base = head.RawResponse.Request.URL.String()
	}
	if strings.HasSuffix(strings.ToLower(base), webUIBasePath) {
		base = base[:len(base)-len(webUIBasePath)]
	}
	base = strings.TrimSuffix(base, "/")

	resp, err := c.client.R().SetContext(ctx).Get(base + systemInfoRoute)
	if err != nil {
		return c.failure(u, err)
	}
	if resp.IsError() {
		return Result{
			Message: fmt.Sprintf("Failed to connect to the server at %q. Status code: %d - %s",
				u.String(), resp.StatusCode(), http.StatusText(resp.StatusCode())),
		}
	}

	res := validate(resp.Body())
	res.BaseURL = base
	c.logger.Debug("server checked",
		zap.String("base", base),
		zap.Bool("valid", res.Valid),
		zap.String("version", res.Version),
	)
	return res
}

func (c *Checker) failure(u *url.URL, err error) Result {
	c.logger.Debug("server check failed", zap.String("url", u.String()), zap.Error(err))
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return Result{Message: "The request timed out. Please check your network connection and try again."}
	}
	return Result{Message: fmt.Sprintf("Could not connect to the server at %q. Error: %v", u.String(), err)}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// validate inspects a /System/Info/Public body
func validate(body []byte) Result {
	var info systemInfo
	if err := sonic.Unmarshal(body, &info); err != nil {
		return Result{Message: fmt.Sprintf("Exception parsing server response: %v", err)}
	}

	if info.ProductName != "" && !strings.EqualFold(info.ProductName, validProductName) {
		return Result{Message: fmt.Sprintf("ProductName '%s' does not match '%s'.", info.ProductName, validProductName)}
	}
	if info.Version == "" {
		return Result{Message: "Unknown error validating server response."}
	}

	v, ok := canonicalVersion(info.Version)
	if !ok {
		return Result{Message: fmt.Sprintf("Invalid server version format: '%s'.", info.Version)}
	}

	res := Result{
		Version:    info.Version,
		Deprecated: semver.Compare(v, "v"+DeprecatedVersion) < 0,
	}
	if semver.Compare(v, "v"+MinimumVersion) < 0 {
		res.Message = fmt.Sprintf("The minimum supported server version is %s, but the server is running %s.", MinimumVersion, info.Version)
		return res
	}
	res.Valid = true
	return res
}

// canonicalVersion converts "10.9.11" or a four part "10.9.11.0" to semver form
func canonicalVersion(s string) (string, bool) {
	v := "v" + strings.TrimPrefix(strings.TrimSpace(s), "v")
	if semver.IsValid(v) {
		return semver.Canonical(v), true
	}

	parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
	if len(parts) == 4 {
		v = "v" + strings.Join(parts[:3], ".")
		if semver.IsValid(v) {
			return semver.Canonical(v), true
		}
	}
	return "", false
}

// IsUnsupported reports whether a stored version is below the minimum
func IsUnsupported(version string) bool {
	v, ok := canonicalVersion(version)
	return !ok || semver.Compare(v, "v"+MinimumVersion) < 0
}
