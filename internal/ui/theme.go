// Package ui renders terminal output for the jellyshell commands
package ui

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// SGR sequences
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
)

var (
	stdoutTTY = term.IsTerminal(int(os.Stdout.Fd()))
	styled    atomic.Bool
)

func init() {
	// https://no-color.org/
	styled.Store(stdoutTTY && os.Getenv("NO_COLOR") == "")
}

// SetNoColor turns styling off for the rest of the process. false keeps the
// detected setting.
func SetNoColor(disable bool) {
	if disable {
		styled.Store(false)
	}
}

// Color wraps text in an SGR sequence when styling is on
func Color(code, text string) string {
	if text == "" || !styled.Load() {
		return text
	}
	return code + text + Reset
}
