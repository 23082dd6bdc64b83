// Package buildlog builds the logger used for build-time output. Three
// modes: default (colorized when the terminal supports it), plain (no
// color), quiet (discarded).
package buildlog

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

type Mode string

const (
	ModeDefault Mode = "default"
	ModePlain   Mode = "plain"
	ModeQuiet   Mode = "quiet"
)

// ParseMode validates a logging mode string; empty means default.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDefault:
		return ModeDefault, nil
	case ModePlain:
		return ModePlain, nil
	case ModeQuiet:
		return ModeQuiet, nil
	}
	return "", fmt.Errorf("CFG_LOGGING_MODE: unsupported logging mode %q", s)
}

// New returns a logger for the given mode, writing to stderr.
func New(mode Mode) *log.Logger {
	var w io.Writer = os.Stderr
	if mode == ModeQuiet {
		w = io.Discard
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "assetpack",
	})
	if mode == ModePlain {
		logger.SetColorProfile(termenv.Ascii)
	}
	return logger
}
