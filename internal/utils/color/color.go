package color

import (
	"os"
	"sync/atomic"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

var disabled atomic.Bool

// Paint wraps text in the given color code when color output is enabled.
func Paint(text, code string, bold bool) string {
	if !isColorEnabled() {
		return text
	}
	if bold {
		code += Bold
	}
	return code + text + Reset
}

func RedText(text string, bold bool) string    { return Paint(text, Red, bold) }
func GreenText(text string, bold bool) string  { return Paint(text, Green, bold) }
func YellowText(text string, bold bool) string { return Paint(text, Yellow, bold) }
func BlueText(text string, bold bool) string   { return Paint(text, Blue, bold) }
func CyanText(text string, bold bool) string   { return Paint(text, Cyan, bold) }

// isColorEnabled checks if color output is supported/enabled
func isColorEnabled() bool {
	if disabled.Load() || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return false
	}

	if fileInfo, _ := os.Stdout.Stat(); fileInfo != nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return true
}

// DisableColor turns color output off for the rest of the process.
func DisableColor() {
	disabled.Store(true)
}
