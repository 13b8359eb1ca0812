package colors

import "fmt"

// Color describes an ANSI SGR code used when colorizing console output.
type Color int

const (
	// BLACK is the ANSI code for black
	BLACK Color = iota + 30
	// RED is the ANSI code for red
	RED
	// GREEN is the ANSI code for green
	GREEN
	// YELLOW is the ANSI code for yellow
	YELLOW
	// BLUE is the ANSI code for blue
	BLUE
	// MAGENTA is the ANSI code for magenta
	MAGENTA
	// CYAN is the ANSI code for cyan
	CYAN
	// WHITE is the ANSI code for white
	WHITE
	// BOLD is the ANSI code for bold text
	BOLD = 1
	// DARK_GRAY is the ANSI code for dark gray
	DARK_GRAY = 90
)

// LEFT_ARROW is the unicode glyph used to prefix info-level console output.
const LEFT_ARROW = "⇾"

// enabled controls whether Colorize wraps its input in ANSI codes.
var enabled = true

// DisableColor turns all colorization into a pass-through, for terminals without ANSI support.
func DisableColor() {
	enabled = false
}

// Colorize returns the string representation of s wrapped in the ANSI code c.
func Colorize(s any, c Color) string {
	if !enabled {
		return fmt.Sprintf("%v", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
