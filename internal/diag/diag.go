// Package diag renders w++ exceptions and warnings as caret-annotated
// source snippets, and holds the warning bitset that gates the four
// non-fatal conditions described in spec.md §7.
//
// Grounded in the teacher's pretty-printed diagnostics (daios-ai-msg's
// errors.go WrapErrorWithName / prettyErrorStringLabeled caret-snippet
// renderer), recolored with github.com/pterm/pterm the way
// ComedicChimera-chai's src/logging/display.go separates severity
// colors (red for errors, yellow for warnings) from message text.
package diag

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/violetastcs/wotpp/internal/ast"
)

// Bit identifies one of the four warning conditions in spec.md §6.
type Bit int

const (
	FuncRedefined Bit = 1 << iota
	ParamShadowFunc
	ParamShadowParam
	VarfuncRedefined
)

var names = map[Bit]string{
	FuncRedefined:    "funcRedefined",
	ParamShadowFunc:  "paramShadowFunc",
	ParamShadowParam: "paramShadowParam",
	VarfuncRedefined: "varfuncRedefined",
}

// Name returns the bit's CLI/spec name, or "" if b is not a single known bit.
func (b Bit) Name() string { return names[b] }

// AllBits is every warning bit, in the order spec.md §6 lists them.
var AllBits = []Bit{FuncRedefined, ParamShadowFunc, ParamShadowParam, VarfuncRedefined}

// ParseBitName maps a CLI -W token back to its Bit, for disabling by name.
func ParseBitName(s string) (Bit, bool) {
	for _, b := range AllBits {
		if b.Name() == s {
			return b, true
		}
	}
	return 0, false
}

// Set is the warning bitset. The zero Set has every bit enabled, matching
// spec.md §6 ("all on by default in the driver"); callers clear bits
// explicitly via Disable.
type Set struct {
	disabled Bit
}

// Disable turns b off.
func (s *Set) Disable(b Bit) { s.disabled |= b }

// Enabled reports whether b is currently active.
func (s *Set) Enabled(b Bit) bool { return s.disabled&b == 0 }

// Exception is the single failure type raised by the evaluator: a
// source position plus a message, per spec.md §7 ("All failures are of
// one kind").
type Exception struct {
	Pos ast.Position
	Msg string
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Path, e.Pos.Line, e.Pos.Col, e.Msg)
}

// New constructs an *Exception at pos with a formatted message.
func New(pos ast.Position, format string, args ...interface{}) *Exception {
	return &Exception{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Wrap prefixes an existing exception's message with a new one, used by
// the `eval` intrinsic's inside-eval wrapping (spec.md §4.4).
func Wrap(outer ast.Position, prefix string, inner error) *Exception {
	return &Exception{Pos: outer, Msg: fmt.Sprintf("%s: %s", prefix, inner.Error())}
}

// Render formats an error for the terminal: a colored severity tag, the
// message, and (when src is available) a caret-pointed source line.
// Mirrors the teacher's labeled-snippet renderer but delegates color
// selection to pterm style objects instead of raw ANSI codes.
func Render(severity string, pos ast.Position, msg string, src string) string {
	var b strings.Builder

	tag := pterm.FgRed.Sprintf("error")
	if severity == "warning" {
		tag = pterm.FgYellow.Sprintf("warning")
	}
	fmt.Fprintf(&b, "%s: %s:%d:%d: %s\n", tag, pos.Path, pos.Line, pos.Col, msg)

	line := sourceLine(src, pos.Line)
	if line != "" {
		fmt.Fprintf(&b, "    %s\n", line)
		fmt.Fprintf(&b, "    %s%s\n", strings.Repeat(" ", pos.Col), pterm.FgCyan.Sprint("^"))
	}
	return b.String()
}

func sourceLine(src string, line int) string {
	if src == "" || line <= 0 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Warn writes a non-fatal warning to w, in the same caret-snippet shape
// as Render. It writes unconditionally; callers check Set.Enabled before
// calling it.
func Warn(w interface{ Write([]byte) (int, error) }, pos ast.Position, msg, src string) {
	w.Write([]byte(Render("warning", pos, msg, src)))
}
