// Package util provides diagnostic printing shared across the front end and
// the lowering passes: fatal errors, non-fatal warnings, and the
// source-line-and-caret rendering used by both.
package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/lama-toolchain/lamac/pkg/token"
	"github.com/mattn/go-isatty"
)

type Warning int

const (
	WarnUnusedVar Warning = iota
	WarnShadowedVar
	WarnUnreachableCode
	WarnCount
)

type WarningInfo struct {
	Name        string
	Enabled     bool
	Description string
}

var Warnings = map[Warning]WarningInfo{
	WarnUnusedVar:       {"unused-var", true, "Local variable is declared but never read"},
	WarnShadowedVar:     {"shadowed-var", true, "Local declaration shadows an outer binding"},
	WarnUnreachableCode: {"unreachable-code", true, "Statement follows an unconditional return path"},
}

var WarningMap = make(map[string]Warning)

func init() {
	for wt, info := range Warnings {
		WarningMap[info.Name] = wt
	}
}

// SetWarning enables or disables a specific warning.
func SetWarning(wt Warning, enabled bool) {
	if info, ok := Warnings[wt]; ok {
		info.Enabled = enabled
		Warnings[wt] = info
	}
}

// IsWarningEnabled reports whether a specific warning is currently enabled.
func IsWarningEnabled(wt Warning) bool {
	if info, ok := Warnings[wt]; ok {
		return info.Enabled
	}
	return false
}

// SetAllWarnings enables or disables all warnings at once.
func SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		SetWarning(i, enabled)
	}
}

// PrintWarnings prints the current status of all warnings.
func PrintWarnings() {
	for i := Warning(0); i < WarnCount; i++ {
		info := Warnings[i]
		fmt.Printf("  - %-20s: %v (%s)\n", info.Name, info.Enabled, info.Description)
	}
}

// colorEnabled reports whether ANSI escapes should be written to stderr.
// Disabled when stderr is not a terminal, matching how the rest of the
// ecosystem gates coloring on isatty rather than always emitting escapes.
var colorEnabled = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

func color(code, s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// SourceFileRecord tracks the name and content of a single input file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

var sourceFiles []SourceFileRecord

// SetSourceFiles stores the source of every compiled input for caret rendering.
func SetSourceFiles(files []SourceFileRecord) {
	sourceFiles = files
}

func findFileAndLine(tok token.Token) (filename string, line, col int) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(sourceFiles) {
		return "unknown", tok.Line, tok.Column
	}
	return sourceFiles[tok.FileIndex].Name, tok.Line, tok.Column
}

func printErrorLine(stream *os.File, tok token.Token) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(sourceFiles) || tok.Line == 0 {
		return
	}

	content := sourceFiles[tok.FileIndex].Content
	lineNum := tok.Line
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(stream, "  %s\n", string(content[lineStart:lineEnd]))

	caret := strings.Repeat(" ", tok.Column-1) + "^"
	if tok.Len > 1 {
		caret += strings.Repeat("~", tok.Len-1)
	}
	fmt.Fprintf(stream, "  %s\n", color("32", caret))
}

// Error prints a formatted, position-carrying error and terminates the
// process. Every error in this compiler is fatal: there is no recovery
// path once lowering has started.
func Error(tok token.Token, format string, args ...interface{}) {
	filename, line, col := findFileAndLine(tok)
	fmt.Fprintf(os.Stderr, "%s:%d:%d: %s ", filename, line, col, color("31", "error:"))
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	printErrorLine(os.Stderr, tok)
	os.Exit(1)
}

// Fatal prints an unpositioned error, for failures that precede any token
// (missing files, toolchain invocation failures) and terminates the process.
func Fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color("31", "lamac: error:"), fmt.Sprintf(format, args...))
	os.Exit(1)
}

// Warn prints a formatted warning if the corresponding warning class is enabled.
func Warn(wt Warning, tok token.Token, format string, args ...interface{}) {
	if !IsWarningEnabled(wt) {
		return
	}
	filename, line, col := findFileAndLine(tok)
	warningName := Warnings[wt].Name
	fmt.Fprintf(os.Stderr, "%s:%d:%d: %s ", filename, line, col, color("33", "warning:"))
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintf(os.Stderr, " [-W%s]\n", warningName)
	printErrorLine(os.Stderr, tok)
}
