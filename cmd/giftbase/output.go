package main

import (
	"fmt"
	"os"
)

// ANSI escapes for terminal output; the --no-color flag disables them all.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

func paint(code, text string) string {
	if noColor {
		return text
	}
	return code + text + ansiReset
}

// emit writes a marked, colored line to stderr, keeping stdout free for data.
func emit(code, mark, format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(code, mark+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { emit(ansiGreen, "✓", format, args...) }

func printError(format string, args ...any) { emit(ansiRed, "✗", format, args...) }

func printWarning(format string, args ...any) { emit(ansiYellow, "⚠", format, args...) }

func printStep(format string, args ...any) { emit(ansiCyan, "→", format, args...) }

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "  %s %s\n", paint(ansiBold, label+":"), val)
}
