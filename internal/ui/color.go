// Package ui provides colored console output.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Bold   = color.New(color.Bold)
)

// Success prints a green success message with checkmark.
func Success(format string, args ...any) {
	Green.Printf("✓ "+format+"\n", args...)
}

// Error prints a red error message with X.
func Error(format string, args ...any) {
	Red.Printf("✗ "+format+"\n", args...)
}

// Warning prints a yellow warning message.
func Warning(format string, args ...any) {
	Yellow.Printf("⚠ "+format+"\n", args...)
}

// Info prints a blue info message.
func Info(format string, args ...any) {
	Blue.Printf(format+"\n", args...)
}

// Header prints a bold header.
func Header(format string, args ...any) {
	Bold.Printf(format+"\n", args...)
}

// Plain prints an uncolored line.
func Plain(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// Fatal prints an error to stderr and exits.
func Fatal(format string, args ...any) {
	Red.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
	os.Exit(1)
}

// Fatalf prints a formatted error and exits.
func Fatalf(format string, args ...any) {
	Red.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
