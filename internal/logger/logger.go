// Package logger provides leveled logging for both processes.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var (
	level Level = InfoLevel
	std         = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// Init configures the package logger. Format "text" adds caller file/line.
func Init(levelName string, format string) {
	switch strings.ToLower(levelName) {
	case "debug":
		level = DebugLevel
	case "info":
		level = InfoLevel
	case "warn":
		level = WarnLevel
	case "error":
		level = ErrorLevel
	default:
		level = InfoLevel
	}

	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	std = log.New(os.Stderr, "", flags)
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func output(l Level, tag, format string, args ...any) {
	if level <= l {
		_ = std.Output(3, fmt.Sprintf(tag+format, args...))
	}
}

func Debug(format string, args ...any) {
	output(DebugLevel, "[DEBUG] ", format, args...)
}

func Info(format string, args ...any) {
	output(InfoLevel, "[INFO] ", format, args...)
}

func Warn(format string, args ...any) {
	output(WarnLevel, "[WARN] ", format, args...)
}

func Error(format string, args ...any) {
	output(ErrorLevel, "[ERROR] ", format, args...)
}

func Fatal(format string, args ...any) {
	_ = std.Output(3, fmt.Sprintf("[FATAL] "+format, args...))
	os.Exit(1)
}
