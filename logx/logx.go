package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorGray   = "\033[90m"
)

type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxAgeDays = 7
)

var (
	level  atomic.Int32
	logger = log.New(newSink(), "", log.Ldate|log.Ltime|log.Lmicroseconds)
)

func init() {
	level.Store(int32(ParseLevel(os.Getenv("LOG_LEVEL"))))
}

// newSink writes to a rotating file when LOGFILE is set, stderr otherwise
func newSink() io.Writer {
	logFile := os.Getenv("LOGFILE")
	if logFile == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename: "./logs/" + logFile,
		MaxSize:  envInt("LOGFILE_MAX_SIZE_MB", defaultMaxSizeMB), // megabytes
		MaxAge:   envInt("LOGFILE_MAX_AGE_DAYS", defaultMaxAgeDays), // days
	}
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// ParseLevel maps a level name to a Level, defaulting to info
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	level.Store(int32(l))
}

// SetOutput redirects all subsequent log lines
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func Enabled(l Level) bool {
	return Level(level.Load()) <= l
}

func write(l Level, tag, color, category string, content []interface{}) {
	if !Enabled(l) {
		return
	}
	message := fmt.Sprint(content...)
	coloredCategory := fmt.Sprintf("%s[%s][%s]%s", color, tag, category, ColorReset)
	logger.Printf("%s: %s", coloredCategory, message)
}

func Trace(category string, content ...interface{}) {
	write(LevelTrace, "TRACE", ColorGray, category, content)
}

func Debug(category string, content ...interface{}) {
	write(LevelDebug, "DEBUG", ColorBlue, category, content)
}

func Info(category string, content ...interface{}) {
	write(LevelInfo, "INFO", ColorGreen, category, content)
}

func Warn(category string, content ...interface{}) {
	write(LevelWarn, "WARN", ColorYellow, category, content)
}

func Error(category string, content ...interface{}) {
	write(LevelError, "ERROR", ColorRed, category, content)
}

// Errorf logs an error message and returns a formatted error
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error("ERROR", err.Error())
	return err
}
