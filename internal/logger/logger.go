package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARNING"
	levelError level = "ERROR"
)

var (
	mu          sync.Mutex
	debugLogger *log.Logger

	DebugEnabled = false

	logFile *os.File
)

// InitLogging sets up logging. Nothing is written unless debugMode is
// set; the log file and its directory are created on demand.
func InitLogging(debugMode bool, logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	DebugEnabled = debugMode

	if !DebugEnabled || logPath == "" {
		return nil
	}

	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = f
	debugLogger = log.New(f, "", log.Ldate|log.Ltime|log.Lshortfile)

	return nil
}

// SetOutput enables logging to w instead of a file. Used by tests and
// by the CLI when logging to stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	DebugEnabled = true
	debugLogger = log.New(w, "", log.Lshortfile)
}

// Close closes the log file if open.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	debugLogger = nil
	DebugEnabled = false
}

func logf(lvl level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if !DebugEnabled || debugLogger == nil {
		return
	}
	// Depth 3: Output <- logf <- Infof etc. <- caller.
	debugLogger.Output(3, fmt.Sprintf("["+string(lvl)+"] "+format, v...))
}

func Infof(format string, v ...interface{}) {
	logf(levelInfo, format, v...)
}

// Errorf logs an error message if debug mode is enabled.
func Errorf(format string, v ...interface{}) {
	logf(levelError, format, v...)
}

func Debugf(format string, v ...interface{}) {
	logf(levelDebug, format, v...)
}

func Warnf(format string, v ...interface{}) {
	logf(levelWarn, format, v...)
}
