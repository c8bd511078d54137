// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package logger is the process-wide leveled logger: every line goes to
// stdout and, when Init succeeded, to the server log file. A single default
// instance is created at bootstrap and threaded through constructors; the
// package-level functions forward to it for call sites that predate the
// threading.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Logger writes timestamped, leveled lines to stdout and an optional file.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	out    *log.Logger
	closed bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init opens logFile and installs the default logger. Subsequent calls
// return the instance from the first call.
func Init(logFile string) (*Logger, error) {
	var err error
	once.Do(func() {
		defaultLogger, err = New(logFile)
	})
	return defaultLogger, err
}

// New creates a logger writing to stdout and logFile.
func New(logFile string) (*Logger, error) {
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("logger: open %s: %w", logFile, err)
	}
	return &Logger{
		file: file,
		out:  log.New(io.MultiWriter(os.Stdout, file), "", 0),
	}, nil
}

// GetDefault returns the default logger, falling back to a stdout-only
// instance when Init was never called or the default was closed.
func GetDefault() *Logger {
	if defaultLogger == nil || defaultLogger.isClosed() {
		defaultLogger = &Logger{out: log.New(os.Stdout, "", 0)}
	}
	return defaultLogger
}

func (l *Logger) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Logger) write(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.out == nil {
		return
	}
	l.out.Printf("[%s] [%s] %s", time.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, v...))
}

// Printf logs at INFO level.
func (l *Logger) Printf(format string, v ...interface{}) { l.write("INFO", format, v...) }

// Println logs at INFO level.
func (l *Logger) Println(v ...interface{}) { l.write("INFO", "%s", fmt.Sprint(v...)) }

// Errorf logs at ERROR level.
func (l *Logger) Errorf(format string, v ...interface{}) { l.write("ERROR", format, v...) }

// Warnf logs at WARN level.
func (l *Logger) Warnf(format string, v ...interface{}) { l.write("WARN", format, v...) }

// Debugf logs at DEBUG level.
func (l *Logger) Debugf(format string, v ...interface{}) { l.write("DEBUG", format, v...) }

// Fatalf logs at FATAL level and exits with a non-zero status.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.write("FATAL", format, v...)
	os.Exit(1)
}

// Close closes the log file. Further writes are dropped.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Package-level convenience functions forwarding to the default logger.

func Printf(format string, v ...interface{}) { GetDefault().Printf(format, v...) }
func Println(v ...interface{})               { GetDefault().Println(v...) }
func Errorf(format string, v ...interface{}) { GetDefault().Errorf(format, v...) }
func Warnf(format string, v ...interface{})  { GetDefault().Warnf(format, v...) }
func Debugf(format string, v ...interface{}) { GetDefault().Debugf(format, v...) }
func Fatalf(format string, v ...interface{}) { GetDefault().Fatalf(format, v...) }
