package config

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
)

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stdout

// LogFilePath returns the path to the backend log file.
func LogFilePath() string {
	return filepath.Join("logs", "platform-api.log")
}

// InitLogging configures the standard logger to write to stdout and a
// size-rotated log file.
func InitLogging() io.Writer {
	logDir := filepath.Dir(LogFilePath())
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
		LogWriter = os.Stdout
		log.SetOutput(LogWriter)
		return LogWriter
	}

	rotator := &lumberjack.Logger{
		Filename:   LogFilePath(),
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
	}

	LogWriter = io.MultiWriter(os.Stdout, rotator)
	log.SetOutput(LogWriter)
	return LogWriter
}
