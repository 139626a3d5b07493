// Package utils provides utility functions for the application.
package utils

import (
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogOutput routes the standard logger to a rotating file when a
// path is configured. An empty path keeps stderr.
func SetupLogOutput(path string, maxSizeMB, maxBackups, maxAgeDays int, compress bool) {
	if path == "" {
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   compress,
	})
}
