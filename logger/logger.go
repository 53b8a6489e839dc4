package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	projectLogger *logrus.Logger
	loggerLock    sync.Mutex
)

// GetProjectLogger returns the logger shared by every beatwarp component.
func GetProjectLogger() *logrus.Logger {
	loggerLock.Lock()
	defer loggerLock.Unlock()

	if projectLogger == nil {
		projectLogger = logrus.New()
		projectLogger.SetOutput(os.Stderr)
		projectLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		projectLogger.SetLevel(logrus.InfoLevel)
	}
	return projectLogger
}

// ForComponent returns an entry tagged with the name of the calling component.
func ForComponent(name string) *logrus.Entry {
	return GetProjectLogger().WithField("component", name)
}

// SetLevel parses a level name (debug, info, warn, ...) and applies it to the project logger.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	GetProjectLogger().SetLevel(lvl)
	return nil
}
