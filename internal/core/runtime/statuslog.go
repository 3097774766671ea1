package runtime

import (
	"log/slog"

	"github.com/lcalzada-xor/wmapattack/internal/core/ports"
)

// SlogStatusLog is the default StatusLog, backed by log/slog the same way
// cmd/wmapattack/main.go configures the process-wide default logger.
type SlogStatusLog struct {
	logger *slog.Logger
}

// NewSlogStatusLog wraps logger (or the slog default, if nil) as a StatusLog.
func NewSlogStatusLog(logger *slog.Logger) *SlogStatusLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogStatusLog{logger: logger}
}

func (s *SlogStatusLog) Add(level ports.MessageLevel, message string) {
	switch level {
	case ports.LevelWarning:
		s.logger.Warn(message)
	case ports.LevelError:
		s.logger.Error(message)
	default:
		s.logger.Info(message)
	}
}
