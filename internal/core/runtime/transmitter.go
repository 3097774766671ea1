package runtime

import (
	"log/slog"

	"github.com/lcalzada-xor/wmapattack/internal/core/ports"
)

// LogTransmitter is a placeholder ports.PacketTransmitter that logs the
// frame it would have sent instead of writing to a radio socket. The
// real transmitter is an external collaborator (a monitor-mode NIC/pcap
// handle) outside this module's scope; this stub keeps the engine
// runnable end-to-end until a real one is wired in by the deployment.
type LogTransmitter struct {
	logger *slog.Logger
}

// NewLogTransmitter wraps logger (or the slog default, if nil) as a
// PacketTransmitter.
func NewLogTransmitter(logger *slog.Logger) *LogTransmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransmitter{logger: logger}
}

// Transmit implements ports.PacketTransmitter.
func (t *LogTransmitter) Transmit(frame []byte) error {
	t.logger.Debug("would transmit frame", slog.Int("bytes", len(frame)))
	return nil
}

var _ ports.PacketTransmitter = (*LogTransmitter)(nil)
