package capture

import (
	"github.com/jamesrr39/goutil/logpkg"
)

// BusyIndicator is told when a capture starts and when it has finished
type BusyIndicator interface {
	SetBusy(busy bool)
}

type NoopBusyIndicator struct{}

func (NoopBusyIndicator) SetBusy(busy bool) {}

type LoggingBusyIndicator struct {
	logger *logpkg.Logger
}

func NewLoggingBusyIndicator(logger *logpkg.Logger) *LoggingBusyIndicator {
	return &LoggingBusyIndicator{logger}
}

func (b *LoggingBusyIndicator) SetBusy(busy bool) {
	if busy {
		b.logger.Info("capturing map...")
		return
	}
	b.logger.Info("capture finished")
}
