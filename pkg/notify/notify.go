// =============================================================================
// Tariff Import Pipeline - Notification Sink
// =============================================================================
//
// Write-only surface the pipeline pushes success/error/progress strings to.
// The pipeline never reads back; rendering belongs entirely to the consumer.
//
// =============================================================================

package notify

import "github.com/sirupsen/logrus"

// Sink receives user-facing pipeline notifications.
type Sink interface {
	Success(msg string)
	Error(msg string)
	Progress(msg string)
}

// LogSink forwards notifications to a logrus logger.
type LogSink struct {
	Log *logrus.Logger
}

// NewLogSink wraps a logger as a Sink.
func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{Log: log}
}

func (s *LogSink) Success(msg string)  { s.Log.Info(msg) }
func (s *LogSink) Error(msg string)    { s.Log.Error(msg) }
func (s *LogSink) Progress(msg string) { s.Log.Debug(msg) }

// Discard drops every notification. Useful in tests.
type Discard struct{}

func (Discard) Success(string)  {}
func (Discard) Error(string)    {}
func (Discard) Progress(string) {}
