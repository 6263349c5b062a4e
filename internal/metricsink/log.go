package metricsink

import "github.com/rs/zerolog"

// Log is a MetricsSink that records every sample as a structured log
// line instead of exporting it, useful for payloadctl simulate and for
// environments with no metrics backend configured.
type Log struct {
	logger zerolog.Logger
}

// NewLog returns a Log sink writing through logger.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SendToUMA(name string, sample, min, max int64, buckets int) error {
	l.logger.Info().
		Str("metric", name).
		Int64("sample", sample).
		Int64("min", min).
		Int64("max", max).
		Int("buckets", buckets).
		Msg("metric sample")
	return nil
}
