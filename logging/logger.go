package logging

import "github.com/kcz17/clockface/face"

type Logger interface {
	LogTick(state face.State)                                // Called after every successful tick.
	LogTickError(err error)                                  // Called after every failed tick.
	LogFetchLatencies(p50 float64, p75 float64, p95 float64) // Takes in percentiles in seconds.
}

// noopLogger does not perform any logging.
type noopLogger struct{}

func NewNoopLogger() *noopLogger {
	return &noopLogger{}
}

func (*noopLogger) LogTick(face.State) {}

func (*noopLogger) LogTickError(error) {}

func (*noopLogger) LogFetchLatencies(float64, float64, float64) {}
