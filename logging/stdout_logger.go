package logging

import (
	"github.com/kcz17/clockface/face"
	"log"
)

// stdoutLogger logs the output to standard output.
type stdoutLogger struct {
	// logLatencies is false by default as latencies are aggregated every tick
	// and would otherwise double the log volume.
	logLatencies bool
}

func NewStdoutLogger(logLatencies bool) *stdoutLogger {
	return &stdoutLogger{logLatencies: logLatencies}
}

func (*stdoutLogger) LogTick(state face.State) {
	log.Printf("tick: %q, %s\n", state.Text, state.Hands.Style())
}

func (*stdoutLogger) LogTickError(err error) {
	log.Printf("tick failed, keeping previous face: err = %v\n", err)
}

func (l *stdoutLogger) LogFetchLatencies(p50 float64, p75 float64, p95 float64) {
	if !l.logLatencies {
		return
	}
	log.Printf("fetch latency p50: %.3f, p75: %.3f, p95: %.3f\n", p50, p75, p95)
}
