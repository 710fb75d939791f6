package latency

import "time"

type Aggregation struct {
	P50    time.Duration // P50 is the 50th percentile fetch latency.
	P75    time.Duration // P75 is the 75th percentile fetch latency.
	P95    time.Duration // P95 is the 95th percentile fetch latency.
	Mean   time.Duration
	StdDev time.Duration
	Count  int
}

type Collector interface {
	Add(t time.Duration)     // Add sends a new fetch latency to the collector.
	Aggregate() *Aggregation // Aggregate calculates aggregate metrics over the collected window.
	Reset()                  // Reset resets the state of the collector for reuse.
}
