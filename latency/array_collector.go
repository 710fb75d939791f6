package latency

import (
	"fmt"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"sync"
	"time"
)

// arrayCollector keeps every latency it is given. As storage and computation
// are both O(n), it is meant for short-lived measurement such as tests and
// one-off benchmarks of a time source.
type arrayCollector struct {
	latenciesSeconds    []float64
	latenciesSecondsMux *sync.Mutex
}

func NewArrayCollector() *arrayCollector {
	return &arrayCollector{
		latenciesSeconds:    []float64{},
		latenciesSecondsMux: &sync.Mutex{},
	}
}

func (c *arrayCollector) Add(t time.Duration) {
	c.latenciesSecondsMux.Lock()
	c.latenciesSeconds = append(c.latenciesSeconds, t.Seconds())
	c.latenciesSecondsMux.Unlock()
}

func (c *arrayCollector) Aggregate() *Aggregation {
	c.latenciesSecondsMux.Lock()
	defer c.latenciesSecondsMux.Unlock()

	// The stats package requires input arrays to be non-empty.
	if len(c.latenciesSeconds) == 0 {
		return &Aggregation{}
	}

	p50, err := stats.Median(c.latenciesSeconds)
	if err != nil {
		panic(fmt.Errorf("unexpected err in arrayCollector.Aggregate() while calculating p50: %w", err))
	}
	p75, err := stats.Percentile(c.latenciesSeconds, 75)
	if err != nil {
		panic(fmt.Errorf("unexpected err in arrayCollector.Aggregate() while calculating p75: %w", err))
	}
	p95, err := stats.Percentile(c.latenciesSeconds, 95)
	if err != nil {
		panic(fmt.Errorf("unexpected err in arrayCollector.Aggregate() while calculating p95: %w", err))
	}

	// Pass in nil weights as every latency counts equally.
	mean, stdDev := stat.PopMeanStdDev(c.latenciesSeconds, nil)

	return &Aggregation{
		P50:    seconds(p50),
		P75:    seconds(p75),
		P95:    seconds(p95),
		Mean:   seconds(mean),
		StdDev: seconds(stdDev),
		Count:  len(c.latenciesSeconds),
	}
}

func (c *arrayCollector) Reset() {
	c.latenciesSecondsMux.Lock()
	c.latenciesSeconds = []float64{}
	c.latenciesSecondsMux.Unlock()
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
