package latency

import (
	"github.com/jamiealquiza/tachymeter"
	"sync"
	"time"
)

// windowCollector keeps the /time.json fetch latencies of the last window
// ticks, which is what /stats and the periodic latency log report. At the
// default 5s interval a window of 100 covers a little over eight minutes.
type windowCollector struct {
	window *tachymeter.Tachymeter
	// fetches counts fetches since the last reset; an empty window
	// aggregates to zero values.
	fetches    int
	fetchesMux sync.Mutex
}

func NewTachymeterCollector(window int) *windowCollector {
	return &windowCollector{window: tachymeter.New(&tachymeter.Config{
		Size: window,
	})}
}

func (c *windowCollector) Add(fetch time.Duration) {
	c.fetchesMux.Lock()
	defer c.fetchesMux.Unlock()
	c.window.AddTime(fetch)
	c.fetches++
}

func (c *windowCollector) Aggregate() *Aggregation {
	c.fetchesMux.Lock()
	defer c.fetchesMux.Unlock()
	if c.fetches == 0 {
		return &Aggregation{}
	}

	metrics := c.window.Calc()
	return &Aggregation{
		P50:   metrics.Time.P50,
		P75:   metrics.Time.P75,
		P95:   metrics.Time.P95,
		Mean:  metrics.Time.Avg,
		Count: metrics.Samples,
	}
}

func (c *windowCollector) Reset() {
	c.fetchesMux.Lock()
	defer c.fetchesMux.Unlock()
	c.window.Reset()
	c.fetches = 0
}
