package poller

import (
	"errors"
	"fmt"
	"github.com/kcz17/clockface/clock"
	"github.com/kcz17/clockface/face"
	"github.com/kcz17/clockface/latency"
	"github.com/kcz17/clockface/logging"
	"github.com/kcz17/clockface/timesource"
	"sync"
	"time"
)

type Options struct {
	Fetcher timesource.Fetcher
	Surface face.Surface
	Logger  logging.Logger
	// Clock times each fetch.
	Clock    clock.Clock
	Interval time.Duration
	// Location is the zone the hands are shown in. Defaults to UTC.
	Location *time.Location
	// Latencies collects fetch latencies. Defaults to a tachymeter window of
	// 100 fetches.
	Latencies latency.Collector
}

// Poller fetches the time from a time source on a fixed interval and
// publishes it to a clock face. Ticks are independent: a failed tick is
// logged and leaves the face as it was.
type Poller struct {
	fetcher   timesource.Fetcher
	surface   face.Surface
	logger    logging.Logger
	clock     clock.Clock
	interval  time.Duration
	location  *time.Location
	latencies latency.Collector
	// tickMux serialises ticks forced through Tick() with ticks made by the
	// loop, so an older response can never overwrite a newer one.
	tickMux *sync.Mutex

	// loopMux guards loopStarted, loopStopping, loopWG and loopStop so the
	// loop can be started and stopped from the API server. It is not held
	// while Stop waits for an in-flight tick.
	loopMux      *sync.Mutex
	loopStarted  bool
	loopStopping bool
	loopWG       *sync.WaitGroup
	loopStop     chan bool
}

func NewPoller(options *Options) (*Poller, error) {
	if options.Fetcher == nil || options.Surface == nil {
		return nil, errors.New("NewPoller() expected Fetcher and Surface to be set")
	}
	if options.Interval <= 0 {
		return nil, fmt.Errorf("NewPoller() expected positive interval; got %v", options.Interval)
	}

	p := &Poller{
		fetcher:   options.Fetcher,
		surface:   options.Surface,
		logger:    options.Logger,
		clock:     options.Clock,
		interval:  options.Interval,
		location:  options.Location,
		latencies: options.Latencies,
		tickMux:   &sync.Mutex{},
		loopMux:   &sync.Mutex{},
	}
	if p.logger == nil {
		p.logger = logging.NewNoopLogger()
	}
	if p.clock == nil {
		p.clock = clock.NewRealtimeClock()
	}
	if p.location == nil {
		p.location = time.UTC
	}
	if p.latencies == nil {
		p.latencies = latency.NewTachymeterCollector(100)
	}

	return p, nil
}

// Tick performs one fetch, parse and publish. The error is returned for
// callers which force a tick; it has already been logged.
func (p *Poller) Tick() error {
	p.tickMux.Lock()
	defer p.tickMux.Unlock()

	state, err := p.fetchState()
	if err != nil {
		p.logger.LogTickError(err)
		return err
	}

	if err := p.surface.Publish(*state); err != nil {
		err = fmt.Errorf("could not publish %q: %w", state.Text, err)
		p.logger.LogTickError(err)
		return err
	}

	p.logger.LogTick(*state)
	return nil
}

func (p *Poller) fetchState() (*face.State, error) {
	start := p.clock.Now()
	raw, err := p.fetcher.Fetch()
	p.latencies.Add(p.clock.Now().Sub(start))
	if err != nil {
		return nil, fmt.Errorf("could not fetch time: %w", err)
	}

	sample, err := timesource.ParseSample(raw, p.location)
	if err != nil {
		return nil, err
	}

	return &face.State{
		Text:  sample.Raw,
		Hands: face.HandsAt(sample.Time),
	}, nil
}

// Latencies aggregates the fetch latencies of recent ticks.
func (p *Poller) Latencies() *latency.Aggregation {
	return p.latencies.Aggregate()
}

// Start spawns the poll loop, which ticks immediately and then once per
// interval.
func (p *Poller) Start() error {
	p.loopMux.Lock()
	defer p.loopMux.Unlock()

	if p.loopStarted {
		return errors.New("Poller.Start() failed: poll loop already started")
	}

	p.loopStop = make(chan bool, 1)
	p.loopWG = &sync.WaitGroup{}
	p.loopWG.Add(1)
	go p.pollLoop()

	p.loopStarted = true
	return nil
}

// Stop stops the poll loop, waiting for an in-flight tick to finish. The face
// keeps its last published state.
func (p *Poller) Stop() error {
	p.loopMux.Lock()
	if !p.loopStarted || p.loopStopping {
		p.loopMux.Unlock()
		return errors.New("Poller.Stop() failed: poll loop not running")
	}
	p.loopStopping = true
	close(p.loopStop)
	wg := p.loopWG
	p.loopMux.Unlock()

	wg.Wait()

	p.loopMux.Lock()
	defer p.loopMux.Unlock()
	p.latencies.Reset()
	p.loopStarted = false
	p.loopStopping = false
	return nil
}

// IsRunning is false as soon as Stop has been called, even while Stop waits
// for an in-flight tick.
func (p *Poller) IsRunning() bool {
	p.loopMux.Lock()
	defer p.loopMux.Unlock()
	return p.loopStarted && !p.loopStopping
}

func (p *Poller) pollLoop() {
	defer p.loopWG.Done()

	// Failed ticks are already logged and are retried by the next tick.
	_ = p.Tick()
	p.logLatencies()

	// A ticker drops ticks for a slow fetch rather than queueing them, so
	// fetches never overlap.
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = p.Tick()
			p.logLatencies()
		case <-p.loopStop:
			return
		}
	}
}

func (p *Poller) logLatencies() {
	aggregation := p.latencies.Aggregate()
	p.logger.LogFetchLatencies(
		aggregation.P50.Seconds(),
		aggregation.P75.Seconds(),
		aggregation.P95.Seconds(),
	)
}
