package poller

import (
	"errors"
	"github.com/kcz17/clockface/face"
	"github.com/kcz17/clockface/latency"
	"github.com/kcz17/clockface/timesource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"net"
	"sync"
	"testing"
	"time"
)

// scriptedFetcher returns each response in turn, repeating the last one.
type scriptedFetcher struct {
	mux       sync.Mutex
	responses []response
	calls     int
}

type response struct {
	raw string
	err error
}

func (f *scriptedFetcher) Fetch() (string, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	r := f.responses[f.calls]
	if f.calls < len(f.responses)-1 {
		f.calls++
	}
	return r.raw, r.err
}

// recordingLogger keeps every event so tests can assert on what was logged.
type recordingLogger struct {
	mux       sync.Mutex
	ticks     []face.State
	errs      []error
	latencies int
}

func (l *recordingLogger) LogTick(state face.State) {
	l.mux.Lock()
	l.ticks = append(l.ticks, state)
	l.mux.Unlock()
}

func (l *recordingLogger) LogTickError(err error) {
	l.mux.Lock()
	l.errs = append(l.errs, err)
	l.mux.Unlock()
}

func (l *recordingLogger) LogFetchLatencies(float64, float64, float64) {
	l.mux.Lock()
	l.latencies++
	l.mux.Unlock()
}

func (l *recordingLogger) tickCount() int {
	l.mux.Lock()
	defer l.mux.Unlock()
	return len(l.ticks)
}

func newTestPoller(t *testing.T, fetcher timesource.Fetcher) (*Poller, *face.Face, *recordingLogger) {
	f := face.NewFace()
	logger := &recordingLogger{}
	p, err := NewPoller(&Options{
		Fetcher:   fetcher,
		Surface:   f,
		Logger:    logger,
		Interval:  time.Hour,
		Latencies: latency.NewArrayCollector(),
	})
	require.NoError(t, err)
	return p, f, logger
}

func TestNewPoller_RequiresFetcherSurfaceAndInterval(t *testing.T) {
	_, err := NewPoller(&Options{Surface: face.NewFace(), Interval: time.Second})
	assert.Error(t, err)

	_, err = NewPoller(&Options{Fetcher: &scriptedFetcher{}, Interval: time.Second})
	assert.Error(t, err)

	_, err = NewPoller(&Options{Fetcher: &scriptedFetcher{}, Surface: face.NewFace()})
	assert.Error(t, err)
}

func TestPoller_Tick_PublishesHands(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want face.Hands
	}{
		{
			name: "Afternoon",
			raw:  "2024-01-01T13:05:09Z",
			want: face.Hands{Seconds: 9, Minutes: 5, Hours: 1},
		},
		{
			name: "Midnight",
			raw:  "2024-01-01T00:00:00Z",
			want: face.Hands{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, f, logger := newTestPoller(t, &scriptedFetcher{responses: []response{{raw: tt.raw}}})

			require.NoError(t, p.Tick())

			state, ok := f.Snapshot()
			require.True(t, ok)
			assert.Equal(t, tt.want, state.Hands)
			assert.Equal(t, tt.raw, state.Text)
			assert.Equal(t, []face.State{state}, logger.ticks)
		})
	}
}

func TestPoller_Tick_TextIsVerbatim(t *testing.T) {
	raw := "2024-01-01 13:05:09"
	p, f, _ := newTestPoller(t, &scriptedFetcher{responses: []response{{raw: raw}}})

	require.NoError(t, p.Tick())

	state, _ := f.Snapshot()
	assert.Equal(t, raw, state.Text)
	assert.Equal(t, face.Hands{Seconds: 9, Minutes: 5, Hours: 1}, state.Hands)
}

func TestPoller_Tick_IsIdempotent(t *testing.T) {
	p, f, _ := newTestPoller(t, &scriptedFetcher{responses: []response{{raw: "2024-01-01T13:05:09Z"}}})

	require.NoError(t, p.Tick())
	first, _ := f.Snapshot()
	require.NoError(t, p.Tick())
	second, _ := f.Snapshot()

	assert.Equal(t, first, second)
}

func TestPoller_Tick_FailureKeepsPreviousState(t *testing.T) {
	errRefused := errors.New("connection refused")
	tests := []struct {
		name    string
		failure response
		wantErr error
	}{
		{name: "Network error", failure: response{err: errRefused}, wantErr: errRefused},
		{name: "Malformed JSON", failure: response{err: timesource.ErrMalformedBody}, wantErr: timesource.ErrMalformedBody},
		{name: "Empty array", failure: response{err: timesource.ErrEmptyResponse}, wantErr: timesource.ErrEmptyResponse},
		{name: "Unparsable time", failure: response{raw: "half past nine"}, wantErr: timesource.ErrUnparsableTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &scriptedFetcher{responses: []response{{raw: "2024-01-01T13:05:09Z"}, tt.failure}}
			p, f, logger := newTestPoller(t, fetcher)

			require.NoError(t, p.Tick())
			before, _ := f.Snapshot()

			err := p.Tick()
			assert.ErrorIs(t, err, tt.wantErr)

			after, _ := f.Snapshot()
			assert.Equal(t, before, after)
			require.Len(t, logger.errs, 1)
			assert.ErrorIs(t, logger.errs[0], tt.wantErr)
		})
	}
}

type failingSurface struct{}

func (failingSurface) Publish(face.State) error { return errors.New("surface unavailable") }

func TestPoller_Tick_PublishFailureIsReturned(t *testing.T) {
	logger := &recordingLogger{}
	p, err := NewPoller(&Options{
		Fetcher:  &scriptedFetcher{responses: []response{{raw: "2024-01-01T13:05:09Z"}}},
		Surface:  failingSurface{},
		Logger:   logger,
		Interval: time.Hour,
	})
	require.NoError(t, err)

	assert.Error(t, p.Tick())
	assert.Len(t, logger.errs, 1)
	assert.Empty(t, logger.ticks)
}

func TestPoller_Tick_ExternalSurfaceFailureKeepsPreviousFace(t *testing.T) {
	logger := &recordingLogger{}
	f := face.NewFace()
	p, err := NewPoller(&Options{
		Fetcher:  &scriptedFetcher{responses: []response{{raw: "2024-01-01T13:05:09Z"}}},
		Surface:  face.Multi{f, failingSurface{}},
		Logger:   logger,
		Interval: time.Hour,
	})
	require.NoError(t, err)

	assert.Error(t, p.Tick())

	_, ok := f.Snapshot()
	assert.False(t, ok)
	assert.Len(t, logger.errs, 1)
	assert.Empty(t, logger.ticks)
}

func TestPoller_Tick_RecordsLatency(t *testing.T) {
	p, _, _ := newTestPoller(t, &scriptedFetcher{responses: []response{{raw: "2024-01-01T13:05:09Z"}}})

	require.NoError(t, p.Tick())
	require.NoError(t, p.Tick())

	assert.Equal(t, 2, p.Latencies().Count)
}

func TestPoller_StartTicksImmediately(t *testing.T) {
	// The interval is an hour, so any publish must come from the initial tick.
	p, f, logger := newTestPoller(t, &scriptedFetcher{responses: []response{{raw: "2024-01-01T13:05:09Z"}}})

	require.NoError(t, p.Start())
	assert.Eventually(t, func() bool { return logger.tickCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop())

	state, ok := f.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, "2024-01-01T13:05:09Z", state.Text)
	assert.False(t, p.IsRunning())
}

func TestPoller_TicksEveryInterval(t *testing.T) {
	logger := &recordingLogger{}
	p, err := NewPoller(&Options{
		Fetcher:  &scriptedFetcher{responses: []response{{raw: "2024-01-01T13:05:09Z"}}},
		Surface:  face.NewFace(),
		Logger:   logger,
		Interval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, p.Start())
	assert.Eventually(t, func() bool { return logger.tickCount() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop())
}

func TestPoller_StartStopErrors(t *testing.T) {
	p, _, _ := newTestPoller(t, &scriptedFetcher{responses: []response{{raw: "2024-01-01T13:05:09Z"}}})

	assert.Error(t, p.Stop())
	require.NoError(t, p.Start())
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start())
	require.NoError(t, p.Stop())
	assert.Error(t, p.Stop())

	// A stopped poller can be restarted.
	require.NoError(t, p.Start())
	require.NoError(t, p.Stop())
}

// blockingFetcher holds every fetch until release is closed.
type blockingFetcher struct {
	entered chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) Fetch() (string, error) {
	select {
	case f.entered <- struct{}{}:
	default:
	}
	<-f.release
	return "2024-01-01T13:05:09Z", nil
}

func TestPoller_IsRunningDoesNotBlockWhileStopping(t *testing.T) {
	fetcher := &blockingFetcher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	p, err := NewPoller(&Options{Fetcher: fetcher, Surface: face.NewFace(), Interval: time.Hour})
	require.NoError(t, err)

	require.NoError(t, p.Start())
	<-fetcher.entered

	stopped := make(chan error, 1)
	go func() { stopped <- p.Stop() }()

	// Stop is waiting for the in-flight fetch; IsRunning must still answer.
	assert.Eventually(t, func() bool { return !p.IsRunning() }, time.Second, 5*time.Millisecond)
	assert.Error(t, p.Start())
	assert.Error(t, p.Stop())

	close(fetcher.release)
	require.NoError(t, <-stopped)
	assert.False(t, p.IsRunning())
	require.NoError(t, p.Start())
	require.NoError(t, p.Stop())
}

// TestPoller_OverHTTP exercises a full tick against a time source served over
// an in-memory fasthttp listener.
func TestPoller_OverHTTP(t *testing.T) {
	body := `["2024-01-01T13:05:09Z"]`
	var bodyMux sync.Mutex
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, func(ctx *fasthttp.RequestCtx) {
			bodyMux.Lock()
			defer bodyMux.Unlock()
			ctx.SetContentType("application/json")
			ctx.SetBodyString(body)
		})
	}()
	defer ln.Close()

	client := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	fetcher := timesource.NewHTTPFetcherWithClient("http://clockface.test/time.json", time.Second, client)
	p, f, _ := newTestPoller(t, fetcher)

	require.NoError(t, p.Tick())
	state, _ := f.Snapshot()
	assert.Equal(t, face.Hands{Seconds: 9, Minutes: 5, Hours: 1}, state.Hands)

	// A malformed body must not crash the poller or change the face.
	bodyMux.Lock()
	body = `[`
	bodyMux.Unlock()
	assert.ErrorIs(t, p.Tick(), timesource.ErrMalformedBody)

	bodyMux.Lock()
	body = `[]`
	bodyMux.Unlock()
	assert.ErrorIs(t, p.Tick(), timesource.ErrEmptyResponse)

	after, _ := f.Snapshot()
	assert.Equal(t, state, after)
}
