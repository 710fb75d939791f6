package main

import (
	"github.com/kcz17/clockface/clock"
	"github.com/kcz17/clockface/config"
	"github.com/kcz17/clockface/face"
	"github.com/kcz17/clockface/latency"
	"github.com/kcz17/clockface/logging"
	"github.com/kcz17/clockface/poller"
	"github.com/kcz17/clockface/render"
	"github.com/kcz17/clockface/surfaces"
	"github.com/kcz17/clockface/timesource"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	conf := config.ReadConfig()

	logger := initLogger(conf)

	location, err := time.LoadLocation(*conf.Poller.Location)
	if err != nil {
		log.Fatalf("expected poller.location to be an IANA zone; got err = %v", err)
	}

	f := face.NewFace()
	p, err := poller.NewPoller(&poller.Options{
		Fetcher:   timesource.NewHTTPFetcher(*conf.Poller.URL, conf.Poller.Timeout),
		Surface:   initSurface(conf, f),
		Logger:    logger,
		Clock:     clock.NewRealtimeClock(),
		Interval:  conf.Poller.Interval,
		Location:  location,
		Latencies: latency.NewTachymeterCollector(*conf.Poller.LatencyWindow),
	})
	if err != nil {
		log.Fatalf("expected poller.NewPoller() returns nil err; got err = %v", err)
	}

	server := NewServer(&ServerOptions{
		Addr:          *conf.Server.Addr,
		Face:          f,
		Poller:        p,
		TimeSource:    initTimeSource(conf),
		RenderOptions: render.DefaultOptions(),
	})

	api := &APIServer{Poller: p}
	go func() {
		if err := api.ListenAndServe(*conf.Server.APIAddr); err != nil {
			log.Fatalf("expected APIServer.ListenAndServe() returns nil err; got err = %v", err)
		}
	}()

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals
		log.Printf("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Printf("could not shut down gracefully: err = %v", err)
		}
	}()

	log.Printf("serving clock face on %s, API on %s, polling %s every %v",
		*conf.Server.Addr, *conf.Server.APIAddr, *conf.Poller.URL, conf.Poller.Interval)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("expected Server.ListenAndServe() returns nil err; got err = %v", err)
	}
}

func initLogger(conf *config.Config) logging.Logger {
	switch conf.Logging.Driver {
	case "noop":
		return logging.NewNoopLogger()
	case "stdout":
		return logging.NewStdoutLogger(conf.Logging.LogLatencies != nil && *conf.Logging.LogLatencies)
	case "influxdb":
		return logging.NewInfluxDBLogger(
			*conf.Logging.InfluxDB.Host,
			*conf.Logging.InfluxDB.Token,
			*conf.Logging.InfluxDB.Org,
			*conf.Logging.InfluxDB.Bucket,
		)
	default:
		log.Fatalf("expected logging.driver one of {noop, stdout, influxdb}; got %s", conf.Logging.Driver)
		return nil
	}
}

// initSurface fans out to whichever external surfaces are configured and the
// in-memory face. The face is only written once every external surface has
// accepted the state.
func initSurface(conf *config.Config, f *face.Face) face.Surface {
	surface := face.Multi{f}

	if r := conf.Publishing.Redis; r != nil {
		surface = append(surface, surfaces.NewRedisSurface(*r.Addr, *r.Password, *r.DB, *r.Key, *r.Channel))
	}

	if q := conf.Publishing.Queue; q != nil {
		queue, err := surfaces.NewQueueSurface(*q.Addr, *q.Password, *q.DB, *q.Name)
		if err != nil {
			log.Fatalf("expected surfaces.NewQueueSurface() returns nil err; got err = %v", err)
		}
		surface = append(surface, queue)
	}

	return surface
}

func initTimeSource(conf *config.Config) *timesource.Source {
	if !*conf.TimeSource.Enabled {
		return nil
	}

	location, err := time.LoadLocation(*conf.TimeSource.Location)
	if err != nil {
		log.Fatalf("expected timeSource.location to be an IANA zone; got err = %v", err)
	}

	var c clock.Clock = clock.NewRealtimeClock()
	if pinned := conf.TimeSource.Pinned; pinned != nil && *pinned != "" {
		sample, err := timesource.ParseSample(*pinned, location)
		if err != nil {
			log.Fatalf("expected timeSource.pinned to be a timestamp; got err = %v", err)
		}
		c = clock.FixedClock{T: sample.Time}
	}

	return timesource.NewSource(c, *conf.TimeSource.Layout, location)
}
