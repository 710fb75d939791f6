package logging

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/kcz17/clockface/face"
	"log"
	"time"
)

// influxDBLogger logs the output to an external InfluxDB instance.
type influxDBLogger struct {
	client      influxdb2.Client
	asyncWriter api.WriteAPI
}

func NewInfluxDBLogger(baseURL, authToken, org, bucket string) *influxDBLogger {
	options := influxdb2.DefaultOptions()
	options.WriteOptions().SetBatchSize(100)
	options.WriteOptions().SetFlushInterval(1000)

	client := influxdb2.NewClientWithOptions(baseURL, authToken, options)
	writeAPI := client.WriteAPI(org, bucket)

	// Create a goroutine for reading and logging async write errors.
	errorsCh := writeAPI.Errors()
	go func() {
		for err := range errorsCh {
			log.Printf("influxdb2 logging async write error: %v\n", err)
		}
	}()

	return &influxDBLogger{
		client:      client,
		asyncWriter: writeAPI,
	}
}

func (l *influxDBLogger) LogTick(state face.State) {
	p := influxdb2.NewPointWithMeasurement("clockface_tick").
		AddField("text", state.Text).
		AddField("seconds", state.Hands.Seconds).
		AddField("minutes", state.Hands.Minutes).
		AddField("hours", state.Hands.Hours).
		SetTime(time.Now())
	l.asyncWriter.WritePoint(p)
}

func (l *influxDBLogger) LogTickError(err error) {
	p := influxdb2.NewPointWithMeasurement("clockface_tick_error").
		AddField("error", err.Error()).
		SetTime(time.Now())
	l.asyncWriter.WritePoint(p)
}

func (l *influxDBLogger) LogFetchLatencies(p50 float64, p75 float64, p95 float64) {
	p := influxdb2.NewPointWithMeasurement("clockface_fetch_latency").
		AddField("p50", p50).
		AddField("p75", p75).
		AddField("p95", p95).
		SetTime(time.Now())
	l.asyncWriter.WritePoint(p)
}

// Close flushes pending points and closes the client.
func (l *influxDBLogger) Close() {
	l.asyncWriter.Flush()
	l.client.Close()
}
