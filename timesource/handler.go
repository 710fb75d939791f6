package timesource

import (
	"github.com/kcz17/clockface/clock"
	"github.com/valyala/fasthttp"
	"log"
	"time"
)

// Source formats the current time for serving. Layout is a Go time layout.
type Source struct {
	Clock    clock.Clock
	Layout   string
	Location *time.Location
}

func NewSource(c clock.Clock, layout string, loc *time.Location) *Source {
	if layout == "" {
		layout = time.RFC3339
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Source{Clock: c, Layout: layout, Location: loc}
}

// Now returns the current time formatted for display.
func (s *Source) Now() string {
	return s.Clock.Now().In(s.Location).Format(s.Layout)
}

// Fetch lets a Source be polled in-process without an HTTP round trip.
func (s *Source) Fetch() (string, error) {
	return s.Now(), nil
}

// ServeTime writes the current time as a JSON array, e.g.
// ["2024-01-01T13:05:09Z"].
func (s *Source) ServeTime(ctx *fasthttp.RequestCtx) {
	body, err := Encode(s.Now())
	if err != nil {
		log.Printf("could not encode time: err = %v", err)
		ctx.Error("could not encode time", fasthttp.StatusInternalServerError)
		return
	}

	ctx.Response.Header.Set(fasthttp.HeaderCacheControl, "no-store")
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
