package main

import (
	"encoding/json"
	"fmt"
	routing "github.com/jackwhelpton/fasthttp-routing/v2"
	"github.com/kcz17/clockface/poller"
	"github.com/valyala/fasthttp"
	"net/http"
)

// APIServer exposes operational controls for the poller on a separate
// address from the clock face.
type APIServer struct {
	Poller *poller.Poller
}

func (s *APIServer) router() *routing.Router {
	router := routing.New()

	router.Get("/stats", s.getFetchLatencyStatsHandler())
	router.Post("/tick", s.forceTickHandler())
	router.Post("/poller", s.setPollerModeHandler())

	return router
}

func (s *APIServer) ListenAndServe(addr string) error {
	return fasthttp.ListenAndServe(addr, s.router().HandleRequest)
}

func (s *APIServer) getFetchLatencyStatsHandler() routing.Handler {
	return func(c *routing.Context) error {
		aggregation := s.Poller.Latencies()
		response := &struct {
			P50     float64
			P75     float64
			P95     float64
			Mean    float64
			Count   int
			Running bool
		}{
			P50:     aggregation.P50.Seconds(),
			P75:     aggregation.P75.Seconds(),
			P95:     aggregation.P95.Seconds(),
			Mean:    aggregation.Mean.Seconds(),
			Count:   aggregation.Count,
			Running: s.Poller.IsRunning(),
		}

		b, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("could not marshal aggregation: err = %w", err)
		}
		c.SetContentType("application/json")
		return c.Write(b)
	}
}

func (s *APIServer) forceTickHandler() routing.Handler {
	return func(c *routing.Context) error {
		if err := s.Poller.Tick(); err != nil {
			return routing.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("tick failed: %v", err))
		}
		return c.Write("tick published\n")
	}
}

func (s *APIServer) setPollerModeHandler() routing.Handler {
	return func(c *routing.Context) error {
		mode := &struct {
			Mode string
		}{}
		if err := json.Unmarshal(c.PostBody(), mode); err != nil {
			return routing.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("could not parse body: %v", err))
		}

		var err error
		switch mode.Mode {
		case "Start":
			err = s.Poller.Start()
		case "Stop":
			err = s.Poller.Stop()
		default:
			return routing.NewHTTPError(http.StatusBadRequest, "mode must be one of {Start|Stop}")
		}
		if err != nil {
			return routing.NewHTTPError(http.StatusConflict, err.Error())
		}

		return c.Write("mode set\n")
	}
}
