package main

import (
	"encoding/json"
	"errors"
	"fmt"
	routing "github.com/jackwhelpton/fasthttp-routing/v2"
	"github.com/kcz17/clockface/face"
	"github.com/kcz17/clockface/poller"
	"github.com/kcz17/clockface/render"
	"github.com/kcz17/clockface/surfaces"
	"github.com/kcz17/clockface/timesource"
	"github.com/valyala/fasthttp"
	"net"
	"sync"
)

type ServerOptions struct {
	Addr   string
	Face   *face.Face
	Poller *poller.Poller
	// TimeSource is served at /time.json if set.
	TimeSource    *timesource.Source
	RenderOptions render.Options
}

// Server serves the clock face, and optionally the time source the poller
// reads from. The poll loop is started once the listener is bound so that a
// poller pointed at this server succeeds on its first tick.
type Server struct {
	addr          string
	face          *face.Face
	poller        *poller.Poller
	timeSource    *timesource.Source
	renderOptions render.Options
	server        *fasthttp.Server
	// isStarted is checked to ensure each Server is only ever started once.
	isStarted bool
	// externalOperationsLock guards external operations which interact with the server.
	externalOperationsLock *sync.Mutex
}

func NewServer(options *ServerOptions) *Server {
	return &Server{
		addr:                   options.Addr,
		face:                   options.Face,
		poller:                 options.Poller,
		timeSource:             options.TimeSource,
		renderOptions:          options.RenderOptions,
		externalOperationsLock: &sync.Mutex{},
	}
}

func (s *Server) router() *routing.Router {
	router := routing.New()

	router.Get("/", s.faceHandler())
	router.Get("/face.svg", s.faceHandler())
	router.Get("/hands", s.handsHandler())
	if s.timeSource != nil {
		router.Get("/time.json", s.timeHandler())
	}

	return router
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp4", s.addr)
	if err != nil {
		return fmt.Errorf("Server.ListenAndServe() could not listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.externalOperationsLock.Lock()

	if s.isStarted {
		s.externalOperationsLock.Unlock()
		return errors.New("server already started")
	}

	s.server = &fasthttp.Server{
		Handler:         s.router().HandleRequest,
		Name:            "clockface",
		CloseOnShutdown: true,
	}
	s.isStarted = true

	if err := s.poller.Start(); err != nil {
		s.externalOperationsLock.Unlock()
		return fmt.Errorf("Server.Serve() got err when calling Poller.Start(): %w", err)
	}

	s.externalOperationsLock.Unlock()

	if err := s.server.Serve(ln); err != nil {
		return fmt.Errorf("Server.Serve() got fasthttp server error: %w", err)
	}
	return nil
}

// Shutdown stops the poll loop and gracefully shuts the listener down.
func (s *Server) Shutdown() error {
	s.externalOperationsLock.Lock()
	defer s.externalOperationsLock.Unlock()

	if !s.isStarted {
		return errors.New("Shutdown() expected server running; server is not running")
	}

	if s.poller.IsRunning() {
		if err := s.poller.Stop(); err != nil {
			return fmt.Errorf("expected Poller.Stop() returns nil err; got err = %w", err)
		}
	}
	return s.server.Shutdown()
}

func (s *Server) faceHandler() routing.Handler {
	return func(c *routing.Context) error {
		state, _ := s.face.Snapshot()

		c.SetContentType("image/svg+xml; charset=utf-8")
		c.Response.Header.Set(fasthttp.HeaderCacheControl, "no-store")
		if err := render.SVG(c.RequestCtx, state, s.renderOptions); err != nil {
			return fmt.Errorf("could not render face: %w", err)
		}
		return nil
	}
}

func (s *Server) handsHandler() routing.Handler {
	return func(c *routing.Context) error {
		state, ok := s.face.Snapshot()
		response := &struct {
			surfaces.Payload
			Published bool   `json:"published"`
			UpdatedAt string `json:"updatedAt,omitempty"`
		}{
			Payload:   surfaces.NewPayload(state),
			Published: ok,
		}
		if ok {
			response.UpdatedAt = s.face.PublishedAt().UTC().Format("2006-01-02T15:04:05.000Z07:00")
		}

		b, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("could not marshal hands: err = %w", err)
		}
		c.SetContentType("application/json")
		return c.Write(b)
	}
}

func (s *Server) timeHandler() routing.Handler {
	return func(c *routing.Context) error {
		s.timeSource.ServeTime(c.RequestCtx)
		return nil
	}
}
