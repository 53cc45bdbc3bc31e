package server

import (
	"context"
	"errors"
	"net/http"
)

// HTTPServer wraps the standard server with listener injection and graceful
// shutdown.
type HTTPServer struct {
	server *http.Server
	addr   string
}

func NewHTTPServer(handler http.Handler, addr string) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{Handler: handler},
		addr:   addr,
	}
}

// Address returns the address the server binds to.
func (s *HTTPServer) Address() string {
	return s.addr
}

// Start binds the listener and serves until Stop is called. A shutdown
// initiated by Stop is not an error.
func (s *HTTPServer) Start(l Listener) error {
	listener, err := l.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
