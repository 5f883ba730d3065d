// Package httpserver builds the process's HTTP server with timeouts sized
// for a small JSON API.
package httpserver

import (
	"net/http"
	"time"
)

// Slow-client bounds. Request handling itself is bounded separately by the
// timeout middleware, so WriteTimeout only needs headroom above it for
// serializing the response.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 35 * time.Second
	idleTimeout       = 2 * time.Minute
)

// New builds the API server around the given handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
