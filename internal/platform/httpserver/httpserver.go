// Package httpserver builds the portal's HTTP server with timeouts suited
// to short JSON request/response exchanges.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server. Queue reads and decision writes are all quick
// store operations; anything that holds a connection past these timeouts
// is a misbehaving client.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
