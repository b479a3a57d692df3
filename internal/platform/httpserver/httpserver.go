// Package httpserver constructs the API's http.Server.
package httpserver

import (
	"net/http"
	"time"
)

// Server timeouts. Confirmations render a document and talk to the database,
// so write timeouts are generous relative to read timeouts; slow-header
// clients are cut off quickly.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 45 * time.Second
	idleTimeout       = 90 * time.Second
)

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
