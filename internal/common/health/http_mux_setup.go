package health

import (
	"net/http"
)

// SetupHttpMux mounts a health check handler for checker on /health.
func SetupHttpMux(mux *http.ServeMux, checker Checker) {
	mux.Handle("/health", NewHealthCheckHttpHandler(checker))
}
