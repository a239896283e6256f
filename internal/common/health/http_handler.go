package health

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// HealthCheckHttpHandler responds 204 when the wrapped checker passes and
// 503 with the failure reason in the body when it does not.
type HealthCheckHttpHandler struct {
	checker Checker
}

func NewHealthCheckHttpHandler(checker Checker) *HealthCheckHttpHandler {
	return &HealthCheckHttpHandler{
		checker: checker,
	}
}

func (h *HealthCheckHttpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.checker.Check(); err != nil {
		log.Warnf("Health check failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte(err.Error())); err != nil {
			log.Errorf("Failed to write health check response: %v", err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
