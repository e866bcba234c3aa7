package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/G1okz/Geo-app/internal/infrastructure/json"
)

var (
	startTime       = time.Now()
	healthy   int32 = 1 // 1: healthy, 0 = unhealthy
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// SetUnhealthy flips the health endpoints to 503, for example while a
// persistence backend is down.
func SetUnhealthy() {
	atomic.StoreInt32(&healthy, 0)
}

func SetHealthy() {
	atomic.StoreInt32(&healthy, 1)
}

// GetHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API, including uptime and current timestamp
// @Tags         health
// @Produce      json
// @Success      200 {object} healthResponse "Service is healthy"
// @Failure      503 {object} healthResponse "Service is unhealthy"
// @Router       /health [get]
// @Router       /healthz [get]
// @Router       /ready [get]
// @Router       /live [get]
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	text := "ok"
	if atomic.LoadInt32(&healthy) == 0 {
		status = http.StatusServiceUnavailable
		text = "unhealthy"
	}

	json.Write(w, status, healthResponse{
		Status:    text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	})
}
