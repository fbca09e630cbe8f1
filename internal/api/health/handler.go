package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gousers/internal/pkg/logger"
)

// Pinger é qualquer dependência que responde a um ping (DB, cache).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapta uma função a Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Handler expõe liveness e readiness.
type Handler struct {
	checks  map[string]Pinger
	timeout time.Duration
	logger  logger.Logger
}

// NewHandler cria o handler com as dependências verificadas na readiness.
func NewHandler(checks map[string]Pinger, timeout time.Duration, log logger.Logger) *Handler {
	return &Handler{checks: checks, timeout: timeout, logger: log}
}

// StatusResponse é o corpo das respostas de saúde.
type StatusResponse struct {
	Status     string            `json:"status" example:"UP"`
	Components map[string]string `json:"components,omitempty"`
}

// PingHandler responde "pong".
// @Summary Liveness simples
// @Tags health
// @Produce plain
// @Success 200 {string} string "pong"
// @Router /ping [get]
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// Liveness indica apenas que o processo está de pé.
// @Summary Liveness
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /healthz [get]
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "UP"})
}

// Readiness verifica banco e cache; qualquer falha devolve 503.
// @Summary Readiness (banco e cache)
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} StatusResponse
// @Router /readyz [get]
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := StatusResponse{Status: "UP", Components: make(map[string]string, len(h.checks))}
	status := http.StatusOK

	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			h.logger.Warn("Dependência indisponível na readiness.", map[string]interface{}{"component": name, "error": err.Error()})
			resp.Components[name] = "DOWN"
			resp.Status = "DOWN"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "UP"
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
