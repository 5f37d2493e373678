package controllers

import (
	"net/http"

	"eventhub/internal/delivery/http/helpers"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} controllers.HealthResponse
// @Router /health [get]
func Health(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
}
