package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// EnhanceDescriptionRequest is the request body for POST /ai/enhance-description.
type EnhanceDescriptionRequest struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	DateTime string `json:"dateTime"`
	Notes    string `json:"notes"`
}

// Validate implements Validator.
func (req EnhanceDescriptionRequest) Validate() []string {
	if strings.TrimSpace(req.Title) == "" {
		return []string{"title is required"}
	}
	return nil
}

// DescriptionResponse carries the generated description.
type DescriptionResponse struct {
	Description string `json:"description"`
}

// DescriptionSuccessResponse is the success response envelope for POST /ai/enhance-description.
type DescriptionSuccessResponse struct {
	Data  DescriptionResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type AIController struct {
	Logger  *slog.Logger
	Service domain.DescriptionService
}

func NewAIController(logger *slog.Logger, svc domain.DescriptionService) *AIController {
	return &AIController{
		Logger:  logger,
		Service: svc,
	}
}

// EnhanceDescription godoc
// @Summary Suggest an event description
// @Description Asks the configured text-generation provider for a short description. Inputs are trimmed to title 120, location 120, dateTime 80 and notes 600 characters.
// @Tags ai
// @Accept json
// @Produce json
// @Param body body EnhanceDescriptionRequest true "Event details"
// @Success 200 {object} controllers.DescriptionSuccessResponse "data.description"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /ai/enhance-description [post]
func (c *AIController) EnhanceDescription(w http.ResponseWriter, r *http.Request) {
	var req EnhanceDescriptionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	description, err := c.Service.EnhanceDescription(r.Context(), domain.DescriptionPrompt{
		Title:    req.Title,
		Location: req.Location,
		DateTime: req.DateTime,
		Notes:    req.Notes,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DescriptionResponse{Description: description})
}
