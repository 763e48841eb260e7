package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/evyataryagoni/cepcache/internal/models"
	"github.com/evyataryagoni/cepcache/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxRequestBytes = 1 << 16

// CEPHandler handles HTTP requests for postal code resolution
// This is the handler layer - it deals with HTTP concerns only
//
// Responsibilities:
//   - Parse HTTP requests (JSON body, path parameters)
//   - Reject blank input before calling the service
//   - Map service errors to status codes
//   - NO business logic (that's in the service layer)
type CEPHandler struct {
	service   *service.CEPService
	validator *validator.Validate
}

// NewCEPHandler creates a new CEP handler with the given service
func NewCEPHandler(service *service.CEPService) *CEPHandler {
	return &CEPHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Resolve handles POST /api/cep
// @Summary      Resolve a postal code
// @Description  Returns the cached address for a CEP, fetching and storing it from ViaCEP on a miss
// @Tags         CEP
// @Accept       json
// @Produce      json
// @Param        request  body      models.CEPRequest  true  "Postal code, masked or not"
// @Success      200      {object}  models.PostalRecord
// @Failure      400      {object}  models.ErrorResponse  "Missing or invalid CEP"
// @Failure      404      {object}  models.ErrorResponse  "CEP not found"
// @Failure      429      {object}  models.ErrorResponse  "Rate limit exceeded"
// @Failure      500      {object}  models.ErrorResponse  "Internal server error"
// @Failure      502      {object}  models.ErrorResponse  "Address service unavailable"
// @Router       /api/cep [post]
func (h *CEPHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req models.CEPRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	req.CEP = strings.TrimSpace(req.CEP)
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "The 'cep' field is required")
		return
	}

	h.resolve(w, r, req.CEP)
}

// Get handles GET /api/cep/{cep}
// @Summary      Resolve a postal code from the path
// @Tags         CEP
// @Produce      json
// @Param        cep  path      string  true  "Postal code"  example(01310-100)
// @Success      200  {object}  models.PostalRecord
// @Failure      400  {object}  models.ErrorResponse  "Invalid CEP"
// @Failure      404  {object}  models.ErrorResponse  "CEP not found"
// @Failure      502  {object}  models.ErrorResponse  "Address service unavailable"
// @Router       /api/cep/{cep} [get]
func (h *CEPHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, chi.URLParam(r, "cep"))
}

// List handles GET /api/cep
// @Summary      List cached postal codes
// @Tags         CEP
// @Produce      json
// @Success      200  {array}   models.PostalRecord
// @Failure      500  {object}  models.ErrorResponse  "Internal server error"
// @Router       /api/cep [get]
func (h *CEPHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListAll(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if records == nil {
		records = []models.PostalRecord{}
	}

	h.respondJSON(w, http.StatusOK, records)
}

func (h *CEPHandler) resolve(w http.ResponseWriter, r *http.Request, cep string) {
	record, err := h.service.Resolve(r.Context(), cep)
	if err != nil {
		status, message := statusFor(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// statusFor maps the error taxonomy to an HTTP status and a client-safe message
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, "CEP must contain exactly 8 digits"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "CEP not found"
	case errors.Is(err, models.ErrTransport):
		return http.StatusBadGateway, "Address service unavailable"
	default:
		// Storage and unexpected errors, don't leak internal details
		return http.StatusInternalServerError, "Internal server error"
	}
}

// respondJSON writes a JSON response with the given status code
func (h *CEPHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Headers are already sent, an encoding failure can't change the status anymore
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error response with consistent formatting
func (h *CEPHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
