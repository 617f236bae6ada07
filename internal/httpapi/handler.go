package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/availabledata"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/bundling"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/engine"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/logger"
)

// BundleProcessor processes one bundle.
type BundleProcessor interface {
	Process(ctx context.Context, bundle *domain.Bundle) (*engine.Outcome, error)
}

// Peeker hands out the next bundle of available data.
type Peeker interface {
	Peek(ctx context.Context, recipientID string, kind availabledata.Kind, maxWeight int) ([]*availabledata.Record, error)
}

// Handler serves the charges HTTP API.
type Handler struct {
	processor BundleProcessor
	peeker    Peeker
	log       *logger.Entry
}

// NewHandler creates a new Handler.
func NewHandler(processor BundleProcessor, peeker Peeker) *Handler {
	return &Handler{
		processor: processor,
		peeker:    peeker,
		log:       logger.GetLogger().WithComponent("http_handler"),
	}
}

// SubmitBundle validates and applies a bundle of charge operations.
func (h *Handler) SubmitBundle(w http.ResponseWriter, r *http.Request) {
	var bundle domain.Bundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body: "+err.Error())
		return
	}

	outcome, err := h.processor.Process(r.Context(), &bundle)
	if err != nil && !(outcome != nil && errors.Is(err, domain.ErrNotificationFailed)) {
		h.handleError(w, err)
		return
	}
	if err != nil {
		h.log.WithError(err).Warn("Bundle committed with notification failure")
	}

	resp := BundleResponse{
		DocumentID: bundle.Document.ID,
		Accepted:   make([]string, 0, len(outcome.Accepted)),
		Rejected:   make([]RejectedOperation, 0, len(outcome.Rejected)),
	}
	for _, op := range outcome.Accepted {
		resp.Accepted = append(resp.Accepted, op.OperationID)
	}
	rules := failedRules(outcome.Rules.InvalidRules())
	for _, op := range outcome.Rejected {
		resp.Rejected = append(resp.Rejected, RejectedOperation{
			OperationID: op.OperationID,
			Rules:       rules[op.OperationID],
		})
	}

	sendJSON(w, http.StatusAccepted, resp)
}

// PeekAvailableData returns the next weight-bounded bundle for a recipient.
func (h *Handler) PeekAvailableData(w http.ResponseWriter, r *http.Request) {
	recipientID := chi.URLParam(r, "recipient")

	kind, ok := availabledata.ParseKind(r.URL.Query().Get("kind"))
	if !ok {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_KIND", "kind must be confirmation, rejection, charge_data or price_data")
		return
	}

	maxWeight, err := strconv.Atoi(r.URL.Query().Get("maxWeight"))
	if err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_MAX_WEIGHT", "maxWeight must be an integer")
		return
	}

	records, err := h.peeker.Peek(r.Context(), recipientID, kind, maxWeight)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if records == nil {
		records = []*availabledata.Record{}
	}

	sendJSON(w, http.StatusOK, PeekResponse{
		RecipientID: recipientID,
		Kind:        kind,
		MaxWeight:   maxWeight,
		Records:     records,
	})
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNilBundle), errors.Is(err, domain.ErrNilDocument):
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, bundling.ErrInvalidMaxWeight), errors.Is(err, availabledata.ErrUnknownKind):
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, domain.ErrConcurrentChargeUpdate):
		sendErrorResponse(w, http.StatusConflict, "CONCURRENT_UPDATE", "A charge in the bundle was updated concurrently, retry the bundle")
	default:
		h.log.WithError(err).Error("Request failed")
		sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
	}
}

func sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// sendErrorResponse sends an error response in the expected format
func sendErrorResponse(w http.ResponseWriter, statusCode int, code, description string) {
	sendJSON(w, statusCode, BaseError{
		ID:          uuid.New(),
		Code:        code,
		Description: description,
	})
}
