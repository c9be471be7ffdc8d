package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/models"
	"github.com/ubermorgenland/mcp-openapi-proxy/pkg/repository"
)

// maxSpecPayload bounds the body of a spec import request.
const maxSpecPayload = 10 << 20

// ImportSpecRequest is the body of POST /specs.
type ImportSpecRequest struct {
	Name        string `json:"name"`
	SpecContent string `json:"spec_content"`
	FileFormat  string `json:"file_format,omitempty"` // "json" or "yaml", auto-detected if not provided
	Active      *bool  `json:"active,omitempty"`      // defaults to true if not provided
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SpecStore is the stored-spec management surface used by the admin routes.
type SpecStore interface {
	GetAllSpecs(ctx context.Context) ([]*models.OpenAPISpec, error)
	GetActiveSpecs(ctx context.Context) ([]*models.OpenAPISpec, error)
	CreateSpecFromContent(ctx context.Context, name, content, fileFormat string) (*models.OpenAPISpec, error)
	ActivateSpec(ctx context.Context, id int) error
	DeactivateSpec(ctx context.Context, id int) error
	DeleteSpec(ctx context.Context, id int) error
}

// CacheInvalidator drops cached documents that came from the spec store.
type CacheInvalidator interface {
	InvalidateStore()
}

// Handlers serves the HTTP endpoints next to /mcp.
type Handlers struct {
	service string
	engine  ToolEngine
	store   SpecStore
	cache   CacheInvalidator
	logger  *zap.Logger
}

// NewHandlers creates the HTTP handlers. store and cache may be nil.
func NewHandlers(service string, engine ToolEngine, store SpecStore, cache CacheInvalidator, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		service: service,
		engine:  engine,
		store:   store,
		cache:   cache,
		logger:  logger.With(zap.String("component", "http")),
	}
}

// HandleHealth handles the /health endpoint
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": h.service,
	})
}

// HandleTools returns the same descriptors as list_functions. The env_key
// query parameter selects the spec.
func (h *Handlers) HandleTools(w http.ResponseWriter, r *http.Request) {
	tools := h.engine.ListFunctions(r.Context(), r.URL.Query().Get("env_key"))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tools); err != nil {
		h.logger.Error("failed to encode tools", zap.Error(err))
	}
}

func (h *Handlers) HandleGetSpecs(w http.ResponseWriter, r *http.Request) {
	if !h.storeAvailable(w) {
		return
	}

	get := h.store.GetAllSpecs
	if r.URL.Query().Get("active") == "true" {
		get = h.store.GetActiveSpecs
	}
	specs, err := get(r.Context())
	if err != nil {
		h.logger.Error("failed to get specs", zap.Error(err))
		writeErrorResponse(w, "Failed to get specs", http.StatusInternalServerError)
		return
	}

	writeSuccessResponse(w, "Specs retrieved successfully", specs)
}

func (h *Handlers) HandleCreateSpec(w http.ResponseWriter, r *http.Request) {
	if !h.storeAvailable(w) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSpecPayload)

	var req ImportSpecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, "Request payload too large (max 10MB)", http.StatusRequestEntityTooLarge)
			return
		}
		writeErrorResponse(w, fmt.Sprintf("Invalid JSON payload: %v", err), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeErrorResponse(w, "Name is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.SpecContent) == "" {
		writeErrorResponse(w, "Spec content is required", http.StatusBadRequest)
		return
	}
	if req.FileFormat == "" {
		req.FileFormat = models.DetectFormat("", req.SpecContent)
	}

	created, err := h.store.CreateSpecFromContent(r.Context(), req.Name, req.SpecContent, req.FileFormat)
	if err != nil {
		writeErrorResponse(w, fmt.Sprintf("Failed to create spec: %v", err), http.StatusBadRequest)
		return
	}

	active := req.Active == nil || *req.Active
	if !active {
		if err := h.store.DeactivateSpec(r.Context(), created.ID); err != nil {
			h.logger.Warn("failed to deactivate new spec", zap.Int("id", created.ID), zap.Error(err))
			active = true
		}
	}
	h.invalidate()

	writeSuccessResponse(w, "Spec imported successfully", map[string]any{
		"id":     created.ID,
		"name":   created.Name,
		"active": active,
	})
}

func (h *Handlers) HandleActivateSpec(w http.ResponseWriter, r *http.Request) {
	h.specAction(w, r, "activate", h.storeActivate)
}

func (h *Handlers) HandleDeactivateSpec(w http.ResponseWriter, r *http.Request) {
	h.specAction(w, r, "deactivate", h.storeDeactivate)
}

func (h *Handlers) HandleDeleteSpec(w http.ResponseWriter, r *http.Request) {
	h.specAction(w, r, "delete", h.storeDelete)
}

func (h *Handlers) storeActivate(ctx context.Context, id int) error {
	return h.store.ActivateSpec(ctx, id)
}

func (h *Handlers) storeDeactivate(ctx context.Context, id int) error {
	return h.store.DeactivateSpec(ctx, id)
}

func (h *Handlers) storeDelete(ctx context.Context, id int) error {
	return h.store.DeleteSpec(ctx, id)
}

// specAction runs an id-addressed store operation and writes the envelope.
func (h *Handlers) specAction(w http.ResponseWriter, r *http.Request, verb string, action func(context.Context, int) error) {
	if !h.storeAvailable(w) {
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeErrorResponse(w, "Invalid spec ID", http.StatusBadRequest)
		return
	}

	if err := action(r.Context(), id); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, repository.ErrNotFound) {
			code = http.StatusNotFound
		}
		writeErrorResponse(w, fmt.Sprintf("Failed to %s spec: %v", verb, err), code)
		return
	}
	h.invalidate()

	h.logger.Info("spec updated", zap.String("action", verb), zap.Int("id", id))
	writeSuccessResponse(w, fmt.Sprintf("Spec %sd successfully", verb), map[string]int{"id": id})
}

func (h *Handlers) storeAvailable(w http.ResponseWriter) bool {
	if h.store == nil {
		writeErrorResponse(w, "Database not available", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (h *Handlers) invalidate() {
	if h.cache != nil {
		h.cache.InvalidateStore()
	}
}

func writeErrorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

func writeSuccessResponse(w http.ResponseWriter, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}
