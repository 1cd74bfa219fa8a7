package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/magezero/r2media/pkg/r2media"
	"github.com/magezero/r2media/pkg/r2media/config"
)

// AdminHandler handles administrative operations: connection testing and
// derived-cache cleanup.
type AdminHandler struct {
	validator *config.ConnectionValidator
	sync      *r2media.CacheSynchronizer
	logger    *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(validator *config.ConnectionValidator, sync *r2media.CacheSynchronizer, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		validator: validator,
		sync:      sync,
		logger:    logger,
	}
}

// Routes returns the routes for admin operations
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/test-connection", h.TestConnection)
	r.Post("/cache/clean", h.CleanCache)
	return r
}

// TestConnectionResponse is the response body for a connection test
type TestConnectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestConnection probes the remote store with the saved configuration,
// optionally overridden by query parameters carrying unsaved form values.
func (h *AdminHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	overrides := config.Overrides{
		AccountID: q.Get("account_id"),
		Endpoint:  q.Get("endpoint"),
		Region:    q.Get("region"),
		Bucket:    q.Get("bucket"),
		AccessKey: q.Get("access_key"),
		SecretKey: q.Get("secret_key"),
	}
	if raw := q.Get("path_style"); raw != "" {
		pathStyle := raw == "1" || raw == "true"
		overrides.PathStyle = &pathStyle
	}

	ok, message := h.validator.TestConnection(r.Context(), overrides)
	if !ok {
		h.logger.Error("Connection test failed", "message", message)
	}

	render.JSON(w, r, TestConnectionResponse{Success: ok, Message: message})
}

// CleanCache deletes the derived image cache from the remote store and
// resets the existence cache.
func (h *AdminHandler) CleanCache(w http.ResponseWriter, r *http.Request) {
	if err := h.sync.PurgeDerivedCache(r.Context()); err != nil {
		h.logger.Error("Failed to purge derived cache", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, map[string]string{"status": "completed"})
}
