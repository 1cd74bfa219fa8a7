// Package api exposes the HTTP surface: the public on-demand resize
// endpoint and the admin operations.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/magezero/r2media/pkg/r2media"
)

// ResizeHandler handles on-demand image resize requests
type ResizeHandler struct {
	service r2media.Service
	active  bool
	logger  *slog.Logger
}

// NewResizeHandler creates a new resize handler. The active flag reflects
// whether the remote media backend is selected; when it is not, the
// endpoint answers 404 so callers fall back to their regular media path.
func NewResizeHandler(service r2media.Service, active bool, logger *slog.Logger) *ResizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResizeHandler{
		service: service,
		active:  active,
		logger:  logger,
	}
}

// Routes returns the routes for the resize endpoint
func (h *ResizeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/resize", h.Resize)
	return r
}

// Resize generates (or finds) the derived image for the query parameters
// and redirects the caller to its canonical URL.
func (h *ResizeHandler) Resize(w http.ResponseWriter, r *http.Request) {
	if !h.active {
		http.NotFound(w, r)
		return
	}

	imagePath := r.URL.Query().Get("image")
	if imagePath == "" {
		http.Error(w, "image parameter is required", http.StatusBadRequest)
		return
	}

	req := r2media.ResizeRequest{
		ImagePath: imagePath,
		Width:     queryInt(r, "width"),
		Height:    queryInt(r, "height"),
		Quality:   queryInt(r, "quality"),
	}

	result, err := h.service.Resize(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, r2media.ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, r2media.ErrObjectNotFound):
			h.logger.Error("Original image not found", "image", imagePath, "error", err)
			http.Error(w, "original image not found", http.StatusInternalServerError)
		default:
			h.logger.Error("Failed to resize image",
				"image", imagePath,
				"width", req.Width,
				"height", req.Height,
				"error", err)
			http.Error(w, "failed to resize image", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, result.URL, http.StatusFound)
}

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
