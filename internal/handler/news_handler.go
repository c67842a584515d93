package handler

import (
	"net/http"
	"strconv"

	"auth-gateway/internal/container"
)

// NewsHandler handles the news aggregation endpoints
type NewsHandler struct {
	container *container.Container
}

// NewNewsHandler creates a new news handler
func NewNewsHandler(container *container.Container) *NewsHandler {
	return &NewsHandler{
		container: container,
	}
}

// Search handles GET /api/v1/news/search
func (h *NewsHandler) Search(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	query := r.URL.Query().Get("query")
	if query == "" {
		query = "삼성"
	}
	display := intParam(r, "display")
	start := intParam(r, "start")

	articles, err := h.container.GetNewsService().Search(r.Context(), query, display, start)
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"articles": articles,
		"count":    len(articles),
	}, log)
}

// Latest handles GET /api/v1/news/latest
func (h *NewsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	display := intParam(r, "display")

	articles, err := h.container.GetNewsService().Latest(r.Context(), display)
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"articles": articles,
		"count":    len(articles),
	}, log)
}

// intParam parses an integer query parameter, 0 when absent or malformed
func intParam(r *http.Request, name string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return value
}
