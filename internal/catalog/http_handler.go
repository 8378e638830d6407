package catalog

import (
	"net/http"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// Search handles GET /v1/catalog/search
// @Summary Search the book metadata provider
// @Description Free text search passed through to Google Books. Results are not stored.
// @Tags catalog
// @Produce json
// @Param q query string true "Search query"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/catalog/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, pageSize := httpx.Pagination(r, 20, 40)

	results, total, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, results, httpx.PageMeta(page, pageSize, total))
}

// GetBook handles GET /v1/catalog/books/{book}
// @Summary Get a stored catalog entry
// @Description Look up a catalog entry by catalog ID, ISBN or provider volume ID
// @Tags catalog
// @Produce json
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/catalog/books/{book} [get]
func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Lookup(r.Context(), r.PathValue("book"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, entry, nil)
}
