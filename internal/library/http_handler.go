package library

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

type addReq struct {
	Book   string `json:"book" validate:"required"`
	Status string `json:"status,omitempty"`
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

type progressReq struct {
	Progress *int `json:"progress" validate:"required"`
}

type ratingReq struct {
	Rating *int `json:"rating" validate:"required"`
}

type reviewReq struct {
	Review *string `json:"review" validate:"required"`
}

// Add handles POST /v1/library
// @Summary Add a book to the library
// @Description Resolves the book by ISBN or volume ID, creating the catalog entry on first use. Adding a book twice returns the existing entry with 200.
// @Tags library
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body addReq true "Book reference and optional initial status"
// @Success 201 {object} httpx.SuccessResponse
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/library [post]
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	var req addReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}

	view, created, err := h.svc.AddEntry(r.Context(), userID, req.Book, req.Status)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if created {
		httpx.JSONSuccessCreated(w, r, view)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// List handles GET /v1/library
// @Summary List library entries
// @Tags library
// @Produce json
// @Security Bearer
// @Param status query string false "unread, reading, read or dnf"
// @Param q query string false "Title or author search"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/library [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	page, pageSize := httpx.Pagination(r, 20, 100)
	q := ListQuery{
		Q:      r.URL.Query().Get("q"),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		q.Status = st
	}

	views, total, err := h.svc.List(r.Context(), userID, q)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, views, httpx.PageMeta(page, pageSize, total))
}

// Get handles GET /v1/library/{book}
// @Summary Get one library entry with its book and custody
// @Tags library
// @Produce json
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/library/{book} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	view, err := h.svc.Get(r.Context(), userID, r.PathValue("book"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// GetByID handles GET /v1/entries/{id}
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	view, err := h.svc.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// Remove handles DELETE /v1/library/{book}
// @Summary Remove a book and its custody record
// @Tags library
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/library/{book} [delete]
func (h *HTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	if err := h.svc.RemoveEntry(r.Context(), userID, r.PathValue("book")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// Check handles GET /v1/library/{book}/check
func (h *HTTPHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	check, err := h.svc.CheckStatus(r.Context(), userID, r.PathValue("book"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, check, nil)
}

// SetStatus handles PUT /v1/library/{book}/status
// @Summary Set the reading status
// @Tags library
// @Accept json
// @Produce json
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Param request body statusReq true "New status"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/library/{book}/status [put]
func (h *HTTPHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	var req statusReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}
	h.respond(w, r)(h.svc.SetStatus(r.Context(), userID, r.PathValue("book"), req.Status))
}

// SetProgress handles PUT /v1/library/{book}/progress
// @Summary Set reading progress in percent
// @Description Progress 100 also marks the book read.
// @Tags library
// @Accept json
// @Produce json
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Param request body progressReq true "Progress 0-100"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/library/{book}/progress [put]
func (h *HTTPHandler) SetProgress(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	var req progressReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}
	h.respond(w, r)(h.svc.SetProgress(r.Context(), userID, r.PathValue("book"), *req.Progress))
}

// SetRating handles PUT /v1/library/{book}/rating
func (h *HTTPHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	var req ratingReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}
	h.respond(w, r)(h.svc.SetRating(r.Context(), userID, r.PathValue("book"), *req.Rating))
}

// SetReview handles PUT /v1/library/{book}/review
func (h *HTTPHandler) SetReview(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	var req reviewReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}
	h.respond(w, r)(h.svc.SetReview(r.Context(), userID, r.PathValue("book"), *req.Review))
}

// ClearReview handles DELETE /v1/library/{book}/review
func (h *HTTPHandler) ClearReview(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	h.respond(w, r)(h.svc.ClearReview(r.Context(), userID, r.PathValue("book")))
}

func (h *HTTPHandler) respond(w http.ResponseWriter, r *http.Request) func(Entry, error) {
	return func(e Entry, err error) {
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.JSONSuccess(w, r, e, nil)
	}
}

// Stats handles GET /v1/library/stats
// @Summary Library statistics
// @Tags library
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/library/stats [get]
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, stats, nil)
}

// Random handles GET /v1/library/random
// @Summary Pick a random book
// @Tags library
// @Produce json
// @Security Bearer
// @Param status query string false "Status to pick from" default(unread)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/library/random [get]
func (h *HTTPHandler) Random(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	view, err := h.svc.PickRandom(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}
