package custody

import (
	"context"
	"net/http"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type recordResponse struct {
	Record
	State State `json:"state"`
}

func respond(rec Record) recordResponse {
	return recordResponse{Record: rec, State: rec.State()}
}

type relationReq struct {
	Person string `json:"person" validate:"required,max=200"`
	Since  string `json:"since,omitempty"`
	Due    string `json:"due,omitempty"`
}

type dateReq struct {
	Type string `json:"type" validate:"required,custody_which"`
	Date string `json:"date" validate:"required"`
}

// Get handles GET /v1/library/{book}/custody
// @Summary Get custody record
// @Tags custody
// @Produce json
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/library/{book}/custody [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	rec, err := h.service.Get(r.Context(), userID, r.PathValue("book"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, respond(rec), nil)
}

// Lend handles POST /v1/library/{book}/custody/lend
// @Summary Lend the book to someone
// @Description Dates accept YYYY-MM-DD or RFC 3339; since defaults to now.
// @Tags custody
// @Accept json
// @Produce json
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Param request body relationReq true "Lend request"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/library/{book}/custody/lend [post]
func (h *HTTPHandler) Lend(w http.ResponseWriter, r *http.Request) {
	h.relation(w, r, h.service.Lend)
}

// Borrow handles POST /v1/library/{book}/custody/borrow
// @Summary Record a copy borrowed from someone
// @Tags custody
// @Accept json
// @Produce json
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Param request body relationReq true "Borrow request"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/library/{book}/custody/borrow [post]
func (h *HTTPHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	h.relation(w, r, h.service.Borrow)
}

func (h *HTTPHandler) relation(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID, ref string, in RelationInput) (Record, error)) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	var req relationReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}

	rec, err := op(r.Context(), userID, r.PathValue("book"), RelationInput{
		Person: req.Person,
		Since:  req.Since,
		Due:    req.Due,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, respond(rec), nil)
}

// ReturnLent handles POST /v1/library/{book}/custody/lend/return
// @Summary Mark a lent book as returned
// @Tags custody
// @Produce json
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/library/{book}/custody/lend/return [post]
func (h *HTTPHandler) ReturnLent(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.service.ReturnLent)
}

// ReturnBorrowed handles POST /v1/library/{book}/custody/borrow/return
// @Summary Give a borrowed book back
// @Tags custody
// @Produce json
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/library/{book}/custody/borrow/return [post]
func (h *HTTPHandler) ReturnBorrowed(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.service.ReturnBorrowed)
}

// ClearHistory handles DELETE /v1/library/{book}/custody/history
func (h *HTTPHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.service.ClearHistory)
}

// Sell handles POST /v1/library/{book}/custody/sell
func (h *HTTPHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.service.Sell)
}

// Buy handles POST /v1/library/{book}/custody/buy
func (h *HTTPHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.service.Buy)
}

func (h *HTTPHandler) simple(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID, ref string) (Record, error)) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	rec, err := op(r.Context(), userID, r.PathValue("book"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, respond(rec), nil)
}

// UpdateDueDate handles PUT /v1/library/{book}/custody/due-date
// @Summary Change the due date of the active lend or borrow
// @Tags custody
// @Accept json
// @Produce json
// @Security Bearer
// @Param book path string true "Catalog ID, ISBN or volume ID"
// @Param request body dateReq true "type is lent or borrowed"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/library/{book}/custody/due-date [put]
func (h *HTTPHandler) UpdateDueDate(w http.ResponseWriter, r *http.Request) {
	h.date(w, r, h.service.UpdateDueDate)
}

// UpdateStartDate handles PUT /v1/library/{book}/custody/start-date
func (h *HTTPHandler) UpdateStartDate(w http.ResponseWriter, r *http.Request) {
	h.date(w, r, h.service.UpdateStartDate)
}

func (h *HTTPHandler) date(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID, ref, which, date string) (Record, error)) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	var req dateReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}

	rec, err := op(r.Context(), userID, r.PathValue("book"), req.Type, req.Date)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, respond(rec), nil)
}

// Overdue handles GET /v1/custody/overdue
// @Summary List overdue lends and borrows
// @Tags custody
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/custody/overdue [get]
func (h *HTTPHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	userID := httpx.RequireUser(w, r)
	if userID == "" {
		return
	}
	items, err := h.service.Overdue(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, items, map[string]any{"total": len(items)})
}
