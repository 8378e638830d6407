package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"bookshelf/internal/apperr"
)

var kindStatus = map[apperr.Kind]struct {
	status int
	code   string
}{
	apperr.KindNotFound:          {http.StatusNotFound, "NOT_FOUND"},
	apperr.KindInvalidInput:      {http.StatusBadRequest, "INVALID_INPUT"},
	apperr.KindInvalidTransition: {http.StatusConflict, "INVALID_TRANSITION"},
	apperr.KindConflict:          {http.StatusConflict, "CONFLICT"},
	apperr.KindUnauthorized:      {http.StatusForbidden, "FORBIDDEN"},
}

// WriteError maps service errors onto the error envelope. Errors without a
// kind are logged and reported as INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if m, ok := kindStatus[apperr.KindOf(err)]; ok {
		JSONError(w, r, m.status, m.code, apperr.MessageOf(err), nil)
		return
	}
	slog.Default().Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", RequestIDFrom(r),
		"error", err,
	)
	JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

// RequireUser writes a 401 and returns "" when the request carries no identity.
func RequireUser(w http.ResponseWriter, r *http.Request) string {
	userID := UserIDFrom(r)
	if userID == "" {
		JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	}
	return userID
}

// DecodeAndValidate decodes a JSON body into dst and runs struct validation.
// It writes the 400 response itself and returns false on failure.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return false
	}
	if details := ValidateStruct(dst); len(details) > 0 {
		JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return false
	}
	return true
}

// Pagination reads page and page_size, clamping page_size to max.
func Pagination(r *http.Request, def, max int) (page, pageSize int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(q.Get("page_size"))
	if pageSize <= 0 {
		pageSize = def
	}
	if pageSize > max {
		pageSize = max
	}
	return page, pageSize
}
