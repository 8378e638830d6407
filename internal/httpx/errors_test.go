package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookshelf/internal/apperr"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWriteErrorMapsKinds(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", apperr.NotFound("Book not found."), http.StatusNotFound, "NOT_FOUND", "Book not found."},
		{"invalid input", apperr.InvalidInput("Progress must be between 0 and 100."), http.StatusBadRequest, "INVALID_INPUT", "Progress must be between 0 and 100."},
		{"invalid transition", apperr.InvalidTransition("Book already lent out."), http.StatusConflict, "INVALID_TRANSITION", "Book already lent out."},
		{"conflict", apperr.Conflict("retry"), http.StatusConflict, "CONFLICT", "retry"},
		{"unauthorized", apperr.Unauthorized("not yours"), http.StatusForbidden, "FORBIDDEN", "not yours"},
		{"wrapped kind", fmt.Errorf("lend: %w", apperr.NotFound("gone")), http.StatusNotFound, "NOT_FOUND", "gone"},
		{"foreign error", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/v1/library", nil)
			r = r.WithContext(ContextWithRequestID(r.Context(), "req-1"))

			WriteError(w, r, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeError(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
			assert.Equal(t, map[string]any{"request_id": "req-1"}, body.Meta)
		})
	}
}

func TestRequireUser(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequireUser(w, r))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Error.Code)

	w = httptest.NewRecorder()
	r = r.WithContext(ContextWithUser(r.Context(), "u1", "USER"))
	assert.Equal(t, "u1", RequireUser(w, r))
	assert.Equal(t, "USER", RoleFrom(r))
	assert.Equal(t, 0, w.Body.Len())
}

type lendBody struct {
	Person string `json:"person" validate:"required,max=5"`
	Type   string `json:"type" validate:"omitempty,custody_which"`
	ISBN   string `json:"isbn" validate:"omitempty,isbn"`
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ok     bool
		code   string
		fields []string
	}{
		{"valid", `{"person":"Ann","type":"lent","isbn":"978-0-13-468599-1"}`, true, "", nil},
		{"malformed", `{"person":`, false, "BAD_REQUEST", nil},
		{"unknown field", `{"person":"Ann","colour":"red"}`, false, "BAD_REQUEST", nil},
		{"empty body", ``, false, "VALIDATION_ERROR", []string{"person"}},
		{"too long", `{"person":"Annabelle"}`, false, "VALIDATION_ERROR", []string{"person"}},
		{"custom tags", `{"person":"Ann","type":"sold","isbn":"12"}`, false, "VALIDATION_ERROR", []string{"type", "isbn"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst lendBody
			ok := DecodeAndValidate(w, r, &dst)

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, "Ann", dst.Person)
				return
			}
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Error.Code)
			var fields []string
			for _, d := range body.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query      string
		page, size int
	}{
		{"", 1, 20},
		{"page=3&page_size=10", 3, 10},
		{"page=0&page_size=-1", 1, 20},
		{"page=x&page_size=500", 1, 40},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			page, size := Pagination(r, 20, 40)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.size, size)
		})
	}
}

func TestPageMeta(t *testing.T) {
	assert.Equal(t, map[string]any{"page": 2, "page_size": 10, "total": 21, "total_pages": 3}, PageMeta(2, 10, 21))
}
