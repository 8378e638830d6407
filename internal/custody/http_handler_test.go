package custody_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookshelf/internal/custody"
	"bookshelf/internal/httpx"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerResult struct {
	code int
	data map[string]any
	err  string
}

func call(t *testing.T, handle http.HandlerFunc, method, body string) handlerResult {
	t.Helper()
	r := httptest.NewRequest(method, "/v1/library/"+isbn+"/custody", strings.NewReader(body))
	r = r.WithContext(httpx.ContextWithUser(r.Context(), userID, "USER"))
	r.SetPathValue("book", isbn)
	w := httptest.NewRecorder()
	handle(w, r)

	var env struct {
		Data  map[string]any `json:"data"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &env))
	return handlerResult{code: w.Code, data: env.Data, err: env.Error.Code}
}

func TestHTTPHandler_Lifecycle(t *testing.T) {
	svc, _ := newService(t)
	h := custody.NewHTTPHandler(svc)

	steps := []struct {
		name   string
		handle http.HandlerFunc
		method string
		body   string
		code   int
		state  string
		err    string
	}{
		{"borrow", h.Borrow, http.MethodPost, `{"person":"Dana","due":"2024-06-30"}`, http.StatusOK, "borrowed_in", ""},
		{"borrow twice", h.Borrow, http.MethodPost, `{"person":"Dana"}`, http.StatusConflict, "", "INVALID_TRANSITION"},
		{"move start date", h.UpdateStartDate, http.MethodPut, `{"type":"borrowed","date":"2024-05-01"}`, http.StatusOK, "borrowed_in", ""},
		{"sell while borrowed", h.Sell, http.MethodPost, ``, http.StatusConflict, "", "INVALID_TRANSITION"},
		{"give back", h.ReturnBorrowed, http.MethodPost, ``, http.StatusOK, "on_shelf", ""},
		{"sell", h.Sell, http.MethodPost, ``, http.StatusOK, "sold", ""},
		{"lend sold book", h.Lend, http.MethodPost, `{"person":"Eve"}`, http.StatusConflict, "", "INVALID_TRANSITION"},
		{"buy back", h.Buy, http.MethodPost, ``, http.StatusOK, "on_shelf", ""},
		{"lend without person", h.Lend, http.MethodPost, `{}`, http.StatusBadRequest, "", "VALIDATION_ERROR"},
		{"clear history", h.ClearHistory, http.MethodDelete, ``, http.StatusOK, "on_shelf", ""},
	}
	for _, st := range steps {
		res := call(t, st.handle, st.method, st.body)
		require.Equal(t, st.code, res.code, st.name)
		assert.Equal(t, st.err, res.err, st.name)
		if st.state != "" {
			assert.Equal(t, st.state, res.data["state"], st.name)
		}
	}

	res := call(t, h.Get, http.MethodGet, ``)
	require.Equal(t, http.StatusOK, res.code)
	assert.Empty(t, res.data["history"])
	assert.Equal(t, true, res.data["owned"])
}

func TestHTTPHandler_RequiresIdentity(t *testing.T) {
	svc, _ := newService(t)
	h := custody.NewHTTPHandler(svc)

	w := httptest.NewRecorder()
	h.Overdue(w, httptest.NewRequest(http.MethodGet, "/v1/custody/overdue", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
