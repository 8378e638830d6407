package httpx

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	requestIDHeader     = "X-Request-Id"
	correlationIDHeader = "X-Correlation-Id"
	maxRequestIDLen     = 64
)

// RequestIDMiddleware tags every request with an ID that ends up in the
// response header, the access log and error envelopes. An ID supplied by
// the caller is kept only when it is safe to log verbatim.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := clientRequestID(r.Header)
		if !ok {
			id = newRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ContextWithRequestID(r.Context(), id)))
	})
}

func clientRequestID(h http.Header) (string, bool) {
	for _, name := range []string{requestIDHeader, correlationIDHeader} {
		if v := h.Get(name); v != "" {
			return v, validRequestID(v)
		}
	}
	return "", false
}

// validRequestID accepts short tokens of letters, digits and . _ : -.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == ':' || c == '-':
		default:
			return false
		}
	}
	return true
}

// newRequestID mints a time ordered UUID so IDs sort with the logs.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
