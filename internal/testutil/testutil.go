package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"bookshelf/db"
	"bookshelf/internal/platform/crypto"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/postgres"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	jsoniter "github.com/json-iterator/go"
	"github.com/pressly/goose/v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TestSecret signs every token the tests mint.
const TestSecret = "test-secret"

// GenerateTestToken generates a JWT token for testing
func GenerateTestToken(secret, userID, role string) string {
	token, _, _ := crypto.GenerateToken(secret, userID, role, time.Hour)
	return token
}

// GenerateExpiredToken generates an expired JWT token for testing
func GenerateExpiredToken(secret, userID, role string) string {
	c := crypto.Claims{
		Sub:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, _ := t.SignedString([]byte(secret))
	return token
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates a new HTTP request with JWT auth for testing
func NewRequestWithAuth(method, path string, body any, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// Data returns the "data" object of a success envelope.
func (rr RecordResponse) Data() map[string]any {
	data, _ := rr.Body["data"].(map[string]any)
	return data
}

// ErrorCode returns error.code of an error envelope.
func (rr RecordResponse) ErrorCode() string {
	e, _ := rr.Body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]any
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// NewVolume builds a provider volume with a single ISBN_13 identifier.
func NewVolume(id, isbn13, title string, authors ...string) *googlebooks.Volume {
	return &googlebooks.Volume{
		ID: id,
		VolumeInfo: googlebooks.VolumeInfo{
			Title:   title,
			Authors: authors,
			IndustryIdentifiers: []googlebooks.IndustryIdentifier{
				{Type: "ISBN_13", Identifier: isbn13},
			},
			Language: "en",
		},
		Raw: []byte(`{"id":"` + id + `"}`),
	}
}

// FakeVolumes serves a fixed set of volumes in place of Google Books and
// counts the calls it receives.
type FakeVolumes struct {
	mu      sync.Mutex
	volumes []*googlebooks.Volume
	calls   int
}

func NewFakeVolumes(volumes ...*googlebooks.Volume) *FakeVolumes {
	return &FakeVolumes{volumes: volumes}
}

func (f *FakeVolumes) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeVolumes) GetVolume(_ context.Context, id string) (*googlebooks.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, v := range f.volumes {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, googlebooks.ErrNotFound
}

func (f *FakeVolumes) FindByISBN(_ context.Context, isbn string) (*googlebooks.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, v := range f.volumes {
		for _, id := range v.VolumeInfo.IndustryIdentifiers {
			if strings.ReplaceAll(id.Identifier, "-", "") == isbn {
				return v, nil
			}
		}
	}
	return nil, googlebooks.ErrNotFound
}

func (f *FakeVolumes) SearchVolumes(_ context.Context, q string, startIndex, maxResults int) (*googlebooks.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	res := &googlebooks.SearchResponse{Items: []googlebooks.Volume{}}
	needle := strings.ToLower(q)
	for _, v := range f.volumes {
		if strings.Contains(strings.ToLower(v.VolumeInfo.Title), needle) {
			res.TotalItems++
			if res.TotalItems > startIndex && len(res.Items) < maxResults {
				res.Items = append(res.Items, *v)
			}
		}
	}
	return res, nil
}

// PostgresPool connects to TEST_DB_DSN, applies the migrations and empties
// every table. The test is skipped when no database is configured or reachable.
func PostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := postgres.Open(ctx, dsn, 4)
	if err != nil {
		t.Skipf("database unreachable: %v", err)
	}
	t.Cleanup(pool.Close)

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("goose dialect: %v", err)
	}
	if err := goose.Up(sqlDB, db.MigrationsRoot); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE custody_records, library_entries, catalog_entries CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

// AssertResponseCode checks if the response code matches expected
func AssertResponseCode(t interface {
	Errorf(format string, args ...any)
}, got, want int) {
	if got != want {
		t.Errorf("got status code %d, want %d", got, want)
	}
}
