package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookshelf/internal/apperr"
	"bookshelf/internal/platform/googlebooks"

	"github.com/golang/mock/gomock"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHTTPHandler_Search(t *testing.T) {
	t.Run("passes paging through to provider", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		volumes := NewMockVolumeSource(ctrl)
		h := NewHTTPHandler(NewService(NewMockRepository(ctrl), volumes))

		volumes.EXPECT().SearchVolumes(gomock.Any(), "effective java", 10, 10).
			Return(&googlebooks.SearchResponse{TotalItems: 11, Items: []googlebooks.Volume{*effectiveJavaVolume()}}, nil)

		w := httptest.NewRecorder()
		h.Search(w, httptest.NewRequest(http.MethodGet, "/v1/catalog/search?q=effective+java&page=2&page_size=10", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		items := body["data"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, "9780134685991", items[0].(map[string]any)["isbn"])
		meta := body["meta"].(map[string]any)
		assert.EqualValues(t, 11, meta["total"])
		assert.EqualValues(t, 2, meta["total_pages"])
	})

	t.Run("provider failure is internal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		volumes := NewMockVolumeSource(ctrl)
		h := NewHTTPHandler(NewService(NewMockRepository(ctrl), volumes))

		volumes.EXPECT().SearchVolumes(gomock.Any(), "go", 0, 20).Return(nil, errors.New("upstream 503"))

		w := httptest.NewRecorder()
		h.Search(w, httptest.NewRequest(http.MethodGet, "/v1/catalog/search?q=go", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "upstream 503")
	})
}

func TestHTTPHandler_GetBook(t *testing.T) {
	stored := Entry{ID: "6f1c2a7e-3a52-4c5e-9d8e-1b7f3c0e4a21", ExternalID: "vol-ej3", ISBN: "9780134685991", Title: "Effective Java"}

	tests := []struct {
		name   string
		ref    string
		expect func(repo *MockRepositoryMockRecorder)
		status int
	}{
		{
			name: "by id",
			ref:  stored.ID,
			expect: func(repo *MockRepositoryMockRecorder) {
				repo.GetByID(gomock.Any(), stored.ID).Return(stored, nil)
			},
			status: http.StatusOK,
		},
		{
			name: "by hyphenated isbn",
			ref:  "978-0-13-468599-1",
			expect: func(repo *MockRepositoryMockRecorder) {
				repo.GetByISBN(gomock.Any(), "9780134685991").Return(stored, nil)
			},
			status: http.StatusOK,
		},
		{
			name: "by volume id",
			ref:  "vol-ej3",
			expect: func(repo *MockRepositoryMockRecorder) {
				repo.GetByIdentifier(gomock.Any(), "vol-ej3").Return(stored, nil)
			},
			status: http.StatusOK,
		},
		{
			name: "unknown",
			ref:  "vol-missing",
			expect: func(repo *MockRepositoryMockRecorder) {
				repo.GetByIdentifier(gomock.Any(), "vol-missing").Return(Entry{}, apperr.NotFound("Book not found in catalog."))
			},
			status: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := NewMockRepository(ctrl)
			tt.expect(repo.EXPECT())
			h := NewHTTPHandler(NewService(repo, NewMockVolumeSource(ctrl)))

			r := httptest.NewRequest(http.MethodGet, "/v1/catalog/books/"+tt.ref, nil).WithContext(context.Background())
			r.SetPathValue("book", tt.ref)
			w := httptest.NewRecorder()
			h.GetBook(w, r)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				data := decodeBody(t, w)["data"].(map[string]any)
				assert.Equal(t, "Effective Java", data["title"])
			}
		})
	}
}
