package book

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*HTTPHandler, *MockRepository) {
	s, repo := newTestService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHTTPHandler(s, logger), repo
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHTTPHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindByISBN(gomock.Any(), "9780441013593").Return(Book{}, ErrNotFound)
		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(duneBook(), nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(
			`{"title":"Dune","author":"Herbert","isbn":"9780441013593","publicationYear":1965}`))

		handler.Create(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Book created successfully", body["message"])
		b := body["book"].(map[string]any)
		assert.Equal(t, float64(1), b["id"])
		assert.Equal(t, true, b["available"])
		assert.Equal(t, float64(1965), b["publicationYear"])
	})

	t.Run("validation error", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title":"Dune"}`))

		handler.Create(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Contains(t, body["message"], "author")
	})

	t.Run("wrong field type", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(
			`{"title":"Dune","author":"Herbert","isbn":"9780441013593","publicationYear":"1965"}`))

		handler.Create(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{`))

		handler.Create(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("conflict", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindByISBN(gomock.Any(), "9780441013593").Return(duneBook(), nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(
			`{"title":"Dune","author":"Herbert","isbn":"9780441013593","publicationYear":1965}`))

		handler.Create(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "conflict", decodeBody(t, w)["error"])
	})

	t.Run("store error", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindByISBN(gomock.Any(), gomock.Any()).Return(Book{}, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(
			`{"title":"Dune","author":"Herbert","isbn":"9780441013593","publicationYear":1965}`))

		handler.Create(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "internal_error", body["error"])
		assert.Equal(t, "Failed to create book", body["message"])
	})
}

func TestHTTPHandler_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindAll(gomock.Any()).Return([]Book{duneBook()}, nil)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(1), body["total"])
		assert.Len(t, body["books"], 1)
	})

	t.Run("empty list encodes as array", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindAll(gomock.Any()).Return(nil, nil)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"total":0,"books":[]}`, w.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindAll(gomock.Any()).Return(nil, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("available", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindAvailable(gomock.Any()).Return([]Book{duneBook()}, nil)

		w := httptest.NewRecorder()
		handler.ListAvailable(w, httptest.NewRequest(http.MethodGet, "/books/available", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decodeBody(t, w)["total"])
	})
}

func TestHTTPHandler_Get(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(duneBook(), nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/1", nil)
		r.SetPathValue("id", "1")

		handler.Get(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		b := decodeBody(t, w)["book"].(map[string]any)
		assert.Equal(t, "Dune", b["title"])
	})

	t.Run("not found", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/1", nil)
		r.SetPathValue("id", "1")

		handler.Get(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decodeBody(t, w)["error"])
	})

	t.Run("invalid id", func(t *testing.T) {
		for _, id := range []string{"abc", "0", "-1"} {
			handler, _ := newTestHandler(t)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/books/"+id, nil)
			r.SetPathValue("id", id)

			handler.Get(w, r)

			assert.Equal(t, http.StatusBadRequest, w.Code, id)
		}
	})
}

func TestHTTPHandler_Update(t *testing.T) {
	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			handler, repo := newTestHandler(t)
			repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(duneBook(), nil)
			repo.EXPECT().Update(gomock.Any(), int64(1), Patch{Available: boolPtr(false)}).
				DoAndReturn(func(_ context.Context, _ int64, p Patch) (Book, error) {
					return p.Apply(duneBook()), nil
				})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(method, "/books/1", bytes.NewBufferString(`{"available":false}`))
			r.SetPathValue("id", "1")

			if method == http.MethodPut {
				handler.Update(w, r)
			} else {
				handler.PartialUpdate(w, r)
			}

			assert.Equal(t, http.StatusOK, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "Book updated successfully", body["message"])
			b := body["book"].(map[string]any)
			assert.Equal(t, false, b["available"])
			assert.Equal(t, "Dune", b["title"])
		})
	}

	t.Run("conflict", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(duneBook(), nil)
		repo.EXPECT().FindByISBN(gomock.Any(), "0000000000").Return(Book{ID: 2}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/books/1", bytes.NewBufferString(`{"isbn":"0000000000"}`))
		r.SetPathValue("id", "1")

		handler.Update(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid id checked before body", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPatch, "/books/x", bytes.NewBufferString(`{`))
		r.SetPathValue("id", "x")

		handler.PartialUpdate(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "id must be a positive integer", body["message"])
	})
}

func TestHTTPHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(duneBook(), nil)
		repo.EXPECT().Delete(gomock.Any(), int64(1)).Return(true, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/books/1", nil)
		r.SetPathValue("id", "1")

		handler.Delete(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Book removed successfully", body["message"])
		removed := body["removedBook"].(map[string]any)
		assert.Equal(t, "9780441013593", removed["isbn"])
	})

	t.Run("not found", func(t *testing.T) {
		handler, repo := newTestHandler(t)
		repo.EXPECT().FindByID(gomock.Any(), int64(2)).Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/books/2", nil)
		r.SetPathValue("id", "2")

		handler.Delete(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
