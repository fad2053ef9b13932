package book

import (
	"errors"
	"log/slog"
	"net/http"

	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

type listResponse struct {
	Total int    `json:"total"`
	Books []Book `json:"books"`
}

type bookResponse struct {
	Book Book `json:"book"`
}

type messageResponse struct {
	Message string `json:"message"`
	Book    Book   `json:"book"`
}

type removedResponse struct {
	Message     string `json:"message"`
	RemovedBook Book   `json:"removedBook"`
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if !h.decode(w, r, &in) {
		return
	}

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, "Failed to create book")
		return
	}
	httpx.JSON(w, http.StatusCreated, messageResponse{Message: "Book created successfully", Book: b})
}

// List handles GET /books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, total, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Failed to list books")
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Total: total, Books: nonNil(books)})
}

// ListAvailable handles GET /books/available
func (h *HTTPHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	books, total, err := h.service.ListAvailable(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Failed to list available books")
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Total: total, Books: nonNil(books)})
}

// Get handles GET /books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch book")
		return
	}
	httpx.JSON(w, http.StatusOK, bookResponse{Book: b})
}

// Update handles PUT /books/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	var in UpdateInput
	if !h.decode(w, r, &in) {
		return
	}

	b, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err, "Failed to update book")
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "Book updated successfully", Book: b})
}

// PartialUpdate handles PATCH /books/{id}
func (h *HTTPHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	var in UpdateInput
	if !h.decode(w, r, &in) {
		return
	}

	b, err := h.service.PartialUpdate(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err, "Failed to update book")
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "Book updated successfully", Book: b})
}

// Delete handles DELETE /books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	b, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to delete book")
		return
	}
	httpx.JSON(w, http.StatusOK, removedResponse{Message: "Book removed successfully", RemovedBook: b})
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := httpx.DecodeJSON(r, dst)
	if err == nil {
		return true
	}
	if httpx.IsBodyTooLarge(err) {
		httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, httpx.CodeRequestTooLarge, "Request body too large", nil)
		return false
	}
	httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Request body must be a valid book JSON object", nil)
	return false
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error, internalMessage string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]httpx.ErrorDetail, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, httpx.ErrorDetail{Field: f.Field, Message: f.Message})
		}
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, verr.Message, details)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrConflict):
		httpx.JSONError(w, r, http.StatusConflict, httpx.CodeConflict, ErrConflict.Error(), nil)
	default:
		h.logger.ErrorContext(r.Context(), internalMessage,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httpx.RequestIDFrom(r),
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, internalMessage, nil)
	}
}

func nonNil(books []Book) []Book {
	if books == nil {
		return []Book{}
	}
	return books
}
