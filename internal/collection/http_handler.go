package collection

import (
	"net/http"

	"go.uber.org/zap"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	log     *zap.Logger
}

func NewHTTPHandler(service *Service, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{service: service, log: log}
}

type saveReq struct {
	Book *Entry `json:"book" validate:"required"`
}

type deleteReq struct {
	Key string `json:"key" validate:"notblank"`
}

type listResp struct {
	Books   []Entry `json:"books"`
	Message string  `json:"message,omitempty"`
}

// Save handles POST /api/books/collections/save
// @Summary Save a book
// @Description Add a book to the caller's collection, resolving its catalog key by title/author when absent
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body saveReq true "Book to save"
// @Success 200 {object} httpx.MessageResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books/collections/save [post]
func (h *HTTPHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Unauthorized.", nil)
		return
	}

	var req saveReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Save(r.Context(), userID, *req.Book); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	httpx.JSONMessage(w, http.StatusOK, "Book saved to your collection!")
}

// List handles GET /api/books/collections
// @Summary List collection
// @Description List the caller's saved books with live cover and description
// @Tags collections
// @Produce json
// @Security Bearer
// @Success 200 {object} listResp
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books/collections [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Unauthorized.", nil)
		return
	}

	books, err := h.service.List(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	resp := listResp{Books: books}
	if len(books) == 0 {
		resp.Message = "Your collection is empty."
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/books/collections/delete
// @Summary Remove a book
// @Description Remove the book with the given catalog key from the caller's collection
// @Tags collections
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body deleteReq true "Catalog key"
// @Success 200 {object} httpx.MessageResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books/collections/delete [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Unauthorized.", nil)
		return
	}

	var req deleteReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Delete(r.Context(), userID, req.Key); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	httpx.JSONMessage(w, http.StatusOK, "Book removed from your collection.")
}
