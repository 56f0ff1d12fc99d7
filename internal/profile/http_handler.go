package profile

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

type UpdateReq struct {
	Bio string `json:"bio"`
}

// Get handles GET /api/user/profile
// @Summary Get own profile
// @Description Get the authenticated user's name, email and bio
// @Tags profiles
// @Produce json
// @Security Bearer
// @Success 200 {object} Profile
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/user/profile [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Unauthorized.", nil)
		return
	}

	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	httpx.JSON(w, http.StatusOK, p)
}

// Update handles PUT /api/user/profile
// @Summary Update bio
// @Description Replace the authenticated user's bio
// @Tags profiles
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body UpdateReq true "New bio"
// @Success 200 {object} httpx.MessageResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/user/profile [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Unauthorized.", nil)
		return
	}

	var req UpdateReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.service.UpdateBio(r.Context(), userID, req.Bio); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	httpx.JSONMessage(w, http.StatusOK, "Bio updated successfully!")
}
