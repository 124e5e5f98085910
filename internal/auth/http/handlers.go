package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpapi "github.com/carbonchain/carbonchain-backend/internal/api/http"
	"github.com/carbonchain/carbonchain-backend/internal/auth"
	"github.com/carbonchain/carbonchain-backend/internal/auth/domain"
	"github.com/carbonchain/carbonchain-backend/internal/auth/service"
)

type Handler struct {
	authService *service.AuthService
	log         *zap.Logger
}

func New(authService *service.AuthService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{authService: authService, log: log}
}

// Signup creates an account and returns the user object.
func (h *Handler) Signup(c *gin.Context) {
	var req domain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		h.respondErr(c, err, "signup failed")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.respondErr(c, err, "login failed")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout is stateless; the client drops its stored session.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondErr(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req domain.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.UpdateUser(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		h.respondErr(c, err, "failed to update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) respondErr(c *gin.Context, err error, fallback string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		httpapi.RespondValidation(c, http.StatusUnprocessableEntity, verr.Error(), verr.Fields)
	case errors.Is(err, domain.ErrEmailTaken):
		httpapi.RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		httpapi.RespondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		httpapi.RespondError(c, http.StatusNotFound, err.Error())
	default:
		h.log.Error(fallback, zap.Error(err))
		httpapi.RespondError(c, http.StatusInternalServerError, fallback)
	}
}
