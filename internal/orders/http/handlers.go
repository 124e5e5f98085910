package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpapi "github.com/carbonchain/carbonchain-backend/internal/api/http"
	"github.com/carbonchain/carbonchain-backend/internal/auth"
	"github.com/carbonchain/carbonchain-backend/internal/orders/domain"
	"github.com/carbonchain/carbonchain-backend/internal/orders/service"
)

type Handler struct {
	svc *service.OrderService
	log *zap.Logger
}

func New(svc *service.OrderService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// ListOrders returns the caller's purchase history, newest first.
func (h *Handler) ListOrders(c *gin.Context) {
	userID, err := auth.ResolveUserID(c, c.Query("userId"))
	if err != nil {
		respondIdentityErr(c, err)
		return
	}

	orders, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("list orders", zap.String("user_id", userID), zap.Error(err))
		httpapi.RespondError(c, http.StatusInternalServerError, "failed to list orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *Handler) GetOrder(c *gin.Context) {
	userID, err := auth.ResolveUserID(c, c.Query("userId"))
	if err != nil {
		respondIdentityErr(c, err)
		return
	}

	o, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		httpapi.RespondError(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.log.Error("get order", zap.String("order_id", c.Param("id")), zap.Error(err))
		httpapi.RespondError(c, http.StatusInternalServerError, "failed to load order")
		return
	}
	c.JSON(http.StatusOK, o)
}

func respondIdentityErr(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	if errors.Is(err, auth.ErrIdentityMismatch) {
		status = http.StatusForbidden
	}
	httpapi.RespondError(c, status, err.Error())
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
}
