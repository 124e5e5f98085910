package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpapi "github.com/carbonchain/carbonchain-backend/internal/api/http"
	"github.com/carbonchain/carbonchain-backend/internal/auth"
	mkt "github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/service"
)

type Handler struct {
	svc *service.QuoteService
	log *zap.Logger
}

func New(svc *service.QuoteService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/get_quote", h.GetQuote)
	r.POST("/purchase", h.Purchase)
	r.GET("/quotes", h.ListQuotes)
}

func (h *Handler) GetQuote(c *gin.Context) {
	var req domain.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := auth.ResolveUserID(c, req.UserID)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	q, err := h.svc.GetQuote(c.Request.Context(), req, userID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.NewQuoteResponse(q))
}

func (h *Handler) Purchase(c *gin.Context) {
	var req domain.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := auth.ResolveUserID(c, req.UserID)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	receipt, err := h.svc.Purchase(c.Request.Context(), req, userID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *Handler) ListQuotes(c *gin.Context) {
	userID, err := auth.ResolveUserID(c, c.Query("userId"))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	quotes, err := h.svc.ListQuotes(c.Request.Context(), userID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes)})
}

func (h *Handler) respondErr(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		httpapi.RespondValidation(c, http.StatusUnprocessableEntity, verr.Error(), verr.Fields)
	case errors.Is(err, auth.ErrUnauthenticated):
		httpapi.RespondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrIdentityMismatch), errors.Is(err, domain.ErrQuoteOwnership):
		httpapi.RespondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, mkt.ErrProjectNotFound), errors.Is(err, domain.ErrQuoteNotFound):
		httpapi.RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrQuoteExpired):
		httpapi.RespondError(c, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrInsufficientSupply),
		errors.Is(err, domain.ErrNoSupply),
		errors.Is(err, domain.ErrQuoteAlreadyUsed):
		httpapi.RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, mkt.ErrUpstream):
		h.log.Error("marketplace unavailable", zap.Error(err))
		httpapi.RespondError(c, http.StatusBadGateway, "marketplace unavailable, please retry")
	default:
		h.log.Error("quote request failed", zap.Error(err))
		httpapi.RespondError(c, http.StatusInternalServerError, "request failed")
	}
}
