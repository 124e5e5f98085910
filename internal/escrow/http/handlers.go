package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpapi "github.com/carbonchain/carbonchain-backend/internal/api/http"
	"github.com/carbonchain/carbonchain-backend/internal/auth"
	"github.com/carbonchain/carbonchain-backend/internal/escrow/domain"
	"github.com/carbonchain/carbonchain-backend/internal/escrow/service"
)

type Handler struct {
	svc *service.EscrowService
	log *zap.Logger
}

func New(svc *service.EscrowService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/escrow")
	g.POST("/propose", h.Propose)
	g.POST("/fund", h.Fund)
	g.POST("/verify", h.Verify)
	g.POST("/reject", h.Reject)
	g.POST("/cancel", h.Cancel)
	g.POST("/cancel_expired", h.CancelExpired)
	g.POST("/refund", h.Refund)
	g.GET("/projects", h.ListProjects)
	g.GET("/projects/:id", h.GetProject)

	r.GET("/funding_tree", h.FundingTree)
}

func (h *Handler) Propose(c *gin.Context) {
	var req domain.ProposeRequest
	if !bind(c, &req) {
		return
	}
	if !h.actAs(c, &req.ProposerID) {
		return
	}
	p, err := h.svc.Propose(c.Request.Context(), req)
	h.respond(c, http.StatusCreated, p, nil, err)
}

func (h *Handler) Fund(c *gin.Context) {
	var req domain.FundRequest
	if !bind(c, &req) || !h.actAs(c, &req.UserID) {
		return
	}
	p, err := h.svc.Fund(c.Request.Context(), req)
	h.respond(c, http.StatusOK, p, nil, err)
}

func (h *Handler) Verify(c *gin.Context) {
	var req domain.VerifyRequest
	if !bind(c, &req) || !h.actAs(c, &req.VerifierID) {
		return
	}
	p, released, err := h.svc.VerifyAndRelease(c.Request.Context(), req)
	var extra gin.H
	if err == nil {
		extra = gin.H{"released": domain.FormatEther(released), "released_wei": released.String()}
	}
	h.respond(c, http.StatusOK, p, extra, err)
}

func (h *Handler) Reject(c *gin.Context) {
	var req domain.VerifyRequest
	if !bind(c, &req) || !h.actAs(c, &req.VerifierID) {
		return
	}
	p, err := h.svc.Reject(c.Request.Context(), req)
	h.respond(c, http.StatusOK, p, nil, err)
}

func (h *Handler) Cancel(c *gin.Context) {
	var req domain.CancelRequest
	if !bind(c, &req) || !h.actAs(c, &req.ProposerID) {
		return
	}
	p, err := h.svc.Cancel(c.Request.Context(), req)
	h.respond(c, http.StatusOK, p, nil, err)
}

// CancelExpired is open to any caller.
func (h *Handler) CancelExpired(c *gin.Context) {
	var req domain.ProjectRef
	if !bind(c, &req) {
		return
	}
	p, err := h.svc.CancelIfExpired(c.Request.Context(), req.ProjectID)
	h.respond(c, http.StatusOK, p, nil, err)
}

func (h *Handler) Refund(c *gin.Context) {
	var req domain.RefundRequest
	if !bind(c, &req) || !h.actAs(c, &req.UserID) {
		return
	}
	p, amount, err := h.svc.ClaimRefund(c.Request.Context(), req)
	var extra gin.H
	if err == nil {
		extra = gin.H{"refunded": domain.FormatEther(amount), "refunded_wei": amount.String()}
	}
	h.respond(c, http.StatusOK, p, extra, err)
}

func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "projects": projects, "count": len(projects)})
}

func (h *Handler) GetProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "project id must be an integer")
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	h.respond(c, http.StatusOK, p, nil, err)
}

// FundingTree returns initiatives keyed by name, the shape the funding
// network page renders.
func (h *Handler) FundingTree(c *gin.Context) {
	tree, err := h.svc.FundingTree(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// actAs replaces the acting party id with the authenticated identity when
// there is one.
func (h *Handler) actAs(c *gin.Context, id *string) bool {
	uid, err := auth.ResolveUserID(c, *id)
	if err != nil {
		h.respondErr(c, err)
		return false
	}
	*id = uid
	return true
}

func (h *Handler) respond(c *gin.Context, status int, p *domain.Project, extra gin.H, err error) {
	if err != nil {
		h.respondErr(c, err)
		return
	}
	body := gin.H{"status": "success", "project": p}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func (h *Handler) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProjectDoesNotExist):
		httpapi.RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		httpapi.RespondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrOnlyVerifier),
		errors.Is(err, domain.ErrOnlyProposer),
		errors.Is(err, auth.ErrIdentityMismatch):
		httpapi.RespondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrAlreadyFinalized),
		errors.Is(err, domain.ErrNotExpired),
		errors.Is(err, domain.ErrRefundsUnavailable),
		errors.Is(err, domain.ErrNoContribution):
		httpapi.RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrNotPositiveValue),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDeadline):
		httpapi.RespondError(c, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("escrow request failed", zap.Error(err))
		httpapi.RespondError(c, http.StatusInternalServerError, "request failed")
	}
}
