package http

import (
	"errors"
	"net/http"
	"strings"

	httpapi "github.com/carbonchain/carbonchain-backend/internal/api/http"
	"github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	"github.com/carbonchain/carbonchain-backend/internal/marketplace/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc *service.MarketplaceService
	log *zap.Logger
}

func New(svc *service.MarketplaceService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// SearchCountries returns {"countries": [...]}
func (h *Handler) SearchCountries(c *gin.Context) {
	countries, err := h.svc.Countries(c.Request.Context())
	if err != nil {
		h.log.Error("fetch countries", zap.Error(err))
		httpapi.RespondError(c, http.StatusBadGateway, "Failed to fetch countries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

// SearchCategories returns {"categories": [...]}
func (h *Handler) SearchCategories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		h.log.Error("fetch categories", zap.Error(err))
		httpapi.RespondError(c, http.StatusBadGateway, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) Search(c *gin.Context) {
	filter := domain.SearchFilter{
		Country:     strings.TrimSpace(c.Query("country")),
		Methodology: strings.TrimSpace(c.Query("methodology")),
		Name:        strings.TrimSpace(c.Query("name")),
	}

	res, err := h.svc.Search(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("search projects", zap.Error(err), zap.String("country", filter.Country))
		httpapi.RespondError(c, http.StatusBadGateway, "Failed to search projects")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetProject(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		httpapi.RespondError(c, http.StatusBadRequest, "project ID is required")
		return
	}

	p, err := h.svc.Project(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			httpapi.RespondError(c, http.StatusNotFound, "project not found")
			return
		}
		h.log.Error("fetch project", zap.String("project_id", id), zap.Error(err))
		httpapi.RespondError(c, http.StatusBadGateway, "Failed to fetch project")
		return
	}
	c.JSON(http.StatusOK, p)
}
