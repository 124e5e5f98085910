package http

import "github.com/gin-gonic/gin"

// Register mounts the catalogue endpoints at the paths the web client calls.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/search", h.Search)
	r.GET("/search_countries", h.SearchCountries)
	r.GET("/search_categories", h.SearchCategories)
	r.GET("/project/:id", h.GetProject)
}
