package http

import "github.com/gin-gonic/gin"

// Register mounts the account endpoints. requireUser guards the /users/me
// routes.
func (h *Handler) Register(r gin.IRouter, requireUser gin.HandlerFunc) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	me := r.Group("/users/me", requireUser)
	me.GET("", h.GetMe)
	me.PUT("", h.UpdateMe)
}
