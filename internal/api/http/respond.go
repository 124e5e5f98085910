package http

import "github.com/gin-gonic/gin"

// RespondError writes the error body shared by every endpoint. "detail" is the
// field the web client renders inline; "error" mirrors it for other callers.
func RespondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg, "detail": msg})
}

// RespondValidation is RespondError plus per-field messages.
func RespondValidation(c *gin.Context, status int, msg string, fields map[string]string) {
	c.JSON(status, gin.H{"error": msg, "detail": msg, "fields": fields})
}
