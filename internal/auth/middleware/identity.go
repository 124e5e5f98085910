package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	httpapi "github.com/carbonchain/carbonchain-backend/internal/api/http"
	"github.com/carbonchain/carbonchain-backend/internal/auth"
)

// TokenVerifier is satisfied by *auth.Client from the Firebase Admin SDK.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Identity attaches the caller's identity to the request without rejecting
// anonymous calls. A bearer token is verified when a verifier is configured;
// an invalid token is rejected outright. Without a token, dev mode trusts
// X-User-Id and falls back to the default dev user. Outside dev mode a
// configured verifier makes the token the only accepted identity.
func Identity(verifier TokenVerifier, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier != nil && !devMode {
			c.Set(auth.CtxTokenRequired, true)
		}
		if token := extractToken(c); token != "" && verifier != nil {
			decoded, err := verifier.VerifyIDToken(c.Request.Context(), token)
			if err != nil {
				httpapi.RespondError(c, http.StatusUnauthorized, "invalid token")
				c.Abort()
				return
			}
			c.Set(auth.CtxUserID, decoded.UID)
			c.Set(auth.CtxIdentitySrc, auth.SourceToken)
			if email, ok := decoded.Claims["email"].(string); ok {
				c.Set(auth.CtxEmail, email)
			}
			c.Next()
			return
		}

		if devMode {
			if uid := strings.TrimSpace(c.GetHeader(auth.HeaderUserID)); uid != "" {
				c.Set(auth.CtxUserID, uid)
				c.Set(auth.CtxIdentitySrc, auth.SourceHeader)
			} else {
				c.Set(auth.CtxUserID, auth.DefaultDevUser)
				c.Set(auth.CtxIdentitySrc, auth.SourceDevDefault)
			}
		}
		c.Next()
	}
}

// RequireUser rejects requests that reached it without an identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.UserID(c) == "" {
			httpapi.RespondError(c, http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
