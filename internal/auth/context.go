package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID        = "user_id"
	CtxIdentitySrc   = "identity_source"
	CtxEmail         = "email"
	CtxTokenRequired = "token_required"
	HeaderUserID     = "X-User-Id"
	DefaultDevUser   = "dev_user_123"
	SourceToken      = "token"
	SourceHeader     = "header"
	SourceDevDefault = "dev_default"
)

var (
	ErrUnauthenticated  = errors.New("user not authenticated")
	ErrIdentityMismatch = errors.New("userId does not match the authenticated user")
)

// UserID is the identity the middleware attached to the request, if any.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// ResolveUserID picks the acting user for endpoints whose body also names a
// user. A verified token always wins and a conflicting body id is refused.
// A dev header wins over the body; the body wins over the dev default.
// When token verification is enforced, nothing but a token is accepted.
func ResolveUserID(c *gin.Context, bodyUserID string) (string, error) {
	bodyUserID = strings.TrimSpace(bodyUserID)
	ctxUser := UserID(c)

	switch c.GetString(CtxIdentitySrc) {
	case SourceToken:
		if bodyUserID != "" && bodyUserID != ctxUser {
			return "", ErrIdentityMismatch
		}
		return ctxUser, nil
	case SourceHeader:
		return ctxUser, nil
	}

	if c.GetBool(CtxTokenRequired) {
		return "", ErrUnauthenticated
	}

	if bodyUserID != "" {
		return bodyUserID, nil
	}
	if ctxUser != "" {
		return ctxUser, nil
	}
	return "", ErrUnauthenticated
}
