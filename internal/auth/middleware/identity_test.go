package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/carbonchain/carbonchain-backend/internal/auth"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, token string) (*fbauth.Token, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &fbauth.Token{UID: "fb-uid", Claims: map[string]interface{}{"email": "a@b.co"}}, nil
}

func router(verifier TokenVerifier, devMode bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(verifier, devMode))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": auth.UserID(c), "src": c.GetString(auth.CtxIdentitySrc)})
	})
	r.GET("/private", RequireUser(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentity_Token(t *testing.T) {
	r := router(fakeVerifier{}, false)

	w := do(r, "/whoami", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"fb-uid","src":"token"}`, w.Body.String())

	w = do(r, "/whoami", map[string]string{"Authorization": "Bearer forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"detail":"invalid token"`)
}

func TestIdentity_DevMode(t *testing.T) {
	r := router(nil, true)

	w := do(r, "/whoami", map[string]string{auth.HeaderUserID: "alice"})
	assert.JSONEq(t, `{"uid":"alice","src":"header"}`, w.Body.String())

	w = do(r, "/whoami", nil)
	assert.JSONEq(t, `{"uid":"dev_user_123","src":"dev_default"}`, w.Body.String())
}

func TestRequireUser(t *testing.T) {
	r := router(nil, false)

	w := do(r, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// X-User-Id is ignored outside dev mode
	w = do(r, "/private", map[string]string{auth.HeaderUserID: "alice"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router(fakeVerifier{}, false), "/private", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestIdentity_VerifierOutsideDevModeRequiresToken(t *testing.T) {
	resolve := func(verifier TokenVerifier, devMode bool) *gin.Engine {
		r := router(verifier, devMode)
		r.GET("/resolve", func(c *gin.Context) {
			uid, err := auth.ResolveUserID(c, c.Query("userId"))
			if err != nil {
				c.Status(http.StatusUnauthorized)
				return
			}
			c.String(http.StatusOK, uid)
		})
		return r
	}

	w := do(resolve(fakeVerifier{}, false), "/resolve?userId=alice", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "body id alone is not an identity")

	w = do(resolve(fakeVerifier{}, false), "/resolve", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fb-uid", w.Body.String())

	w = do(resolve(fakeVerifier{}, true), "/resolve?userId=alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	w = do(resolve(nil, false), "/resolve?userId=alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
