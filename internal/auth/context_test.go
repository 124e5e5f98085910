package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctxWith(uid, src string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if uid != "" {
		c.Set(CtxUserID, uid)
		c.Set(CtxIdentitySrc, src)
	}
	return c
}

func TestResolveUserID(t *testing.T) {
	uid, err := ResolveUserID(ctxWith("fb", SourceToken), "")
	require.NoError(t, err)
	assert.Equal(t, "fb", uid)

	_, err = ResolveUserID(ctxWith("fb", SourceToken), "someone-else")
	assert.ErrorIs(t, err, ErrIdentityMismatch)

	uid, err = ResolveUserID(ctxWith("alice", SourceHeader), "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)

	uid, err = ResolveUserID(ctxWith(DefaultDevUser, SourceDevDefault), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", uid)

	uid, err = ResolveUserID(ctxWith(DefaultDevUser, SourceDevDefault), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultDevUser, uid)

	uid, err = ResolveUserID(ctxWith("", ""), " carol ")
	require.NoError(t, err)
	assert.Equal(t, "carol", uid)

	_, err = ResolveUserID(ctxWith("", ""), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	required := ctxWith("", "")
	required.Set(CtxTokenRequired, true)
	_, err = ResolveUserID(required, "bob")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	withToken := ctxWith("fb", SourceToken)
	withToken.Set(CtxTokenRequired, true)
	uid, err = ResolveUserID(withToken, "fb")
	require.NoError(t, err)
	assert.Equal(t, "fb", uid)
}
