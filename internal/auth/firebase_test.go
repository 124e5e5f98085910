package auth

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carbonchain/carbonchain-backend/config"
)

func TestNewTokenClient_Credentials(t *testing.T) {
	ctx := context.Background()

	_, err := NewTokenClient(ctx, config.FirebaseConfig{})
	assert.ErrorIs(t, err, ErrNoCredentials)

	missing := filepath.Join(t.TempDir(), "service-account.json")
	_, err = NewTokenClient(ctx, config.FirebaseConfig{CredentialsPath: missing})
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorContains(t, err, "service-account.json")
}
