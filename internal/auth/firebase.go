package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/carbonchain/carbonchain-backend/config"
)

var ErrNoCredentials = errors.New("firebase credentials not configured")

// NewTokenClient returns the Firebase client that checks bearer ID tokens
// for the identity middleware. The service account file must exist;
// ProjectID overrides the one in the file when set.
func NewTokenClient(ctx context.Context, cfg config.FirebaseConfig) (*fbauth.Client, error) {
	if cfg.CredentialsPath == "" {
		return nil, ErrNoCredentials
	}
	if _, err := os.Stat(cfg.CredentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials %s: %w", cfg.CredentialsPath, err)
	}

	var fbcfg *firebase.Config
	if cfg.ProjectID != "" {
		fbcfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbcfg, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase token client: %w", err)
	}
	return client, nil
}
