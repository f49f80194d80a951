package config

import (
	"context"
	"encoding/base64"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// InitMessaging initializes the Firebase Admin SDK and returns an FCM client.
// It returns nil, nil when no credentials are configured.
func InitMessaging(ctx context.Context, cfg *Config) (*messaging.Client, error) {
	var opt option.ClientOption
	switch {
	case cfg.FirebaseCredentialsBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.FirebaseCredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("decoding firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Info().Msg("using firebase credentials from base64 environment variable")
	case cfg.FirebaseCredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.FirebaseCredentialsFile)
		log.Info().Str("file", cfg.FirebaseCredentialsFile).Msg("using firebase credentials file")
	default:
		log.Warn().Msg("firebase not configured, push notifications disabled")
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase messaging: %w", err)
	}
	return client, nil
}
