// Copyright 2024-2026 Aiku AI

package puppet

import (
	"context"

	"maunium.net/go/mautrix/appservice"
	"maunium.net/go/mautrix/id"
)

// GhostIntent is the slice of the Matrix identity service that the puppet
// layer needs: provisioning the ghost account, updating its profile, and
// uploading media. Production uses appservice intents; tests inject fakes.
type GhostIntent interface {
	EnsureRegistered(ctx context.Context) error
	SetDisplayName(ctx context.Context, name string) error
	SetAvatarURL(ctx context.Context, uri id.ContentURI) error
	UploadBytes(ctx context.Context, data []byte, mimeType string) (id.ContentURI, error)
}

// IntentProvider returns the ghost intent for a given Matrix user ID.
type IntentProvider func(mxid id.UserID) GhostIntent

// AppServiceIntents adapts a mautrix appservice to an IntentProvider.
func AppServiceIntents(az *appservice.AppService) IntentProvider {
	return func(mxid id.UserID) GhostIntent {
		return &appserviceIntent{intent: az.Intent(mxid)}
	}
}

type appserviceIntent struct {
	intent *appservice.IntentAPI
}

var _ GhostIntent = (*appserviceIntent)(nil)

func (a *appserviceIntent) EnsureRegistered(ctx context.Context) error {
	return a.intent.EnsureRegistered(ctx)
}

func (a *appserviceIntent) SetDisplayName(ctx context.Context, name string) error {
	return a.intent.SetDisplayName(ctx, name)
}

func (a *appserviceIntent) SetAvatarURL(ctx context.Context, uri id.ContentURI) error {
	return a.intent.SetAvatarURL(ctx, uri)
}

func (a *appserviceIntent) UploadBytes(ctx context.Context, data []byte, mimeType string) (id.ContentURI, error) {
	resp, err := a.intent.UploadBytes(ctx, data, mimeType)
	if err != nil {
		return id.ContentURI{}, err
	}
	return resp.ContentURI, nil
}
