// Copyright 2024-2026 Aiku AI

package puppet

import (
	"context"
	"errors"
	"fmt"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// ErrServerNotAllowed means a custom puppet's homeserver is not in the
// double puppet server map and .well-known discovery is disabled.
var ErrServerNotAllowed = errors.New("homeserver not in double puppet server map")

// CustomServerURL resolves the client API base URL for a double-puppeting
// user's homeserver: the configured server map first, then .well-known
// discovery if allowed.
func (r *Registry) CustomServerURL(ctx context.Context, mxid id.UserID) (string, error) {
	_, homeserver, err := mxid.Parse()
	if err != nil {
		return "", fmt.Errorf("invalid custom mxid: %w", err)
	}
	if url, ok := r.Config.DoublePuppetServerMap[homeserver]; ok {
		return url, nil
	}
	if !r.Config.DoublePuppetAllowDiscovery {
		return "", fmt.Errorf("%w: %s", ErrServerNotAllowed, homeserver)
	}
	wellKnown, err := mautrix.DiscoverClientAPI(ctx, homeserver)
	if err != nil {
		return "", fmt.Errorf("failed to discover client API URL for %s: %w", homeserver, err)
	} else if wellKnown == nil || wellKnown.Homeserver.BaseURL == "" {
		return "", fmt.Errorf("no client API URL discovered for %s", homeserver)
	}
	return wellKnown.Homeserver.BaseURL, nil
}

// SharedSecret returns the automatic login shared secret for the given
// user's homeserver, if one is configured.
func (r *Registry) SharedSecret(mxid id.UserID) (string, bool) {
	_, homeserver, err := mxid.Parse()
	if err != nil {
		return "", false
	}
	secret, ok := r.Config.LoginSharedSecretMap[homeserver]
	return secret, ok
}
