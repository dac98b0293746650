// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package puppet

import (
	"context"
	"regexp"
	"time"

	"maunium.net/go/mautrix/id"
)

// photoIDRegex extracts the stable photo ID from a LinkedIn image root URL,
// e.g. https://media.licdn.com/image/ABC123/profile-displayphoto-... yields
// ABC123. The capture is the first path segment between /image/ and the
// first /profile- segment.
var photoIDRegex = regexp.MustCompile(`^https://.*?/image/(.*?)/profile-.*`)

// extractPhotoID returns the photo ID captured from the root URL, or an
// empty string if the URL doesn't match the expected shape.
func extractPhotoID(rootURL string) string {
	match := photoIDRegex.FindStringSubmatch(rootURL)
	if match == nil {
		return ""
	}
	return match[1]
}

// UpdateInfo applies the given raw profile data to the ghost's displayname
// and avatar, persisting the puppet if anything changed. It never returns an
// error: push failures are logged with the source context and recorded in
// the NameSet/AvatarSet flags so the next sync retries them. A nil info is a
// no-op.
//
// TODO fetch profile info from the API when info is nil instead of skipping
// the sync.
func (p *Puppet) UpdateInfo(ctx context.Context, sourceURN string, info *UserInfo, updateAvatar bool) *Puppet {
	if info == nil {
		return p
	}
	p.lastInfoSync = time.Now()
	log := p.log.With().Str("source_urn", sourceURN).Logger()
	ctx = log.WithContext(ctx)

	changed := p.updateName(ctx, info)
	if updateAvatar {
		changed = p.updateAvatar(ctx, info.MiniProfile.Picture.VectorImage) || changed
	}
	if changed {
		if err := p.registry.store.Update(ctx, p.Puppet); err != nil {
			log.Err(err).Msg("Failed to save puppet after info update")
		}
	}
	return p
}

// LastInfoSync returns when UpdateInfo last processed profile data for this
// puppet. Not persisted.
func (p *Puppet) LastInfoSync() time.Time {
	return p.lastInfoSync
}

func (p *Puppet) updateName(ctx context.Context, info *UserInfo) bool {
	name := p.registry.Config.displaynameForProfile(&info.MiniProfile)
	if name == p.Name && p.NameSet {
		return false
	}
	p.Name = name
	if err := p.intent.SetDisplayName(ctx, name); err != nil {
		p.log.Err(err).Msg("Failed to set displayname")
		p.NameSet = false
	} else {
		p.NameSet = true
	}
	return true
}

func (p *Puppet) updateAvatar(ctx context.Context, image VectorImage) bool {
	photoID := extractPhotoID(image.RootURL)
	if photoID == p.PhotoID && p.AvatarSet {
		return false
	}
	p.PhotoID = photoID
	if photoID == "" {
		p.AvatarURL = id.ContentURI{}
	} else {
		artifact := smallestArtifact(image.Artifacts)
		if artifact == nil {
			p.log.Warn().Str("photo_id", photoID).Msg("Profile picture has no artifacts")
			p.AvatarSet = false
			return true
		}
		avatarURL, err := ReuploadAvatar(ctx, p.registry.HTTP, p.intent, image.RootURL+artifact.FileIdentifyingURLPathSegment)
		if err != nil {
			p.log.Err(err).Str("photo_id", photoID).Msg("Failed to reupload avatar")
			p.AvatarSet = false
			return true
		}
		p.AvatarURL = avatarURL
	}
	if err := p.intent.SetAvatarURL(ctx, p.AvatarURL); err != nil {
		p.log.Err(err).Msg("Failed to set avatar")
		p.AvatarSet = false
	} else {
		p.AvatarSet = true
	}
	return true
}
