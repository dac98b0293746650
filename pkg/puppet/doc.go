// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package puppet maps LinkedIn user identities to Matrix ghost accounts and
// keeps the ghosts' profiles in sync.
//
// # Core Types
//
// [Registry] owns the in-memory puppet caches, backed by a persistent
// [Store]. Lookups by member URN, ghost MXID or custom MXID all return the
// single canonical [Puppet] instance for that LinkedIn user; concurrent
// lookup-or-create calls for the same URN are collapsed so at most one
// record is ever created per user.
//
// [MXIDTemplate] is the pure, reversible mapping between member URNs and
// ghost Matrix user IDs.
//
// [Puppet.UpdateInfo] reconciles a ghost's displayname and avatar with raw
// LinkedIn profile data. Avatars are downloaded from LinkedIn's CDN and
// re-hosted on the homeserver with [ReuploadAvatar]. Push failures never
// abort a sync: they flip the corresponding NameSet/AvatarSet flag so the
// next profile update retries.
//
// # Double Puppeting
//
// Puppets linked to a real Matrix account carry that account's MXID and are
// additionally indexed by it. [Registry.StartCustomPuppets] restarts their
// sessions on bridge boot through a transport-provided
// [CustomPuppetStarter]; session and token management live outside this
// package.
package puppet
