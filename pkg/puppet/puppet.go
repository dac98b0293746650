// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package puppet

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/mautrix-linkedin/pkg/lidb"
)

// Store is the persistence collaborator for puppet rows. *lidb.PuppetQuery
// implements it; tests use in-memory fakes.
type Store interface {
	GetByMemberURN(ctx context.Context, memberURN string) (*lidb.Puppet, error)
	GetByCustomMXID(ctx context.Context, mxid id.UserID) (*lidb.Puppet, error)
	GetAllWithCustomMXID(ctx context.Context) ([]*lidb.Puppet, error)
	Insert(ctx context.Context, puppet *lidb.Puppet) error
	Update(ctx context.Context, puppet *lidb.Puppet) error
}

// Puppet is the Matrix ghost representing a single LinkedIn user. There is
// at most one instance per member URN per Registry; fields are mutated only
// through the owning Registry's sync paths.
type Puppet struct {
	*lidb.Puppet

	// MXID is the ghost's Matrix user ID, derived from the member URN.
	MXID id.UserID

	registry *Registry
	intent   GhostIntent
	log      zerolog.Logger

	lastInfoSync time.Time
}

// Registry owns the in-memory puppet caches and guarantees a single canonical
// Puppet instance per member URN.
type Registry struct {
	Config *Config

	store   Store
	intents IntentProvider
	log     zerolog.Logger

	// HTTP is the client used to download remote avatars. Defaults to
	// http.DefaultClient.
	HTTP *http.Client

	cacheLock    sync.RWMutex
	byMemberURN  map[string]*Puppet
	byCustomMXID map[id.UserID]*Puppet

	memberURNFlight  singleflight.Group
	customMXIDFlight singleflight.Group
}

// NewRegistry creates a puppet registry. The config is post-processed here,
// so templates don't need to be parsed by the caller.
func NewRegistry(config *Config, store Store, intents IntentProvider, log zerolog.Logger) (*Registry, error) {
	if err := config.PostProcess(); err != nil {
		return nil, fmt.Errorf("failed to post-process config: %w", err)
	}
	return &Registry{
		Config:  config,
		store:   store,
		intents: intents,
		log:     log.With().Str("component", "puppet_registry").Logger(),
		HTTP:    http.DefaultClient,

		byMemberURN:  make(map[string]*Puppet),
		byCustomMXID: make(map[id.UserID]*Puppet),
	}, nil
}

// GetByMemberURN returns the canonical puppet for the given member URN,
// loading it from the store or creating it as needed. Concurrent calls for
// the same URN are collapsed into a single load/create; calls for different
// URNs proceed independently. Returns nil (and no error) when the puppet
// doesn't exist and create is false.
func (r *Registry) GetByMemberURN(ctx context.Context, memberURN string, create bool) (*Puppet, error) {
	if memberURN == "" {
		return nil, nil
	}
	for {
		r.cacheLock.RLock()
		cached, ok := r.byMemberURN[memberURN]
		r.cacheLock.RUnlock()
		if ok {
			return cached, nil
		}

		res, err, _ := r.memberURNFlight.Do(memberURN, func() (any, error) {
			dbPuppet, err := r.store.GetByMemberURN(ctx, memberURN)
			if err != nil {
				return nil, fmt.Errorf("failed to get puppet from database: %w", err)
			}
			if dbPuppet == nil {
				if !create {
					return (*Puppet)(nil), nil
				}
				dbPuppet = &lidb.Puppet{MemberURN: memberURN}
				if err = r.store.Insert(ctx, dbPuppet); err != nil {
					return nil, fmt.Errorf("failed to insert puppet: %w", err)
				}
			}
			return r.addToCache(dbPuppet), nil
		})
		if err != nil {
			return nil, err
		}
		puppet := res.(*Puppet)
		if puppet != nil || !create {
			return puppet, nil
		}
		// This call was deduplicated into a non-creating lookup that found
		// nothing. Retry so the create path actually runs.
	}
}

// GetByMXID resolves a ghost user ID back to a member URN and delegates to
// GetByMemberURN. Returns nil without touching the store when the user ID
// doesn't match the ghost template.
func (r *Registry) GetByMXID(ctx context.Context, mxid id.UserID, create bool) (*Puppet, error) {
	memberURN, ok := r.Config.mxidTemplate.MemberURNFromMXID(mxid)
	if !ok {
		return nil, nil
	}
	return r.GetByMemberURN(ctx, memberURN, create)
}

// GetByCustomMXID returns the puppet double-puppeted by the given Matrix
// user, or nil if there is none. Never creates.
func (r *Registry) GetByCustomMXID(ctx context.Context, mxid id.UserID) (*Puppet, error) {
	if mxid == "" {
		return nil, nil
	}
	r.cacheLock.RLock()
	cached, ok := r.byCustomMXID[mxid]
	r.cacheLock.RUnlock()
	if ok {
		return cached, nil
	}

	res, err, _ := r.customMXIDFlight.Do(string(mxid), func() (any, error) {
		dbPuppet, err := r.store.GetByCustomMXID(ctx, mxid)
		if err != nil {
			return nil, fmt.Errorf("failed to get puppet from database: %w", err)
		}
		if dbPuppet == nil {
			return (*Puppet)(nil), nil
		}
		return r.addToCache(dbPuppet), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Puppet), nil
}

// AllWithCustomMXID iterates over every persisted puppet that has a custom
// MXID. Already-cached instances are yielded instead of freshly loaded rows
// so callers never see divergent copies. Each call re-queries the store.
func (r *Registry) AllWithCustomMXID(ctx context.Context) iter.Seq2[*Puppet, error] {
	return func(yield func(*Puppet, error) bool) {
		rows, err := r.store.GetAllWithCustomMXID(ctx)
		if err != nil {
			yield(nil, fmt.Errorf("failed to get puppets from database: %w", err))
			return
		}
		for _, dbPuppet := range rows {
			r.cacheLock.RLock()
			cached, ok := r.byMemberURN[dbPuppet.MemberURN]
			r.cacheLock.RUnlock()
			if !ok {
				cached = r.addToCache(dbPuppet)
			}
			if !yield(cached, nil) {
				return
			}
		}
	}
}

// addToCache wraps a database row and registers it in both indices. If
// another goroutine already cached the same URN, the existing instance wins.
func (r *Registry) addToCache(dbPuppet *lidb.Puppet) *Puppet {
	r.cacheLock.Lock()
	defer r.cacheLock.Unlock()
	if existing, ok := r.byMemberURN[dbPuppet.MemberURN]; ok {
		return existing
	}
	mxid := r.Config.mxidTemplate.MXIDFor(dbPuppet.MemberURN)
	puppet := &Puppet{
		Puppet:   dbPuppet,
		MXID:     mxid,
		registry: r,
		intent:   r.intents(mxid),
		log:      r.log.With().Str("member_urn", dbPuppet.MemberURN).Logger(),
	}
	r.byMemberURN[puppet.MemberURN] = puppet
	if puppet.CustomMXID != "" {
		r.byCustomMXID[puppet.CustomMXID] = puppet
	}
	return puppet
}

// Intent returns the ghost intent for this puppet.
func (p *Puppet) Intent() GhostIntent {
	return p.intent
}

// EnsureRegistered provisions the ghost account on the homeserver if that
// hasn't happened yet.
func (p *Puppet) EnsureRegistered(ctx context.Context) error {
	if p.IsRegistered {
		return nil
	}
	if err := p.intent.EnsureRegistered(ctx); err != nil {
		return fmt.Errorf("failed to register ghost: %w", err)
	}
	p.IsRegistered = true
	if err := p.registry.store.Update(ctx, p.Puppet); err != nil {
		return fmt.Errorf("failed to save puppet: %w", err)
	}
	return nil
}

// SwitchCustomMXID changes which Matrix account double-puppets this puppet
// and keeps the custom MXID index in agreement. Pass an empty user ID to
// unlink.
func (p *Puppet) SwitchCustomMXID(ctx context.Context, mxid id.UserID) error {
	r := p.registry
	r.cacheLock.Lock()
	if p.CustomMXID != "" {
		delete(r.byCustomMXID, p.CustomMXID)
	}
	p.CustomMXID = mxid
	p.NextBatch = ""
	if mxid != "" {
		r.byCustomMXID[mxid] = p
	}
	r.cacheLock.Unlock()
	if err := r.store.Update(ctx, p.Puppet); err != nil {
		return fmt.Errorf("failed to save puppet: %w", err)
	}
	return nil
}

// SaveNextBatch stores the sync position of the double-puppet session.
func (p *Puppet) SaveNextBatch(ctx context.Context, token string) error {
	p.NextBatch = token
	return p.registry.store.Update(ctx, p.Puppet)
}
