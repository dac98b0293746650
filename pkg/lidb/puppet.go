// Copyright 2024-2026 Aiku AI

package lidb

import (
	"context"

	"go.mau.fi/util/dbutil"
	"maunium.net/go/mautrix/id"
)

const (
	getPuppetBaseQuery = `
		SELECT member_urn, name, name_set, photo_id, avatar_url, avatar_set,
		       is_registered, custom_mxid, next_batch
		FROM puppet
	`
	getPuppetByMemberURNQuery        = getPuppetBaseQuery + `WHERE member_urn=$1`
	getPuppetByCustomMXIDQuery       = getPuppetBaseQuery + `WHERE custom_mxid=$1`
	getAllPuppetsWithCustomMXIDQuery = getPuppetBaseQuery + `WHERE custom_mxid<>''`
	insertPuppetQuery                = `
		INSERT INTO puppet (
			member_urn, name, name_set, photo_id, avatar_url, avatar_set,
			is_registered, custom_mxid, next_batch
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	updatePuppetQuery = `
		UPDATE puppet
		SET name=$2, name_set=$3, photo_id=$4, avatar_url=$5, avatar_set=$6,
		    is_registered=$7, custom_mxid=$8, next_batch=$9
		WHERE member_urn=$1
	`
)

// PuppetQuery contains the database queries for puppet rows.
type PuppetQuery struct {
	*dbutil.QueryHelper[*Puppet]
}

// Puppet is a single puppet row. An empty CustomMXID means the puppet is not
// double-puppeted by a real Matrix account.
type Puppet struct {
	MemberURN    string
	Name         string
	NameSet      bool
	PhotoID      string
	AvatarURL    id.ContentURI
	AvatarSet    bool
	IsRegistered bool

	CustomMXID id.UserID
	NextBatch  string
}

func newPuppet(_ *dbutil.QueryHelper[*Puppet]) *Puppet {
	return &Puppet{}
}

// GetByMemberURN returns the puppet with the given LinkedIn member URN, or
// nil if no such row exists.
func (pq *PuppetQuery) GetByMemberURN(ctx context.Context, memberURN string) (*Puppet, error) {
	return pq.QueryOne(ctx, getPuppetByMemberURNQuery, memberURN)
}

// GetByCustomMXID returns the puppet double-puppeted by the given Matrix
// user, or nil if there is none.
func (pq *PuppetQuery) GetByCustomMXID(ctx context.Context, mxid id.UserID) (*Puppet, error) {
	return pq.QueryOne(ctx, getPuppetByCustomMXIDQuery, mxid)
}

// GetAllWithCustomMXID returns all puppets that have a custom MXID set.
func (pq *PuppetQuery) GetAllWithCustomMXID(ctx context.Context) ([]*Puppet, error) {
	return pq.QueryMany(ctx, getAllPuppetsWithCustomMXIDQuery)
}

func (pq *PuppetQuery) Insert(ctx context.Context, puppet *Puppet) error {
	return pq.Exec(ctx, insertPuppetQuery, puppet.sqlVariables()...)
}

func (pq *PuppetQuery) Update(ctx context.Context, puppet *Puppet) error {
	return pq.Exec(ctx, updatePuppetQuery, puppet.sqlVariables()...)
}

func (p *Puppet) Scan(row dbutil.Scannable) (*Puppet, error) {
	var avatarURL string
	err := row.Scan(
		&p.MemberURN, &p.Name, &p.NameSet, &p.PhotoID, &avatarURL, &p.AvatarSet,
		&p.IsRegistered, &p.CustomMXID, &p.NextBatch,
	)
	if err != nil {
		return nil, err
	}
	p.AvatarURL, _ = id.ParseContentURI(avatarURL)
	return p, nil
}

func (p *Puppet) sqlVariables() []any {
	return []any{
		p.MemberURN, p.Name, p.NameSet, p.PhotoID, p.AvatarURL.String(), p.AvatarSet,
		p.IsRegistered, p.CustomMXID, p.NextBatch,
	}
}
