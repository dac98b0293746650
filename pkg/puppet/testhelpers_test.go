// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package puppet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/mautrix-linkedin/pkg/lidb"
)

// fakeStore is an in-memory Store that counts calls and can inject failures.
// Loads return copies of the stored rows, like a real database would.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]*lidb.Puppet
	gets    int
	inserts int
	updates int

	failGet    error
	failInsert error
	failUpdate error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*lidb.Puppet)}
}

func clonePuppetRow(row *lidb.Puppet) *lidb.Puppet {
	cp := *row
	return &cp
}

func (s *fakeStore) GetByMemberURN(_ context.Context, memberURN string) (*lidb.Puppet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.failGet != nil {
		return nil, s.failGet
	}
	row, ok := s.rows[memberURN]
	if !ok {
		return nil, nil
	}
	return clonePuppetRow(row), nil
}

func (s *fakeStore) GetByCustomMXID(_ context.Context, mxid id.UserID) (*lidb.Puppet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.failGet != nil {
		return nil, s.failGet
	}
	for _, row := range s.rows {
		if row.CustomMXID == mxid {
			return clonePuppetRow(row), nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetAllWithCustomMXID(_ context.Context) ([]*lidb.Puppet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.failGet != nil {
		return nil, s.failGet
	}
	var out []*lidb.Puppet
	for _, row := range s.rows {
		if row.CustomMXID != "" {
			out = append(out, clonePuppetRow(row))
		}
	}
	return out, nil
}

func (s *fakeStore) Insert(_ context.Context, puppet *lidb.Puppet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.failInsert != nil {
		return s.failInsert
	}
	if _, ok := s.rows[puppet.MemberURN]; ok {
		return fmt.Errorf("duplicate puppet row for %s", puppet.MemberURN)
	}
	s.rows[puppet.MemberURN] = clonePuppetRow(puppet)
	return nil
}

func (s *fakeStore) Update(_ context.Context, puppet *lidb.Puppet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.failUpdate != nil {
		return s.failUpdate
	}
	s.rows[puppet.MemberURN] = clonePuppetRow(puppet)
	return nil
}

func (s *fakeStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *fakeStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

func (s *fakeStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

var errFakeIntent = errors.New("fake intent failure")

// fakeIntent records profile pushes and media uploads for one ghost.
type fakeIntent struct {
	mu           sync.Mutex
	registered   bool
	displaynames []string
	avatarURLs   []id.ContentURI
	uploadMimes  []string
	uploadCount  int

	failRegister    bool
	failDisplayname bool
	failAvatar      bool
	failUpload      bool
}

func (f *fakeIntent) EnsureRegistered(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRegister {
		return errFakeIntent
	}
	f.registered = true
	return nil
}

func (f *fakeIntent) SetDisplayName(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDisplayname {
		return errFakeIntent
	}
	f.displaynames = append(f.displaynames, name)
	return nil
}

func (f *fakeIntent) SetAvatarURL(_ context.Context, uri id.ContentURI) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAvatar {
		return errFakeIntent
	}
	f.avatarURLs = append(f.avatarURLs, uri)
	return nil
}

func (f *fakeIntent) UploadBytes(_ context.Context, _ []byte, mimeType string) (id.ContentURI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload {
		return id.ContentURI{}, errFakeIntent
	}
	f.uploadCount++
	f.uploadMimes = append(f.uploadMimes, mimeType)
	return id.ContentURI{Homeserver: "example.com", FileID: fmt.Sprintf("upload-%d", f.uploadCount)}, nil
}

// intentRecorder hands out one fakeIntent per ghost MXID.
type intentRecorder struct {
	mu      sync.Mutex
	intents map[id.UserID]*fakeIntent
}

func newIntentRecorder() *intentRecorder {
	return &intentRecorder{intents: make(map[id.UserID]*fakeIntent)}
}

func (ir *intentRecorder) provider(mxid id.UserID) GhostIntent {
	return ir.intentFor(mxid)
}

func (ir *intentRecorder) intentFor(mxid id.UserID) *fakeIntent {
	ir.mu.Lock()
	defer ir.mu.Unlock()
	intent, ok := ir.intents[mxid]
	if !ok {
		intent = &fakeIntent{}
		ir.intents[mxid] = intent
	}
	return intent
}

func newTestConfig() *Config {
	return &Config{
		HomeserverDomain:      "example.com",
		UsernameTemplate:      "li_{{.}}",
		DisplaynamePreference: []string{"displayname", "name", "first_name"},
		DisplaynameTemplate:   "{{.Displayname}} (LinkedIn)",
		SyncWithCustomPuppets: true,
		DoublePuppetServerMap: map[string]string{"example.com": "https://matrix.example.com"},
		LoginSharedSecretMap:  map[string]string{"example.com": "shhh"},
	}
}

func newTestRegistry(t *testing.T, store Store) (*Registry, *intentRecorder) {
	t.Helper()
	intents := newIntentRecorder()
	registry, err := NewRegistry(newTestConfig(), store, intents.provider, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return registry, intents
}
