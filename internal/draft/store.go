// Package draft holds the editor's working copy of a profile next to the last
// known server state, and keeps a durable copy of the working copy so it survives restarts.
package draft

import (
	"context"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/and161185/ohmylink/internal/model"
)

// Persister stores the durable copy of the draft.
type Persister interface {
	// Read returns the stored draft, or nil when there is none.
	Read(ctx context.Context) (*model.Profile, error)
	// Write replaces the stored draft.
	Write(ctx context.Context, p model.Profile) error
	// Clear removes the stored draft.
	Clear(ctx context.Context) error
}

// Store keeps original (last known server state) and draft (working copy).
// Dirty is derived on every call and never stored.
type Store struct {
	mu       sync.Mutex
	original model.Profile
	draft    model.Profile
	resumed  bool
	persist  Persister
	log      *zap.Logger
}

// NewStore constructs an empty store backed by persist.
func NewStore(persist Persister, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{persist: persist, log: log}
}

// Equal reports structural equality; nil and empty collections compare equal.
func Equal(a, b model.Profile) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// Initialize seeds the store from a fresh server aggregate.
//
// A durable draft for the same profile that differs from server is kept as the
// working copy, leaving the store dirty. Anything else starts clean.
// Records in the durable draft that carry a server id the server no longer has
// are dropped first; they can be neither updated nor recreated under that id.
func (s *Store) Initialize(ctx context.Context, server model.Profile) error {
	stored, err := s.persist.Read(ctx)
	if err != nil {
		s.log.Warn("read durable draft", zap.Error(err))
		stored = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.original = server.Clone()
	s.resumed = false
	if stored != nil && stored.ID == server.ID {
		local := stored.Clone()
		gone := local.DropMissing(server)
		if len(gone) > 0 {
			s.log.Warn("dropped records deleted on the server", zap.Strings("ids", gone))
		}
		local.Normalize()
		if !Equal(local, server) {
			s.draft = local
			s.resumed = true
			s.log.Info("resumed local draft", zap.String("profile", server.ID))
			if len(gone) > 0 {
				return s.persist.Write(ctx, s.draft)
			}
			return nil
		}
	}
	if stored != nil && stored.ID != server.ID {
		s.log.Info("ignoring durable draft of another profile", zap.String("stored", stored.ID), zap.String("profile", server.ID))
	}
	s.draft = server.Clone()
	return s.persist.Write(ctx, s.draft)
}

// UpdateDraft replaces the working copy and writes it through to durable storage.
// It performs no validation. The in-memory draft is updated even if the write fails.
func (s *Store) UpdateDraft(ctx context.Context, next model.Profile) error {
	s.mu.Lock()
	s.draft = next.Clone()
	snapshot := s.draft.Clone()
	s.mu.Unlock()
	return s.persist.Write(ctx, snapshot)
}

// MarkSaved makes the working copy the new baseline. Call only after a fully successful save.
func (s *Store) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = s.draft.Clone()
	s.resumed = false
}

// DiscardChanges restores the working copy to the baseline.
func (s *Store) DiscardChanges(ctx context.Context) error {
	s.mu.Lock()
	s.draft = s.original.Clone()
	s.resumed = false
	snapshot := s.draft.Clone()
	s.mu.Unlock()
	return s.persist.Write(ctx, snapshot)
}

// ResolveIDs rewrites temporary ids in the working copy once the server has assigned real ones.
func (s *Store) ResolveIDs(ctx context.Context, ids map[string]string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	s.draft.ReplaceIDs(ids)
	snapshot := s.draft.Clone()
	s.mu.Unlock()
	return s.persist.Write(ctx, snapshot)
}

// Clear empties the store and removes the durable copy (logout, profile deletion).
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.original, s.draft, s.resumed = model.Profile{}, model.Profile{}, false
	s.mu.Unlock()
	return s.persist.Clear(ctx)
}

// IsDirty reports whether the working copy differs from the baseline.
func (s *Store) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !Equal(s.draft, s.original)
}

// Resumed reports whether Initialize kept a stale durable draft.
func (s *Store) Resumed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumed
}

// Original returns a copy of the baseline.
func (s *Store) Original() model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original.Clone()
}

// Draft returns a copy of the working copy.
func (s *Store) Draft() model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Snapshot returns consistent copies of both states.
func (s *Store) Snapshot() (original, draft model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original.Clone(), s.draft.Clone()
}
