// Package editor ties the draft store, the save orchestrator and the server loader
// into one editing session.
package editor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/ohmylink/internal/draft"
	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
	"github.com/and161185/ohmylink/internal/reconcile"
	"github.com/and161185/ohmylink/internal/save"
)

// Loader fetches the caller's profile aggregate from the server.
type Loader interface {
	LoadProfile(ctx context.Context) (model.Profile, error)
}

// Session is one editor lifetime.
type Session struct {
	loader Loader
	store  *draft.Store
	saver  *save.Orchestrator
	log    *zap.Logger
}

// NewSession wires a session.
func NewSession(loader Loader, store *draft.Store, saver *save.Orchestrator, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{loader: loader, store: store, saver: saver, log: log}
}

// Open loads the server aggregate, initializes the store and runs the resume check.
// A load failure is wrapped in errs.ErrFatalInit: the editor cannot open without it.
func (s *Session) Open(ctx context.Context, prompt draft.Prompter) (draft.Resolution, error) {
	p, err := s.loader.LoadProfile(ctx)
	if err != nil {
		return draft.ResolutionClean, fmt.Errorf("%w: load profile: %w", errs.ErrFatalInit, err)
	}
	p.Normalize()
	if err := s.store.Initialize(ctx, p); err != nil {
		s.log.Warn("write durable draft", zap.Error(err))
	}
	d := draft.NewDetector(s.store, prompt, func() int { return s.saver.Pending().Len() }, s.log)
	res, err := d.Check(ctx)
	if err != nil {
		s.log.Warn("resume check", zap.Error(err))
	}
	s.log.Debug("session open", zap.String("profile", p.ID), zap.Stringer("resume", res))
	return res, nil
}

// Edit applies mutate to a copy of the draft, validates the result and stores it.
// Invalid results are rejected with a *errs.ValidationError and the draft is left as it was.
func (s *Session) Edit(ctx context.Context, mutate func(p *model.Profile) error) error {
	next := s.store.Draft()
	if err := mutate(&next); err != nil {
		return err
	}
	next.Normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateDraft(ctx, next); err != nil {
		s.log.Warn("write durable draft", zap.Error(err))
	}
	return nil
}

// Save dispatches pending changes.
func (s *Session) Save(ctx context.Context) (save.Result, error) {
	return s.saver.Save(ctx)
}

// Discard drops every unsaved change.
func (s *Session) Discard(ctx context.Context) error {
	return s.store.DiscardChanges(ctx)
}

// Pending returns what a save would send now.
func (s *Session) Pending() reconcile.Plan { return s.saver.Pending() }

// Draft returns the working copy.
func (s *Session) Draft() model.Profile { return s.store.Draft() }

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool { return s.store.IsDirty() }

// Logout forgets the session state including the durable draft.
func (s *Session) Logout(ctx context.Context) error { return s.store.Clear(ctx) }
