// Package service contains the application services behind the ProfileEditor API.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
	"github.com/and161185/ohmylink/internal/repository"
)

// ProfileService defines the operations the editor's save orchestrator calls.
// Record ids are the string form of server UUIDs.
type ProfileService interface {
	// Get returns the caller's profile, creating the default one on first access.
	Get(ctx context.Context, userID uuid.UUID) (model.Profile, error)
	// CreateRecord validates and appends a link or social link.
	CreateRecord(ctx context.Context, userID uuid.UUID, kind model.RecordKind, f model.Fields) (id string, position int, err error)
	// UpdateRecord applies f to an existing record and validates the result.
	UpdateRecord(ctx context.Context, userID uuid.UUID, kind model.RecordKind, id string, f model.Fields) error
	// DeleteRecord removes a record.
	DeleteRecord(ctx context.Context, userID uuid.UUID, kind model.RecordKind, id string) error
	// ReorderRecords rewrites the order of a collection.
	ReorderRecords(ctx context.Context, userID uuid.UUID, kind model.RecordKind, ids []string) error
	// UpdateScalarGroup applies f to one scalar group and validates the group.
	UpdateScalarGroup(ctx context.Context, userID uuid.UUID, g model.ScalarGroup, f model.Fields) error
}

type ProfileServiceImpl struct {
	repo       repository.ProfileRepository
	maxRecords int
}

// NewProfileService constructs ProfileService. maxRecords caps the length of a reorder request.
func NewProfileService(repo repository.ProfileRepository, maxRecords int) *ProfileServiceImpl {
	if maxRecords <= 0 {
		maxRecords = 500
	}
	return &ProfileServiceImpl{repo: repo, maxRecords: maxRecords}
}

// slugFor derives the initial public slug from the owner id.
func slugFor(userID uuid.UUID) string {
	return "u" + userID.String()[:8]
}

func parseID(kind model.RecordKind, id string) (uuid.UUID, error) {
	u, err := uuid.FromString(id)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad %s id %q", errs.ErrInvalidInput, kind, id)
	}
	return u, nil
}

func checkUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: empty user id", errs.ErrInvalidInput)
	}
	return nil
}

func checkKind(kind model.RecordKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown record kind %q", errs.ErrInvalidInput, kind)
	}
	return nil
}

// Get loads the aggregate. The first call for a user seeds the default profile.
func (s *ProfileServiceImpl) Get(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	if err := checkUser(userID); err != nil {
		return model.Profile{}, err
	}
	p, err := s.repo.GetByOwner(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		_, err = s.repo.Create(ctx, userID, model.DefaultProfile(slugFor(userID)))
		// a concurrent first access may have created it already
		if err != nil && !errors.Is(err, errs.ErrAlreadyExists) {
			return model.Profile{}, fmt.Errorf("create default profile: %w", err)
		}
		p, err = s.repo.GetByOwner(ctx, userID)
	}
	if err != nil {
		return model.Profile{}, err
	}
	p.Normalize()
	return *p, nil
}

// CreateRecord builds the record from f, validates it and appends it.
func (s *ProfileServiceImpl) CreateRecord(ctx context.Context, userID uuid.UUID, kind model.RecordKind, f model.Fields) (string, int, error) {
	if err := checkUser(userID); err != nil {
		return "", 0, err
	}
	var (
		id  uuid.UUID
		pos int
		err error
	)
	switch kind {
	case model.KindLink:
		var l model.Link
		if err := applyValid(&l, f); err != nil {
			return "", 0, err
		}
		id, pos, err = s.repo.CreateLink(ctx, userID, l)
	case model.KindSocial:
		var so model.Social
		if err := applyValid(&so, f); err != nil {
			return "", 0, err
		}
		id, pos, err = s.repo.CreateSocial(ctx, userID, so)
	default:
		return "", 0, checkKind(kind)
	}
	if err != nil {
		return "", 0, err
	}
	return id.String(), pos, nil
}

// record is satisfied by *model.Link and *model.Social.
type record interface {
	Apply(model.Fields) error
	Validate() error
}

func applyValid(r record, f model.Fields) error {
	if err := r.Apply(f); err != nil {
		return err
	}
	return r.Validate()
}

// UpdateRecord merges f into the stored record; the merged record must be valid.
func (s *ProfileServiceImpl) UpdateRecord(ctx context.Context, userID uuid.UUID, kind model.RecordKind, id string, f model.Fields) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := checkKind(kind); err != nil {
		return err
	}
	rid, err := parseID(kind, id)
	if err != nil {
		return err
	}
	if len(f) == 0 {
		return nil
	}
	if kind == model.KindLink {
		return s.repo.UpdateLink(ctx, userID, rid, func(l *model.Link) error { return applyValid(l, f) })
	}
	return s.repo.UpdateSocial(ctx, userID, rid, func(so *model.Social) error { return applyValid(so, f) })
}

// DeleteRecord removes a record; a missing record reports ErrNotFound.
func (s *ProfileServiceImpl) DeleteRecord(ctx context.Context, userID uuid.UUID, kind model.RecordKind, id string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := checkKind(kind); err != nil {
		return err
	}
	rid, err := parseID(kind, id)
	if err != nil {
		return err
	}
	return s.repo.DeleteRecord(ctx, userID, kind, rid)
}

// ReorderRecords validates the id list and delegates.
// Rules:
// - at most maxRecords ids
// - every id parses and appears once
func (s *ProfileServiceImpl) ReorderRecords(ctx context.Context, userID uuid.UUID, kind model.RecordKind, ids []string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := checkKind(kind); err != nil {
		return err
	}
	if len(ids) > s.maxRecords {
		return fmt.Errorf("%w: reorder too large (%d > %d)", errs.ErrInvalidInput, len(ids), s.maxRecords)
	}
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		u, err := parseID(kind, id)
		if err != nil {
			return err
		}
		if seen[u] {
			return fmt.Errorf("%w: %s id %s listed twice", errs.ErrInvalidInput, kind, id)
		}
		seen[u] = true
		out = append(out, u)
	}
	return s.repo.ReorderRecords(ctx, userID, kind, out)
}

// UpdateScalarGroup applies f to group g under the profile lock.
func (s *ProfileServiceImpl) UpdateScalarGroup(ctx context.Context, userID uuid.UUID, g model.ScalarGroup, f model.Fields) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if !g.Valid() {
		return fmt.Errorf("%w: unknown scalar group %q", errs.ErrInvalidInput, g)
	}
	return s.repo.UpdateScalars(ctx, userID, func(p *model.Profile) error {
		if err := model.ApplyGroup(p, g, f); err != nil {
			return err
		}
		return model.ValidateGroup(*p, g)
	})
}
