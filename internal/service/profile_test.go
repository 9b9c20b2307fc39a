package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
	"github.com/and161185/ohmylink/internal/repository"
)

// fakeProfileRepo keeps one aggregate in memory and runs mutate callbacks like the real repo.
type fakeProfileRepo struct {
	p       *model.Profile
	creates int
	getErr  error

	reorderIn []uuid.UUID
	deleteIn  uuid.UUID
}

var _ repository.ProfileRepository = (*fakeProfileRepo)(nil)

func (f *fakeProfileRepo) GetByOwner(context.Context, uuid.UUID) (*model.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.p == nil {
		return nil, errs.ErrNotFound
	}
	c := f.p.Clone()
	return &c, nil
}
func (f *fakeProfileRepo) Create(_ context.Context, _ uuid.UUID, p model.Profile) (uuid.UUID, error) {
	f.creates++
	id := uuid.Must(uuid.NewV4())
	p.ID = id.String()
	f.p = &p
	return id, nil
}
func (f *fakeProfileRepo) UpdateScalars(_ context.Context, _ uuid.UUID, mutate func(*model.Profile) error) error {
	c := f.p.Clone()
	if err := mutate(&c); err != nil {
		return err
	}
	f.p = &c
	return nil
}
func (f *fakeProfileRepo) CreateLink(_ context.Context, _ uuid.UUID, l model.Link) (uuid.UUID, int, error) {
	id := uuid.Must(uuid.NewV4())
	l.ID, l.Position = id.String(), len(f.p.Links)
	f.p.Links = append(f.p.Links, l)
	return id, l.Position, nil
}
func (f *fakeProfileRepo) UpdateLink(_ context.Context, _ uuid.UUID, id uuid.UUID, mutate func(*model.Link) error) error {
	i := f.p.LinkIndex(id.String())
	if i < 0 {
		return errs.ErrNotFound
	}
	l := f.p.Links[i]
	if err := mutate(&l); err != nil {
		return err
	}
	f.p.Links[i] = l
	return nil
}
func (f *fakeProfileRepo) CreateSocial(_ context.Context, _ uuid.UUID, s model.Social) (uuid.UUID, int, error) {
	id := uuid.Must(uuid.NewV4())
	s.ID, s.Position = id.String(), len(f.p.Socials)
	f.p.Socials = append(f.p.Socials, s)
	return id, s.Position, nil
}
func (f *fakeProfileRepo) UpdateSocial(_ context.Context, _ uuid.UUID, id uuid.UUID, mutate func(*model.Social) error) error {
	i := f.p.SocialIndex(id.String())
	if i < 0 {
		return errs.ErrNotFound
	}
	s := f.p.Socials[i]
	if err := mutate(&s); err != nil {
		return err
	}
	f.p.Socials[i] = s
	return nil
}
func (f *fakeProfileRepo) DeleteRecord(_ context.Context, _ uuid.UUID, _ model.RecordKind, id uuid.UUID) error {
	f.deleteIn = id
	return nil
}
func (f *fakeProfileRepo) ReorderRecords(_ context.Context, _ uuid.UUID, _ model.RecordKind, ids []uuid.UUID) error {
	f.reorderIn = append([]uuid.UUID(nil), ids...)
	return nil
}

func TestNewProfileService_DefaultMaxRecords(t *testing.T) {
	s := NewProfileService(&fakeProfileRepo{}, 0)
	if s.maxRecords != 500 {
		t.Fatalf("default maxRecords want 500, got %d", s.maxRecords)
	}
}

func TestProfileService_Get_SeedsDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &fakeProfileRepo{}
	s := NewProfileService(repo, 0)
	user := uuid.Must(uuid.NewV4())

	p, err := s.Get(ctx, user)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if repo.creates != 1 || p.DisplayName != "Brokerish" || p.Slug != slugFor(user) {
		t.Fatalf("default not seeded: creates=%d p=%+v", repo.creates, p)
	}
	if _, err := s.Get(ctx, user); err != nil || repo.creates != 1 {
		t.Fatalf("second Get created again: %d %v", repo.creates, err)
	}

	if _, err := s.Get(ctx, uuid.Nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want invalid input on nil user, got %v", err)
	}

	repo.getErr = errors.New("db down")
	if _, err := s.Get(ctx, user); err == nil {
		t.Fatalf("want repo error")
	}
}

func seeded(t *testing.T) (*ProfileServiceImpl, *fakeProfileRepo, uuid.UUID) {
	t.Helper()
	p := model.DefaultProfile("me")
	repo := &fakeProfileRepo{p: &p}
	return NewProfileService(repo, 3), repo, uuid.Must(uuid.NewV4())
}

func TestProfileService_CreateRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, repo, user := seeded(t)

	id, pos, err := s.CreateRecord(ctx, user, model.KindLink, model.Fields{"title": "Blog", "url": "https://blog.example"})
	if err != nil || pos != 0 || id == "" {
		t.Fatalf("create link: id=%q pos=%d err=%v", id, pos, err)
	}
	if repo.p.Links[0].Title != "Blog" {
		t.Fatalf("link not stored: %+v", repo.p.Links)
	}

	_, _, err = s.CreateRecord(ctx, user, model.KindLink, model.Fields{"title": "", "url": "nope"})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) || !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want validation error, got %v", err)
	}

	_, _, err = s.CreateRecord(ctx, user, model.KindSocial, model.Fields{"platform": "email", "url": "mailto:me@example.com"})
	if err != nil {
		t.Fatalf("create social: %v", err)
	}
	if _, _, err := s.CreateRecord(ctx, user, model.KindSocial, model.Fields{"platform": "myspace", "url": "https://myspace.com"}); err == nil {
		t.Fatalf("want error on unknown platform")
	}
	if _, _, err := s.CreateRecord(ctx, user, "photo", nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want invalid kind, got %v", err)
	}
}

func TestProfileService_UpdateRecord_ValidatesMergedRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, repo, user := seeded(t)

	id, _, err := s.CreateRecord(ctx, user, model.KindLink, model.Fields{"title": "Blog", "url": "https://blog.example"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.UpdateRecord(ctx, user, model.KindLink, id, model.Fields{"stripe_enabled": true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !repo.p.Links[0].StripeEnabled || repo.p.Links[0].Title != "Blog" {
		t.Fatalf("partial update lost fields: %+v", repo.p.Links[0])
	}

	if err := s.UpdateRecord(ctx, user, model.KindLink, id, model.Fields{"url": "relative/path"}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want invalid merged record, got %v", err)
	}
	if repo.p.Links[0].URL != "https://blog.example" {
		t.Fatalf("rejected update was stored")
	}

	if err := s.UpdateRecord(ctx, user, model.KindLink, "temp-01J", model.Fields{"title": "x"}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want bad id, got %v", err)
	}
	missing := uuid.Must(uuid.NewV4()).String()
	if err := s.UpdateRecord(ctx, user, model.KindLink, missing, model.Fields{"title": "x"}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestProfileService_DeleteAndReorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, repo, user := seeded(t)

	id := uuid.Must(uuid.NewV4())
	if err := s.DeleteRecord(ctx, user, model.KindSocial, id.String()); err != nil || repo.deleteIn != id {
		t.Fatalf("delete: %v %s", err, repo.deleteIn)
	}

	a, b := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	if err := s.ReorderRecords(ctx, user, model.KindLink, []string{b.String(), a.String()}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(repo.reorderIn) != 2 || repo.reorderIn[0] != b {
		t.Fatalf("reorder passed %v", repo.reorderIn)
	}

	if err := s.ReorderRecords(ctx, user, model.KindLink, []string{a.String(), a.String()}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want duplicate rejected, got %v", err)
	}
	four := []string{a.String(), b.String(), uuid.Must(uuid.NewV4()).String(), uuid.Must(uuid.NewV4()).String()}
	if err := s.ReorderRecords(ctx, user, model.KindLink, four); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want too large rejected, got %v", err)
	}
}

func TestProfileService_UpdateScalarGroup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, repo, user := seeded(t)

	if err := s.UpdateScalarGroup(ctx, user, model.GroupEffects, model.Fields{"blur": 12.0}); err != nil {
		t.Fatalf("effects: %v", err)
	}
	if repo.p.Effects.Blur != 12 || repo.p.Effects.Contrast != 100 {
		t.Fatalf("effects not merged: %+v", repo.p.Effects)
	}

	err := s.UpdateScalarGroup(ctx, user, model.GroupEffects, model.Fields{"brightness": 10})
	if !errors.Is(err, errs.ErrInvalidInput) || repo.p.Effects.Brightness != 100 {
		t.Fatalf("out of range accepted: %v %+v", err, repo.p.Effects)
	}

	err = s.UpdateScalarGroup(ctx, user, model.GroupBackground, model.Fields{"type": "color", "color": "#000000"})
	if err != nil {
		t.Fatalf("background: %v", err)
	}
	if repo.p.Background.Fill != (model.ColorFill{Color: "#000000"}) {
		t.Fatalf("background fill %+v", repo.p.Background.Fill)
	}

	if err := s.UpdateScalarGroup(ctx, user, "fonts", model.Fields{}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want unknown group, got %v", err)
	}
}
