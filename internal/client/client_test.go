package client

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	editorv1 "github.com/and161185/ohmylink/internal/api/editorv1"
	"github.com/and161185/ohmylink/internal/draft"
	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
	"github.com/and161185/ohmylink/internal/save"
	grpcserver "github.com/and161185/ohmylink/internal/server/grpc"
	"github.com/and161185/ohmylink/internal/service"
)

// memProfiles is an in-memory ProfileService good enough to drive a whole save.
type memProfiles struct {
	mu   sync.Mutex
	p    model.Profile
	next int
}

func (m *memProfiles) Get(context.Context, uuid.UUID) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.p.Clone(), nil
}

func (m *memProfiles) CreateRecord(_ context.Context, _ uuid.UUID, k model.RecordKind, f model.Fields) (string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := uuid.NewV5(uuid.NamespaceOID, string(rune('a'+m.next))).String()
	if k == model.KindLink {
		var l model.Link
		if err := l.Apply(f); err != nil {
			return "", 0, err
		}
		l.ID, l.Position = id, len(m.p.Links)
		m.p.Links = append(m.p.Links, l)
		return id, l.Position, nil
	}
	var s model.Social
	if err := s.Apply(f); err != nil {
		return "", 0, err
	}
	s.ID, s.Position = id, len(m.p.Socials)
	m.p.Socials = append(m.p.Socials, s)
	return id, s.Position, nil
}

func (m *memProfiles) UpdateRecord(_ context.Context, _ uuid.UUID, k model.RecordKind, id string, f model.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k == model.KindLink {
		return m.p.UpdateLink(id, f)
	}
	return m.p.UpdateSocial(id, f)
}

func (m *memProfiles) DeleteRecord(_ context.Context, _ uuid.UUID, k model.RecordKind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k == model.KindLink {
		return m.p.RemoveLink(id)
	}
	return m.p.RemoveSocial(id)
}

func (m *memProfiles) ReorderRecords(_ context.Context, _ uuid.UUID, k model.RecordKind, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for to, id := range ids {
		var err error
		if k == model.KindLink {
			err = m.p.MoveLink(id, to)
		} else {
			err = m.p.MoveSocial(id, to)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *memProfiles) UpdateScalarGroup(_ context.Context, _ uuid.UUID, g model.ScalarGroup, f model.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.ApplyGroup(&m.p, g, f)
}

func startServer(t *testing.T, svc service.ProfileService, tokens *service.Tokens) grpc.DialOption {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	log := zaptest.NewLogger(t)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcserver.RecoverUnary(log), grpcserver.AuthUnary(tokens)))
	editorv1.RegisterProfileEditorServer(gs, grpcserver.New(svc, log))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(func() { gs.Stop(); _ = lis.Close() })
	return grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() })
}

func dial(t *testing.T, dialer grpc.DialOption, token string) *Client {
	t.Helper()
	c, err := Dial(Options{Addr: "passthrough:///bufnet", Plaintext: true, Token: token, Timeout: 5 * time.Second}, dialer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_SaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	tokens := service.NewTokens([]byte("k"), time.Minute)
	svc := &memProfiles{p: model.DefaultProfile("me")}
	svc.p.ID = uuid.Must(uuid.NewV4()).String()
	tok, _, err := tokens.Issue(uuid.Must(uuid.NewV4()))
	require.NoError(t, err)
	c := dial(t, startServer(t, svc, tokens), tok)

	loaded, err := c.LoadProfile(ctx)
	require.NoError(t, err)
	require.Equal(t, svc.p.ID, loaded.ID)

	log := zaptest.NewLogger(t)
	store := draft.NewStore(draft.NewMemoryPersister(nil), log)
	require.NoError(t, store.Initialize(ctx, loaded))
	next := store.Draft()
	next.DisplayName = "Renamed"
	next.AddLink(model.Link{Title: "Blog", URL: "https://blog.example"})
	next.AddSocial(model.Social{Platform: "github", URL: "https://github.com/me"})
	require.NoError(t, store.UpdateDraft(ctx, next))

	res, err := save.New(c, store, log, 4).Save(ctx)
	require.NoError(t, err)
	require.Equal(t, save.StatusSuccess, res.Status)
	require.False(t, store.IsDirty())

	reloaded, err := c.LoadProfile(ctx)
	require.NoError(t, err)
	require.Equal(t, "Renamed", reloaded.DisplayName)
	require.Len(t, reloaded.Links, 1)
	require.Equal(t, store.Draft().Links[0].ID, reloaded.Links[0].ID)
	require.Equal(t, "github", reloaded.Socials[0].Platform)
}

func TestClient_ErrorMapping(t *testing.T) {
	ctx := context.Background()
	tokens := service.NewTokens([]byte("k"), time.Minute)
	svc := &memProfiles{p: model.DefaultProfile("me")}
	dialer := startServer(t, svc, tokens)

	_, err := dial(t, dialer, "").LoadProfile(ctx)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	tok, _, err := tokens.Issue(uuid.Must(uuid.NewV4()))
	require.NoError(t, err)
	c := dial(t, dialer, tok)

	err = c.DeleteRecord(ctx, model.KindLink, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	err = c.UpdateScalarGroup(ctx, model.GroupEffects, model.Fields{"blur": "lots"})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}
