package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/ohmylink/internal/draft"
	"github.com/and161185/ohmylink/internal/editor"
	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
	"github.com/and161185/ohmylink/internal/save"
)

type stubLoader struct{ p model.Profile }

func (s stubLoader) LoadProfile(context.Context) (model.Profile, error) { return s.p.Clone(), nil }

// recRemote accepts every call and records it.
type recRemote struct {
	mu    sync.Mutex
	calls []string
	fail  bool
	gone  string // id whose updates answer not found
}

func (r *recRemote) note(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
	if r.fail {
		return errors.New("unavailable")
	}
	return nil
}

func (r *recRemote) CreateRecord(_ context.Context, k model.RecordKind, _ model.Fields) (save.PersistedRecord, error) {
	return save.PersistedRecord{ID: "srv-" + string(k)}, r.note("create " + string(k))
}
func (r *recRemote) UpdateRecord(_ context.Context, k model.RecordKind, id string, _ model.Fields) error {
	err := r.note("update " + string(k) + " " + id)
	if err == nil && id == r.gone {
		return errs.ErrNotFound
	}
	return err
}
func (r *recRemote) DeleteRecord(_ context.Context, k model.RecordKind, id string) error {
	return r.note("delete " + string(k) + " " + id)
}
func (r *recRemote) ReorderRecords(_ context.Context, k model.RecordKind, _ []string) error {
	return r.note("reorder " + string(k))
}
func (r *recRemote) UpdateScalarGroup(_ context.Context, g model.ScalarGroup, _ model.Fields) error {
	return r.note("scalar " + string(g))
}

func newTestREPL(t *testing.T) (*repl, *bytes.Buffer, *recRemote) {
	t.Helper()
	p := model.DefaultProfile("me")
	p.ID = "p1"
	p.Links = []model.Link{
		{ID: "A", Title: "a", URL: "https://a.example", Position: 0},
		{ID: "B", Title: "b", URL: "https://b.example", Position: 1},
	}
	log := zaptest.NewLogger(t)
	store := draft.NewStore(draft.NewMemoryPersister(nil), log)
	rem := &recRemote{}
	sess := editor.NewSession(stubLoader{p: p}, store, save.New(rem, store, log, 4), log)
	_, err := sess.Open(context.Background(), keepDraft)
	require.NoError(t, err)

	var out bytes.Buffer
	return newREPL(sess, editor.NewGuard(sess.Dirty, &out), &out, log), &out, rem
}

func TestSplitArgs(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		``:                               nil,
		`   `:                            nil,
		`show`:                           {"show"},
		`set profile.bio "hi  there"`:    {"set", "profile.bio", "hi  there"},
		`link add 'My site' https://x.y`: {"link", "add", "My site", "https://x.y"},
		`set profile.bio ""`:             {"set", "profile.bio", ""},
		`a "say \"hi\"" b`:               {"a", `say "hi"`, "b"},
		`title="two words"`:              {"title=two words"},
		`link add a\ b https://x.y`:      {"link", "add", "a b", "https://x.y"},
		`set profile.bio 'it\s'`:         {"set", "profile.bio", `it\s`},
		`set profile.bio "Tom & Jerry"`:  {"set", "profile.bio", "Tom & Jerry"},
		`set profile.bio "$HOME"`:        {"set", "profile.bio", "$HOME"},
		"set\tprofile.bio  x":            {"set", "profile.bio", "x"},
	}
	for in, want := range cases {
		got, err := splitArgs(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, in := range []string{
		`set profile.bio "open`,
		`set profile.bio 'open`,
		`set profile.bio Tom & Jerry`,
		`show; save`,
		`set profile.bio a>b`,
	} {
		_, err := splitArgs(in)
		require.Error(t, err, in)
	}
}

func TestParseLike(t *testing.T) {
	t.Parallel()

	v, err := parseLike(0, "12")
	require.NoError(t, err)
	require.Equal(t, 12, v)

	v, err = parseLike(false, "true")
	require.NoError(t, err)
	require.Equal(t, true, v)

	v, err = parseLike("", "12")
	require.NoError(t, err)
	require.Equal(t, "12", v)

	_, err = parseLike(0, "lots")
	require.Error(t, err)
}

func TestExec_SetScalar(t *testing.T) {
	r, _, _ := newTestREPL(t)
	ctx := context.Background()

	require.NoError(t, r.exec(ctx, `set profile.bio "hello world"`))
	require.Equal(t, "hello world", r.sess.Draft().Bio)
	require.True(t, r.sess.Dirty())

	require.NoError(t, r.exec(ctx, `set effects.blur 5`))
	require.Equal(t, 5, r.sess.Draft().Effects.Blur)

	require.Error(t, r.exec(ctx, `set effects.blur soft`))
	require.Error(t, r.exec(ctx, `set fonts.size 3`))
	require.Error(t, r.exec(ctx, `set profile.nickname x`))
	require.Error(t, r.exec(ctx, `set profile.bio`))
}

func TestExec_LinkCommands(t *testing.T) {
	r, out, _ := newTestREPL(t)
	ctx := context.Background()

	require.NoError(t, r.exec(ctx, `link add "My site" https://me.example stripe_enabled=true`))
	d := r.sess.Draft()
	require.Len(t, d.Links, 3)
	require.True(t, model.IsTempID(d.Links[2].ID))
	require.True(t, d.Links[2].StripeEnabled)
	require.Contains(t, out.String(), "added link "+d.Links[2].ID)

	require.NoError(t, r.exec(ctx, `link mv #2 0`))
	require.Equal(t, "My site", r.sess.Draft().Links[0].Title)

	require.NoError(t, r.exec(ctx, `link set B title=Bee`))
	require.Equal(t, "Bee", r.sess.Draft().Links[2].Title)

	require.NoError(t, r.exec(ctx, `link rm A`))
	d = r.sess.Draft()
	require.Len(t, d.Links, 2)
	for i, l := range d.Links {
		require.Equal(t, i, l.Position)
	}

	require.ErrorIs(t, r.exec(ctx, `link rm Z`), errs.ErrNotFound)
	require.Error(t, r.exec(ctx, `link mv #0 9`))
	require.Error(t, r.exec(ctx, `link set #0 colour=red`))
	require.Error(t, r.exec(ctx, `link add onlytitle`))
}

func TestExec_InvalidEditKeepsDraft(t *testing.T) {
	r, _, _ := newTestREPL(t)
	before := r.sess.Draft()

	err := r.exec(context.Background(), `link set #0 url=not-a-url`)
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, before, r.sess.Draft())
	require.False(t, r.sess.Dirty())
}

func TestExec_SocialAndSave(t *testing.T) {
	r, out, rem := newTestREPL(t)
	ctx := context.Background()

	require.NoError(t, r.exec(ctx, `social add github https://github.com/me`))
	require.NoError(t, r.exec(ctx, `pending`))
	require.Contains(t, out.String(), "1 unsaved change(s)")

	require.NoError(t, r.exec(ctx, `save`))
	require.Contains(t, out.String(), "saved 1 change(s)")
	require.Equal(t, []string{"create social"}, rem.calls)
	require.False(t, r.sess.Dirty())
	require.Equal(t, "srv-social", r.sess.Draft().Socials[0].ID)
}

func TestExec_SavePartialFailureKeepsDraft(t *testing.T) {
	r, out, rem := newTestREPL(t)
	ctx := context.Background()
	rem.fail = true

	require.NoError(t, r.exec(ctx, `set profile.display_name Me`))
	require.NoError(t, r.exec(ctx, `save`))
	require.Contains(t, out.String(), "1 of 1 change(s) failed")
	require.True(t, r.sess.Dirty())
	require.Equal(t, "Me", r.sess.Draft().DisplayName)
}

func TestExec_SaveOfDeletedRecordSuggestsRemoval(t *testing.T) {
	r, out, rem := newTestREPL(t)
	ctx := context.Background()
	rem.gone = "B"

	require.NoError(t, r.exec(ctx, `link set B title=Bee`))
	require.NoError(t, r.exec(ctx, `save`))
	require.Contains(t, out.String(), `run "link rm B" or add it again`)
	require.True(t, r.sess.Dirty())

	require.NoError(t, r.exec(ctx, `link rm B`))
	require.NoError(t, r.exec(ctx, `save`))
	require.False(t, r.sess.Dirty())
}

func TestExec_DiscardAndQuit(t *testing.T) {
	r, out, _ := newTestREPL(t)
	ctx := context.Background()

	require.NoError(t, r.exec(ctx, `set profile.bio x`))
	// First quit with unsaved changes is blocked, the second goes through.
	require.NoError(t, r.exec(ctx, `quit`))
	require.Contains(t, out.String(), "unsaved changes")
	require.ErrorIs(t, r.exec(ctx, `quit`), errQuit)

	require.NoError(t, r.exec(ctx, `discard`))
	require.False(t, r.sess.Dirty())
	require.ErrorIs(t, r.exec(ctx, `exit`), errQuit)

	require.Error(t, r.exec(ctx, `frobnicate`))
}

func TestRun_ReadsUntilQuit(t *testing.T) {
	r, out, _ := newTestREPL(t)

	in := strings.NewReader("set profile.bio hi\nshow\nfrobnicate\ndiscard\nquit\nshow\n")
	require.NoError(t, r.run(context.Background(), in))
	s := out.String()
	require.Contains(t, s, "ohmylink* > ")
	require.Contains(t, s, `unknown command "frobnicate"`)
	require.Contains(t, s, "changes discarded")
	require.Equal(t, 1, strings.Count(s, "/me"), "show after quit must not run")
}

func TestResumePrompter(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := resumePrompter(bufio.NewReader(strings.NewReader("n\n")), &out, true)
	c, err := p.PromptResume(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, draft.ChoiceDiscard, c)
	require.Contains(t, out.String(), "3 unsaved change(s)")

	p = resumePrompter(bufio.NewReader(strings.NewReader("\n")), &out, true)
	c, err = p.PromptResume(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, draft.ChoiceRestore, c)

	out.Reset()
	p = resumePrompter(bufio.NewReader(strings.NewReader("n\n")), &out, false)
	c, err = p.PromptResume(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, draft.ChoiceRestore, c)
	require.Empty(t, out.String())
}
