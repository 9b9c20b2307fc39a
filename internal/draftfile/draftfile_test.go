package draftfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/ohmylink/internal/draft"
	"github.com/and161185/ohmylink/internal/model"
)

var _ draft.Persister = (*File)(nil)

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := New(filepath.Join(t.TempDir(), "nested", FileName))

	got, err := f.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	p := model.DefaultProfile("me")
	p.ID = "p1"
	p.Background.Fill = model.WallpaperFill{Preset: "aurora"}
	p.AddLink(model.Link{Title: "shop", URL: "https://shop.example", StripeEnabled: true})
	require.NoError(t, f.Write(ctx, p))

	got, err = f.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, p, *got)

	info, err := os.Stat(f.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, f.Clear(ctx))
	require.NoError(t, f.Clear(ctx))
	got, err = f.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := New(path).Read(context.Background())
	require.Error(t, err)
}

func TestFile_UnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"draft":{}}`), 0o600))
	_, err := New(path).Read(context.Background())
	require.Error(t, err)
}

func TestDefaultPath_UsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.Equal(t, filepath.Join(dir, "ohmylink", FileName), DefaultPath())
}
