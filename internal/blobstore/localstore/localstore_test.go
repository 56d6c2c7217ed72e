package localstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/photoform/internal/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ blobstore.Store = (*Store)(nil)

func TestStore_PutWritesFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	s, err := New(root, "http://localhost:8080/uploads/")
	require.NoError(t, err)
	assert.Equal(t, root, s.Root())

	ctx := context.Background()
	ref, err := s.Put(ctx, strings.NewReader("pngdata"), "quote-uploads/1-ab-a.png", blobstore.Metadata{Size: 7, ContentType: "image/png"})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(root, "quote-uploads", "1-ab-a.png"))
	require.NoError(t, err)
	assert.Equal(t, "pngdata", string(b))

	u, err := s.PublicURL(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/quote-uploads/1-ab-a.png", u)
}

func TestStore_SizeMismatchLeavesNothing(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, "http://x")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), strings.NewReader("short"), "k/a.jpg", blobstore.Metadata{Size: 100})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "k"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_RejectsEscapingKey(t *testing.T) {
	s, err := New(t.TempDir(), "http://x")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), strings.NewReader("x"), "../../evil", blobstore.Metadata{})
	require.Error(t, err)
}
