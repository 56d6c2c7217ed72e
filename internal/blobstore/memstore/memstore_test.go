package memstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/photoform/internal/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ blobstore.Store = (*Store)(nil)

func TestStore_PutAndURL(t *testing.T) {
	s := New("https://cdn.test")
	ctx := context.Background()

	ref, err := s.Put(ctx, strings.NewReader("jpeg"), "quote-uploads/1-a-x.jpg", blobstore.Metadata{Size: 4, ContentType: "image/jpeg"})
	require.NoError(t, err)

	u, err := s.PublicURL(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/quote-uploads/1-a-x.jpg", u)

	obj, ok := s.Get(ref.Key)
	require.True(t, ok)
	assert.Equal(t, "jpeg", string(obj.Data))
	assert.Equal(t, "image/jpeg", obj.Meta.ContentType)
	assert.Equal(t, 1, s.Len())
}

func TestStore_FailPut(t *testing.T) {
	s := New("https://cdn.test")
	s.FailPut = func(key string) error {
		if strings.HasSuffix(key, "b.jpg") {
			return errors.New("quota")
		}
		return nil
	}

	_, err := s.Put(context.Background(), strings.NewReader("x"), "k/b.jpg", blobstore.Metadata{})
	require.EqualError(t, err, "quota")
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, []string{"k/b.jpg"}, s.Puts())
}

func TestStore_PublicURLUnknown(t *testing.T) {
	_, err := New("x").PublicURL(context.Background(), blobstore.ObjectRef{Key: "nope"})
	require.Error(t, err)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New("x").Put(ctx, strings.NewReader("x"), "k", blobstore.Metadata{})
	require.ErrorIs(t, err, context.Canceled)
}
