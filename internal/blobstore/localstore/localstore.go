// Package localstore stores objects as files under a root directory. The
// gateway serves that directory so the returned URLs resolve.
package localstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/photoform/internal/blobstore"
	"github.com/dmitrijs2005/photoform/internal/filex"
)

type Store struct {
	root    string
	baseURL string
}

// New creates root if needed. baseURL is the public prefix the directory is served under.
func New(root, baseURL string) (*Store, error) {
	dir, err := filex.EnsureDir(root)
	if err != nil {
		return nil, err
	}
	return &Store{root: dir, baseURL: baseURL}, nil
}

// Root is the absolute directory objects are written to.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) Put(ctx context.Context, body io.Reader, key string, meta blobstore.Metadata) (blobstore.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.ObjectRef{}, err
	}

	path, err := filex.SafeJoin(s.root, key)
	if err != nil {
		return blobstore.ObjectRef{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return blobstore.ObjectRef{}, fmt.Errorf("mkdir: %w", err)
	}

	// A failed copy must never leave a partial object behind.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return blobstore.ObjectRef{}, fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return blobstore.ObjectRef{}, fmt.Errorf("write %s: %w", key, err)
	}
	if meta.Size > 0 && n != meta.Size {
		return blobstore.ObjectRef{}, fmt.Errorf("write %s: got %d bytes, declared %d", key, n, meta.Size)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return blobstore.ObjectRef{}, fmt.Errorf("commit %s: %w", key, err)
	}

	return blobstore.ObjectRef{Key: key}, nil
}

func (s *Store) PublicURL(_ context.Context, ref blobstore.ObjectRef) (string, error) {
	return blobstore.JoinURL(s.baseURL, ref.Key), nil
}
