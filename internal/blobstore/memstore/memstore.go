// Package memstore is an in-process blobstore.Store.
package memstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/photoform/internal/blobstore"
)

// Object is a stored blob with its metadata.
type Object struct {
	Data []byte
	Meta blobstore.Metadata
}

// Store keeps objects in memory. FailPut, when set, is consulted before every
// put and lets tests make a specific key fail.
type Store struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]Object
	puts    []string

	FailPut func(key string) error
}

// New returns an empty Store whose public URLs are rooted at baseURL.
func New(baseURL string) *Store {
	return &Store{baseURL: baseURL, objects: make(map[string]Object)}
}

func (s *Store) Put(ctx context.Context, body io.Reader, key string, meta blobstore.Metadata) (blobstore.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.ObjectRef{}, err
	}

	s.mu.Lock()
	s.puts = append(s.puts, key)
	fail := s.FailPut
	s.mu.Unlock()

	if fail != nil {
		if err := fail(key); err != nil {
			return blobstore.ObjectRef{}, err
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return blobstore.ObjectRef{}, fmt.Errorf("read body: %w", err)
	}

	s.mu.Lock()
	s.objects[key] = Object{Data: data, Meta: meta}
	s.mu.Unlock()

	return blobstore.ObjectRef{Key: key}, nil
}

func (s *Store) PublicURL(_ context.Context, ref blobstore.ObjectRef) (string, error) {
	s.mu.Lock()
	_, ok := s.objects[ref.Key]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("object %q not stored", ref.Key)
	}
	return blobstore.JoinURL(s.baseURL, ref.Key), nil
}

// Get returns a stored object.
func (s *Store) Get(key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[key]
	return o, ok
}

// Len is the number of stored objects.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Puts lists every key Put was called with, in call order, including failed ones.
func (s *Store) Puts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}
