// Package blobstore defines the object storage contract the upload
// orchestrator depends on. Implementations live in subpackages:
// s3store (S3 or MinIO), localstore (a directory served over HTTP) and
// memstore (in-process, for tests and local runs).
package blobstore

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Metadata travels with every stored object.
type Metadata struct {
	Size        int64
	ContentType string
}

// ObjectRef identifies a stored object.
type ObjectRef struct {
	Key string
}

// Store puts objects and resolves their public URLs. The upload core only
// relies on Put and PublicURL signalling success or failure.
type Store interface {
	Put(ctx context.Context, body io.Reader, key string, meta Metadata) (ObjectRef, error)
	PublicURL(ctx context.Context, ref ObjectRef) (string, error)
}

// JoinURL appends a slash-separated key to base, escaping each segment.
func JoinURL(base, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segs, "/")
}
