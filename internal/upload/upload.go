// Package upload sends a batch of files to a blob store one at a time, in
// selection order, and returns their public URLs. A batch is atomic from the
// caller's point of view: either every URL comes back or none do.
package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photoform/internal/blobstore"
	"github.com/dmitrijs2005/photoform/internal/common"
	"github.com/dmitrijs2005/photoform/internal/logging"
	"github.com/dmitrijs2005/photoform/internal/models"
	"github.com/dmitrijs2005/photoform/internal/shared"
	"github.com/samber/lo"
)

// randomHexBytes yields 16 hex characters per key.
const randomHexBytes = 8

// UploadError reports the file that aborted a batch.
type UploadError struct {
	Index int
	Name  string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q (#%d): %v", e.Name, e.Index+1, e.Err)
}

// Unwrap exposes both common.ErrUploadFailed and the underlying cause.
func (e *UploadError) Unwrap() []error {
	return []error{common.ErrUploadFailed, e.Err}
}

// Batch is the per-file record of one UploadBatch call.
type Batch struct {
	Tasks []models.UploadTask
}

// Succeeded reports whether every task succeeded.
func (b *Batch) Succeeded() bool {
	return lo.EveryBy(b.Tasks, func(t models.UploadTask) bool {
		return t.Status == models.TaskSucceeded
	})
}

// URLs returns the URLs in task order, or nil unless the whole batch succeeded.
func (b *Batch) URLs() []string {
	if !b.Succeeded() {
		return nil
	}
	return lo.Map(b.Tasks, func(t models.UploadTask, _ int) string {
		return t.URL
	})
}

type Orchestrator struct {
	store    blobstore.Store
	category string
	logger   logging.Logger

	now     func() time.Time
	randHex func() (string, error)
}

type Option func(*Orchestrator)

// WithCategory overrides DefaultCategory.
func WithCategory(category string) Option {
	return func(o *Orchestrator) { o.category = category }
}

// WithClock overrides time.Now for key generation.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithRandom overrides the random hex source for key generation.
func WithRandom(randHex func() (string, error)) Option {
	return func(o *Orchestrator) { o.randHex = randHex }
}

func NewOrchestrator(store blobstore.Store, logger logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		category: DefaultCategory,
		logger:   logger.With("module", "upload"),
		now:      time.Now,
		randHex:  func() (string, error) { return shared.MakeRandHexString(randomHexBytes) },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UploadAll uploads files sequentially and returns their URLs in the same
// order. On the first failure the remaining files are skipped and the call
// returns nil and an *UploadError.
func (o *Orchestrator) UploadAll(ctx context.Context, files []models.File) ([]string, error) {
	batch, err := o.UploadBatch(ctx, files)
	if err != nil {
		return nil, err
	}
	return batch.URLs(), nil
}

// UploadBatch is UploadAll with the per-file tasks exposed. The batch is
// returned even on failure; tasks after the failing one stay pending.
func (o *Orchestrator) UploadBatch(ctx context.Context, files []models.File) (*Batch, error) {
	batch := &Batch{Tasks: make([]models.UploadTask, len(files))}
	for i, f := range files {
		batch.Tasks[i] = models.UploadTask{Source: f, Status: models.TaskPending}
	}

	for i := range batch.Tasks {
		task := &batch.Tasks[i]

		url, key, err := o.uploadOne(ctx, task.Source)
		task.DestinationKey = key
		if err != nil {
			task.Status = models.TaskFailed
			task.Err = err
			o.logger.Error(ctx, "upload failed", "file", task.Source.Name, "key", key, "error", err)
			return batch, &UploadError{Index: i, Name: task.Source.Name, Err: err}
		}

		task.Status = models.TaskSucceeded
		task.URL = url
		o.logger.Debug(ctx, "file uploaded", "file", task.Source.Name, "key", key, "size", task.Source.Size)
	}

	return batch, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, f models.File) (string, string, error) {
	hex, err := o.randHex()
	if err != nil {
		return "", "", fmt.Errorf("random key part: %w", err)
	}
	key := DestinationKey(o.category, o.now(), hex, f.Name)

	if f.Open == nil {
		return "", key, fmt.Errorf("file %q has no content", f.Name)
	}
	body, err := f.Open()
	if err != nil {
		return "", key, fmt.Errorf("open: %w", err)
	}
	defer body.Close()

	ref, err := o.store.Put(ctx, body, key, blobstore.Metadata{Size: f.Size, ContentType: f.ContentType})
	if err != nil {
		return "", key, err
	}

	url, err := o.store.PublicURL(ctx, ref)
	if err != nil {
		return "", key, fmt.Errorf("public url: %w", err)
	}

	return url, key, nil
}
