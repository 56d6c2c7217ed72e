// Package coordinator intercepts host form submissions that carry photos,
// uploads the photos as one batch, writes the resulting URLs into a hidden
// field and then lets exactly one native submission through to the host's
// own listeners.
//
// Transitions:
//
//	Idle         --submit, no files-------------------> Idle (pass through)
//	Idle         --submit, files----------------------> Intercepting (suppressed)
//	Intercepting --rejected---------------------------> Idle (alert, clear)
//	Intercepting --valid------------------------------> Uploading
//	Uploading    --submit-----------------------------> Uploading (suppressed, not queued)
//	Uploading    --failed-----------------------------> Idle (alert, clear, field untouched)
//	Uploading    --done, field written, token armed---> Resubmitting -> RequestSubmit
//	Resubmitting --requested submit, token consumed---> Idle (host listeners run)
//	Resubmitting --any other submit-------------------> Resubmitting (suppressed)
//
// HandleSubmit must be registered so that it sees every submit before any
// host listener does (hostform.Capture).
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/photoform/internal/common"
	"github.com/dmitrijs2005/photoform/internal/logging"
	"github.com/dmitrijs2005/photoform/internal/models"
	"github.com/dmitrijs2005/photoform/internal/validator"
	"github.com/google/uuid"
)

const (
	// DefaultFieldName is the hidden field that receives the URLs.
	DefaultFieldName = "Photos"

	// URLSeparator joins URLs in the hidden field.
	URLSeparator = "\n"

	msgUploadFailed = "Photo upload failed. Please try again."
	msgMissingField = "Photo upload is not available on this form. Please contact us directly."
)

// Config holds the per-form settings.
type Config struct {
	FormID      string
	FieldName   string
	Constraints validator.Constraints
}

// Outcome is the result of a settled attempt.
type Outcome struct {
	AttemptID string
	Result    models.Outcome
	URLs      []string
	Err       error
}

type attempt struct {
	id      string
	files   []models.File
	started time.Time
	done    chan struct{}
	outcome Outcome
}

type Coordinator struct {
	mu sync.Mutex

	cfg      Config
	form     HostForm
	uploader Uploader
	preview  Previewer
	alerter  Alerter
	recorder Recorder
	logger   logging.Logger

	state     State
	allowNext bool
	inflight  *attempt
	last      Outcome
}

type Option func(*Coordinator)

// WithRecorder persists every settled attempt.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

func New(cfg Config, form HostForm, uploader Uploader, preview Previewer, alerter Alerter, logger logging.Logger, opts ...Option) *Coordinator {
	if cfg.FieldName == "" {
		cfg.FieldName = DefaultFieldName
	}
	c := &Coordinator{
		cfg:      cfg,
		form:     form,
		uploader: uploader,
		preview:  preview,
		alerter:  alerter,
		logger:   logger.With("module", "coordinator", "form_id", cfg.FormID),
		state:    Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandleSubmit is the capture-phase submit listener.
func (c *Coordinator) HandleSubmit(ctx context.Context, ev SubmitEvent) {
	c.mu.Lock()

	switch c.state {
	case Resubmitting:
		if c.allowNext && ev.Requested() {
			c.allowNext = false
			c.state = Idle
			c.mu.Unlock()
			c.logger.Debug(ctx, "allow token consumed, submit released to host")
			return
		}
		ev.PreventDefault()
		ev.StopImmediatePropagation()
		c.mu.Unlock()
		c.logger.Warn(ctx, "submit suppressed during resubmission", "error", common.ErrUploadInProgress)
		return

	case Intercepting, Uploading:
		ev.PreventDefault()
		ev.StopImmediatePropagation()
		c.mu.Unlock()
		c.logger.Warn(ctx, "submit suppressed", "error", common.ErrUploadInProgress)
		return
	}

	files := c.form.Files()
	if len(files) == 0 {
		c.last = Outcome{Result: models.OutcomePassed}
		c.mu.Unlock()
		return
	}

	ev.PreventDefault()
	ev.StopImmediatePropagation()

	a := &attempt{
		id:      uuid.NewString(),
		files:   files,
		started: time.Now().UTC(),
		done:    make(chan struct{}),
	}
	c.inflight = a
	c.state = Intercepting

	if err := validator.Validate(files, c.cfg.Constraints); err != nil {
		c.resetLocked()
		c.mu.Unlock()

		c.alert(ctx, userMessage(err))
		c.settle(ctx, a, Outcome{Result: models.OutcomeRejected, Err: err}, nil)
		return
	}

	c.state = Uploading
	c.mu.Unlock()

	c.logger.Info(ctx, "submit intercepted, uploading", "attempt_id", a.id, "files", len(files))

	// The upload is never cancelled; a torn-down request just abandons it.
	go c.upload(context.WithoutCancel(ctx), a)
}

func (c *Coordinator) upload(ctx context.Context, a *attempt) {
	batch, err := c.uploader.UploadBatch(ctx, a.files)

	var tasks []models.UploadTask
	if batch != nil {
		tasks = batch.Tasks
	} else if err == nil {
		err = fmt.Errorf("uploader returned no batch: %w", common.ErrUploadFailed)
	}

	if err != nil {
		c.mu.Lock()
		c.resetLocked()
		c.mu.Unlock()

		c.alert(ctx, msgUploadFailed)
		c.settle(ctx, a, Outcome{Result: models.OutcomeUploadFailed, Err: err}, tasks)
		return
	}

	urls := batch.URLs()

	c.mu.Lock()
	if err := c.form.SetField(c.cfg.FieldName, strings.Join(urls, URLSeparator)); err != nil {
		c.resetLocked()
		c.mu.Unlock()

		c.alert(ctx, msgMissingField)
		c.settle(ctx, a, Outcome{Result: models.OutcomeMissingField, Err: err}, tasks)
		return
	}
	// The field is final before the token is armed and before the host can see a submit.
	c.form.ClearFiles()
	c.preview.Clear()
	c.allowNext = true
	c.state = Resubmitting
	c.mu.Unlock()

	c.form.RequestSubmit(ctx)

	c.mu.Lock()
	unobserved := c.state == Resubmitting && c.allowNext
	if unobserved {
		c.allowNext = false
		c.state = Idle
	}
	c.mu.Unlock()

	if unobserved {
		c.logger.Error(ctx, "requested submit never reached the coordinator; allow token disarmed", "attempt_id", a.id)
	}

	c.settle(ctx, a, Outcome{Result: models.OutcomeSubmitted, URLs: urls}, tasks)
}

// HandleChange reacts to a new selection: the stale URL field is cleared,
// an invalid selection is alerted and dropped, a valid one is previewed.
func (c *Coordinator) HandleChange(ctx context.Context) {
	c.mu.Lock()
	idle := c.state == Idle
	c.mu.Unlock()

	if idle {
		if err := c.form.SetField(c.cfg.FieldName, ""); err != nil {
			c.logger.Warn(ctx, "cannot reset URL field", "error", err)
		}
	}

	files := c.form.Files()
	if len(files) == 0 {
		c.preview.Clear()
		return
	}

	if err := validator.Validate(files, c.cfg.Constraints); err != nil {
		c.form.ClearFiles()
		c.preview.Clear()
		c.alert(ctx, userMessage(err))
		return
	}

	if _, err := c.preview.Render(files); err != nil {
		c.logger.Warn(ctx, "preview failed", "error", err)
	}
}

// Wait blocks until the attempt in flight settles and returns its outcome.
// With nothing in flight it returns the last outcome immediately.
func (c *Coordinator) Wait(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	a := c.inflight
	last := c.last
	c.mu.Unlock()

	if a == nil {
		return last, nil
	}

	select {
	case <-a.done:
		return a.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// resetLocked drops the selection and preview and returns to Idle.
func (c *Coordinator) resetLocked() {
	c.form.ClearFiles()
	c.preview.Clear()
	c.allowNext = false
	c.state = Idle
}

func (c *Coordinator) alert(ctx context.Context, msg string) {
	if c.alerter != nil {
		c.alerter.Alert(ctx, msg)
	}
}

func (c *Coordinator) settle(ctx context.Context, a *attempt, o Outcome, tasks []models.UploadTask) {
	o.AttemptID = a.id

	if c.recorder != nil {
		rec := models.Attempt{
			ID:        a.id,
			FormID:    c.cfg.FormID,
			Outcome:   o.Result,
			FileCount: len(a.files),
			URLs:      o.URLs,
			CreatedAt: a.started,
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		if err := c.recorder.Record(ctx, rec, tasks); err != nil {
			c.logger.Error(ctx, "record attempt", "attempt_id", a.id, "error", err)
		}
	}

	if o.Err != nil {
		c.logger.Warn(ctx, "attempt settled", "attempt_id", a.id, "outcome", o.Result, "error", o.Err)
	} else {
		c.logger.Info(ctx, "attempt settled", "attempt_id", a.id, "outcome", o.Result, "urls", len(o.URLs))
	}

	c.mu.Lock()
	a.outcome = o
	if c.inflight == a {
		c.inflight = nil
	}
	if c.inflight == nil {
		c.last = o
	}
	c.mu.Unlock()

	close(a.done)
}

func userMessage(err error) string {
	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
