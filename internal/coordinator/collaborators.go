package coordinator

import (
	"context"

	"github.com/dmitrijs2005/photoform/internal/models"
	"github.com/dmitrijs2005/photoform/internal/preview"
	"github.com/dmitrijs2005/photoform/internal/upload"
)

// SubmitEvent is the part of a submit event the coordinator needs to
// suppress it for every other listener.
type SubmitEvent interface {
	PreventDefault()
	StopImmediatePropagation()
	// Requested reports whether the event came from HostForm.RequestSubmit.
	Requested() bool
}

// HostForm is the third-party form the coordinator is attached to.
type HostForm interface {
	// Files returns the current file selection.
	Files() []models.File
	// ClearFiles empties the file-selection control.
	ClearFiles()
	// SetField writes a hidden field; a missing field yields common.ErrMissingHostField.
	SetField(name, value string) error
	// RequestSubmit triggers the form's native submission once. The
	// resulting submit event must be delivered back to HandleSubmit.
	RequestSubmit(ctx context.Context)
}

type Uploader interface {
	UploadBatch(ctx context.Context, files []models.File) (*upload.Batch, error)
}

type Previewer interface {
	Render(files []models.File) ([]preview.Handle, error)
	Clear()
}

// Alerter shows a message to the user.
type Alerter interface {
	Alert(ctx context.Context, msg string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(ctx context.Context, msg string)

func (f AlertFunc) Alert(ctx context.Context, msg string) { f(ctx, msg) }

// Recorder persists settled attempts.
type Recorder interface {
	Record(ctx context.Context, attempt models.Attempt, tasks []models.UploadTask) error
}
