// Package hostform models a third-party lead form: declared text fields, a
// file-selection control and an event source with capture and bubble
// phases. The gateway builds one per incoming submission; the coordinator
// sees it only through coordinator.HostForm.
package hostform

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/photoform/internal/common"
	"github.com/dmitrijs2005/photoform/internal/models"
)

type Form struct {
	mu sync.Mutex

	id     string
	order  []string
	fields map[string]string
	files  []models.File

	listeners map[EventType][2][]Listener

	requested int
}

// New returns a form with the given declared fields, all empty.
func New(id string, fields ...string) *Form {
	f := &Form{
		id:        id,
		fields:    make(map[string]string, len(fields)),
		listeners: make(map[EventType][2][]Listener),
	}
	for _, name := range fields {
		f.DeclareField(name)
	}
	return f
}

func (f *Form) ID() string { return f.id }

// DeclareField adds an empty field; declaring an existing field is a no-op.
func (f *Form) DeclareField(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.fields[name]; ok {
		return
	}
	f.order = append(f.order, name)
	f.fields[name] = ""
}

// SetField writes a declared field. Undeclared names return common.ErrMissingHostField.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.fields[name]; !ok {
		return fmt.Errorf("field %q on form %q: %w", name, f.id, common.ErrMissingHostField)
	}
	f.fields[name] = value
	return nil
}

func (f *Form) Field(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.fields[name]
	return v, ok
}

// Values serializes the declared fields in declaration order. Files are
// never part of it.
func (f *Form) Values() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := make(url.Values, len(f.order))
	for _, name := range f.order {
		v.Set(name, f.fields[name])
	}
	return v
}

// Files returns the current selection.
func (f *Form) Files() []models.File {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.File(nil), f.files...)
}

// SetFiles replaces the selection and dispatches a change event.
func (f *Form) SetFiles(ctx context.Context, files []models.File) {
	f.mu.Lock()
	f.files = append([]models.File(nil), files...)
	f.mu.Unlock()

	f.Dispatch(ctx, &Event{Type: Change})
}

// ClearFiles empties the selection without dispatching a change event.
func (f *Form) ClearFiles() {
	f.mu.Lock()
	f.files = nil
	f.mu.Unlock()
}

// AddEventListener registers l for events of type t in the given phase.
func (f *Form) AddEventListener(t EventType, phase Phase, l Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ls := f.listeners[t]
	ls[phase] = append(ls[phase], l)
	f.listeners[t] = ls
}

// Dispatch delivers e to capture listeners, then bubble listeners, stopping
// as soon as one calls StopImmediatePropagation. It reports whether the
// default action was left in place.
func (f *Form) Dispatch(ctx context.Context, e *Event) bool {
	f.mu.Lock()
	ls := f.listeners[e.Type]
	phases := [2][]Listener{
		append([]Listener(nil), ls[Capture]...),
		append([]Listener(nil), ls[Bubble]...),
	}
	f.mu.Unlock()

	for _, phase := range phases {
		for _, l := range phase {
			l(ctx, e)
			if e.Stopped() {
				return !e.DefaultPrevented()
			}
		}
	}
	return !e.DefaultPrevented()
}

// Submit dispatches a user-initiated submit event.
func (f *Form) Submit(ctx context.Context) bool {
	return f.Dispatch(ctx, &Event{Type: Submit})
}

// RequestSubmit is the native submission trigger: it dispatches exactly one
// submit event that host listeners observe like any other submit.
func (f *Form) RequestSubmit(ctx context.Context) {
	f.mu.Lock()
	f.requested++
	f.mu.Unlock()

	f.Dispatch(ctx, &Event{Type: Submit, requested: true})
}

// Requested counts RequestSubmit calls.
func (f *Form) Requested() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requested
}
