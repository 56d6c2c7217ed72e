// Package preview keeps one display handle per file of the current
// selection. Handles are a must-release resource: every handle from a
// previous render is released before the next render starts or on Clear.
package preview

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/photoform/internal/models"
)

// Handle is an opaque display reference, e.g. an object URL.
type Handle string

// HandleFactory creates and releases display handles.
type HandleFactory interface {
	Create(f models.File) (Handle, error)
	Release(h Handle)
}

type Manager struct {
	mu      sync.Mutex
	factory HandleFactory
	handles []Handle
}

func NewManager(factory HandleFactory) *Manager {
	return &Manager{factory: factory}
}

// Render releases the handles of the previous selection and creates one
// handle per file. If any create fails, the handles created so far are
// released and the manager ends up empty.
func (m *Manager) Render(files []models.File) ([]Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked()

	created := make([]Handle, 0, len(files))
	for _, f := range files {
		h, err := m.factory.Create(f)
		if err != nil {
			for _, c := range created {
				m.factory.Release(c)
			}
			return nil, fmt.Errorf("preview %q: %w", f.Name, err)
		}
		created = append(created, h)
	}

	m.handles = created
	return append([]Handle(nil), created...), nil
}

// Clear releases every handle.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

// Handles returns a copy of the live handles.
func (m *Manager) Handles() []Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Handle(nil), m.handles...)
}

func (m *Manager) releaseLocked() {
	for _, h := range m.handles {
		m.factory.Release(h)
	}
	m.handles = nil
}
