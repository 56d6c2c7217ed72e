package preview

import (
	"sync"

	"github.com/dmitrijs2005/photoform/internal/models"
	"github.com/google/uuid"
)

// MemoryFactory issues "blob:" handles and tracks which are still live, so a
// leaked handle shows up in Live.
type MemoryFactory struct {
	mu   sync.Mutex
	live map[Handle]string
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{live: make(map[Handle]string)}
}

func (f *MemoryFactory) Create(file models.File) (Handle, error) {
	h := Handle("blob:" + uuid.NewString())
	f.mu.Lock()
	f.live[h] = file.Name
	f.mu.Unlock()
	return h, nil
}

func (f *MemoryFactory) Release(h Handle) {
	f.mu.Lock()
	delete(f.live, h)
	f.mu.Unlock()
}

// Live is the number of handles created and not yet released.
func (f *MemoryFactory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}
