package preview

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/photoform/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFactory logs create/release calls in order.
type recordingFactory struct {
	n      int
	calls  []string
	failOn string
}

func (f *recordingFactory) Create(file models.File) (Handle, error) {
	if file.Name == f.failOn {
		return "", errors.New("decode failed")
	}
	f.n++
	h := Handle(fmt.Sprintf("h%d", f.n))
	f.calls = append(f.calls, "create "+string(h))
	return h, nil
}

func (f *recordingFactory) Release(h Handle) {
	f.calls = append(f.calls, "release "+string(h))
}

func files(names ...string) []models.File {
	out := make([]models.File, len(names))
	for i, n := range names {
		out[i] = models.File{Name: n, ContentType: "image/jpeg"}
	}
	return out
}

func TestRender_ReleasesPreviousBeforeCreating(t *testing.T) {
	f := &recordingFactory{}
	m := NewManager(f)

	hs, err := m.Render(files("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []Handle{"h1", "h2"}, hs)

	_, err = m.Render(files("c"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"create h1", "create h2",
		"release h1", "release h2",
		"create h3",
	}, f.calls)
	assert.Equal(t, []Handle{"h3"}, m.Handles())
}

func TestClear_ReleasesAll(t *testing.T) {
	f := &recordingFactory{}
	m := NewManager(f)

	_, err := m.Render(files("a", "b"))
	require.NoError(t, err)
	m.Clear()
	m.Clear()

	assert.Empty(t, m.Handles())
	assert.Equal(t, []string{"create h1", "create h2", "release h1", "release h2"}, f.calls)
}

func TestRender_FailureReleasesPartialSet(t *testing.T) {
	f := &recordingFactory{failOn: "bad"}
	m := NewManager(f)

	_, err := m.Render(files("old"))
	require.NoError(t, err)

	_, err = m.Render(files("a", "bad", "c"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `preview "bad"`)

	assert.Empty(t, m.Handles())
	assert.Equal(t, []string{"create h1", "release h1", "create h2", "release h2"}, f.calls)
}

func TestHandles_ReturnsCopy(t *testing.T) {
	m := NewManager(&recordingFactory{})
	_, err := m.Render(files("a"))
	require.NoError(t, err)

	hs := m.Handles()
	hs[0] = "mutated"
	assert.Equal(t, []Handle{"h1"}, m.Handles())
}

func TestMemoryFactory_TracksLiveHandles(t *testing.T) {
	f := NewMemoryFactory()
	m := NewManager(f)

	hs, err := m.Render(files("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, 3, f.Live())
	for _, h := range hs {
		assert.True(t, strings.HasPrefix(string(h), "blob:"))
	}
	assert.NotEqual(t, hs[0], hs[1])

	_, err = m.Render(files("d"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.Live(), "previous handles must not outlive their selection")

	m.Clear()
	assert.Equal(t, 0, f.Live())
}
