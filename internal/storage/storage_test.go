package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memProvider struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    map[string]bool
}

func (m *memProvider) Save(_ context.Context, objectName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[objectName] {
		return errors.New("upload refused")
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[objectName] = append([]byte(nil), data...)
	return nil
}

func TestMirrorArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "leadminer_contacts_x.jsonl")
	b := filepath.Join(dir, "leadminer_valid_domains_x.txt")
	require.NoError(t, os.WriteFile(a, []byte(`{"domain":"dc.com"}`), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("dc.com\n"), 0o644))

	p := &memProvider{}
	MirrorArtifacts(context.Background(), p, zaptest.NewLogger(t), "run-1", []string{a, b})

	assert.Equal(t, []byte(`{"domain":"dc.com"}`), p.objects["runs/run-1/leadminer_contacts_x.jsonl"])
	assert.Equal(t, []byte("dc.com\n"), p.objects["runs/run-1/leadminer_valid_domains_x.txt"])
}

func TestMirrorArtifactsSkipsMissingAndFailed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.txt")
	refused := filepath.Join(dir, "refused.txt")
	require.NoError(t, os.WriteFile(ok, []byte("fine"), 0o644))
	require.NoError(t, os.WriteFile(refused, []byte("nope"), 0o644))

	p := &memProvider{fail: map[string]bool{"runs/run-2/refused.txt": true}}
	MirrorArtifacts(context.Background(), p, zaptest.NewLogger(t), "run-2",
		[]string{filepath.Join(dir, "missing.txt"), refused, ok})

	assert.Len(t, p.objects, 1)
	assert.Contains(t, p.objects, "runs/run-2/ok.txt")
}

func TestNoOpProvider(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NoOpProvider{}.Save(context.Background(), "x", nil))
}
