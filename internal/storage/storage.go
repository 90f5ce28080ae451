// Package storage mirrors run artifacts to a blob store so results survive
// the server's local disk. The interface keeps the server independent of the
// concrete backend.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

// Provider uploads artifact bytes to an object path.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// NoOpProvider discards uploads. Used when no bucket is configured.
type NoOpProvider struct{}

func (NoOpProvider) Save(context.Context, string, []byte) error { return nil }

// MirrorArtifacts uploads each artifact file under runs/<runID>/<basename>.
// Missing or unreadable files are logged and skipped; mirroring is
// best-effort and never fails the run.
func MirrorArtifacts(ctx context.Context, p Provider, logger *zap.Logger, runID string, artifacts []string) {
	for _, artifact := range artifacts {
		data, err := os.ReadFile(artifact)
		if err != nil {
			logger.Warn("artifact read failed, skipping mirror",
				zap.String("path", artifact), zap.Error(err))
			continue
		}
		object := path.Join("runs", runID, filepath.Base(artifact))
		if err := p.Save(ctx, object, data); err != nil {
			logger.Warn("artifact mirror failed",
				zap.String("object", object), zap.Error(err))
			continue
		}
		logger.Debug("artifact mirrored", zap.String("object", object))
	}
}

// objectError annotates provider failures with the object name.
func objectError(object string, err error) error {
	return fmt.Errorf("storage: save %s: %w", object, err)
}
