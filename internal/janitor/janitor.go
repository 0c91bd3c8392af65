// Package janitor guarantees removal of transient job artifacts on
// every exit path, and sweeps orphans left behind by a crash.
package janitor

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/mediagrab/mediagrab/internal/logctx"
)

// Guard owns one job's working directory and removes it exactly once.
// Release is safe to defer and to call multiple times; deletion
// failures are swallowed because cleanup is best-effort and must
// never propagate past the request boundary.
type Guard struct {
	dir  string
	once sync.Once
}

func NewGuard(dir string) *Guard {
	return &Guard{dir: dir}
}

// Release removes the guarded directory and everything in it: the
// media file, the credential snapshot, and any partial downloads.
func (g *Guard) Release(ctx context.Context) {
	g.once.Do(func() {
		logger := logctx.LoggerFromContext(ctx)

		if err := os.RemoveAll(g.dir); err != nil {
			logger.Warn("failed to remove job dir", "dir", g.dir, "err", err)

			return
		}

		logger.Debug("removed job dir", "dir", g.dir)
	})
}

// Sweep clears the entire working storage area. It runs at process
// startup to remove artifacts orphaned by a previous crash, then
// recreates the directory.
func Sweep(ctx context.Context, workDir string) error {
	logger := logctx.LoggerFromContext(ctx)

	entries, err := os.ReadDir(workDir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(workDir, 0755)
		}

		return err
	}

	for _, entry := range entries {
		path := filepath.Join(workDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("failed to sweep orphaned artifact", "path", path, "err", err)

			continue
		}

		logger.Info("swept orphaned artifact", "path", path)
	}

	return nil
}
