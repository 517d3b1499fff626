package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadOps are the events on the config path that trigger a reload. Atomic
// saves (temp file renamed over the config) arrive as Create on the path.
const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is saved. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file so the watch survives
// editors and ConfigMap mounts that replace the file's inode. A zero-length
// file is skipped: it is the transient state of a truncating write. If a
// reload fails (e.g., invalid YAML), the error is logged and onChange is not
// called.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(*Config)) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger.Info("config: watching for changes", zap.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&reloadOps == 0 {
				continue
			}

			// Read once and parse the same bytes, so a truncate racing the
			// read cannot slip an empty file past the length check.
			data, err := os.ReadFile(path)
			if err != nil || len(data) == 0 {
				// Renamed away or mid-truncate; the next event carries the content.
				continue
			}

			cfg, err := parse(data)
			if err != nil {
				logger.Error("config: reload failed, keeping previous config",
					zap.String("path", path), zap.Error(err))
				continue
			}

			logger.Info("config: reloaded", zap.String("path", path))
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config: watcher error", zap.Error(err))
		}
	}
}
