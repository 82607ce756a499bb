package artifacts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to the artifact files of a DirSource. The loaded
// Set is never swapped; a change only means the process must be restarted
// to serve the new artifacts.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]string
	logger   *zap.Logger
	onChange func(name, path string)
}

// NewWatcher watches the directory of src. onChange may be nil.
func NewWatcher(src *DirSource, logger *zap.Logger, onChange func(name, path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create artifact watcher: %w", err)
	}
	if err := fw.Add(src.Dir()); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", src.Dir(), err)
	}

	files := make(map[string]string, len(Names()))
	for _, name := range Names() {
		path, err := src.Path(name)
		if err != nil {
			fw.Close()
			return nil, err
		}
		files[filepath.Clean(path)] = name
	}
	return &Watcher{watcher: fw, files: files, logger: logger, onChange: onChange}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, watched := w.files[filepath.Clean(event.Name)]
			if !watched {
				continue
			}
			w.logger.Warn("artifact changed on disk; restart to serve it",
				zap.String("artifact", name),
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)
			if w.onChange != nil {
				w.onChange(name, event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}
