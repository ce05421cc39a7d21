// Package watch streams the contents of a diagram file as it changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/mermaidviz/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// File watches a single file. The parent directory is observed so editors
// that save through rename-and-replace are still picked up.
type File struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// Option configures the File watcher.
type Option func(*File)

func WithLogger(logger *slog.Logger) Option {
	return func(f *File) { f.logger = logger }
}

// New creates a watcher for path.
func New(path string, opts ...Option) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	f := &File{path: abs, debounce: 50 * time.Millisecond, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Path returns the absolute path being watched.
func (f *File) Path() string {
	return f.path
}

// Read returns the current file contents.
func (f *File) Read() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Watch emits the file contents after every change that alters them.
// The channel is closed when ctx is done.
func (f *File) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}

	last, _ := f.Read()
	out := make(chan string, 1)

	go func() {
		defer close(out)
		defer w.Close()

		// Saves often arrive as truncate+write pairs; settle before reading.
		settle := time.NewTimer(time.Hour)
		settle.Stop()
		defer settle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != f.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				settle.Reset(f.debounce)
			case <-settle.C:
				content, err := f.Read()
				if err != nil {
					// Mid-rename; the following Create will carry the new contents.
					f.logger.Debug("Watched file not readable yet", "path", f.path, "err", err)
					continue
				}
				if content == last {
					continue
				}
				last = content
				f.logger.Info("Watched file changed", "path", f.path, "size", len(content))
				select {
				case out <- content:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.logger.Warn("Watcher error", "path", f.path, "err", err)
			}
		}
	}()

	return out, nil
}
