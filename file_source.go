package atomq

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// FileSource watches a dehydrated state file and emits its contents on
// every write. Pair it with a Hydrator to keep a client's cache seeded
// from a snapshot maintained outside the process.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the given file path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Watch begins watching the file and returns a channel that emits the file
// contents whenever it is written. The current contents are emitted
// immediately to support initial hydration.
func (s *FileSource) Watch(ctx context.Context) (<-chan []byte, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch file %s: %w", s.path, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer watcher.Close()

		if data, err := os.ReadFile(s.path); err == nil {
			select {
			case out <- data:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				data, err := os.ReadFile(s.path)
				if err != nil {
					continue
				}

				select {
				case out <- data:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Keep watching despite transient errors.
			}
		}
	}()

	return out, nil
}
