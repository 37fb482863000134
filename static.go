package httpserver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ServeFile reads a file from disk and returns it as a response with
// the given content type, or a 404 response if the file cannot be read.
func ServeFile(path, contentType string) *Response {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewResponse("File not found").WithStatus(404)
	}
	return NewResponse(string(data)).WithHeader("Content-Type", contentType)
}

// StaticCache serves files from one directory with an in-memory cache
// that is invalidated by filesystem notifications, so edits on disk are
// picked up without re-reading every file on every request.
type StaticCache struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	files map[string][]byte

	watcher *fsnotify.Watcher
}

// NewStaticCache creates a cache over dir and starts watching it for
// changes. Call [StaticCache.Close] when done.
func NewStaticCache(dir string, logger *slog.Logger) (*StaticCache, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static dir %q is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	c := &StaticCache{
		dir:     dir,
		logger:  logger,
		files:   map[string][]byte{},
		watcher: watcher,
	}
	go c.watch()
	return c, nil
}

// watch invalidates cache entries as their files change on disk.
// It exits when the watcher is closed.
func (c *StaticCache) watch() {
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				name := filepath.Base(event.Name)
				c.mu.Lock()
				delete(c.files, name)
				c.mu.Unlock()
				c.logger.Debug("static cache invalidated", "file", name)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("static watcher error", "error", err)
		}
	}
}

// Serve returns the named file from the cached directory with the
// given content type, or a 404 response if the file does not exist.
// Names containing path separators or parent references are rejected.
func (c *StaticCache) Serve(name, contentType string) *Response {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return NewResponse("File not found").WithStatus(404)
	}

	c.mu.RLock()
	data, ok := c.files[name]
	c.mu.RUnlock()

	if !ok {
		read, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			return NewResponse("File not found").WithStatus(404)
		}
		c.mu.Lock()
		c.files[name] = read
		c.mu.Unlock()
		data = read
	}

	return NewResponse(string(data)).WithHeader("Content-Type", contentType)
}

// Handler returns a [Handler] serving the named file on every request.
func (c *StaticCache) Handler(name, contentType string) Handler {
	return func(query Query, headers Headers, body *string) (*Response, error) {
		return c.Serve(name, contentType), nil
	}
}

// Close stops the filesystem watcher.
func (c *StaticCache) Close() error {
	return c.watcher.Close()
}
