package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/codefionn/loopdriver/internal/logger"
)

// DirSource reads prompts from a directory. File contents are cached and
// the cache entry is dropped whenever fsnotify reports a change.
type DirSource struct {
	dir       string
	cacheMu   sync.RWMutex
	cache     map[string]string
	gen       map[string]uint64
	watcher   *fsnotify.Watcher
	stopWatch chan struct{}
	closeOnce sync.Once
}

// NewDirSource opens dir as a prompt source. A watcher failure only
// disables caching.
func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("prompts directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("prompts directory: %s is not a directory", dir)
	}

	s := &DirSource{
		dir:       dir,
		cache:     make(map[string]string),
		gen:       make(map[string]uint64),
		stopWatch: make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("prompts: failed to create file watcher: %v", err)
		return s, nil
	}
	if err := watcher.Add(dir); err != nil {
		logger.Warn("prompts: failed to watch %s: %v", dir, err)
		_ = watcher.Close()
		return s, nil
	}
	s.watcher = watcher
	go s.watchFiles()
	return s, nil
}

// Dir returns the directory backing the source.
func (s *DirSource) Dir() string { return s.dir }

// Read implements Source.
func (s *DirSource) Read(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}

	var gen uint64
	if s.watcher != nil {
		s.cacheMu.RLock()
		text, ok := s.cache[name]
		gen = s.gen[name]
		s.cacheMu.RUnlock()
		if ok {
			return text, nil
		}
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
		}
		return "", fmt.Errorf("read prompt %s: %w", name, err)
	}

	text := string(data)
	if s.watcher != nil {
		s.store(name, text, gen)
	}
	return text, nil
}

// store caches text unless name was invalidated after gen was read, in
// which case the file may have changed under the read.
func (s *DirSource) store(name, text string, gen uint64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen[name] != gen {
		return
	}
	s.cache[name] = text
}

// Invalidate drops the cached copy of name.
func (s *DirSource) Invalidate(name string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.cache, name)
	s.gen[name]++
}

// Close stops the watcher.
func (s *DirSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopWatch)
		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}

func (s *DirSource) watchFiles() {
	for {
		select {
		case <-s.stopWatch:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			logger.Debug("prompts: %s changed (%s)", name, event.Op)
			s.Invalidate(name)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("prompts: watcher error: %v", err)
		}
	}
}

// Layered reads from each source in order and returns the first hit.
// Sources after the first are consulted only for unknown names.
type Layered []Source

// Read implements Source.
func (l Layered) Read(name string) (string, error) {
	for _, src := range l {
		if src == nil {
			continue
		}
		text, err := src.Read(name)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrUnknownPrompt) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
}
