package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

var (
	// ErrNotFound reports a template name absent from the current snapshot.
	ErrNotFound = errors.New("template not found")

	// ErrInvalidContent reports template content that does not parse as JSON.
	ErrInvalidContent = errors.New("template content is not valid JSON")
)

// Store loads form templates from a directory of JSON documents and keeps
// them behind an atomically-swapped immutable snapshot: readers never see a
// partially-rebuilt map. A filesystem watcher reloads on any change to a
// .json file in the directory.
type Store struct {
	dir     string
	snap    atomic.Pointer[map[string]*Template]
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Open loads every template in dir and starts the reload-on-write watcher.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create templates dir: %w", err)
	}

	s := &Store{dir: dir, done: make(chan struct{})}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	s.watcher = watcher
	go s.watch()

	return s, nil
}

// Close stops the watcher.
func (s *Store) Close() error {
	close(s.done)
	return s.watcher.Close()
}

// Get returns the template with the given name from the current snapshot.
func (s *Store) Get(name string) (*Template, bool) {
	m := *s.snap.Load()
	t, ok := m[name]
	return t, ok
}

// All returns the current snapshot's templates ordered by name.
func (s *Store) All() []*Template {
	m := *s.snap.Load()
	templates := make([]*Template, 0, len(m))
	for _, t := range m {
		templates = append(templates, t)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates
}

// Reload re-scans the directory and publishes the rebuilt map in one swap.
func (s *Store) Reload() error {
	m, err := loadDir(s.dir)
	if err != nil {
		return err
	}
	s.snap.Store(&m)
	return nil
}

// RawContent returns the on-disk bytes of a template document, as shown in
// the raw JSON editor.
func (s *Store) RawContent(name string) ([]byte, error) {
	t, ok := s.Get(name)
	if !ok {
		return nil, ErrNotFound
	}
	return os.ReadFile(t.SourcePath)
}

// Save validates newContent as JSON, rewrites the named template's source
// document in place, and reloads. On parse failure the on-disk and
// in-memory state are left untouched.
func (s *Store) Save(name string, newContent []byte) error {
	t, ok := s.Get(name)
	if !ok {
		return ErrNotFound
	}

	var doc any
	if err := json.Unmarshal(newContent, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	pretty, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}

	if err := writeAtomic(t.SourcePath, pretty); err != nil {
		return err
	}
	return s.Reload()
}

// Add stores an uploaded template document under the given file name and
// reloads. The name must be a plain .json file name; the content must parse
// as JSON.
func (s *Store) Add(filename string, content []byte) error {
	if filepath.Base(filename) != filename || !strings.HasSuffix(filename, ".json") {
		return fmt.Errorf("%w: file name must be a plain .json name", ErrInvalidContent)
	}
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	if err := writeAtomic(filepath.Join(s.dir, filename), content); err != nil {
		return err
	}
	return s.Reload()
}

func (s *Store) watch() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(ev.Name) != ".json" {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				log.Printf("WARN: reload templates: %v", err)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("WARN: template watcher: %v", err)
		case <-s.done:
			return
		}
	}
}

// loadDir builds a fresh name-to-template map from every .json document in
// dir. A document that fails to parse is skipped, not fatal.
func loadDir(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	m := make(map[string]*Template)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("WARN: skipping template %s: %v", entry.Name(), err)
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".json")
		t, err := parseTemplate(content, stem)
		if err != nil {
			log.Printf("WARN: skipping template %s (invalid JSON): %v", entry.Name(), err)
			continue
		}
		t.SourcePath = path
		m[t.Name] = t
	}
	return m, nil
}

// writeAtomic writes data to a uniquely-named temp file in the target
// directory and renames it over path, so a crash mid-write never leaves a
// truncated document.
func writeAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace template: %w", err)
	}
	return nil
}
