package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"skyscraper-platform/internal/models"
)

const documentPattern = "**/*.json"

// globFunc matches documents below a directory
type globFunc func(fsys fs.FS, pattern string, opts ...doublestar.GlobOption) ([]string, error)

// FileStore keeps city documents as JSON files below a root directory.
// Documents are found recursively; new documents are written at the root.
type FileStore struct {
	root string
	glob globFunc
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir, glob: doublestar.Glob}
}

func (s *FileStore) Backend() string { return "file" }

// Root returns the directory documents are stored under
func (s *FileStore) Root() string { return s.root }

// index walks the root once and maps lower-cased city names to their path
// relative to the root. When a name appears twice the shallowest, then
// lexically first, path wins.
func (s *FileStore) index() (map[string]string, []string, error) {
	matches, err := s.glob(os.DirFS(s.root), documentPattern)
	if err != nil {
		return nil, nil, fmt.Errorf("error evaluating pattern %s: %w", documentPattern, err)
	}
	sort.Slice(matches, func(i, j int) bool {
		di, dj := strings.Count(matches[i], "/"), strings.Count(matches[j], "/")
		if di != dj {
			return di < dj
		}
		return matches[i] < matches[j]
	})

	paths := make(map[string]string, len(matches))
	var names []string
	for _, match := range matches {
		name := models.CityNameFromFile(match)
		key := strings.ToLower(name)
		if _, dup := paths[key]; dup {
			continue
		}
		paths[key] = match
		names = append(names, name)
	}
	sort.Strings(names)
	return paths, names, nil
}

// Snapshot indexes the root once. Loads through the snapshot read the
// indexed paths; documents saved afterwards are not part of it.
func (s *FileStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paths, names, err := s.index()
	if errors.Is(err, fs.ErrNotExist) {
		return &fileSnapshot{root: s.root}, nil
	}
	if err != nil {
		return nil, err
	}
	return &fileSnapshot{root: s.root, paths: paths, names: names}, nil
}

// List returns every city name found below the root
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Names(), nil
}

// Load reads and decodes the document of a city. Loading many documents
// should go through one Snapshot instead.
func (s *FileStore) Load(ctx context.Context, name string) (*models.CityDocument, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Load(ctx, name)
}

type fileSnapshot struct {
	root  string
	paths map[string]string
	names []string
}

func (s *fileSnapshot) Names() []string { return s.names }

func (s *fileSnapshot) Load(ctx context.Context, name string) (*models.CityDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, ok := s.paths[strings.ToLower(name)]
	if !ok {
		return nil, &NotFoundError{Resource: "city", ID: name}
	}
	return readDocument(filepath.Join(s.root, filepath.FromSlash(rel)))
}

// Save writes the document with sorted keys and four-space indentation
func (s *FileStore) Save(ctx context.Context, name string, doc *models.CityDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(s.root, models.FileName(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// HealthCheck verifies the root exists and is a directory
func (s *FileStore) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("document directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("document path %s is not a directory", s.root)
	}
	return nil
}

func readDocument(path string) (*models.CityDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc models.CityDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &doc, nil
}

// encodeDocument relies on encoding/json sorting map keys; CityDocument's
// own fields are declared in alphabetical order.
func encodeDocument(doc *models.CityDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
