package explorer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// EvidenceItem identifies one piece of evidence within a source.
type EvidenceItem struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Source is the evidence corpus one explorer run browses. Implementations
// wrap whatever actually holds the evidence (scraped archives, local files);
// the explorer only lists, reads, and searches.
type Source interface {
	Name() string
	List(ctx context.Context) ([]EvidenceItem, error)
	Read(ctx context.Context, id string) (string, error)
	Search(ctx context.Context, query string) ([]EvidenceItem, error)
}

// MemorySource is an in-memory Source, used by tests and small corpora.
type MemorySource struct {
	name  string
	order []string
	items map[string]memoryItem
}

type memoryItem struct {
	title string
	body  string
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource(name string) *MemorySource {
	return &MemorySource{name: name, items: make(map[string]memoryItem)}
}

// Add inserts one evidence item.
func (s *MemorySource) Add(id, title, body string) *MemorySource {
	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	s.items[id] = memoryItem{title: title, body: body}
	return s
}

func (s *MemorySource) Name() string { return s.name }

func (s *MemorySource) List(context.Context) ([]EvidenceItem, error) {
	out := make([]EvidenceItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, EvidenceItem{ID: id, Title: s.items[id].title})
	}
	return out, nil
}

func (s *MemorySource) Read(_ context.Context, id string) (string, error) {
	item, ok := s.items[id]
	if !ok {
		return "", errors.Errorf("no evidence item %q in source %s", id, s.name)
	}
	return item.body, nil
}

func (s *MemorySource) Search(_ context.Context, query string) ([]EvidenceItem, error) {
	q := strings.ToLower(query)
	var out []EvidenceItem
	for _, id := range s.order {
		item := s.items[id]
		if strings.Contains(strings.ToLower(item.title), q) || strings.Contains(strings.ToLower(item.body), q) {
			out = append(out, EvidenceItem{ID: id, Title: item.title})
		}
	}
	return out, nil
}

// FileSource exposes the regular files of a directory as evidence items,
// keyed by file name.
type FileSource struct {
	name string
	dir  string
}

// NewFileSource creates a source over the given directory.
func NewFileSource(name, dir string) *FileSource {
	return &FileSource{name: name, dir: dir}
}

func (s *FileSource) Name() string { return s.name }

func (s *FileSource) List(context.Context) ([]EvidenceItem, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing evidence dir %s", s.dir)
	}
	var out []EvidenceItem
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, EvidenceItem{ID: e.Name(), Title: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FileSource) Read(_ context.Context, id string) (string, error) {
	// Evidence ids are bare file names; refuse anything that escapes the dir.
	if id != filepath.Base(id) {
		return "", errors.Errorf("invalid evidence id %q", id)
	}
	b, err := os.ReadFile(filepath.Join(s.dir, id))
	if err != nil {
		return "", errors.Wrapf(err, "reading evidence %s", id)
	}
	return string(b), nil
}

func (s *FileSource) Search(ctx context.Context, query string) ([]EvidenceItem, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []EvidenceItem
	for _, item := range items {
		body, err := s.Read(ctx, item.ID)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(item.ID), q) || strings.Contains(strings.ToLower(body), q) {
			out = append(out, item)
		}
	}
	return out, nil
}
