package contentstore

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

type memoryFile struct {
	content  string
	revision string
}

/*
MemoryStore is an in-memory ContentStore for tests and local development.
Directory listings return children in insertion order. Paths listed in
FailPaths behave as unreachable subtrees; setting Unavailable makes every
call fail the way a network outage would.
*/
type MemoryStore struct {
	mu          sync.Mutex
	order       []string
	files       map[string]*memoryFile
	revisionSeq int

	FailPaths   map[string]bool
	Unavailable bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:     map[string]*memoryFile{},
		FailPaths: map[string]bool{},
	}
}

/*
Seed stores a file without any revision check. Test setup only.
*/
func (s *MemoryStore) Seed(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(path, content)
}

/*
CurrentRevision returns the stored revision marker for path, or an empty
string when the file does not exist.
*/
func (s *MemoryStore) CurrentRevision(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if file, ok := s.files[path]; ok {
		return file.revision
	}

	return ""
}

/*
Content returns the stored content for path, or an empty string.
*/
func (s *MemoryStore) Content(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if file, ok := s.files[path]; ok {
		return file.content
	}

	return ""
}

func (s *MemoryStore) put(path, content string) *memoryFile {
	s.revisionSeq++

	file, ok := s.files[path]

	if !ok {
		file = &memoryFile{}
		s.files[path] = file
		s.order = append(s.order, path)
	}

	file.content = content
	file.revision = strconv.Itoa(s.revisionSeq)
	return file
}

func (s *MemoryStore) List(_ context.Context, path string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Unavailable {
		return nil, ErrStoreUnavailable
	}

	if s.FailPaths[path] {
		return nil, ErrStoreUnavailable
	}

	prefix := strings.TrimSuffix(path, "/") + "/"
	items := []Item{}
	seenDirs := map[string]bool{}

	for _, filePath := range s.order {
		if !strings.HasPrefix(filePath, prefix) {
			continue
		}

		rest := filePath[len(prefix):]

		if slashIndex := strings.Index(rest, "/"); slashIndex >= 0 {
			dirName := rest[:slashIndex]

			if !seenDirs[dirName] {
				seenDirs[dirName] = true
				items = append(items, Item{
					Name: dirName,
					Path: prefix + dirName,
					Type: ItemTypeDir,
				})
			}

			continue
		}

		items = append(items, Item{
			Name:     rest,
			Path:     filePath,
			Type:     ItemTypeFile,
			Revision: s.files[filePath].revision,
		})
	}

	if len(items) == 0 {
		return nil, ErrNotFound
	}

	return items, nil
}

func (s *MemoryStore) FetchContent(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Unavailable {
		return "", ErrStoreUnavailable
	}

	file, ok := s.files[path]

	if !ok {
		return "", ErrNotFound
	}

	return file.content, nil
}

func (s *MemoryStore) Exists(_ context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Unavailable {
		return false, ErrStoreUnavailable
	}

	_, ok := s.files[path]
	return ok, nil
}

func (s *MemoryStore) Revision(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Unavailable {
		return "", ErrStoreUnavailable
	}

	if file, ok := s.files[path]; ok {
		return file.revision, nil
	}

	return "", nil
}

func (s *MemoryStore) Write(_ context.Context, path string, data []byte, expectedRevision, _ string) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Unavailable {
		return WriteResult{}, ErrStoreUnavailable
	}

	file, exists := s.files[path]

	if exists && file.revision != expectedRevision {
		return WriteResult{}, ErrConflict
	}

	if !exists && expectedRevision != "" {
		return WriteResult{}, ErrConflict
	}

	updated := s.put(path, string(data))
	return WriteResult{Revision: updated.revision}, nil
}

func (s *MemoryStore) Delete(_ context.Context, path, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Unavailable {
		return ErrStoreUnavailable
	}

	if _, ok := s.files[path]; !ok {
		return ErrNotFound
	}

	delete(s.files, path)

	for index, filePath := range s.order {
		if filePath == path {
			s.order = append(s.order[:index], s.order[index+1:]...)
			break
		}
	}

	return nil
}
