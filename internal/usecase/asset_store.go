package usecase

import (
	"sort"

	"github.com/3-lines-studio/lander/internal/core"
)

// AssetStore is the content-addressed file set of one export. Putting the
// same bytes twice keeps a single file.
type AssetStore struct {
	files map[string][]byte
}

func NewAssetStore() *AssetStore {
	return &AssetStore{files: make(map[string][]byte)}
}

// Put stores content at meta.Path and reports whether it was new.
func (s *AssetStore) Put(meta core.AssetMeta, content []byte) bool {
	if _, ok := s.files[meta.Path]; ok {
		return false
	}
	s.files[meta.Path] = content
	return true
}

func (s *AssetStore) Has(path string) bool {
	_, ok := s.files[path]
	return ok
}

func (s *AssetStore) Len() int {
	return len(s.files)
}

func (s *AssetStore) Paths() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Entries returns every file twice: once for the portable snapshot at
// assets/... and once for the deployable site at dist/assets/....
func (s *AssetStore) Entries() []core.ArchiveEntry {
	paths := s.Paths()
	entries := make([]core.ArchiveEntry, 0, 2*len(paths))
	for _, p := range paths {
		entries = append(entries, core.ArchiveEntry{Path: p, Data: s.files[p]})
	}
	for _, p := range paths {
		entries = append(entries, core.ArchiveEntry{Path: core.DistPath(p), Data: s.files[p]})
	}
	return entries
}
