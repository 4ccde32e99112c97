package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/harbackup/har/pkg/harerr"
	"github.com/vmihailenco/msgpack/v5"
)

// Manifest is an append-only arena of entries, addressed by EntryId.
// Entry 0 is always the root Directory, named "ROOT".
type Manifest struct {
	Root    EntryId
	Entries []Entry
}

// New builds an empty manifest containing only the root directory.
func New() *Manifest {
	return &Manifest{Root: RootId, Entries: []Entry{NewDirectory("ROOT")}}
}

// GetEntry returns the entry at id. Panics on an out-of-range id, since a
// valid EntryId is always produced by this package's own operations.
func (m *Manifest) GetEntry(id EntryId) *Entry {
	return &m.Entries[id]
}

// Add appends entry as a child of parent, failing with DuplicateName if
// parent already has a child by that name. Returns the new entry's id.
func (m *Manifest) Add(entry Entry, parent EntryId) (EntryId, error) {
	parentEntry := m.GetEntry(parent)
	if !parentEntry.IsDirectory() {
		return 0, harerr.New(harerr.Parse, "parent entry is not a directory")
	}
	if _, exists := parentEntry.Children()[entry.Name()]; exists {
		return 0, harerr.Newf(harerr.DuplicateName, "entry with same name exists: %s", entry.Name())
	}
	id := EntryId(len(m.Entries))
	m.Entries = append(m.Entries, entry)
	// Re-fetch: append may have reallocated the backing array.
	m.GetEntry(parent).Children()[entry.Name()] = id
	return id, nil
}

// AddFile is a convenience wrapper around Add for File entries.
func (m *Manifest) AddFile(name string, blobKey BlobKey, size uint64, parent EntryId) (EntryId, error) {
	return m.Add(NewFile(name, blobKey, size), parent)
}

// AddDir is a convenience wrapper around Add for Directory entries.
func (m *Manifest) AddDir(name string, parent EntryId) (EntryId, error) {
	return m.Add(NewDirectory(name), parent)
}

// JoinAndGetEntryId resolves relativePath (slash-separated, relative)
// against base, walking one path component at a time. An empty path
// returns base unchanged; an absolute path, a "." or ".." component, or an
// unresolvable component fails with NotFound.
func (m *Manifest) JoinAndGetEntryId(base EntryId, relativePath string) (EntryId, error) {
	if strings.HasPrefix(relativePath, "/") {
		return 0, harerr.Newf(harerr.NotFound, "not a relative path: %s", relativePath)
	}
	relativePath = strings.TrimRight(relativePath, "/")
	if relativePath == "" {
		return base, nil
	}
	current := base
	for _, part := range strings.Split(relativePath, "/") {
		if part == "" {
			continue
		}
		if part == "." || part == ".." {
			return 0, harerr.Newf(harerr.NotFound, "not a normal path component in %s", relativePath)
		}
		entry := m.GetEntry(current)
		if !entry.IsDirectory() {
			return 0, harerr.Newf(harerr.NotFound, "not found: %s (parent is not a directory)", relativePath)
		}
		next, ok := entry.Children()[part]
		if !ok {
			return 0, harerr.Newf(harerr.NotFound, "not found: %s", relativePath)
		}
		current = next
	}
	return current, nil
}

// GetMapParent reconstructs EntryId -> EntryId parent links by traversing
// the tree from the root, since parent pointers are never stored.
func (m *Manifest) GetMapParent() map[EntryId]EntryId {
	parents := make(map[EntryId]EntryId, len(m.Entries))
	stack := []EntryId{m.Root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		entry := m.GetEntry(id)
		if !entry.IsDirectory() {
			continue
		}
		for _, child := range entry.Children() {
			parents[child] = id
			stack = append(stack, child)
		}
	}
	return parents
}

// GetFullPath follows parent links from id up to the root, returning the
// slash-joined path. The root's own path is the empty string.
func (m *Manifest) GetFullPath(id EntryId, parents map[EntryId]EntryId) string {
	if id == m.Root {
		return ""
	}
	var names []string
	cur := id
	for cur != m.Root {
		names = append(names, m.GetEntry(cur).Name())
		parent, ok := parents[cur]
		if !ok {
			break
		}
		cur = parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

// PathGetter memoizes GetMapParent so repeated GetFullPath calls during a
// push/pull don't each pay the traversal cost, mirroring the original's
// get_full_path_getter.
type PathGetter struct {
	m       *Manifest
	parents map[EntryId]EntryId
}

func (m *Manifest) GetFullPathGetter() *PathGetter {
	return &PathGetter{m: m, parents: m.GetMapParent()}
}

func (g *PathGetter) Path(id EntryId) string {
	return g.m.GetFullPath(id, g.parents)
}

// GetChildFilesRecurs returns every File entry reachable from id
// (including id itself, if it is already a File).
func (m *Manifest) GetChildFilesRecurs(id EntryId) []EntryId {
	entry := m.GetEntry(id)
	if entry.IsFile() {
		return []EntryId{id}
	}
	var files []EntryId
	stack := []EntryId{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		curEntry := m.GetEntry(cur)
		if curEntry.IsFile() {
			files = append(files, cur)
			continue
		}
		for _, child := range curEntry.Children() {
			stack = append(stack, child)
		}
	}
	return files
}

// GetChildDirsRecurs returns every Directory id reachable from id,
// including id itself.
func (m *Manifest) GetChildDirsRecurs(id EntryId) []EntryId {
	var dirs []EntryId
	stack := []EntryId{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		curEntry := m.GetEntry(cur)
		if !curEntry.IsDirectory() {
			continue
		}
		dirs = append(dirs, cur)
		for _, child := range curEntry.Children() {
			stack = append(stack, child)
		}
	}
	return dirs
}

// GetFileKeyAndSize returns a File entry's blob key and size.
func (m *Manifest) GetFileKeyAndSize(id EntryId) (BlobKey, uint64, error) {
	entry := m.GetEntry(id)
	if !entry.IsFile() {
		return BlobKey{}, 0, harerr.New(harerr.Parse, "entry is not a file")
	}
	return entry.BlobKey(), entry.Size(), nil
}

// Stats summarizes a manifest's tree shape.
type Stats struct {
	NumDirs  int
	NumFiles int
}

// GetStats counts directories and files across the whole manifest.
func (m *Manifest) GetStats() Stats {
	var s Stats
	for i := range m.Entries {
		if m.Entries[i].IsDirectory() {
			s.NumDirs++
		} else {
			s.NumFiles++
		}
	}
	return s
}

// FromFS walks path recursively and builds a Manifest. Every regular
// file becomes a File entry with a zero placeholder blob key (filled in
// during push); symlinks and special files are skipped by omission since
// they satisfy neither is_dir nor is_file.
func FromFS(path string) (*Manifest, error) {
	m := New()
	if err := addDirFromFS(m, path, m.Root); err != nil {
		return nil, err
	}
	return m, nil
}

func addDirFromFS(m *Manifest, path string, parent EntryId) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return harerr.Wrap(harerr.Io, "reading directory "+path, err)
	}
	for _, de := range entries {
		childPath := filepath.Join(path, de.Name())
		info, err := os.Lstat(childPath)
		if err != nil {
			return harerr.Wrap(harerr.Io, "stat'ing "+childPath, err)
		}
		switch {
		case info.IsDir():
			id, err := m.AddDir(de.Name(), parent)
			if err != nil {
				return err
			}
			if err := addDirFromFS(m, childPath, id); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if _, err := m.AddFile(de.Name(), BlobKey{}, uint64(info.Size()), parent); err != nil {
				return err
			}
		default:
			// Symlinks and special files: neither is_dir nor is_file, skipped.
		}
	}
	return nil
}

// wireManifest is the on-the-wire shape for a Manifest, matching
// SPEC_FULL.md §6: { root: entry-id, entries: [Entry, ...] }.
type wireManifest struct {
	Root    EntryId `msgpack:"root"`
	Entries []Entry `msgpack:"entries"`
}

// ToBytes serializes the manifest as MessagePack.
func (m *Manifest) ToBytes() ([]byte, error) {
	w := wireManifest{Root: m.Root, Entries: m.Entries}
	data, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, harerr.Wrap(harerr.Parse, "encoding manifest", err)
	}
	return data, nil
}

// FromBytes deserializes a manifest previously produced by ToBytes.
func FromBytes(data []byte) (*Manifest, error) {
	var w wireManifest
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, harerr.Wrap(harerr.Parse, "decoding manifest", err)
	}
	return &Manifest{Root: w.Root, Entries: w.Entries}, nil
}
