// Package manifest is a Go port of the original's manifest.rs: an
// arena-based directory/file tree with insertion, path resolution,
// recursive enumeration, content diffing, entry-merge and a MessagePack
// serialization, matching SPEC_FULL.md §4.8 and §8's testable properties.
package manifest

import (
	"encoding/hex"

	"github.com/harbackup/har/pkg/harerr"
	"github.com/vmihailenco/msgpack/v5"
)

// EntryId is a dense index into a Manifest's entry arena. Id 0 is always
// the root directory.
type EntryId uint64

// RootId is the manifest's permanent root entry id.
const RootId EntryId = 0

// BlobKey is the 32-byte digest recorded for a File entry. The zero value
// is the "not yet uploaded" placeholder from_fs leaves behind.
type BlobKey [32]byte

// ParseBlobKey decodes a 64-char lowercase hex string into a BlobKey.
func ParseBlobKey(s string) (BlobKey, error) {
	var key BlobKey
	raw, err := hex.DecodeString(s)
	if err != nil {
		return key, harerr.Wrap(harerr.Parse, "decoding blob key hex", err)
	}
	if len(raw) != len(key) {
		return key, harerr.Newf(harerr.Parse, "blob key has wrong length: %d", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

func (k BlobKey) String() string {
	return hex.EncodeToString(k[:])
}

func (k BlobKey) IsZero() bool {
	return k == BlobKey{}
}

// entryKind discriminates the Entry tagged union on the wire and in
// memory.
type entryKind uint8

const (
	kindDirectory entryKind = iota
	kindFile
)

// Entry is either a Directory or a File; Kind selects which fields apply.
// A single concrete type (rather than an interface) keeps the arena a
// plain slice, matching the original's Vec<Entry>.
type Entry struct {
	kind entryKind
	name string

	// Directory fields.
	children map[string]EntryId

	// File fields.
	blobKey BlobKey
	size    uint64
}

// NewDirectory constructs an empty Directory entry.
func NewDirectory(name string) Entry {
	return Entry{kind: kindDirectory, name: name, children: make(map[string]EntryId)}
}

// NewFile constructs a File entry.
func NewFile(name string, blobKey BlobKey, size uint64) Entry {
	return Entry{kind: kindFile, name: name, blobKey: blobKey, size: size}
}

func (e *Entry) Name() string { return e.name }

func (e *Entry) IsDirectory() bool { return e.kind == kindDirectory }
func (e *Entry) IsFile() bool      { return e.kind == kindFile }

// Children returns the directory's name->id map. Panics if called on a
// File entry, mirroring the original's try_directory_ref unwrap
// discipline at call sites that have already checked IsDirectory.
func (e *Entry) Children() map[string]EntryId {
	if e.kind != kindDirectory {
		panic("manifest: Children called on a File entry")
	}
	return e.children
}

func (e *Entry) BlobKey() BlobKey {
	if e.kind != kindFile {
		panic("manifest: BlobKey called on a Directory entry")
	}
	return e.blobKey
}

func (e *Entry) Size() uint64 {
	if e.kind != kindFile {
		panic("manifest: Size called on a Directory entry")
	}
	return e.size
}

func (e *Entry) SetBlobKey(key BlobKey) {
	if e.kind != kindFile {
		panic("manifest: SetBlobKey called on a Directory entry")
	}
	e.blobKey = key
}

// wireEntry is the MessagePack-on-the-wire shape: a tagged union encoded
// as a map, matching SPEC_FULL.md §6's "Entry is a tagged union" layout.
type wireEntry struct {
	Type     string             `msgpack:"type"`
	Name     string             `msgpack:"name"`
	Children map[string]EntryId `msgpack:"entries,omitempty"`
	BlobKey  []byte             `msgpack:"blob_key,omitempty"`
	Size     uint64             `msgpack:"size,omitempty"`
}

var _ msgpack.CustomEncoder = (*Entry)(nil)
var _ msgpack.CustomDecoder = (*Entry)(nil)

// EncodeMsgpack implements msgpack.CustomEncoder for the Entry tagged
// union.
func (e *Entry) EncodeMsgpack(enc *msgpack.Encoder) error {
	w := wireEntry{Name: e.name}
	switch e.kind {
	case kindDirectory:
		w.Type = "directory"
		w.Children = e.children
	case kindFile:
		w.Type = "file"
		key := e.blobKey
		w.BlobKey = key[:]
		w.Size = e.size
	}
	return enc.Encode(w)
}

// DecodeMsgpack implements msgpack.CustomDecoder for the Entry tagged
// union.
func (e *Entry) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w wireEntry
	if err := dec.Decode(&w); err != nil {
		return err
	}
	e.name = w.Name
	switch w.Type {
	case "directory":
		e.kind = kindDirectory
		if w.Children == nil {
			w.Children = make(map[string]EntryId)
		}
		e.children = w.Children
	case "file":
		e.kind = kindFile
		if len(w.BlobKey) != len(e.blobKey) {
			return harerr.Newf(harerr.Parse, "file entry %q has blob key of length %d", w.Name, len(w.BlobKey))
		}
		copy(e.blobKey[:], w.BlobKey)
		e.size = w.Size
	default:
		return harerr.Newf(harerr.Parse, "unknown entry type %q", w.Type)
	}
	return nil
}
