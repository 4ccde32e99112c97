package manifest

import (
	"path/filepath"
	"strings"

	"github.com/harbackup/har/pkg/harerr"
)

// AddNewEntries merges every top-extra entry from diff (computed as
// Diff(src, dest)) into dest, using blobKeys (path -> hex blob key) to
// resolve the blob key of each newly pushed file. It mirrors the
// original's add_new_entries_to_manifest two-step algorithm: first graft
// each top-extra entry onto its resolved parent in dest, then drain a
// work stack copying every descendant of any grafted directory.
func AddNewEntries(src, dest *Manifest, diff *DiffResult, blobKeys map[string]string) error {
	srcParents := src.GetMapParent()

	type pair struct{ srcId, destId EntryId }
	var workStack []pair

	for _, topId := range diff.TopExtraIdsInA {
		fullPath := src.GetFullPath(topId, srcParents)
		parentPath := parentOf(fullPath)
		destParent, err := dest.JoinAndGetEntryId(dest.Root, parentPath)
		if err != nil {
			return harerr.Wrapf(harerr.NotFound, err, "resolving destination parent for %s", fullPath)
		}

		entry := src.GetEntry(topId)
		switch {
		case entry.IsFile():
			keyHex, ok := blobKeys[fullPath]
			if !ok {
				return harerr.Newf(harerr.NotFound, "no pushed blob key recorded for %s", fullPath)
			}
			key, err := ParseBlobKey(keyHex)
			if err != nil {
				return err
			}
			if _, err := dest.AddFile(entry.Name(), key, entry.Size(), destParent); err != nil {
				return err
			}
		case entry.IsDirectory():
			newDestId, err := dest.AddDir(entry.Name(), destParent)
			if err != nil {
				return err
			}
			workStack = append(workStack, pair{topId, newDestId})
		}
	}

	for len(workStack) > 0 {
		p := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		srcDir := src.GetEntry(p.srcId)
		for name, childId := range srcDir.Children() {
			childEntry := src.GetEntry(childId)
			if childEntry.IsFile() {
				fullPath := src.GetFullPath(childId, srcParents)
				keyHex, ok := blobKeys[fullPath]
				if !ok {
					return harerr.Newf(harerr.NotFound, "no pushed blob key recorded for %s", fullPath)
				}
				key, err := ParseBlobKey(keyHex)
				if err != nil {
					return err
				}
				if _, err := dest.AddFile(name, key, childEntry.Size(), p.destId); err != nil {
					return err
				}
			} else {
				newChildDestId, err := dest.AddDir(name, p.destId)
				if err != nil {
					return err
				}
				workStack = append(workStack, pair{childId, newChildDestId})
			}
		}
	}

	return nil
}

func parentOf(slashPath string) string {
	if slashPath == "" {
		return ""
	}
	dir := filepath.ToSlash(filepath.Dir(slashPath))
	if dir == "." {
		return ""
	}
	return strings.TrimPrefix(dir, "/")
}
