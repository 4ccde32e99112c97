package manifest

import (
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/harbackup/har/pkg/blobhash"
	"github.com/harbackup/har/pkg/harerr"
)

// hashCheckConcurrency bounds how many files are rehashed at once during a
// hash-checked diff, via errgroup.Group.SetLimit.
const hashCheckConcurrency = 8

// harDirName is the configuration directory excluded from diffs at the
// archive root, per SPEC_FULL.md §4.8 and the open question confirming
// this exclusion is path-literal and root-level only.
const harDirName = ".har"

// DiffResult is the outcome of comparing manifest A against manifest B,
// mirroring the original's DiffManifests.
type DiffResult struct {
	TopExtraIdsInA        []EntryId
	PathsOfTopExtraInA    []string
	ExtraFilesInA         int
	ExtraDirsInA          int
	PathsOfDifferentFiles []string

	archiveRoot string
	bucketName  string
	hashCheck   bool

	dirChildCounts map[EntryId][2]int // [files, dirs], memoized
}

// DiffOption configures Diff; WithHashCheck enables content re-hash
// verification of files that exist on both sides.
type DiffOption func(*DiffResult)

// WithHashCheck turns on re-hashing local file content against B's
// recorded blob key, using archiveRoot to locate the local files and
// bucketName as the hashing scope.
func WithHashCheck(archiveRoot, bucketName string) DiffOption {
	return func(d *DiffResult) {
		d.hashCheck = true
		d.archiveRoot = archiveRoot
		d.bucketName = bucketName
	}
}

// Diff walks a and b in parallel from their roots, producing a DiffResult
// describing what's present in a but not in b.
func Diff(a, b *Manifest, opts ...DiffOption) (*DiffResult, error) {
	d := &DiffResult{dirChildCounts: make(map[EntryId][2]int)}
	for _, opt := range opts {
		opt(d)
	}

	aParents := a.GetMapParent()

	type hashCheckJob struct {
		childIdB EntryId
		fullPath string
	}
	var hashCheckJobs []hashCheckJob

	type dirPair struct{ a, b EntryId }
	toVisit := []dirPair{{a.Root, b.Root}}

	for len(toVisit) > 0 {
		pair := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]

		dirA := a.GetEntry(pair.a)
		dirB := b.GetEntry(pair.b)

		for name, childIdA := range dirA.Children() {
			fullPath := a.GetFullPath(childIdA, aParents)
			if fullPath == harDirName {
				continue
			}

			childA := a.GetEntry(childIdA)
			childIdB, existsInB := dirB.Children()[name]

			switch {
			case childA.IsFile() && !existsInB:
				d.TopExtraIdsInA = append(d.TopExtraIdsInA, childIdA)
				d.ExtraFilesInA++

			case childA.IsFile() && existsInB && d.hashCheck:
				hashCheckJobs = append(hashCheckJobs, hashCheckJob{childIdB, fullPath})

			case childA.IsFile() && existsInB:
				// Present on both sides, hash-check disabled: not extra.

			case childA.IsDirectory() && existsInB:
				toVisit = append(toVisit, dirPair{childIdA, childIdB})

			case childA.IsDirectory() && !existsInB:
				d.TopExtraIdsInA = append(d.TopExtraIdsInA, childIdA)
				files, dirs := d.numChildInDirRecurs(a, childIdA)
				d.ExtraFilesInA += files
				d.ExtraDirsInA += dirs
			}
		}
	}

	for _, id := range d.TopExtraIdsInA {
		d.PathsOfTopExtraInA = append(d.PathsOfTopExtraInA, a.GetFullPath(id, aParents))
	}

	if len(hashCheckJobs) > 0 {
		var mu sync.Mutex
		g := new(errgroup.Group)
		g.SetLimit(hashCheckConcurrency)
		for _, job := range hashCheckJobs {
			job := job
			g.Go(func() error {
				different, err := d.checkFileHash(job.childIdB, b, job.fullPath)
				if err != nil {
					return err
				}
				if different {
					mu.Lock()
					d.PathsOfDifferentFiles = append(d.PathsOfDifferentFiles, job.fullPath)
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// checkFileHash rehashes the local file at fullPath and compares it against
// childIdB's recorded blob key in b, reporting whether they differ.
func (d *DiffResult) checkFileHash(childIdB EntryId, b *Manifest, fullPath string) (bool, error) {
	bKey, _, err := b.GetFileKeyAndSize(childIdB)
	if err != nil {
		return false, err
	}
	localPath := filepath.Join(d.archiveRoot, fullPath)
	content, err := os.ReadFile(localPath)
	if err != nil {
		return false, harerr.Wrap(harerr.Io, "reading "+localPath+" for hash check", err)
	}
	hexHash := blobhash.Name(d.bucketName, content)
	return hexHash != bKey.String(), nil
}

// numChildInDirRecurs returns the memoized (files, dirs) count of id's
// subtree in m (id itself counts as one of the dirs), keeping repeated
// diffs worst-case O(entries) instead of O(entries^2).
func (d *DiffResult) numChildInDirRecurs(m *Manifest, id EntryId) (files, dirs int) {
	if cached, ok := d.dirChildCounts[id]; ok {
		return cached[0], cached[1]
	}
	entry := m.GetEntry(id)
	if entry.IsFile() {
		d.dirChildCounts[id] = [2]int{1, 0}
		return 1, 0
	}
	dirs = 1
	for _, childId := range entry.Children() {
		childEntry := m.GetEntry(childId)
		if childEntry.IsFile() {
			files++
		} else {
			cf, cd := d.numChildInDirRecurs(m, childId)
			files += cf
			dirs += cd
		}
	}
	d.dirChildCounts[id] = [2]int{files, dirs}
	return files, dirs
}
