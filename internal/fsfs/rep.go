package fsfs

import "sort"

// repKind classifies what a representation stores. The first noderev to
// reference a representation decides its kind; later references only
// count.
type repKind int

const (
	unusedRep repKind = iota
	dirPropRep
	filePropRep
	dirRep
	fileRep
)

// repStats is one physical representation. It is owned by the revision
// it was written in; noderevs of other revisions may reference it.
type repStats struct {
	revision     Revision
	offset       int64
	size         int64
	expandedSize int64
	headerSize   int64
	refCount     int64
	kind         repKind
	// path is the first referencing noderev's path, used for
	// largest-change ranking.
	path string
}

// revisionInfo accumulates one revision's structure during a scan.
type revisionInfo struct {
	revision Revision
	// offset and end bound the revision's bytes within its file.
	offset int64
	end    int64

	changesOff  int64
	changesLen  int64
	changeCount int64

	dirNoderevSize   int64
	dirNoderevCount  int64
	fileNoderevSize  int64
	fileNoderevCount int64

	// reps is kept sorted by offset for (revision, offset) lookup.
	reps []*repStats
}

// findOrInsertRep locates the representation at offset, creating and
// inserting a fresh record in sorted position when it is the first
// reference.
func (ri *revisionInfo) findOrInsertRep(offset int64) (*repStats, bool) {
	i := sort.Search(len(ri.reps), func(k int) bool { return ri.reps[k].offset >= offset })
	if i < len(ri.reps) && ri.reps[i].offset == offset {
		return ri.reps[i], false
	}
	rep := &repStats{revision: ri.revision, offset: offset}
	ri.reps = append(ri.reps, nil)
	copy(ri.reps[i+1:], ri.reps[i:])
	ri.reps[i] = rep
	return rep, true
}
