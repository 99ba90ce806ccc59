package fsfs

import "strings"

const defaultLargestChanges = 64

// PackedStats counts representations and their on-disk and expanded
// byte sizes.
type PackedStats struct {
	Count        int64
	Size         int64
	ExpandedSize int64
}

func (p *PackedStats) add(rep *repStats) {
	p.Count++
	p.Size += rep.size
	p.ExpandedSize += rep.expandedSize
}

// RepAggregate summarizes one class of representations, split into
// unique (single reference) and shared buckets. ExpandedSize weighs each
// representation by its reference count: the logical size if fully
// expanded everywhere referenced. Overhead counts header bytes plus the
// ENDREP terminator.
type RepAggregate struct {
	Total      PackedStats
	Uniques    PackedStats
	Shared     PackedStats
	References int64
	// ExpandedSize is Σ ref_count × expanded_size.
	ExpandedSize int64
	Overhead     int64
}

func (a *RepAggregate) add(rep *repStats) {
	a.Total.add(rep)
	if rep.refCount > 1 {
		a.Shared.add(rep)
	} else {
		a.Uniques.add(rep)
	}
	a.References += rep.refCount
	a.ExpandedSize += rep.refCount * rep.expandedSize
	a.Overhead += rep.headerSize + int64(len("ENDREP\n"))
}

// NodeStats counts noderev records and their byte sizes.
type NodeStats struct {
	Count int64
	Size  int64
}

// ExtensionStats breaks representation and noderev sizes down by file
// extension.
type ExtensionStats struct {
	RepHistogram  Histogram
	NodeHistogram Histogram
}

// ShardFingerprint is the xxh3-128 content fingerprint of one scanned
// revision or pack file, for cheap drift detection between scans.
type ShardFingerprint struct {
	Path   string
	Size   int64
	Digest [16]byte
}

// Stats is the scan result.
type Stats struct {
	RevisionCount int64
	ChangeCount   int64
	ChangeLen     int64
	TotalSize     int64

	FileNodes NodeStats
	DirNodes  NodeStats

	TotalReps    RepAggregate
	FileReps     RepAggregate
	DirReps      RepAggregate
	FilePropReps RepAggregate
	DirPropReps  RepAggregate

	RepSize       Histogram
	NodeSize      Histogram
	AddedRepSize  Histogram
	AddedNodeSize Histogram

	UnusedRep   Histogram
	FileRep     Histogram // on-disk
	File        Histogram // expanded
	DirRep      Histogram
	Dir         Histogram
	FilePropRep Histogram
	FileProp    Histogram
	DirPropRep  Histogram
	DirProp     Histogram

	ByExtension map[string]*ExtensionStats

	LargestChanges *LargestChanges
	Fingerprints   []ShardFingerprint
}

func NewStats(largestCapacity int) *Stats {
	if largestCapacity <= 0 {
		largestCapacity = defaultLargestChanges
	}
	return &Stats{
		ByExtension:    map[string]*ExtensionStats{},
		LargestChanges: NewLargestChanges(largestCapacity),
	}
}

// extensionOf derives the histogram key from a node path: the suffix of
// the last segment after its final dot, or the "(none)" sentinel when
// the segment has no extension or starts with a dot.
func extensionOf(p string) string {
	name := p[strings.LastIndexByte(p, '/')+1:]
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return "(none)"
	}
	return name[dot:]
}

func (s *Stats) extension(p string) *ExtensionStats {
	key := extensionOf(p)
	e := s.ByExtension[key]
	if e == nil {
		e = &ExtensionStats{}
		s.ByExtension[key] = e
	}
	return e
}

// recordNode folds one parsed noderev into the size histograms.
func (s *Stats) recordNode(size int64, cpath string, isDir, plainAdded bool) {
	s.NodeSize.Add(size)
	if plainAdded {
		s.AddedNodeSize.Add(size)
	}
	if !isDir {
		s.extension(cpath).NodeHistogram.Add(size)
	}
}

// recordChange folds a first-referenced representation into the change
// tracking: ranking, size histograms and per-extension breakdown.
func (s *Stats) recordChange(rep *repStats, plainAdded bool) {
	s.LargestChanges.Add(rep.size, rep.revision, rep.path)
	s.RepSize.Add(rep.size)
	if plainAdded {
		s.AddedRepSize.Add(rep.size)
	}
	if rep.kind == fileRep {
		s.extension(rep.path).RepHistogram.Add(rep.size)
	}
}

// aggregate folds the scanned revisions into the final totals. It walks
// every revision once.
func (s *Stats) aggregate(revs []*revisionInfo) {
	for _, ri := range revs {
		if ri == nil {
			continue
		}
		s.RevisionCount++
		s.ChangeCount += ri.changeCount
		s.ChangeLen += ri.changesLen
		if ri.offset >= 0 && ri.end > ri.offset {
			s.TotalSize += ri.end - ri.offset
		}

		s.DirNodes.Count += ri.dirNoderevCount
		s.DirNodes.Size += ri.dirNoderevSize
		s.FileNodes.Count += ri.fileNoderevCount
		s.FileNodes.Size += ri.fileNoderevSize

		for _, rep := range ri.reps {
			s.aggregateRep(rep)
		}
	}
}

func (s *Stats) aggregateRep(rep *repStats) {
	s.TotalReps.add(rep)

	switch rep.kind {
	case fileRep:
		s.FileReps.add(rep)
		s.FileRep.Add(rep.size)
		s.File.Add(rep.expandedSize)
	case dirRep:
		s.DirReps.add(rep)
		s.DirRep.Add(rep.size)
		s.Dir.Add(rep.expandedSize)
	case filePropRep:
		s.FilePropReps.add(rep)
		s.FilePropRep.Add(rep.size)
		s.FileProp.Add(rep.expandedSize)
	case dirPropRep:
		s.DirPropReps.add(rep)
		s.DirPropRep.Add(rep.size)
		s.DirProp.Add(rep.expandedSize)
	default:
		s.UnusedRep.Add(rep.size)
	}
}
