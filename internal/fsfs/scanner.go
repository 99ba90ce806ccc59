package fsfs

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/xiaozhiob/subversion/internal/util"
)

// Scanner walks every revision of a repository and produces Stats. Each
// pack shard or revision file is read within its own handle, released
// before the next unit begins.
type Scanner struct {
	repo *Repository

	// Progress, when set, is called once per scanned revision.
	Progress func(Revision)
	// LargestCapacity overrides the top-N ranking size when positive.
	LargestCapacity int
}

func NewScanner(repo *Repository) *Scanner {
	return &Scanner{repo: repo}
}

// Scan processes every revision up to the youngest. Cancellation is
// polled per revision, per pack shard and per p2l block; on error the
// partial result is discarded.
func (s *Scanner) Scan(ctx context.Context) (*Stats, error) {
	sc := &scanContext{
		repo:  s.repo,
		stats: NewStats(s.LargestCapacity),
		revs:  make([]*revisionInfo, s.repo.Youngest+1),
	}

	var files []string

	if s.repo.ShardSize > 0 {
		for base := Revision(0); base < s.repo.MinUnpacked; base += Revision(s.repo.ShardSize) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := sc.scanPackedShard(ctx, base, s.Progress); err != nil {
				return nil, err
			}
			files = append(files, s.repo.packPath(s.repo.Shard(base)))
		}
	}

	start := Revision(0)
	if s.repo.ShardSize > 0 {
		start = s.repo.MinUnpacked
	}
	for rev := start; rev <= s.repo.Youngest; rev++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sc.scanRevisionFile(ctx, rev); err != nil {
			return nil, err
		}
		files = append(files, s.repo.revPath(rev))
		if s.Progress != nil {
			s.Progress(rev)
		}
	}

	sc.stats.aggregate(sc.revs)
	if err := sc.fingerprint(files); err != nil {
		return nil, err
	}
	return sc.stats, nil
}

type scanContext struct {
	repo  *Repository
	stats *Stats
	revs  []*revisionInfo
}

func (c *scanContext) revisionInfo(rev Revision) *revisionInfo {
	if rev < 0 || int64(rev) >= int64(len(c.revs)) {
		// reference beyond the scanned window; track it standalone
		return &revisionInfo{revision: rev}
	}
	ri := c.revs[rev]
	if ri == nil {
		ri = &revisionInfo{revision: rev, offset: -1}
		c.revs[rev] = ri
	}
	return ri
}

// scanRevisionFile processes one unpacked revision.
func (c *scanContext) scanRevisionFile(ctx context.Context, rev Revision) error {
	data, err := c.repo.fsys.ReadFile(c.repo.revPath(rev))
	if err != nil {
		return fmt.Errorf("read r%d: %w", rev, err)
	}

	if c.repo.Logical {
		entries, err := c.readRevP2L(ctx, rev)
		if err != nil {
			return err
		}
		return c.scanLogical(rev, data, entries)
	}
	return c.scanPhysical(rev, data)
}

// scanPackedShard processes every revision of the shard starting at
// base from a single read of the pack file.
func (c *scanContext) scanPackedShard(ctx context.Context, base Revision, progress func(Revision)) error {
	shard := c.repo.Shard(base)
	pack, err := c.repo.fsys.ReadFile(c.repo.packPath(shard))
	if err != nil {
		return fmt.Errorf("read pack %d: %w", shard, err)
	}

	if c.repo.Logical {
		entries, err := c.readRevP2L(ctx, base)
		if err != nil {
			return err
		}
		last := Revision(-1)
		for _, e := range entries {
			if e.itemType != itemUnused && e.revision != last {
				last = e.revision
				if progress != nil {
					progress(e.revision)
				}
			}
		}
		// entries carry their owning revision; one pass covers the shard
		return c.scanLogicalEntries(pack, entries)
	}

	offsets, err := c.repo.readManifest(shard)
	if err != nil {
		return err
	}
	for i, off := range offsets {
		if err := ctx.Err(); err != nil {
			return err
		}
		rev := base + Revision(i)
		if rev >= c.repo.MinUnpacked {
			break
		}
		end := int64(len(pack))
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if off > end || end > int64(len(pack)) {
			return fmt.Errorf("pack %d revision %d span [%d,%d): %w", shard, rev, off, end, ErrCorrupt)
		}
		if err := c.scanPhysical(rev, pack[off:end]); err != nil {
			return err
		}
		if progress != nil {
			progress(rev)
		}
	}
	return nil
}

func (c *scanContext) readRevP2L(ctx context.Context, rev Revision) ([]p2lEntry, error) {
	data, err := c.repo.fsys.ReadFile(c.repo.p2lPath(rev))
	if err != nil {
		return nil, fmt.Errorf("read p2l index for r%d: %w", rev, err)
	}
	return readP2L(ctx, data, c.repo.BlockSize)
}

// scanPhysical parses one revision's bytes in physical addressing mode:
// trailer first, then the noderev tree from the root offset.
func (c *scanContext) scanPhysical(rev Revision, data []byte) error {
	rootOff, changesOff, trailerStart, err := parseTrailer(data)
	if err != nil {
		return fmt.Errorf("r%d: %w", rev, err)
	}

	ri := c.revisionInfo(rev)
	ri.offset = 0
	ri.end = int64(len(data))
	ri.changesOff = changesOff
	ri.changesLen = trailerStart - changesOff
	ri.changeCount = int64(bytes.Count(data[changesOff:trailerStart], []byte{'\n'})) / 2

	return c.walkNoderev(rev, data, rootOff, true)
}

// scanLogical parses one unpacked revision via its p2l index.
func (c *scanContext) scanLogical(rev Revision, data []byte, entries []p2lEntry) error {
	ri := c.revisionInfo(rev)
	ri.offset = 0
	ri.end = int64(len(data))
	return c.scanLogicalEntries(data, entries)
}

// scanLogicalEntries dispatches typed index items. The index enumerates
// every noderev directly, so no directory recursion is needed.
func (c *scanContext) scanLogicalEntries(data []byte, entries []p2lEntry) error {
	for _, e := range entries {
		if e.offset < 0 || e.size < 0 || e.offset+e.size > int64(len(data)) {
			return fmt.Errorf("p2l item span [%d,%d): %w", e.offset, e.offset+e.size, ErrCorrupt)
		}
		switch e.itemType {
		case itemUnused:
			c.stats.UnusedRep.Add(e.size)
		case itemNoderev:
			c.trackBounds(e)
			if err := c.walkNoderev(e.revision, data, e.offset, false); err != nil {
				return err
			}
		case itemChanges:
			c.trackBounds(e)
			ri := c.revisionInfo(e.revision)
			ri.changesOff = e.offset
			ri.changesLen = e.size
			ri.changeCount = int64(bytes.Count(data[e.offset:e.offset+e.size], []byte{'\n'})) / 2
		}
	}
	return nil
}

func (c *scanContext) trackBounds(e p2lEntry) {
	ri := c.revisionInfo(e.revision)
	if ri.offset < 0 || e.offset < ri.offset {
		ri.offset = e.offset
	}
	if e.offset+e.size > ri.end {
		ri.end = e.offset + e.size
	}
}

// walkNoderev parses the noderev at off and resolves its property and
// text representations. With recurse set it follows PLAIN directory
// entries belonging to the same revision; cross-revision entries are
// representations owned elsewhere and are not re-walked.
func (c *scanContext) walkNoderev(rev Revision, data []byte, off int64, recurse bool) error {
	nr, err := parseNoderev(data, off)
	if err != nil {
		return fmt.Errorf("r%d: %w", rev, err)
	}

	ri := c.revisionInfo(rev)
	isDir := nr.kind == "dir"
	plainAdded := nr.pred == ""
	if isDir {
		ri.dirNoderevCount++
		ri.dirNoderevSize += nr.size
	} else {
		ri.fileNoderevCount++
		ri.fileNoderevSize += nr.size
	}
	c.stats.recordNode(nr.size, nr.cpath, isDir, plainAdded)

	if nr.props != nil {
		kind := filePropRep
		if isDir {
			kind = dirPropRep
		}
		if _, _, err := c.recordRep(rev, data, *nr.props, kind, nr.cpath, plainAdded); err != nil {
			return err
		}
	}
	if nr.text == nil {
		return nil
	}

	if !isDir {
		_, _, err := c.recordRep(rev, data, *nr.text, fileRep, nr.cpath, plainAdded)
		return err
	}

	rep, first, err := c.recordRep(rev, data, *nr.text, dirRep, nr.cpath, plainAdded)
	if err != nil {
		return err
	}
	if !recurse || !first || nr.text.revision != rev {
		return nil
	}

	header, headerLen, err := readRepHeader(data, nr.text.offset)
	if err != nil {
		return fmt.Errorf("r%d dir %s: %w", rev, nr.cpath, err)
	}
	if !strings.HasPrefix(header, "PLAIN") {
		// delta-encoded directories are opaque
		return nil
	}
	start := nr.text.offset + headerLen
	end := start + rep.size
	if end > int64(len(data)) {
		return fmt.Errorf("r%d dir %s representation span: %w", rev, nr.cpath, ErrCorrupt)
	}
	dirents, err := parseDirEntries(data[start:end])
	if err != nil {
		return fmt.Errorf("r%d dir %s: %w", rev, nr.cpath, err)
	}
	for _, entry := range dirents {
		entryRev, entryOff, ok := idLocation(entry.id)
		if !ok {
			return fmt.Errorf("r%d dir entry %q id %q: %w", rev, entry.name, entry.id, ErrCorrupt)
		}
		if entryRev != rev {
			continue
		}
		if err := c.walkNoderev(rev, data, entryOff, recurse); err != nil {
			return err
		}
	}
	return nil
}

// recordRep resolves a representation reference. The first reference
// creates the record, captures its sizes and header, classifies its
// kind and feeds the change tracking; later references only increment
// the count.
func (c *scanContext) recordRep(rev Revision, data []byte, ref repRef, kind repKind, path string, plainAdded bool) (*repStats, bool, error) {
	owner := c.revisionInfo(ref.revision)
	rep, created := owner.findOrInsertRep(ref.offset)
	if !created {
		rep.refCount++
		return rep, false, nil
	}

	rep.refCount = 1
	rep.size = ref.size
	rep.expandedSize = ref.expanded
	if rep.expandedSize == 0 {
		rep.expandedSize = ref.size
	}
	rep.kind = kind
	rep.path = path
	if ref.revision == rev {
		_, headerLen, err := readRepHeader(data, ref.offset)
		if err != nil {
			return nil, false, fmt.Errorf("r%d representation at %d: %w", rev, ref.offset, err)
		}
		rep.headerSize = headerLen
	}
	c.stats.recordChange(rep, plainAdded)
	return rep, true, nil
}

// fingerprint hashes every scanned file concurrently and records the
// results in scan order.
func (c *scanContext) fingerprint(paths []string) error {
	out := make([]ShardFingerprint, len(paths))
	idx := make([]int, len(paths))
	for i := range idx {
		idx[i] = i
	}
	err := util.Parallel(idx, util.WorkerCount(), func(i int) error {
		data, err := c.repo.fsys.ReadFile(paths[i])
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", paths[i], err)
		}
		out[i] = ShardFingerprint{
			Path:   paths[i],
			Size:   int64(len(data)),
			Digest: xxh3.Hash128(data).Bytes(),
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.stats.Fingerprints = out
	return nil
}
