package fsfs

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/go-ini/ini"

	"github.com/xiaozhiob/subversion/internal/fs"
)

const defaultBlockSize = 64 * 1024

// Repository is an FSFS repository opened for read-only scanning.
type Repository struct {
	fsys fs.FS
	root string

	Format int
	// ShardSize is the number of revisions per shard; 0 means linear
	// layout.
	ShardSize int64
	// Logical selects addressing via p2l indexes instead of physical
	// offsets.
	Logical  bool
	Youngest Revision
	// MinUnpacked is the first revision not living in a pack shard.
	MinUnpacked Revision
	// BlockSize is the index read granularity from fsfs.conf, in bytes.
	BlockSize int64
}

// Open reads the control files under root/db and returns the repository
// handle. db/fsfs.conf is optional.
func Open(fsys fs.FS, root string) (*Repository, error) {
	r := &Repository{fsys: fsys, root: root, BlockSize: defaultBlockSize}

	data, err := fsys.ReadFile(path.Join(root, "db/format"))
	if err != nil {
		return nil, fmt.Errorf("read db/format: %w", err)
	}
	if err := r.parseFormat(string(data)); err != nil {
		return nil, err
	}

	if r.Youngest, err = r.readRevnumFile("db/current"); err != nil {
		return nil, err
	}
	if r.ShardSize > 0 {
		if r.MinUnpacked, err = r.readRevnumFile("db/min-unpacked-rev"); err != nil {
			return nil, err
		}
	}

	confPath := path.Join(root, "db/fsfs.conf")
	if fsys.Exists(confPath) {
		raw, err := fsys.ReadFile(confPath)
		if err != nil {
			return nil, fmt.Errorf("read db/fsfs.conf: %w", err)
		}
		cfg, err := ini.Load(raw)
		if err != nil {
			return nil, fmt.Errorf("parse db/fsfs.conf: %w", err)
		}
		r.BlockSize = cfg.Section("io").Key("block-size").MustInt64(64) * 1024
	}

	return r, nil
}

func (r *Repository) parseFormat(text string) error {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	n, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return fmt.Errorf("db/format number %q: %w", lines[0], ErrCorrupt)
	}
	r.Format = n

	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "layout":
			switch {
			case len(fields) == 2 && fields[1] == "linear":
				r.ShardSize = 0
			case len(fields) == 3 && fields[1] == "sharded":
				size, err := strconv.ParseInt(fields[2], 10, 64)
				if err != nil || size <= 0 {
					return fmt.Errorf("db/format layout %q: %w", line, ErrCorrupt)
				}
				r.ShardSize = size
			default:
				return fmt.Errorf("db/format layout %q: %w", line, ErrCorrupt)
			}
		case "addressing":
			if len(fields) != 2 {
				return fmt.Errorf("db/format addressing %q: %w", line, ErrCorrupt)
			}
			switch fields[1] {
			case "logical":
				r.Logical = true
			case "physical":
				r.Logical = false
			default:
				return fmt.Errorf("db/format addressing %q: %w", line, ErrCorrupt)
			}
		}
	}
	return nil
}

func (r *Repository) readRevnumFile(rel string) (Revision, error) {
	data, err := r.fsys.ReadFile(path.Join(r.root, rel))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rel, err)
	}
	text := strings.TrimSpace(string(data))
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s %q: %w", rel, text, ErrCorrupt)
	}
	return Revision(v), nil
}

// Packed reports whether rev lives inside a pack shard.
func (r *Repository) Packed(rev Revision) bool {
	return r.ShardSize > 0 && rev < r.MinUnpacked
}

// Shard returns the shard number holding rev.
func (r *Repository) Shard(rev Revision) int64 {
	if r.ShardSize == 0 {
		return 0
	}
	return int64(rev) / r.ShardSize
}

func (r *Repository) revPath(rev Revision) string {
	revName := strconv.FormatInt(int64(rev), 10)
	if r.ShardSize == 0 {
		return path.Join(r.root, "db/revs", revName)
	}
	return path.Join(r.root, "db/revs", strconv.FormatInt(r.Shard(rev), 10), revName)
}

func (r *Repository) packDir(shard int64) string {
	return path.Join(r.root, "db/revs", strconv.FormatInt(shard, 10)+".pack")
}

func (r *Repository) packPath(shard int64) string {
	return path.Join(r.packDir(shard), "pack")
}

func (r *Repository) manifestPath(shard int64) string {
	return path.Join(r.packDir(shard), "manifest")
}

func (r *Repository) p2lPath(rev Revision) string {
	if r.Packed(rev) {
		return path.Join(r.packDir(r.Shard(rev)), "pack.p2l")
	}
	return r.revPath(rev) + ".p2l"
}

// readManifest returns the ascending revision base offsets of a pack.
func (r *Repository) readManifest(shard int64) ([]int64, error) {
	data, err := r.fsys.ReadFile(r.manifestPath(shard))
	if err != nil {
		return nil, fmt.Errorf("read pack manifest %d: %w", shard, err)
	}
	var offsets []int64
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		off, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil || off < 0 {
			return nil, fmt.Errorf("pack manifest %d entry %q: %w", shard, line, ErrCorrupt)
		}
		if n := len(offsets); n > 0 && offsets[n-1] > off {
			return nil, fmt.Errorf("pack manifest %d not ascending: %w", shard, ErrCorrupt)
		}
		offsets = append(offsets, off)
	}
	return offsets, nil
}
