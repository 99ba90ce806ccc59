package mergeinfo

import (
	"path"

	"github.com/xiaozhiob/subversion/internal/util"
)

// MergeInfo maps an absolute source path (leading "/") to the ranges
// merged from it. An empty non-nil map means "explicitly no merges" and
// overrides inheritance; a nil map means no mergeinfo is recorded at all.
type MergeInfo map[string]RangeList

func (m MergeInfo) Clone() MergeInfo {
	if m == nil {
		return nil
	}
	out := make(MergeInfo, len(m))
	for p, rl := range m {
		out[p] = rl.Clone()
	}
	return out
}

// Merge returns the union of m and other per source path.
func (m MergeInfo) Merge(other MergeInfo) MergeInfo {
	if len(other) == 0 {
		return m.Clone()
	}
	out := m.Clone()
	if out == nil {
		out = MergeInfo{}
	}
	for p, rl := range other {
		out[p] = Merge(out[p], rl)
	}
	return out
}

// Intersect keeps, per common source path, the ranges present in both.
// Paths left without ranges are dropped.
func (m MergeInfo) Intersect(other MergeInfo, considerInheritance bool) MergeInfo {
	out := MergeInfo{}
	for p, rl := range m {
		orl, ok := other[p]
		if !ok {
			continue
		}
		if got := Intersect(rl, orl, considerInheritance); len(got) > 0 {
			out[p] = got
		}
	}
	return out
}

// Remove subtracts other's coverage from m per source path.
func (m MergeInfo) Remove(other MergeInfo, considerInheritance bool) MergeInfo {
	out := MergeInfo{}
	for p, rl := range m {
		if got := Remove(rl, other[p], considerInheritance); len(got) > 0 {
			out[p] = got
		}
	}
	return out
}

// Equal reports whether both maps record the same paths with the same
// revision coverage.
func (m MergeInfo) Equal(other MergeInfo, considerInheritance bool) bool {
	if len(m) != len(other) {
		return false
	}
	for p, rl := range m {
		orl, ok := other[p]
		if !ok || !Equal(rl, orl, considerInheritance) {
			return false
		}
	}
	return true
}

// AddSuffix appends rel to every source path. Used when mergeinfo
// inherited from an ancestor is rebased onto a descendant.
func (m MergeInfo) AddSuffix(rel string) MergeInfo {
	if rel == "" {
		return m.Clone()
	}
	out := make(MergeInfo, len(m))
	for p, rl := range m {
		out[path.Join(p, rel)] = rl.Clone()
	}
	return out
}

// Inheritable drops non-inheritable ranges, and with them any path left
// without ranges.
func (m MergeInfo) Inheritable() MergeInfo {
	out := MergeInfo{}
	for p, rl := range m {
		if inh := rl.Inheritable(); len(inh) > 0 {
			out[p] = inh
		}
	}
	return out
}

// SetInheritance forces every range in every path to the given flag.
func (m MergeInfo) SetInheritance(inheritable bool) MergeInfo {
	out := make(MergeInfo, len(m))
	for p, rl := range m {
		out[p] = rl.SetInheritance(inheritable)
	}
	return out
}

// Paths returns the source paths in sorted order.
func (m MergeInfo) Paths() []string {
	return util.SortedKeys(m)
}
