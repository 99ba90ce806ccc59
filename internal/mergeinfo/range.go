// Package mergeinfo implements recorded merge history: revision ranges,
// rangelist set operations, the path-to-rangelist mergeinfo map with its
// text property format, and path-keyed catalogs with elision.
package mergeinfo

import (
	"sort"
	"strconv"
)

// Revision is a repository revision number. Revision 0 is the empty root
// and never a change of its own.
type Revision int64

const Invalid Revision = -1

func (r Revision) IsValid() bool { return r >= 0 }

// Range is a half-open revision interval [Start, End). The single-revision
// range for revision R is {R-1, R}. Non-inheritable ranges apply to the
// path itself, not its descendants.
type Range struct {
	Start       Revision
	End         Revision
	Inheritable bool
}

// String renders the range in property syntax: "12" for a single revision,
// "5-10" for a span, with a trailing '*' when non-inheritable.
func (r Range) String() string {
	s := strconv.FormatInt(int64(r.End), 10)
	if r.End > r.Start+1 {
		s = strconv.FormatInt(int64(r.Start+1), 10) + "-" + s
	}
	if !r.Inheritable {
		s += "*"
	}
	return s
}

// RangeList is an ordered sequence of non-overlapping ranges sorted by
// Start (ties: End, then non-inheritable first).
type RangeList []Range

func (l RangeList) Clone() RangeList {
	if l == nil {
		return nil
	}
	return append(RangeList(nil), l...)
}

func (l RangeList) Sort() {
	sort.Slice(l, func(i, j int) bool {
		if l[i].Start != l[j].Start {
			return l[i].Start < l[j].Start
		}
		if l[i].End != l[j].End {
			return l[i].End < l[j].End
		}
		return !l[i].Inheritable && l[j].Inheritable
	})
}

// appendRange adds r to l, coalescing with the previous range when they
// touch and agree on inheritability.
func appendRange(l RangeList, r Range) RangeList {
	if r.Start >= r.End {
		return l
	}
	if n := len(l); n > 0 && l[n-1].End == r.Start && l[n-1].Inheritable == r.Inheritable {
		l[n-1].End = r.End
		return l
	}
	return append(l, r)
}

// Merge returns the union of a and b. Where the inputs overlap, an
// inheritable contribution wins; adjacent ranges with the same flag are
// coalesced. Inputs need not be disjoint.
func Merge(a, b RangeList) RangeList {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	type event struct {
		rev   Revision
		cover int
		inh   int
	}
	events := make([]event, 0, 2*(len(a)+len(b)))
	add := func(r Range) {
		if r.Start >= r.End {
			return
		}
		inh := 0
		if r.Inheritable {
			inh = 1
		}
		events = append(events, event{r.Start, 1, inh}, event{r.End, -1, -inh})
	}
	for _, r := range a {
		add(r)
	}
	for _, r := range b {
		add(r)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].rev < events[j].rev })

	var out RangeList
	cover, inh := 0, 0
	var segStart Revision
	segInh := false
	open := false
	for i := 0; i < len(events); {
		rev := events[i].rev
		for i < len(events) && events[i].rev == rev {
			cover += events[i].cover
			inh += events[i].inh
			i++
		}
		nowOpen := cover > 0
		nowInh := inh > 0
		switch {
		case !open && nowOpen:
			segStart, segInh, open = rev, nowInh, true
		case open && !nowOpen:
			out = appendRange(out, Range{segStart, rev, segInh})
			open = false
		case open && nowInh != segInh:
			out = appendRange(out, Range{segStart, rev, segInh})
			segStart, segInh = rev, nowInh
		}
	}
	return out
}

// Intersect returns the ranges covered by both a and b. When inheritance
// is considered, segments with unequal flags do not intersect and the
// result keeps the shared flag; when ignored, result segments come out
// inheritable.
func Intersect(a, b RangeList, considerInheritance bool) RangeList {
	var out RangeList
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		s := max(a[i].Start, b[j].Start)
		e := min(a[i].End, b[j].End)
		if s < e {
			if !considerInheritance {
				out = appendRange(out, Range{s, e, true})
			} else if a[i].Inheritable == b[j].Inheritable {
				out = appendRange(out, Range{s, e, a[i].Inheritable})
			}
		}
		if a[i].End <= b[j].End {
			i++
		} else {
			j++
		}
	}
	return out
}

// Remove returns the ranges of a not covered by b. When inheritance is
// considered, only coverage with a matching flag erases.
func Remove(a, b RangeList, considerInheritance bool) RangeList {
	if len(b) == 0 {
		return a.Clone()
	}

	var out RangeList
	j := 0
	for _, r := range a {
		cur := r
		for j < len(b) && b[j].End <= cur.Start {
			j++
		}
		for k := j; k < len(b) && b[k].Start < cur.End && cur.Start < cur.End; k++ {
			bb := b[k]
			if considerInheritance && bb.Inheritable != cur.Inheritable {
				continue
			}
			if bb.Start > cur.Start {
				out = appendRange(out, Range{cur.Start, min(bb.Start, cur.End), cur.Inheritable})
			}
			if bb.End > cur.Start {
				cur.Start = min(bb.End, cur.End)
			}
		}
		if cur.Start < cur.End {
			out = appendRange(out, cur)
		}
	}
	return out
}

// Diff reports the ranges dropped and gained going from one list to the
// other.
func Diff(from, to RangeList, considerInheritance bool) (deleted, added RangeList) {
	return Remove(from, to, considerInheritance), Remove(to, from, considerInheritance)
}

// Equal reports whether the two lists cover the same revisions, optionally
// requiring matching inheritability.
func Equal(a, b RangeList, considerInheritance bool) bool {
	deleted, added := Diff(a, b, considerInheritance)
	return len(deleted) == 0 && len(added) == 0
}

// SetInheritance returns a copy of l with every range forced to the given
// flag, coalescing newly adjacent ranges.
func (l RangeList) SetInheritance(inheritable bool) RangeList {
	var out RangeList
	for _, r := range l {
		r.Inheritable = inheritable
		out = appendRange(out, r)
	}
	return out
}

// Inheritable returns the sub-list of inheritable ranges.
func (l RangeList) Inheritable() RangeList {
	var out RangeList
	for _, r := range l {
		if r.Inheritable {
			out = appendRange(out, r)
		}
	}
	return out
}
