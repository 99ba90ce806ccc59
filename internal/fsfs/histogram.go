package fsfs

import "encoding/json"

// HistogramLine is one bucket: how many values fell into it and their
// byte sum.
type HistogramLine struct {
	Count int64
	Sum   int64
}

// Histogram buckets sizes logarithmically: a value lands in the
// smallest bucket k with 2^k greater than the value.
type Histogram struct {
	Total HistogramLine
	Lines [64]HistogramLine
}

func (h *Histogram) Add(size int64) {
	bucket := 0
	for bucket < 63 && int64(1)<<uint(bucket) <= size {
		bucket++
	}
	h.Total.Count++
	h.Total.Sum += size
	h.Lines[bucket].Count++
	h.Lines[bucket].Sum += size
}

// LargestChange is one entry of the top-N ranking.
type LargestChange struct {
	Size     int64
	Revision Revision
	Path     string
}

// LargestChanges keeps the N largest representations, sorted descending
// by size. Insertion scans linearly from the tail; most candidates land
// near it or miss entirely.
type LargestChanges struct {
	changes  []LargestChange
	capacity int
}

func NewLargestChanges(capacity int) *LargestChanges {
	if capacity < 1 {
		capacity = 1
	}
	return &LargestChanges{capacity: capacity}
}

func (l *LargestChanges) Add(size int64, rev Revision, path string) {
	full := len(l.changes) == l.capacity
	if full && size < l.changes[len(l.changes)-1].Size {
		return
	}

	pos := len(l.changes)
	for pos > 0 && l.changes[pos-1].Size < size {
		pos--
	}
	l.changes = append(l.changes, LargestChange{})
	copy(l.changes[pos+1:], l.changes[pos:])
	l.changes[pos] = LargestChange{Size: size, Revision: rev, Path: path}
	if len(l.changes) > l.capacity {
		l.changes = l.changes[:l.capacity]
	}
}

// Entries returns the ranking, largest first.
func (l *LargestChanges) Entries() []LargestChange {
	return l.changes
}

// MarshalJSON serializes the ranking as a plain array.
func (l *LargestChanges) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.changes)
}
