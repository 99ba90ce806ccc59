package fsfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xiaozhiob/subversion/internal/fsfs"
)

func TestHistogramBucketing(t *testing.T) {
	var h fsfs.Histogram
	// bucket index is the smallest k with 2^k > size
	for _, tc := range []struct {
		size   int64
		bucket int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{1023, 10},
		{1024, 11},
	} {
		h.Add(tc.size)
		require.EqualValues(t, 1, h.Lines[tc.bucket].Count, "size %d", tc.size)
		require.EqualValues(t, tc.size, h.Lines[tc.bucket].Sum, "size %d", tc.size)
		h = fsfs.Histogram{}
	}
}

func TestHistogramTotals(t *testing.T) {
	var h fsfs.Histogram
	for _, size := range []int64{1, 2, 3, 100} {
		h.Add(size)
	}
	require.EqualValues(t, 4, h.Total.Count)
	require.EqualValues(t, 106, h.Total.Sum)
}

func TestLargestChangesTopN(t *testing.T) {
	l := fsfs.NewLargestChanges(3)
	for i, size := range []int64{3, 1, 4, 1, 5, 9, 2, 6} {
		l.Add(size, fsfs.Revision(i), "p")
	}

	entries := l.Entries()
	require.Len(t, entries, 3)
	require.EqualValues(t, 9, entries[0].Size)
	require.EqualValues(t, 6, entries[1].Size)
	require.EqualValues(t, 5, entries[2].Size)
}

func TestLargestChangesKeepsRevisionAndPath(t *testing.T) {
	l := fsfs.NewLargestChanges(2)
	l.Add(10, 3, "/a")
	l.Add(20, 7, "/b")
	l.Add(5, 9, "/c")

	entries := l.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, fsfs.LargestChange{Size: 20, Revision: 7, Path: "/b"}, entries[0])
	require.Equal(t, fsfs.LargestChange{Size: 10, Revision: 3, Path: "/a"}, entries[1])
}
