// Package ra defines the remote-session collaborator used for
// repository-side mergeinfo queries, location history, and log
// retrieval. Network transports implement Session elsewhere.
package ra

import (
	"errors"

	"github.com/xiaozhiob/subversion/internal/mergeinfo"
)

// ErrUnsupportedFeature reports a server without merge-tracking support.
var ErrUnsupportedFeature = errors.New("server does not support merge tracking")

// Session is a positioned connection to a repository. Reparent moves the
// session root; callers borrowing a shared session must restore its
// original URL on every exit path.
type Session interface {
	URL() string
	Reparent(url string) error
	ReposRoot() (string, error)
	// GetMergeInfoCatalog queries recorded mergeinfo for the given
	// session-relative paths at a revision.
	GetMergeInfoCatalog(paths []string, rev mergeinfo.Revision, inherit mergeinfo.Inherit, includeDescendants bool) (mergeinfo.Catalog, error)
	// GetLocationSegments traces where path lived between oldest and
	// youngest, seen from peg.
	GetLocationSegments(path string, peg, youngest, oldest mergeinfo.Revision) ([]LocationSegment, error)
	// Log streams history for the targets, youngest first.
	Log(targets []string, youngest, oldest mergeinfo.Revision, discoverChangedPaths bool, receiver LogReceiver) error
}

// LocationSegment is one stretch of a node's history: the path it lived
// at over [Start, End]. An empty Path marks a gap where the node did not
// exist.
type LocationSegment struct {
	Path  string
	Start mergeinfo.Revision
	End   mergeinfo.Revision
}

// ChangedPath describes one path touched by a revision.
type ChangedPath struct {
	Action byte // 'A', 'M', 'D' or 'R'
}

// LogEntry is one revision delivered by Session.Log. NonInheritable is
// computed by consumers such as the log filter, not by the transport.
type LogEntry struct {
	Revision       mergeinfo.Revision
	ChangedPaths   map[string]ChangedPath
	NonInheritable bool
}

type LogReceiver func(*LogEntry) error

// SquelchUnsupported converts an unsupported-feature error into an empty
// result when the caller asked for that; other errors pass through.
func SquelchUnsupported(catalog mergeinfo.Catalog, err error, squelch bool) (mergeinfo.Catalog, error) {
	if err != nil && squelch && errors.Is(err, ErrUnsupportedFeature) {
		return nil, nil
	}
	return catalog, err
}

// MergeInfoFromSegments folds a location-segment history into mergeinfo:
// each segment with a path contributes one fully-inheritable range
// {max(Start-1, 0), End} on that path; gaps contribute nothing.
func MergeInfoFromSegments(segments []LocationSegment) mergeinfo.MergeInfo {
	info := mergeinfo.MergeInfo{}
	for _, seg := range segments {
		if seg.Path == "" {
			continue
		}
		p := seg.Path
		if p[0] != '/' {
			p = "/" + p
		}
		start := seg.Start - 1
		if start < 0 {
			start = 0
		}
		r := mergeinfo.RangeList{{Start: start, End: seg.End, Inheritable: true}}
		info[p] = mergeinfo.Merge(info[p], r)
	}
	return info
}
