package client

import (
	"context"
	"strings"

	"github.com/xiaozhiob/subversion/internal/mergeinfo"
	"github.com/xiaozhiob/subversion/internal/ra"
)

// FilterOptions configures a log-entry filter.
type FilterOptions struct {
	// FindingMerged selects merged revisions; false selects eligible
	// ones.
	FindingMerged bool
	// MergeSourcePaths are "/"-absolute source prefixes the history
	// stream was requested for.
	MergeSourcePaths []string
	// TargetPath is the "/"-absolute merge target the catalog describes.
	TargetPath string
	// Catalog records what is already merged per subtree; keys are
	// rekeyed to "/"-absolute paths before indexing.
	Catalog mergeinfo.Catalog
	// RangeList is the revision coverage of interest, sorted.
	RangeList mergeinfo.RangeList
	// Receiver gets the surviving entries.
	Receiver ra.LogReceiver
}

// NewLogEntryFilter wraps opts.Receiver with the merged/eligible
// filtering pass. For every incoming revision it intersects the
// single-revision range against the target rangelist (ignoring
// inheritability) to decide relevance, re-intersects honoring it to
// compute the entry's NonInheritable flag, and, when changed paths are
// available, promotes a partially-merged revision to fully merged if
// every changed path under a merge source is inheritably covered by its
// nearest catalog ancestor. Promoted revisions are forwarded as merged
// and dropped entirely from eligible results.
func NewLogEntryFilter(ctx context.Context, opts FilterOptions) ra.LogReceiver {
	catalog := make(mergeinfo.Catalog, len(opts.Catalog))
	for k, v := range opts.Catalog {
		if !strings.HasPrefix(k, "/") {
			k = "/" + k
		}
		catalog[k] = v
	}
	index := catalog.SortedPaths()

	return func(entry *ra.LogEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rev := entry.Revision
		if rev == 0 {
			return nil
		}
		revRange := mergeinfo.RangeList{{Start: rev - 1, End: rev, Inheritable: true}}

		if len(mergeinfo.Intersect(opts.RangeList, revRange, false)) == 0 {
			return nil
		}
		entry.NonInheritable = len(mergeinfo.Intersect(opts.RangeList, revRange, true)) == 0

		if (entry.NonInheritable || !opts.FindingMerged) && len(entry.ChangedPaths) > 0 {
			examined := 0
			allCovered := true
			for changed, cp := range entry.ChangedPaths {
				source := longestSourcePrefix(opts.MergeSourcePaths, changed)
				if source == "" {
					continue
				}
				if changed == source && cp.Action != 'M' {
					// the source branch itself being added or deleted
					continue
				}
				examined++

				affected := opts.TargetPath + strings.TrimPrefix(changed, source)
				if !coveredInheritably(catalog, index, affected, revRange) {
					allCovered = false
					break
				}
			}
			if examined > 0 && allCovered {
				if !opts.FindingMerged {
					// effectively merged, so not eligible
					return nil
				}
				entry.NonInheritable = false
			}
		}

		return opts.Receiver(entry)
	}
}

func longestSourcePrefix(sources []string, p string) string {
	best := ""
	for _, s := range sources {
		if mergeinfo.IsAncestor(s, p) && len(s) > len(best) {
			best = s
		}
	}
	return best
}

// coveredInheritably reports whether the revision range is inheritably
// recorded at the nearest catalog entry covering the affected target
// path. Any of the entry's rangelists counts, whatever source it names;
// non-inheritable coverage never does.
func coveredInheritably(catalog mergeinfo.Catalog, index []string, affected string, revRange mergeinfo.RangeList) bool {
	ancestor, ok := mergeinfo.NearestAncestorIn(index, affected)
	if !ok {
		return false
	}
	for _, rl := range catalog[ancestor] {
		if len(mergeinfo.Intersect(rl, revRange, true)) > 0 {
			return true
		}
	}
	return false
}
