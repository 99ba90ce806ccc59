// Package client ties the working-copy and remote-session layers
// together: it decides where mergeinfo comes from, performs target
// elision, and filters revision logs against recorded merge history.
package client

import (
	"fmt"
	"path"

	"github.com/xiaozhiob/subversion/internal/mergeinfo"
	"github.com/xiaozhiob/subversion/internal/ra"
	"github.com/xiaozhiob/subversion/internal/wc"
)

// Client bundles the collaborators the mergeinfo operations need. Open
// establishes a new repository session when none is supplied.
type Client struct {
	WC       wc.Accessor
	Props    wc.PropertyStore
	Notifier wc.Notifier
	Open     func(url string) (ra.Session, error)
}

// CatalogOptions steers MergeInfoCatalog.
type CatalogOptions struct {
	Inherit            mergeinfo.Inherit
	IncludeDescendants bool
	// ReposOnly skips the working copy entirely.
	ReposOnly bool
	// SquelchUnsupported turns a merge-tracking-incapable server into an
	// empty result instead of an error.
	SquelchUnsupported bool
}

// ReposMergeInfoCatalog queries recorded mergeinfo from the repository,
// optionally squelching servers without merge tracking.
func (c *Client) ReposMergeInfoCatalog(session ra.Session, paths []string, rev mergeinfo.Revision, inherit mergeinfo.Inherit, squelch, includeDescendants bool) (mergeinfo.Catalog, error) {
	catalog, err := session.GetMergeInfoCatalog(paths, rev, inherit, includeDescendants)
	return ra.SquelchUnsupported(catalog, err, squelch)
}

// MergeInfoCatalog returns the mergeinfo catalog in effect for a
// working-copy target, keyed on repository relpaths. Working-copy data is
// preferred; the repository is consulted only when the working copy
// yields nothing, the target is not a local addition, and the pristine
// properties did not carry mergeinfo (a local deletion of pristine
// mergeinfo is deliberate and suppresses the fallback).
//
// A supplied session is borrowed: it is reparented to the target URL and
// restored to its original URL on every exit path. A session opened here
// is used and discarded.
func (c *Client) MergeInfoCatalog(session ra.Session, targetPath string, opts CatalogOptions) (catalog mergeinfo.Catalog, inherited bool, err error) {
	if !opts.ReposOnly {
		catalog, inherited, err = wc.GetMergeInfoCatalog(c.WC, c.Props, targetPath, "", opts.Inherit, opts.IncludeDescendants)
		if err != nil {
			return nil, false, err
		}
		if len(catalog) > 0 {
			return catalog, inherited, nil
		}
	}

	added, err := c.WC.IsAdded(targetPath)
	if err != nil {
		return nil, false, err
	}
	if added {
		return nil, false, nil
	}
	pristine, err := c.WC.PristineProps(targetPath)
	if err != nil {
		return nil, false, err
	}
	if _, had := pristine[wc.PropMergeInfo]; had {
		// pristine mergeinfo was deleted locally; honor the deletion
		return nil, false, nil
	}

	rel, err := c.WC.RelPath(targetPath)
	if err != nil {
		return nil, false, err
	}
	root, err := c.WC.ReposRoot(targetPath)
	if err != nil {
		return nil, false, err
	}
	base, err := c.WC.BaseRevision(targetPath)
	if err != nil {
		return nil, false, err
	}
	targetURL := root
	if rel != "" {
		targetURL = root + "/" + rel
	}

	sess := session
	if sess == nil {
		if c.Open == nil {
			return nil, false, fmt.Errorf("mergeinfo catalog for %s: no session and no opener", targetPath)
		}
		if sess, err = c.Open(targetURL); err != nil {
			return nil, false, fmt.Errorf("open session %s: %w", targetURL, err)
		}
	} else if prev := sess.URL(); prev != targetURL {
		if err = sess.Reparent(targetURL); err != nil {
			return nil, false, fmt.Errorf("reparent session to %s: %w", targetURL, err)
		}
		defer func() {
			if rerr := sess.Reparent(prev); rerr != nil && err == nil {
				catalog, inherited = nil, false
				err = fmt.Errorf("restore session to %s: %w", prev, rerr)
			}
		}()
	}

	repoCatalog, err := sess.GetMergeInfoCatalog([]string{""}, base, opts.Inherit, opts.IncludeDescendants)
	repoCatalog, err = ra.SquelchUnsupported(repoCatalog, err, opts.SquelchUnsupported)
	if err != nil {
		return nil, false, fmt.Errorf("repository mergeinfo for %s: %w", targetURL, err)
	}
	if len(repoCatalog) == 0 {
		return nil, false, nil
	}

	// rebase session-relative keys onto the repository root
	catalog = make(mergeinfo.Catalog, len(repoCatalog))
	for k, v := range repoCatalog {
		catalog[path.Join(rel, k)] = v
	}
	return catalog, true, nil
}

// HistoryAsMergeInfo expresses a node's location history as mergeinfo.
func (c *Client) HistoryAsMergeInfo(session ra.Session, p string, peg, youngest, oldest mergeinfo.Revision) (mergeinfo.MergeInfo, error) {
	segments, err := session.GetLocationSegments(p, peg, youngest, oldest)
	if err != nil {
		return nil, fmt.Errorf("location segments of %s: %w", p, err)
	}
	return ra.MergeInfoFromSegments(segments), nil
}

// ElideMergeInfo removes the target's explicit mergeinfo when it is fully
// implied by the nearest ancestor, looking in the working copy first and
// in the repository when no limit path restricts the walk. It reports
// whether the target was elided.
func (c *Client) ElideMergeInfo(session ra.Session, targetPath, limitPath string) (bool, error) {
	if limitPath != "" && targetPath == limitPath {
		return false, nil
	}

	target, inherited, _, err := wc.GetMergeInfo(c.WC, c.Props, targetPath, limitPath, mergeinfo.InheritInherited)
	if err != nil {
		return false, err
	}
	// only explicit mergeinfo can elide
	if inherited || target == nil {
		return false, nil
	}

	ancestor, _, _, err := wc.GetMergeInfo(c.WC, c.Props, targetPath, limitPath, mergeinfo.InheritNearestAncestor)
	if err != nil {
		return false, err
	}
	if ancestor == nil && limitPath == "" {
		rel, err := c.WC.RelPath(targetPath)
		if err != nil {
			return false, err
		}
		catalog, _, err := c.MergeInfoCatalog(session, targetPath, CatalogOptions{
			Inherit:            mergeinfo.InheritNearestAncestor,
			ReposOnly:          true,
			SquelchUnsupported: true,
		})
		if err != nil {
			return false, err
		}
		ancestor = catalog[rel]
	}

	// ancestor mergeinfo is already rebased onto the target, so no
	// suffix applies here
	return wc.ApplyElision(c.Props, c.Notifier, ancestor, target, targetPath, "")
}

// SuggestMergeSources lists candidate merge source URLs for a target:
// its copyfrom source first, then every source recorded in its
// mergeinfo.
func (c *Client) SuggestMergeSources(session ra.Session, targetPath string) ([]string, error) {
	var out []string
	seen := map[string]bool{}

	copyURL, _, err := c.WC.CopyFrom(targetPath)
	if err != nil {
		return nil, err
	}
	if copyURL != "" {
		out = append(out, copyURL)
		seen[copyURL] = true
	}

	catalog, _, err := c.MergeInfoCatalog(session, targetPath, CatalogOptions{
		Inherit:            mergeinfo.InheritInherited,
		SquelchUnsupported: true,
	})
	if err != nil {
		return nil, err
	}
	rel, err := c.WC.RelPath(targetPath)
	if err != nil {
		return nil, err
	}
	root, err := c.WC.ReposRoot(targetPath)
	if err != nil {
		return nil, err
	}
	if info, ok := catalog[rel]; ok {
		for _, p := range info.Paths() {
			u := root + p
			if !seen[u] {
				out = append(out, u)
				seen[u] = true
			}
		}
	}
	return out, nil
}
