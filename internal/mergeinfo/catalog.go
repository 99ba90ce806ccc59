package mergeinfo

import (
	"sort"
	"strings"
)

// Catalog maps repository-relative paths to the mergeinfo recorded on
// them. Absence of a key means no mergeinfo for that path.
type Catalog map[string]MergeInfo

// ShouldElide decides whether child's mergeinfo is fully implied by
// parent's and may be removed. pathSuffix, when non-empty, is child's
// position under parent and rebases parent's source paths before the
// comparison. Inheritability differences do not block elision; revision
// coverage must match exactly.
func ShouldElide(parent, child MergeInfo, pathSuffix string) bool {
	switch {
	case child == nil:
		return false
	case len(child) == 0:
		// empty overrides nothing when the ancestor is trivial too
		return len(parent) == 0
	case len(parent) == 0:
		return false
	}
	p := parent
	if pathSuffix != "" {
		p = parent.AddSuffix(pathSuffix)
	}
	return p.Equal(child, false)
}

// pathLess orders paths depth first: '/' sorts below every other byte,
// so a directory comes right before its descendants even when a sibling
// name continues with a byte below '/'.
func pathLess(a, b string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		ca, cb := a[i], b[i]
		if ca == cb {
			continue
		}
		if ca == '/' {
			return true
		}
		if cb == '/' {
			return false
		}
		return ca < cb
	}
	return len(a) < len(b)
}

// SortedPaths returns the catalog keys in depth-first path order.
func (c Catalog) SortedPaths() []string {
	paths := make([]string, 0, len(c))
	for p := range c {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return pathLess(paths[i], paths[j]) })
	return paths
}

// Elide removes every catalog entry fully implied by its nearest catalog
// ancestor. Traversal is depth first, parents before children; elidable
// paths are collected during the walk and deleted afterwards, so ancestor
// comparisons always see the unmodified catalog.
func (c Catalog) Elide() {
	if len(c) < 2 {
		return
	}
	paths := c.SortedPaths()

	type dirCtx struct {
		path string
	}
	var arena []dirCtx
	var stack []int
	var elidable []string

	for _, p := range paths {
		for len(stack) > 0 && !IsAncestor(arena[stack[len(stack)-1]].path, p) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			anc := arena[stack[len(stack)-1]].path
			if ShouldElide(c[anc], c[p], relSuffix(anc, p)) {
				elidable = append(elidable, p)
			}
		}
		arena = append(arena, dirCtx{path: p})
		stack = append(stack, len(arena)-1)
	}

	for _, p := range elidable {
		delete(c, p)
	}
}

// NearestAncestor returns the closest catalog path covering p. A path is
// its own ancestor.
func (c Catalog) NearestAncestor(p string) (string, bool) {
	return NearestAncestorIn(c.SortedPaths(), p)
}

// NearestAncestorIn scans a depth-first-sorted path index for the deepest
// entry covering p. Ancestors of p appear in ascending depth, so the last
// match wins. Callers doing repeated lookups build the index once with
// SortedPaths.
func NearestAncestorIn(index []string, p string) (string, bool) {
	best, found := "", false
	for _, k := range index {
		if IsAncestor(k, p) {
			best, found = k, true
		}
	}
	return best, found
}

// IsAncestor reports whether anc is p or a path ancestor of p. The empty
// path and "/" cover everything beneath them.
func IsAncestor(anc, p string) bool {
	switch {
	case anc == p, anc == "":
		return true
	case anc == "/":
		return strings.HasPrefix(p, "/")
	}
	return strings.HasPrefix(p, anc+"/")
}

// relSuffix returns p's position under its ancestor anc.
func relSuffix(anc, p string) string {
	if anc == p {
		return ""
	}
	if anc == "" {
		return p
	}
	return strings.TrimPrefix(p, strings.TrimSuffix(anc, "/")+"/")
}
