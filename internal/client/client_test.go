package client_test

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xiaozhiob/subversion/internal/client"
	"github.com/xiaozhiob/subversion/internal/mergeinfo"
	"github.com/xiaozhiob/subversion/internal/ra"
	"github.com/xiaozhiob/subversion/internal/wc"
)

const reposRoot = "https://repo.example"

type fakeNode struct {
	props       map[string]string
	pristine    map[string]string
	base        mergeinfo.Revision
	lastChanged mergeinfo.Revision
	rel         string
	root        bool
	added       bool
	kind        wc.NodeKind
	copyFrom    string
}

type fakeWC struct {
	nodes map[string]*fakeNode
}

func newFakeWC() *fakeWC { return &fakeWC{nodes: map[string]*fakeNode{}} }

func (f *fakeWC) add(path, rel string) *fakeNode {
	n := &fakeNode{
		props:       map[string]string{},
		pristine:    map[string]string{},
		base:        7,
		lastChanged: 7,
		rel:         rel,
		kind:        wc.KindDir,
	}
	f.nodes[path] = n
	return n
}

func (f *fakeWC) node(path string) *fakeNode { return f.nodes[path] }

func (f *fakeWC) Get(path, name string) (string, bool, error) {
	v, ok := f.node(path).props[name]
	return v, ok, nil
}

func (f *fakeWC) Set(path, name string, value *string) error {
	if value == nil {
		delete(f.node(path).props, name)
		return nil
	}
	f.node(path).props[name] = *value
	return nil
}

func (f *fakeWC) BaseRevision(path string) (mergeinfo.Revision, error) {
	return f.node(path).base, nil
}

func (f *fakeWC) LastChangedRevision(path string) (mergeinfo.Revision, error) {
	return f.node(path).lastChanged, nil
}

func (f *fakeWC) ReposRoot(string) (string, error) { return reposRoot, nil }

func (f *fakeWC) RelPath(path string) (string, error) { return f.node(path).rel, nil }

func (f *fakeWC) IsRoot(path string) (bool, error) { return f.node(path).root, nil }

func (f *fakeWC) IsAdded(path string) (bool, error) { return f.node(path).added, nil }

func (f *fakeWC) Kind(path string) (wc.NodeKind, error) { return f.node(path).kind, nil }

func (f *fakeWC) PristineProps(path string) (map[string]string, error) {
	return f.node(path).pristine, nil
}

func (f *fakeWC) WalkChildren(path string, fn func(string) error) error {
	var children []string
	for p := range f.nodes {
		if p != path && strings.HasPrefix(p, path+"/") {
			children = append(children, p)
		}
	}
	sort.Strings(children)
	for _, c := range children {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeWC) CopyFrom(path string) (string, mergeinfo.Revision, error) {
	n := f.node(path)
	if n.copyFrom == "" {
		return "", mergeinfo.Invalid, nil
	}
	return n.copyFrom, n.base, nil
}

type fakeSession struct {
	url       string
	reparents []string
	catalog   mergeinfo.Catalog
	err       error
	segments  []ra.LocationSegment
	queries   int
}

func (s *fakeSession) URL() string { return s.url }

func (s *fakeSession) Reparent(u string) error {
	s.url = u
	s.reparents = append(s.reparents, u)
	return nil
}

func (s *fakeSession) ReposRoot() (string, error) { return reposRoot, nil }

func (s *fakeSession) GetMergeInfoCatalog([]string, mergeinfo.Revision, mergeinfo.Inherit, bool) (mergeinfo.Catalog, error) {
	s.queries++
	return s.catalog, s.err
}

func (s *fakeSession) GetLocationSegments(string, mergeinfo.Revision, mergeinfo.Revision, mergeinfo.Revision) ([]ra.LocationSegment, error) {
	return s.segments, nil
}

func (s *fakeSession) Log([]string, mergeinfo.Revision, mergeinfo.Revision, bool, ra.LogReceiver) error {
	return nil
}

func setup(t *testing.T) (*fakeWC, *client.Client) {
	t.Helper()
	f := newFakeWC()
	f.add("/wc", "").root = true
	f.add("/wc/a", "a")
	f.add("/wc/a/b", "a/b")
	c := &client.Client{WC: f, Props: f}
	return f, c
}

func TestMergeInfoCatalogPrefersWorkingCopy(t *testing.T) {
	f, c := setup(t)
	f.node("/wc/a").props[wc.PropMergeInfo] = "/src/a:1-5\n"
	sess := &fakeSession{url: reposRoot}

	catalog, inherited, err := c.MergeInfoCatalog(sess, "/wc/a", client.CatalogOptions{
		Inherit: mergeinfo.InheritInherited,
	})
	require.NoError(t, err)
	require.False(t, inherited)
	require.Len(t, catalog, 1)
	require.Contains(t, catalog, "a")
	require.Zero(t, sess.queries, "repository must not be contacted on a WC hit")
}

func TestMergeInfoCatalogLocalAdditionSkipsRepository(t *testing.T) {
	f, c := setup(t)
	f.node("/wc/a").added = true
	sess := &fakeSession{url: reposRoot, catalog: mergeinfo.Catalog{"": {}}}

	catalog, _, err := c.MergeInfoCatalog(sess, "/wc/a", client.CatalogOptions{})
	require.NoError(t, err)
	require.Nil(t, catalog)
	require.Zero(t, sess.queries)
}

func TestMergeInfoCatalogPristineDeletionSuppressesFallback(t *testing.T) {
	f, c := setup(t)
	// the pristine node carried mergeinfo; the working props no longer
	// do, so the deletion is deliberate
	f.node("/wc/a").pristine[wc.PropMergeInfo] = "/src/a:1-5\n"
	sess := &fakeSession{url: reposRoot, catalog: mergeinfo.Catalog{"": {}}}

	catalog, _, err := c.MergeInfoCatalog(sess, "/wc/a", client.CatalogOptions{})
	require.NoError(t, err)
	require.Nil(t, catalog)
	require.Zero(t, sess.queries)
}

func TestMergeInfoCatalogRepositoryFallback(t *testing.T) {
	_, c := setup(t)
	sess := &fakeSession{
		url: reposRoot + "/elsewhere",
		catalog: mergeinfo.Catalog{
			"":    {"/src/a": {{Start: 0, End: 5, Inheritable: true}}},
			"sub": {"/src/a/sub": {{Start: 0, End: 5, Inheritable: true}}},
		},
	}

	catalog, inherited, err := c.MergeInfoCatalog(sess, "/wc/a", client.CatalogOptions{
		IncludeDescendants: true,
	})
	require.NoError(t, err)
	require.True(t, inherited)
	require.Equal(t, mergeinfo.Catalog{
		"a":     {"/src/a": {{Start: 0, End: 5, Inheritable: true}}},
		"a/sub": {"/src/a/sub": {{Start: 0, End: 5, Inheritable: true}}},
	}, catalog)
	require.Equal(t, 1, sess.queries)

	// borrowed session reparented to the target and restored
	require.Equal(t, []string{reposRoot + "/a", reposRoot + "/elsewhere"}, sess.reparents)
	require.Equal(t, reposRoot+"/elsewhere", sess.URL())
}

func TestMergeInfoCatalogSquelchesUnsupportedServer(t *testing.T) {
	_, c := setup(t)
	sess := &fakeSession{
		url: reposRoot + "/a",
		err: fmt.Errorf("query: %w", ra.ErrUnsupportedFeature),
	}

	catalog, _, err := c.MergeInfoCatalog(sess, "/wc/a", client.CatalogOptions{
		SquelchUnsupported: true,
	})
	require.NoError(t, err)
	require.Nil(t, catalog)

	_, _, err = c.MergeInfoCatalog(sess, "/wc/a", client.CatalogOptions{})
	require.ErrorIs(t, err, ra.ErrUnsupportedFeature)
}

func TestMergeInfoCatalogOpensSessionWhenNoneGiven(t *testing.T) {
	_, c := setup(t)
	opened := ""
	sess := &fakeSession{
		url:     reposRoot + "/a",
		catalog: mergeinfo.Catalog{"": {"/src/a": {{Start: 0, End: 5, Inheritable: true}}}},
	}
	c.Open = func(url string) (ra.Session, error) {
		opened = url
		return sess, nil
	}

	catalog, _, err := c.MergeInfoCatalog(nil, "/wc/a", client.CatalogOptions{})
	require.NoError(t, err)
	require.Equal(t, reposRoot+"/a", opened)
	require.Len(t, catalog, 1)
	require.Empty(t, sess.reparents, "a freshly opened session is not reparented")
}

func TestHistoryAsMergeInfo(t *testing.T) {
	_, c := setup(t)
	sess := &fakeSession{
		url: reposRoot,
		segments: []ra.LocationSegment{
			{Path: "trunk", Start: 1, End: 99},
			{Path: "branches/b", Start: 100, End: 120},
		},
	}

	got, err := c.HistoryAsMergeInfo(sess, "branches/b", 120, 120, 1)
	require.NoError(t, err)
	require.Equal(t, mergeinfo.MergeInfo{
		"/trunk":      {{Start: 0, End: 99, Inheritable: true}},
		"/branches/b": {{Start: 99, End: 120, Inheritable: true}},
	}, got)
}

func TestElideMergeInfo(t *testing.T) {
	f, c := setup(t)
	f.node("/wc").props[wc.PropMergeInfo] = "/src:1-5\n"
	f.node("/wc/a/b").props[wc.PropMergeInfo] = "/src/a/b:1-5\n"

	elided, err := c.ElideMergeInfo(nil, "/wc/a/b", "")
	require.NoError(t, err)
	require.True(t, elided)

	_, ok := f.node("/wc/a/b").props[wc.PropMergeInfo]
	require.False(t, ok)
}

func TestElideMergeInfoKeepsDivergentTarget(t *testing.T) {
	f, c := setup(t)
	f.node("/wc").props[wc.PropMergeInfo] = "/src:1-5\n"
	f.node("/wc/a/b").props[wc.PropMergeInfo] = "/src/a/b:1-9\n"

	elided, err := c.ElideMergeInfo(nil, "/wc/a/b", "")
	require.NoError(t, err)
	require.False(t, elided)

	_, ok := f.node("/wc/a/b").props[wc.PropMergeInfo]
	require.True(t, ok)
}

func TestElideMergeInfoRepositoryAncestorFallback(t *testing.T) {
	f, c := setup(t)
	f.node("/wc/a/b").props[wc.PropMergeInfo] = "/src/a/b:1-5\n"
	sess := &fakeSession{
		url:     reposRoot + "/a/b",
		catalog: mergeinfo.Catalog{"": {"/src/a/b": {{Start: 0, End: 5, Inheritable: true}}}},
	}

	elided, err := c.ElideMergeInfo(sess, "/wc/a/b", "")
	require.NoError(t, err)
	require.True(t, elided)
	require.Equal(t, 1, sess.queries)
	_, ok := f.node("/wc/a/b").props[wc.PropMergeInfo]
	require.False(t, ok)
}

func TestSuggestMergeSources(t *testing.T) {
	f, c := setup(t)
	f.node("/wc/a").copyFrom = reposRoot + "/trunk"
	f.node("/wc/a").props[wc.PropMergeInfo] = "/trunk:1-5\n/feature:8\n"

	got, err := c.SuggestMergeSources(nil, "/wc/a")
	require.NoError(t, err)
	require.Equal(t, []string{
		reposRoot + "/trunk",
		reposRoot + "/feature",
	}, got)
}
