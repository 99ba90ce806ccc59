// Package wc exposes the working-copy collaborators the mergeinfo
// operations run against: a property store, a metadata accessor, and a
// notification sink. The working-copy database itself lives behind these
// interfaces.
package wc

import (
	"github.com/xiaozhiob/subversion/internal/mergeinfo"
)

// PropMergeInfo is the property under which merge history is recorded.
const PropMergeInfo = "svn:mergeinfo"

// PropertyStore reads and writes node properties. Setting a nil value
// removes the property.
type PropertyStore interface {
	Get(path, name string) (value string, ok bool, err error)
	Set(path, name string, value *string) error
}

// NodeKind classifies a working-copy node.
type NodeKind int

const (
	KindNone NodeKind = iota
	KindFile
	KindDir
)

// Accessor exposes the working-copy metadata the mergeinfo walker needs.
// Paths are absolute local paths with "/" separators.
type Accessor interface {
	BaseRevision(path string) (mergeinfo.Revision, error)
	LastChangedRevision(path string) (mergeinfo.Revision, error)
	ReposRoot(path string) (string, error)
	// RelPath returns the repository-root-relative path of the node.
	RelPath(path string) (string, error)
	// IsRoot reports whether the node is a working-copy root.
	IsRoot(path string) (bool, error)
	// IsAdded reports whether the node is a fresh local addition.
	IsAdded(path string) (bool, error)
	Kind(path string) (NodeKind, error)
	// PristineProps returns the unmodified (pre-edit) property set.
	PristineProps(path string) (map[string]string, error)
	// WalkChildren visits the node's descendants depth first, parents
	// before children.
	WalkChildren(path string, fn func(path string) error) error
	// CopyFrom returns the copy source of a copied node, or an empty URL.
	CopyFrom(path string) (url string, rev mergeinfo.Revision, err error)
}

// Action identifies what a notification reports.
type Action int

const (
	ActionMergeRecordInfo Action = iota
	ActionMergeElideInfo
	ActionPropertyUpdate
)

type Notification struct {
	Path   string
	Action Action
	// PropChanged names the property a property-update concerns.
	PropChanged string
}

// Notifier receives progress notifications. A nil Notifier is permitted
// everywhere.
type Notifier interface {
	Notify(Notification)
}

func notify(n Notifier, nt Notification) {
	if n != nil {
		n.Notify(nt)
	}
}
