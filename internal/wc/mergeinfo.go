package wc

import (
	"fmt"
	"path"

	"github.com/xiaozhiob/subversion/internal/mergeinfo"
)

// ParseMergeInfo fetches and parses the node's recorded mergeinfo. A nil
// map with no error means the property is absent.
func ParseMergeInfo(props PropertyStore, localPath string) (mergeinfo.MergeInfo, error) {
	value, ok, err := props.Get(localPath, PropMergeInfo)
	if err != nil {
		return nil, fmt.Errorf("read %s of %s: %w", PropMergeInfo, localPath, err)
	}
	if !ok {
		return nil, nil
	}
	info, err := mergeinfo.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("parse %s of %s: %w", PropMergeInfo, localPath, err)
	}
	return info, nil
}

// RecordMergeInfo serializes info onto the node's mergeinfo property; a
// nil map removes it. Two notifications are emitted: the merge-specific
// record action, then the generic property update.
func RecordMergeInfo(props PropertyStore, notifier Notifier, localPath string, info mergeinfo.MergeInfo) error {
	var value *string
	if info != nil {
		s := info.String()
		value = &s
	}
	if err := props.Set(localPath, PropMergeInfo, value); err != nil {
		return fmt.Errorf("record %s of %s: %w", PropMergeInfo, localPath, err)
	}
	notify(notifier, Notification{Path: localPath, Action: ActionMergeRecordInfo})
	notify(notifier, Notification{Path: localPath, Action: ActionPropertyUpdate, PropChanged: PropMergeInfo})
	return nil
}

// GetMergeInfo finds the mergeinfo in effect for localPath, walking up
// the working copy when inheritance permits. It returns the mergeinfo
// (nil when none applies), whether it was inherited from an ancestor,
// and the relative path walked to reach that ancestor.
//
// The walk stops at limitPath when given, at a working-copy root, and
// when the node's base revision falls outside the window covered by the
// parent (base < parent's last-changed revision, or parent's base beyond
// the node's base). Inherited results are rebased by the walked path and
// stripped of non-inheritable ranges; explicit results are returned
// untouched.
func GetMergeInfo(acc Accessor, props PropertyStore, localPath, limitPath string, inherit mergeinfo.Inherit) (mergeinfo.MergeInfo, bool, string, error) {
	if inherit == mergeinfo.InheritExplicit {
		info, err := ParseMergeInfo(props, localPath)
		return info, false, "", err
	}

	base, err := acc.BaseRevision(localPath)
	if err != nil {
		return nil, false, "", err
	}

	cur := localPath
	walked := ""

	if inherit == mergeinfo.InheritNearestAncestor {
		isRoot, err := acc.IsRoot(cur)
		if err != nil {
			return nil, false, "", err
		}
		if isRoot {
			return nil, false, "", nil
		}
		walked = path.Base(cur)
		cur = path.Dir(cur)
	}

	var info mergeinfo.MergeInfo
	for {
		if info, err = ParseMergeInfo(props, cur); err != nil {
			return nil, false, walked, err
		}
		if info != nil {
			break
		}
		if limitPath != "" && cur == limitPath {
			break
		}
		isRoot, err := acc.IsRoot(cur)
		if err != nil {
			return nil, false, walked, err
		}
		if isRoot {
			break
		}

		parent := path.Dir(cur)
		if base.IsValid() {
			parentLast, err := acc.LastChangedRevision(parent)
			if err != nil {
				return nil, false, walked, err
			}
			parentBase, err := acc.BaseRevision(parent)
			if err != nil {
				return nil, false, walked, err
			}
			if parentLast.IsValid() && parentBase.IsValid() &&
				(base < parentLast || parentBase < base) {
				break
			}
		}

		walked = path.Join(path.Base(cur), walked)
		cur = parent
	}

	if info == nil {
		return nil, false, walked, nil
	}
	if walked == "" {
		return info, false, "", nil
	}
	inherited := info.AddSuffix(walked).Inheritable()
	return inherited, true, walked, nil
}

// GetMergeInfoCatalog builds a catalog for localPath keyed on repository
// relpaths: the target's effective mergeinfo plus, when requested, the
// explicit mergeinfo of every descendant.
func GetMergeInfoCatalog(acc Accessor, props PropertyStore, localPath, limitPath string, inherit mergeinfo.Inherit, includeDescendants bool) (mergeinfo.Catalog, bool, error) {
	info, inherited, _, err := GetMergeInfo(acc, props, localPath, limitPath, inherit)
	if err != nil {
		return nil, false, err
	}

	catalog := mergeinfo.Catalog{}
	targetRel, err := acc.RelPath(localPath)
	if err != nil {
		return nil, false, err
	}
	if info != nil {
		catalog[targetRel] = info
	}

	if includeDescendants {
		kind, err := acc.Kind(localPath)
		if err != nil {
			return nil, false, err
		}
		if kind == KindDir {
			err = acc.WalkChildren(localPath, func(child string) error {
				childInfo, err := ParseMergeInfo(props, child)
				if err != nil || childInfo == nil {
					return err
				}
				rel, err := acc.RelPath(child)
				if err != nil {
					return err
				}
				catalog[rel] = childInfo
				return nil
			})
			if err != nil {
				return nil, false, err
			}
		}
	}

	return catalog, inherited, nil
}

// ApplyElision removes localPath's mergeinfo property when child is fully
// implied by parent, emitting the elision and property-update
// notifications. It reports whether it elided.
func ApplyElision(props PropertyStore, notifier Notifier, parent, child mergeinfo.MergeInfo, localPath, pathSuffix string) (bool, error) {
	if !mergeinfo.ShouldElide(parent, child, pathSuffix) {
		return false, nil
	}
	if err := props.Set(localPath, PropMergeInfo, nil); err != nil {
		return false, fmt.Errorf("elide %s of %s: %w", PropMergeInfo, localPath, err)
	}
	notify(notifier, Notification{Path: localPath, Action: ActionMergeElideInfo})
	notify(notifier, Notification{Path: localPath, Action: ActionPropertyUpdate, PropChanged: PropMergeInfo})
	return true, nil
}
