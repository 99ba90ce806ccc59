// Package fsfs reads packed and unpacked FSFS revision files, physical
// or logical addressing, and folds them into repository statistics:
// per-revision structure, representation sharing, size histograms and
// largest-change tracking.
package fsfs

import (
	"errors"

	"github.com/xiaozhiob/subversion/internal/mergeinfo"
)

// Revision aliases the module-wide revision number type.
type Revision = mergeinfo.Revision

// ErrCorrupt is wrapped by every malformed-store error the scanner
// reports. Match with errors.Is.
var ErrCorrupt = errors.New("corrupt filesystem")
