package fsfs

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// repRef is a representation reference line from a noderev:
// "<rev> <offset> <size> <expanded-size> [digest]".
type repRef struct {
	revision Revision
	offset   int64
	size     int64
	expanded int64
}

func parseRepRef(value string) (repRef, error) {
	fields := strings.Fields(value)
	if len(fields) < 4 {
		return repRef{}, fmt.Errorf("representation reference %q: %w", value, ErrCorrupt)
	}
	nums := make([]int64, 4)
	for i := 0; i < 4; i++ {
		n, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil || n < 0 {
			return repRef{}, fmt.Errorf("representation reference %q: %w", value, ErrCorrupt)
		}
		nums[i] = n
	}
	return repRef{
		revision: Revision(nums[0]),
		offset:   nums[1],
		size:     nums[2],
		expanded: nums[3],
	}, nil
}

// noderev is one parsed node-revision record. size covers the record up
// to and including its terminating blank line.
type noderev struct {
	id    string
	kind  string // "file" or "dir"
	pred  string
	text  *repRef
	props *repRef
	cpath string

	offset int64
	size   int64
}

// parseNoderev reads "key: value" lines at off until the blank line.
func parseNoderev(data []byte, off int64) (*noderev, error) {
	if off < 0 || off >= int64(len(data)) {
		return nil, fmt.Errorf("noderev offset %d out of bounds: %w", off, ErrCorrupt)
	}
	n := &noderev{offset: off}
	pos := off
	for {
		nl := bytes.IndexByte(data[pos:], '\n')
		if nl < 0 {
			return nil, fmt.Errorf("unterminated noderev at %d: %w", off, ErrCorrupt)
		}
		line := string(data[pos : pos+int64(nl)])
		pos += int64(nl) + 1
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("malformed noderev line %q at %d: %w", line, off, ErrCorrupt)
		}
		switch key {
		case "id":
			n.id = value
		case "type":
			n.kind = value
		case "pred":
			n.pred = value
		case "text":
			ref, err := parseRepRef(value)
			if err != nil {
				return nil, err
			}
			n.text = &ref
		case "props":
			ref, err := parseRepRef(value)
			if err != nil {
				return nil, err
			}
			n.props = &ref
		case "cpath":
			n.cpath = value
		}
	}
	n.size = pos - off
	return n, nil
}

// idLocation extracts the owning revision and offset from a node id
// ending in "r<rev>/<offset>".
func idLocation(id string) (Revision, int64, bool) {
	slash := strings.LastIndexByte(id, '/')
	r := strings.LastIndex(id[:max(slash, 0)], "r")
	if slash < 0 || r < 0 {
		return 0, 0, false
	}
	rev, err1 := strconv.ParseInt(id[r+1:slash], 10, 64)
	off, err2 := strconv.ParseInt(id[slash+1:], 10, 64)
	if err1 != nil || err2 != nil || rev < 0 || off < 0 {
		return 0, 0, false
	}
	return Revision(rev), off, true
}

// dirEntry is one "name -> <kind> <id>" pair from a PLAIN directory
// representation.
type dirEntry struct {
	name string
	kind string
	id   string
}

// parseDirEntries reads the hash-dump entry list of a PLAIN directory
// representation: "K <n>", name, "V <n>", "<kind> <id>" groups
// terminated by "END".
func parseDirEntries(content []byte) ([]dirEntry, error) {
	var out []dirEntry
	lines := strings.Split(string(content), "\n")
	for i := 0; i < len(lines); {
		line := lines[i]
		if line == "END" {
			return out, nil
		}
		if !strings.HasPrefix(line, "K ") || i+3 >= len(lines) || !strings.HasPrefix(lines[i+2], "V ") {
			return nil, fmt.Errorf("malformed directory entry near %q: %w", line, ErrCorrupt)
		}
		kind, id, ok := strings.Cut(lines[i+3], " ")
		if !ok {
			return nil, fmt.Errorf("malformed directory entry value %q: %w", lines[i+3], ErrCorrupt)
		}
		out = append(out, dirEntry{name: lines[i+1], kind: kind, id: id})
		i += 4
	}
	return nil, fmt.Errorf("directory representation lacks END: %w", ErrCorrupt)
}
