package mergeinfo

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads the textual property format: one "source-path:rangelist"
// per line, rangelist a comma-separated mix of single revisions and
// "start-end" spans, each optionally suffixed '*' for non-inheritable.
func Parse(text string) (MergeInfo, error) {
	mi := MergeInfo{}
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		sep := strings.LastIndex(line, ":")
		if sep < 0 {
			return nil, fmt.Errorf("mergeinfo: missing ':' in %q", line)
		}
		p, rest := line[:sep], line[sep+1:]
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("mergeinfo: source path %q is not absolute", p)
		}
		rl, err := parseRangeList(rest)
		if err != nil {
			return nil, fmt.Errorf("mergeinfo: path %q: %w", p, err)
		}
		if prev, ok := mi[p]; ok {
			rl = Merge(prev, rl)
		}
		mi[p] = rl
	}
	return mi, nil
}

func parseRangeList(s string) (RangeList, error) {
	if s == "" {
		return RangeList{}, nil
	}
	var rl RangeList
	for _, item := range strings.Split(s, ",") {
		inheritable := true
		if strings.HasSuffix(item, "*") {
			inheritable = false
			item = item[:len(item)-1]
		}
		var start, end int64
		if dash := strings.Index(item, "-"); dash >= 0 {
			var err error
			if start, err = strconv.ParseInt(item[:dash], 10, 64); err != nil {
				return nil, fmt.Errorf("invalid revision range %q", item)
			}
			if end, err = strconv.ParseInt(item[dash+1:], 10, 64); err != nil {
				return nil, fmt.Errorf("invalid revision range %q", item)
			}
		} else {
			v, err := strconv.ParseInt(item, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid revision %q", item)
			}
			start, end = v, v
		}
		if start < 1 || end < start {
			return nil, fmt.Errorf("invalid revision range %q", item)
		}
		rl = append(rl, Range{Revision(start - 1), Revision(end), inheritable})
	}
	rl.Sort()
	// normalize: overlap resolution and coalescing
	return Merge(rl, nil), nil
}

// String renders the property format, paths sorted, one per line.
func (m MergeInfo) String() string {
	var b strings.Builder
	for _, p := range m.Paths() {
		b.WriteString(p)
		b.WriteByte(':')
		for i, r := range m[p] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(r.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
