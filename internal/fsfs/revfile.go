package fsfs

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// trailerWindow bounds how far back the trailer line may start.
const trailerWindow = 64

// parseTrailer extracts the root noderev offset and change list offset
// from the final "<root-offset> <changes-offset>\n" line, inspecting at
// most the last 64 bytes. It also returns where the trailer line starts.
func parseTrailer(data []byte) (rootOff, changesOff, trailerStart int64, err error) {
	if len(data) == 0 || data[len(data)-1] != '\n' {
		return 0, 0, 0, fmt.Errorf("revision file does not end with a newline: %w", ErrCorrupt)
	}

	winStart := len(data) - trailerWindow
	if winStart < 0 {
		winStart = 0
	}
	var start int
	if idx := bytes.LastIndexByte(data[winStart:len(data)-1], '\n'); idx >= 0 {
		start = winStart + idx + 1
	} else if winStart > 0 {
		return 0, 0, 0, fmt.Errorf("revision trailer line too long: %w", ErrCorrupt)
	}

	line := string(data[start : len(data)-1])
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return 0, 0, 0, fmt.Errorf("revision trailer %q lacks a space: %w", line, ErrCorrupt)
	}
	if rootOff, err = strconv.ParseInt(line[:sp], 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("revision trailer %q: %w", line, ErrCorrupt)
	}
	if changesOff, err = strconv.ParseInt(line[sp+1:], 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("revision trailer %q: %w", line, ErrCorrupt)
	}
	trailerStart = int64(start)
	if rootOff < 0 || rootOff >= trailerStart || changesOff < 0 || changesOff > trailerStart {
		return 0, 0, 0, fmt.Errorf("revision trailer offsets out of bounds: %w", ErrCorrupt)
	}
	return rootOff, changesOff, trailerStart, nil
}

// readRepHeader reads the representation header line at off and returns
// it together with its length including the newline.
func readRepHeader(data []byte, off int64) (string, int64, error) {
	if off < 0 || off >= int64(len(data)) {
		return "", 0, fmt.Errorf("representation offset %d out of bounds: %w", off, ErrCorrupt)
	}
	nl := bytes.IndexByte(data[off:], '\n')
	if nl < 0 {
		return "", 0, fmt.Errorf("unterminated representation header at %d: %w", off, ErrCorrupt)
	}
	header := string(data[off : off+int64(nl)])
	if header != "PLAIN" && !strings.HasPrefix(header, "DELTA") {
		return "", 0, fmt.Errorf("unknown representation header %q: %w", header, ErrCorrupt)
	}
	return header, int64(nl) + 1, nil
}
