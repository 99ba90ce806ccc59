package fsfs

import (
	"context"
	"encoding/binary"
	"fmt"
)

// p2l index item types. Types outside this set are skipped.
const (
	itemUnused  = 0
	itemNoderev = 3
	itemChanges = 4
)

const p2lEntrySize = 24

// p2lEntry is one fixed-size little-endian index record:
// {offset uint64, size uint64, type uint32, revision uint32}.
type p2lEntry struct {
	offset   int64
	size     int64
	itemType uint32
	revision Revision
}

// readP2L decodes the index records, polling for cancellation once per
// block-size worth of entries.
func readP2L(ctx context.Context, data []byte, blockSize int64) ([]p2lEntry, error) {
	if int64(len(data))%p2lEntrySize != 0 {
		return nil, fmt.Errorf("p2l index size %d not a record multiple: %w", len(data), ErrCorrupt)
	}
	count := int64(len(data)) / p2lEntrySize
	perBlock := blockSize / p2lEntrySize
	if perBlock < 1 {
		perBlock = 1
	}

	out := make([]p2lEntry, 0, count)
	for i := int64(0); i < count; i++ {
		if i%perBlock == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec := data[i*p2lEntrySize:]
		out = append(out, p2lEntry{
			offset:   int64(binary.LittleEndian.Uint64(rec)),
			size:     int64(binary.LittleEndian.Uint64(rec[8:])),
			itemType: binary.LittleEndian.Uint32(rec[16:]),
			revision: Revision(binary.LittleEndian.Uint32(rec[20:])),
		})
	}
	return out, nil
}
