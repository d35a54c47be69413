package vccd

import (
	"fmt"
	"sort"
)

// PackBlocks distributes entries into BlockSize blocks.
//
// Each block is filled greedily: the largest remaining payload that still fits
// goes in next, lowest hash first among equal lengths. A payload is never
// split, so any payload larger than BlockSize fails the whole pack.
// Every returned block is zero-padded to exactly BlockSize bytes.
func PackBlocks(entries []Entry) ([]Block, error) {
	for i := range entries {
		if len(entries[i].Payload) > BlockSize {
			return nil, fmt.Errorf("%w: caption %q (hash %08x) is %d bytes, limit %d",
				ErrEntryTooLarge, entries[i].Name, entries[i].Hash, len(entries[i].Payload), BlockSize)
		}
	}

	pending := make([]*Entry, len(entries))
	for i := range entries {
		pending[i] = &entries[i]
	}
	sort.SliceStable(pending, func(i, j int) bool {
		li, lj := len(pending[i].Payload), len(pending[j].Payload)
		if li != lj {
			return li > lj
		}
		return pending[i].Hash < pending[j].Hash
	})

	var blocks []Block
	for len(pending) > 0 {
		var b Block
		b.Data = make([]byte, 0, BlockSize)

		// pending is in selection order, so the first entry that fits is the
		// one to place. Entries skipped here stay too large for the rest of
		// this block because the free space only shrinks.
		rest := pending[:0]
		for _, e := range pending {
			if len(e.Payload) > BlockSize-len(b.Data) {
				rest = append(rest, e)
				continue
			}
			b.Placements = append(b.Placements, Placement{
				Hash:   e.Hash,
				Offset: uint16(len(b.Data)),
				Length: uint16(len(e.Payload)),
			})
			b.Data = append(b.Data, e.Payload...)
		}
		pending = rest

		b.fill()
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// fill zero-pads the block buffer to BlockSize.
func (b *Block) fill() {
	if n := BlockSize - len(b.Data); n > 0 {
		b.Data = append(b.Data, make([]byte, n)...)
	}
}

// Used returns the number of payload bytes written into the block.
func (b *Block) Used() int {
	n := 0
	for _, p := range b.Placements {
		n += int(p.Length)
	}
	return n
}
