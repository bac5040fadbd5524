package writer

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
)

const (
	POF0_TAG         = "POF0"
	POF0_HEADER_SIZE = 8

	POF0_BYTE  = 0x40
	POF0_WORD  = 0x80
	POF0_DWORD = 0xC0
	POF0_MASK  = 0xC0

	POF0_BYTE_LIMIT  = 1 << 6
	POF0_WORD_LIMIT  = 1 << 14
	POF0_DWORD_LIMIT = 1 << 30
)

// EncodePOF0 builds relocation footer for pointer field offsets.
// Cells are big endian with tag in top two bits, deltas are in words.
func EncodePOF0(offsets []uint32, order binary.ByteOrder) ([]byte, error) {
	sorted := append([]uint32(nil), offsets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	cells := make([]byte, 0, len(sorted)*2)
	prev := uint32(0)
	for i, off := range sorted {
		if off%4 != 0 {
			return nil, errors.Errorf("Pointer field at 0x%x is not 4 byte aligned", off)
		}
		if i != 0 && off == prev {
			continue
		}
		delta := (off - prev) / 4
		prev = off
		switch {
		case delta < POF0_BYTE_LIMIT:
			cells = append(cells, POF0_BYTE|byte(delta))
		case delta < POF0_WORD_LIMIT:
			cells = append(cells, POF0_WORD|byte(delta>>8), byte(delta))
		case delta < POF0_DWORD_LIMIT:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(POF0_DWORD)<<24|delta)
			cells = append(cells, b[:]...)
		default:
			return nil, errors.Errorf("Pointer delta 0x%x too big", delta*4)
		}
	}
	for len(cells)%4 != 0 {
		cells = append(cells, 0)
	}

	out := make([]byte, POF0_HEADER_SIZE, POF0_HEADER_SIZE+len(cells))
	copy(out, POF0_TAG)
	order.PutUint32(out[4:], uint32(len(cells)))
	return append(out, cells...), nil
}

// DecodePOF0 returns absolute pointer field offsets, padding ends cells
func DecodePOF0(data []byte, order binary.ByteOrder) ([]uint32, error) {
	if len(data) < POF0_HEADER_SIZE || string(data[:4]) != POF0_TAG {
		return nil, errors.Errorf("Not a POF0 footer")
	}
	size := int(order.Uint32(data[4:]))
	if POF0_HEADER_SIZE+size > len(data) {
		return nil, errors.Errorf("POF0 declares 0x%x bytes, have 0x%x", size, len(data)-POF0_HEADER_SIZE)
	}
	cells := data[POF0_HEADER_SIZE : POF0_HEADER_SIZE+size]

	offsets := make([]uint32, 0)
	pos := uint32(0)
	for i := 0; i < len(cells); {
		var delta uint32
		switch cells[i] & POF0_MASK {
		case 0:
			return offsets, nil
		case POF0_BYTE:
			delta = uint32(cells[i] &^ POF0_MASK)
			i++
		case POF0_WORD:
			if i+2 > len(cells) {
				return nil, errors.Errorf("Truncated POF0 word cell at %d", i)
			}
			delta = uint32(binary.BigEndian.Uint16(cells[i:])) &^ (POF0_MASK << 8)
			i += 2
		case POF0_DWORD:
			if i+4 > len(cells) {
				return nil, errors.Errorf("Truncated POF0 dword cell at %d", i)
			}
			delta = binary.BigEndian.Uint32(cells[i:]) &^ (POF0_MASK << 24)
			i += 4
		}
		pos += delta * 4
		offsets = append(offsets, pos)
	}
	return offsets, nil
}
