package writer

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"
)

func TestPOF0Cells(t *testing.T) {
	for _, tc := range []struct {
		offsets []uint32
		cells   []byte
	}{
		{[]uint32{0x10}, []byte{0x44, 0, 0, 0}},
		{[]uint32{0x10, 0x14, 0x200}, []byte{0x44, 0x41, 0x80, 0x7B}},
		{[]uint32{0x40000}, []byte{0xC0, 0x01, 0x00, 0x00}},
		// unsorted input and duplicates
		{[]uint32{0x8, 0x4, 0x8}, []byte{0x41, 0x41, 0, 0}},
	} {
		footer, err := EncodePOF0(tc.offsets, binary.LittleEndian)
		if err != nil {
			t.Fatalf("%x: %v", tc.offsets, err)
		}
		if string(footer[:4]) != POF0_TAG {
			t.Errorf("%x: tag %q", tc.offsets, footer[:4])
		}
		if size := binary.LittleEndian.Uint32(footer[4:]); int(size) != len(tc.cells) {
			t.Errorf("%x: size %d, want %d", tc.offsets, size, len(tc.cells))
		}
		if !bytes.Equal(footer[POF0_HEADER_SIZE:], tc.cells) {
			t.Errorf("%x: cells % x, want % x", tc.offsets, footer[POF0_HEADER_SIZE:], tc.cells)
		}
	}
}

func TestPOF0RoundTrip(t *testing.T) {
	offsets := []uint32{0, 0x4, 0x20, 0x120, 0x10120, 0x4000000}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		footer, err := EncodePOF0(offsets, order)
		if err != nil {
			t.Fatal(err)
		}
		if len(footer)%4 != 0 {
			t.Errorf("footer not aligned: %d", len(footer))
		}
		got, err := DecodePOF0(footer, order)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, offsets) {
			t.Errorf("%v: got %x, want %x", order, got, offsets)
		}
	}
}

func TestPOF0Errors(t *testing.T) {
	if _, err := EncodePOF0([]uint32{0x6}, binary.LittleEndian); err == nil {
		t.Errorf("unaligned pointer accepted")
	}
	if _, err := DecodePOF0([]byte("POF1\x00\x00\x00\x00"), binary.LittleEndian); err == nil {
		t.Errorf("bad tag accepted")
	}
	if _, err := DecodePOF0([]byte("POF0\x10\x00\x00\x00\x41"), binary.LittleEndian); err == nil {
		t.Errorf("truncated footer accepted")
	}
}
