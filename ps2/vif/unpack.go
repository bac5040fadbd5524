package vif

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var ErrUnsupportedMode = errors.New("unsupported vif unpack mode")

// Immediate values selecting what unpacked block holds
const (
	IMM_POSITIONS = 0x0000
	IMM_NORMALS   = 0x00A0
	IMM_COLOURS   = 0x0280
	IMM_BONES     = 0x8000
)

// bytes between consecutive unpack blocks of one vertex group
const BLOCK_GAP = 0x0C

const V4_32_ELEMENT_SIZE = 0x10

// DeltaBlock is Vec4-32 unpack where element 0 is base and rest are offsets from it
type DeltaBlock struct {
	Code     VifCode
	Base     mgl32.Vec4
	Resolved []mgl32.Vec4
}

// BlockSize returns data size following vif code
func BlockSize(code VifCode) int {
	return code.Count() * V4_32_ELEMENT_SIZE
}

// DecodeDeltaBlock decodes data that follows code.
// Result has Count()-1 vectors: resolved[i-1] = base + delta[i].
func DecodeDeltaBlock(code VifCode, data []byte, order binary.ByteOrder) (*DeltaBlock, error) {
	if code.Mode() != UNPACK_V4_32 {
		return nil, errors.Wrapf(ErrUnsupportedMode, "%v mode %s", code, UnpackModeString(code.Mode()))
	}
	count := code.Count()
	if len(data) < count*V4_32_ELEMENT_SIZE {
		return nil, errors.Errorf("%v needs 0x%x bytes, got 0x%x", code, count*V4_32_ELEMENT_SIZE, len(data))
	}

	read := func(i int) (v mgl32.Vec4) {
		for j := range v {
			v[j] = math.Float32frombits(order.Uint32(data[i*V4_32_ELEMENT_SIZE+j*4:]))
		}
		return v
	}

	db := &DeltaBlock{
		Code:     code,
		Base:     read(0),
		Resolved: make([]mgl32.Vec4, count-1),
	}
	for i := 1; i < count; i++ {
		db.Resolved[i-1] = db.Base.Add(read(i))
	}
	return db, nil
}

// EncodeDeltaBlock is inverse of DecodeDeltaBlock, up to 255 vectors per block
func EncodeDeltaBlock(imm uint16, base mgl32.Vec4, vectors []mgl32.Vec4, order binary.ByteOrder) ([]byte, error) {
	count := len(vectors) + 1
	if count > 256 {
		return nil, errors.Errorf("Too many vectors for one unpack: %d", len(vectors))
	}
	out := make([]byte, 4+count*V4_32_ELEMENT_SIZE)
	order.PutUint32(out, uint32(NewUnpackCode(UNPACK_V4_32, count, imm)))
	put := func(i int, v mgl32.Vec4) {
		for j := range v {
			order.PutUint32(out[4+i*V4_32_ELEMENT_SIZE+j*4:], math.Float32bits(v[j]))
		}
	}
	put(0, base)
	for i, v := range vectors {
		put(i+1, v.Sub(base))
	}
	return out, nil
}
