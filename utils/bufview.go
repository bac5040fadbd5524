package utils

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var ErrOutOfBounds = errors.New("read out of bounds")

// BufView is read only window into arena buffer.
// All offsets passed to methods are relative to view start,
// pointers read from buffer are absolute from arena start.
type BufView struct {
	arena []byte
	start int
	order binary.ByteOrder
	kind  string
}

func NewBufView(kind string, arena []byte, order binary.ByteOrder) *BufView {
	return &BufView{arena: arena, order: order, kind: kind}
}

func (bv *BufView) Kind() string {
	return bv.kind
}

func (bv *BufView) Order() binary.ByteOrder {
	return bv.order
}

// Start returns absolute offset of view in arena
func (bv *BufView) Start() int {
	return bv.start
}

func (bv *BufView) Len() int {
	return len(bv.arena) - bv.start
}

func (bv *BufView) String() string {
	return fmt.Sprintf("view<%v>[ao:0x%x,s:0x%x]", bv.kind, bv.start, bv.Len())
}

func (bv *BufView) check(off, size int) error {
	if off < 0 || size < 0 || bv.start+off+size > len(bv.arena) {
		return errors.Wrapf(ErrOutOfBounds, "%v: 0x%x bytes at 0x%x (absolute 0x%x, arena size 0x%x)",
			bv, size, off, bv.start+off, len(bv.arena))
	}
	return nil
}

// CheckTable verifies count records of recSize bytes fit from view start.
// Call it before allocating anything sized by count read from file.
func (bv *BufView) CheckTable(count, recSize int) error {
	if count < 0 || recSize < 0 || uint64(count)*uint64(recSize) > uint64(bv.Len()) {
		return errors.Wrapf(ErrOutOfBounds, "%v: table of %d records by 0x%x bytes (arena size 0x%x)",
			bv, count, recSize, len(bv.arena))
	}
	return nil
}

func (bv *BufView) Has(off, size int) bool {
	return bv.check(off, size) == nil
}

// Bytes returns sub slice of arena. It must be treated as read only.
func (bv *BufView) Bytes(off, size int) ([]byte, error) {
	if err := bv.check(off, size); err != nil {
		return nil, err
	}
	p := bv.start + off
	return bv.arena[p : p+size : p+size], nil
}

func (bv *BufView) U8(off int) (uint8, error) {
	b, err := bv.Bytes(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (bv *BufView) U16(off int) (uint16, error) {
	b, err := bv.Bytes(off, 2)
	if err != nil {
		return 0, err
	}
	return bv.order.Uint16(b), nil
}

func (bv *BufView) I16(off int) (int16, error) {
	v, err := bv.U16(off)
	return int16(v), err
}

func (bv *BufView) U32(off int) (uint32, error) {
	b, err := bv.Bytes(off, 4)
	if err != nil {
		return 0, err
	}
	return bv.order.Uint32(b), nil
}

func (bv *BufView) I32(off int) (int32, error) {
	v, err := bv.U32(off)
	return int32(v), err
}

func (bv *BufView) F32(off int) (float32, error) {
	v, err := bv.U32(off)
	return math.Float32frombits(v), err
}

func (bv *BufView) Vec3(off int) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if err := bv.check(off, 12); err != nil {
		return v, err
	}
	for i := range v {
		v[i], _ = bv.F32(off + i*4)
	}
	return v, nil
}

func (bv *BufView) Vec4(off int) (mgl32.Vec4, error) {
	var v mgl32.Vec4
	if err := bv.check(off, 16); err != nil {
		return v, err
	}
	for i := range v {
		v[i], _ = bv.F32(off + i*4)
	}
	return v, nil
}

// Mat4 reads 16 floats stored row by row
func (bv *BufView) Mat4(off int) (mgl32.Mat4, error) {
	var m mgl32.Mat4
	if err := bv.check(off, 64); err != nil {
		return m, err
	}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			v, _ := bv.F32(off + (row*4+col)*4)
			m.Set(row, col, v)
		}
	}
	return m, nil
}

// Sub creates view starting at offset relative to this view
func (bv *BufView) Sub(kind string, off int) (*BufView, error) {
	if err := bv.check(off, 0); err != nil {
		return nil, err
	}
	return &BufView{arena: bv.arena, start: bv.start + off, order: bv.order, kind: kind}, nil
}

// At creates view starting at absolute arena offset
func (bv *BufView) At(kind string, absolute uint32) (*BufView, error) {
	if uint64(absolute) > uint64(len(bv.arena)) {
		return nil, errors.Wrapf(ErrOutOfBounds, "%v: pointer 0x%x outside arena of size 0x%x",
			bv, absolute, len(bv.arena))
	}
	return &BufView{arena: bv.arena, start: int(absolute), order: bv.order, kind: kind}, nil
}

// Resolve reads pointer at field offset and returns view at that absolute offset
func (bv *BufView) Resolve(kind string, field int) (*BufView, error) {
	ptr, err := bv.U32(field)
	if err != nil {
		return nil, err
	}
	return bv.At(kind, ptr)
}

// Reader returns sequential cursor placed at offset
func (bv *BufView) Reader(off int) *BufReader {
	return &BufReader{view: bv, pos: off}
}

// BufReader is sequential cursor over BufView.
// First failed read is remembered, next reads return zeroes.
type BufReader struct {
	view *BufView
	pos  int
	err  error
}

func (br *BufReader) Err() error {
	return br.err
}

func (br *BufReader) Pos() int {
	return br.pos
}

func (br *BufReader) Seek(pos int) {
	br.pos = pos
}

func (br *BufReader) Skip(amount int) {
	br.pos += amount
}

func (br *BufReader) Read(amount int) []byte {
	if br.err != nil {
		return nil
	}
	b, err := br.view.Bytes(br.pos, amount)
	if err != nil {
		br.err = err
		return nil
	}
	br.pos += amount
	return b
}

func (br *BufReader) U16() uint16 {
	b := br.Read(2)
	if b == nil {
		return 0
	}
	return br.view.order.Uint16(b)
}

func (br *BufReader) I16() int16 {
	return int16(br.U16())
}

func (br *BufReader) U32() uint32 {
	b := br.Read(4)
	if b == nil {
		return 0
	}
	return br.view.order.Uint32(b)
}

func (br *BufReader) I32() int32 {
	return int32(br.U32())
}

func (br *BufReader) F32() float32 {
	return math.Float32frombits(br.U32())
}

func (br *BufReader) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{br.F32(), br.F32(), br.F32()}
}

func (br *BufReader) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{br.F32(), br.F32(), br.F32(), br.F32()}
}
