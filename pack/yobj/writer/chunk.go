package writer

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// chunk is growing payload buffer that remembers pointer fields for POF0
type chunk struct {
	order    binary.ByteOrder
	data     []byte
	pointers []uint32
}

func newChunk(order binary.ByteOrder) *chunk {
	return &chunk{order: order}
}

func (c *chunk) Pos() uint32 {
	return uint32(len(c.data))
}

func (c *chunk) Align(n int) {
	for len(c.data)%n != 0 {
		c.data = append(c.data, 0)
	}
}

// Alloc appends n zero bytes aligned to 4 and returns their offset
func (c *chunk) Alloc(n int) uint32 {
	c.Align(4)
	pos := c.Pos()
	c.data = append(c.data, make([]byte, n)...)
	return pos
}

func (c *chunk) Append(b []byte) uint32 {
	c.Align(4)
	pos := c.Pos()
	c.data = append(c.data, b...)
	return pos
}

func (c *chunk) PutU16(at uint32, v uint16) {
	c.order.PutUint16(c.data[at:], v)
}

func (c *chunk) PutU32(at uint32, v uint32) {
	c.order.PutUint32(c.data[at:], v)
}

func (c *chunk) PutI32(at uint32, v int32) {
	c.PutU32(at, uint32(v))
}

func (c *chunk) PutF32(at uint32, vs ...float32) {
	for i, v := range vs {
		c.PutU32(at+uint32(i*4), math.Float32bits(v))
	}
}

func (c *chunk) PutVec3(at uint32, v mgl32.Vec3) {
	c.PutF32(at, v[0], v[1], v[2])
}

func (c *chunk) PutVec4(at uint32, v mgl32.Vec4) {
	c.PutF32(at, v[0], v[1], v[2], v[3])
}

// PutPtr writes pointer field, non null pointers are relocated by POF0
func (c *chunk) PutPtr(at uint32, target uint32) {
	c.PutU32(at, target)
	if target != 0 {
		c.pointers = append(c.pointers, at)
	}
}

func (c *chunk) Put(at uint32, b []byte) {
	copy(c.data[at:], b)
}
