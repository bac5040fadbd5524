package mesh

import (
	"encoding/binary"
	"math"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

// testArena appends little records and returns their absolute offsets
type testArena struct {
	buf   []byte
	order binary.ByteOrder
}

func newTestArena(order binary.ByteOrder, reserve int) *testArena {
	return &testArena{buf: make([]byte, reserve), order: order}
}

func (a *testArena) Pos() uint32 {
	return uint32(len(a.buf))
}

func (a *testArena) U32(vs ...uint32) uint32 {
	pos := a.Pos()
	for _, v := range vs {
		var b [4]byte
		a.order.PutUint32(b[:], v)
		a.buf = append(a.buf, b[:]...)
	}
	return pos
}

func (a *testArena) F32(vs ...float32) uint32 {
	pos := a.Pos()
	for _, v := range vs {
		a.U32(math.Float32bits(v))
	}
	return pos
}

func (a *testArena) U16(vs ...uint16) uint32 {
	pos := a.Pos()
	for _, v := range vs {
		var b [2]byte
		a.order.PutUint16(b[:], v)
		a.buf = append(a.buf, b[:]...)
	}
	return pos
}

func (a *testArena) Raw(b []byte) uint32 {
	pos := a.Pos()
	a.buf = append(a.buf, b...)
	return pos
}

func (a *testArena) Zero(n int) uint32 {
	return a.Raw(make([]byte, n))
}

func (a *testArena) Align(n int) {
	for len(a.buf)%n != 0 {
		a.buf = append(a.buf, 0)
	}
}

func (a *testArena) PutU32(at uint32, v uint32) {
	a.order.PutUint32(a.buf[at:], v)
}

func (a *testArena) Context(p config.Platform, revName string, h *common.Header) *common.DecodeContext {
	rev, err := config.GetRevision(revName)
	if err != nil {
		panic(err)
	}
	if h == nil {
		h = &common.Header{}
	}
	return &common.DecodeContext{
		Platform: p,
		Revision: rev,
		Header:   h,
		Payload:  utils.NewBufView("payload", a.buf, a.order),
	}
}

func testSkeleton(n int) *common.Skeleton {
	s := &common.Skeleton{Bones: make([]common.Bone, n)}
	for i := range s.Bones {
		s.Bones[i].Parent = i - 1
	}
	return s
}
