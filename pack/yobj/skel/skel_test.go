package skel

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

type testBone struct {
	name   string
	t      mgl32.Vec3
	euler  mgl32.Vec3
	parent int32
}

const testBonePtr = 0x30

// buildPayload pins one revision per call
func buildPayload(rev *config.Revision, bones []testBone) []byte {
	order := common.PlatformOrder(rev.Platform)
	size := int(rev.BoneRecordSize)
	buf := make([]byte, testBonePtr+len(bones)*size)
	order.PutUint32(buf[rev.BoneCount:], uint32(len(bones)))
	order.PutUint32(buf[rev.BonePtr:], testBonePtr)

	putF := func(off int, v float32) { order.PutUint32(buf[off:], math.Float32bits(v)) }
	for i, b := range bones {
		rec := testBonePtr + i*size
		copy(buf[rec:rec+BONE_NAME_SIZE], b.name)
		for j := 0; j < 3; j++ {
			putF(rec+0x10+j*4, b.t[j])
		}
		if rev.Platform == config.Xbox {
			for j := 0; j < 3; j++ {
				putF(rec+XBOX_BONE_EULER+j*4, b.euler[j])
			}
		} else {
			putF(rec+PS2_BONE_ROTATION+12, 1) // w
		}
		order.PutUint32(buf[rec+0x30:], uint32(b.parent))
	}
	return buf
}

func decodeBones(t *testing.T, revName string, bones []testBone) (*common.Skeleton, error) {
	rev, err := config.GetRevision(revName)
	if err != nil {
		t.Fatal(err)
	}
	payload := utils.NewBufView("payload", buildPayload(rev, bones), common.PlatformOrder(rev.Platform))
	h, err := common.ReadHeader(payload, rev)
	if err != nil {
		t.Fatal(err)
	}
	return Decode(&common.DecodeContext{
		Platform: rev.Platform,
		Revision: rev,
		Header:   h,
		Payload:  payload,
	})
}

func TestRootAxisCorrection(t *testing.T) {
	for _, rev := range []string{config.REVISION_PS2, config.REVISION_PS2_LEGACY, config.REVISION_XBOX} {
		s, err := decodeBones(t, rev, []testBone{{name: "root", t: mgl32.Vec3{1, 2, 3}, parent: -1}})
		if err != nil {
			t.Fatalf("%s: %v", rev, err)
		}
		if s.Len() != 1 {
			t.Fatalf("%s: got %d bones", rev, s.Len())
		}
		b := s.Bones[0]
		if b.Name != "root" || b.HasParent() {
			t.Errorf("%s: bad bone %+v", rev, b)
		}
		if head := b.Head(); !head.ApproxEqualThreshold(mgl32.Vec3{1, 3, -2}, 1e-5) {
			t.Errorf("%s: root world translation %v, want (1,3,-2)", rev, head)
		}
		if !utils.Mat4ApproxEqual(b.World, utils.AxisCorrection().Mul4(b.Local), 1e-5) {
			t.Errorf("%s: root world is not axis * local", rev)
		}
	}
}

func TestWorldComposition(t *testing.T) {
	bones := []testBone{
		{name: "hip", t: mgl32.Vec3{0, 1, 0}, parent: -1},
		// parent stored after child
		{name: "hand", t: mgl32.Vec3{0.5, 0, 0}, euler: mgl32.Vec3{0, 0, 0.3}, parent: 2},
		{name: "arm", t: mgl32.Vec3{0, 0.5, 0}, euler: mgl32.Vec3{0.2, 0.1, 0}, parent: 0},
	}
	s, err := decodeBones(t, config.REVISION_XBOX, bones)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range s.Bones {
		want := utils.AxisCorrection().Mul4(b.Local)
		if b.HasParent() {
			want = s.Bones[b.Parent].World.Mul4(b.Local)
		}
		if !utils.Mat4ApproxEqual(b.World, want, 1e-5) {
			t.Errorf("bone %d: world %v, want %v", i, b.World, want)
		}
	}
	if len(s.Bones[0].Children) != 1 || s.Bones[0].Children[0] != 2 {
		t.Errorf("hip children %v", s.Bones[0].Children)
	}
	if !s.Bones[2].Tail.ApproxEqualThreshold(s.Bones[1].Head(), 1e-5) {
		t.Errorf("arm tail %v not at hand head %v", s.Bones[2].Tail, s.Bones[1].Head())
	}
	if s.Bones[1].Tail.Sub(s.Bones[1].Head()).Len() < 1e-3 {
		t.Errorf("leaf bone without tail")
	}
}

func TestParentErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		bones []testBone
	}{
		{"above count", []testBone{{name: "a", parent: -1}, {name: "b", parent: 2}}},
		{"below -1", []testBone{{name: "a", parent: -2}}},
		{"cycle", []testBone{{name: "a", parent: 1}, {name: "b", parent: 0}}},
		{"self", []testBone{{name: "a", parent: 0}}},
	} {
		_, err := decodeBones(t, config.REVISION_PS2, tc.bones)
		if !errors.Is(err, common.ErrInvalidParentIndex) {
			t.Errorf("%s: got %v, want ErrInvalidParentIndex", tc.name, err)
		}
	}
}

func TestEmptySkeleton(t *testing.T) {
	s, err := decodeBones(t, config.REVISION_PS2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("got %d bones", s.Len())
	}
}

func TestTruncatedBoneTable(t *testing.T) {
	rev, _ := config.GetRevision(config.REVISION_PS2)
	data := buildPayload(rev, []testBone{{name: "a", parent: -1}, {name: "b", parent: 0}})
	data = data[:len(data)-4]
	payload := utils.NewBufView("payload", data, binary.LittleEndian)
	h, _ := common.ReadHeader(payload, rev)
	_, err := Decode(&common.DecodeContext{Platform: config.PS2, Revision: rev, Header: h, Payload: payload})
	if !errors.Is(err, common.ErrOutOfBounds) {
		t.Errorf("got %v, want ErrOutOfBounds", err)
	}
}
