package skel

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

const (
	BONE_NAME_SIZE = 0x10

	PS2_BONE_TRANSLATION = 0x10
	PS2_BONE_ROTATION    = 0x20
	PS2_BONE_PARENT      = 0x30
	PS2_BONE_REST_MATRIX = 0x50

	XBOX_BONE_TRANSLATION = 0x10
	XBOX_BONE_EULER       = 0x20
	XBOX_BONE_PARENT      = 0x30
)

// length of tail for bones without children
const DEFAULT_TAIL_LENGTH = 0.1

// Decode reads bone table and resolves world transforms.
// Zero bones is valid and produces empty skeleton.
func Decode(ctx *common.DecodeContext) (*common.Skeleton, error) {
	s := &common.Skeleton{Bones: make([]common.Bone, 0)}
	count := int(ctx.Header.BoneCount)
	if count == 0 {
		ctx.Log.Printf("[skel] no bones, meshes will be unskinned")
		return s, nil
	}

	table, err := ctx.Payload.At("bones", ctx.Header.BonePtr)
	if err != nil {
		return nil, errors.Wrapf(err, "Bone table")
	}
	recSize := int(ctx.Revision.BoneRecordSize)
	if err := table.CheckTable(count, recSize); err != nil {
		return nil, errors.Wrapf(err, "Bone table")
	}

	s.Bones = make([]common.Bone, count)
	for i := range s.Bones {
		rec, _ := table.Sub("bone", i*recSize)
		var b common.Bone
		switch ctx.Platform {
		case config.Xbox:
			b, err = parseXboxBone(ctx, rec)
		default:
			b, err = parsePs2Bone(ctx, rec)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Bone %d", i)
		}
		if b.Parent < common.NO_PARENT || b.Parent >= count {
			return nil, errors.Wrapf(common.ErrInvalidParentIndex, "Bone %d %q: parent %d not in [-1, %d)", i, b.Name, b.Parent, count)
		}
		s.Bones[i] = b
	}

	if err := ComposeWorld(s.Bones); err != nil {
		return nil, err
	}
	ComputeDisplay(s.Bones)
	return s, nil
}

func parsePs2Bone(ctx *common.DecodeContext, rec *utils.BufView) (common.Bone, error) {
	var b common.Bone
	r := rec.Reader(0)
	b.Name = ctx.DecodeName(r.Read(BONE_NAME_SIZE))
	b.LocalTranslation = r.Vec4().Vec3()
	q := r.Vec4()
	b.LocalRotation = mgl32.Quat{W: q[3], V: q.Vec3()}
	b.Parent = int(r.I32())
	if err := r.Err(); err != nil {
		return b, err
	}

	if ctx.Revision.HasRestMatrix {
		m, err := rec.Mat4(PS2_BONE_REST_MATRIX)
		if err != nil {
			return b, errors.Wrapf(err, "Rest matrix")
		}
		b.RestMatrix = &m
	}

	if b.LocalRotation.Len() == 0 {
		b.LocalRotation = mgl32.QuatIdent()
	}
	b.Local = utils.LocalTransform(b.LocalTranslation, b.LocalRotation)
	return b, nil
}

func parseXboxBone(ctx *common.DecodeContext, rec *utils.BufView) (common.Bone, error) {
	var b common.Bone
	r := rec.Reader(0)
	b.Name = ctx.DecodeName(r.Read(BONE_NAME_SIZE))
	b.LocalTranslation = r.Vec3()
	r.Seek(XBOX_BONE_EULER)
	euler := r.Vec3()
	r.Seek(XBOX_BONE_PARENT)
	b.Parent = int(r.I32())
	if err := r.Err(); err != nil {
		return b, err
	}

	rot := utils.EulerToMat4(euler)
	b.LocalEuler = &euler
	b.LocalRotation = mgl32.Mat4ToQuat(rot)
	b.Local = mgl32.Translate3D(b.LocalTranslation.Elem()).Mul4(rot)
	return b, nil
}

const (
	visitNone = iota
	visitActive
	visitDone
)

// ComposeWorld fills World for every bone. Parents may appear after
// children in the table, cycles fail with ErrInvalidParentIndex.
func ComposeWorld(bones []common.Bone) error {
	state := make([]uint8, len(bones))
	axis := utils.AxisCorrection()

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case visitDone:
			return nil
		case visitActive:
			return errors.Wrapf(common.ErrInvalidParentIndex, "Bone %d %q: parent chain loops", i, bones[i].Name)
		}
		state[i] = visitActive

		b := &bones[i]
		if !b.HasParent() {
			b.World = axis.Mul4(b.Local)
		} else {
			if b.Parent < 0 || b.Parent >= len(bones) {
				return errors.Wrapf(common.ErrInvalidParentIndex, "Bone %d %q: parent %d", i, b.Name, b.Parent)
			}
			if err := visit(b.Parent); err != nil {
				return err
			}
			b.World = bones[b.Parent].World.Mul4(b.Local)
		}
		state[i] = visitDone
		return nil
	}

	for i := range bones {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

// ComputeDisplay fills Children and Tail, World must be resolved
func ComputeDisplay(bones []common.Bone) {
	for i := range bones {
		bones[i].Children = make([]int, 0)
	}
	for i := range bones {
		if p := bones[i].Parent; p >= 0 && p < len(bones) {
			bones[p].Children = append(bones[p].Children, i)
		}
	}

	for i := range bones {
		b := &bones[i]
		head := b.Head()
		if len(b.Children) != 0 {
			tail := bones[b.Children[0]].Head()
			if tail.Sub(head).Len() > 1e-5 {
				b.Tail = tail
				continue
			}
		}
		b.Tail = b.World.Mul4x1(mgl32.Vec4{0, DEFAULT_TAIL_LENGTH, 0, 1}).Vec3()
	}
}
