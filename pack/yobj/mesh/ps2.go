package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/pack/yobj/mat"
	"github.com/mogaika/ymp_browser/ps2/vif"
	"github.com/mogaika/ymp_browser/utils"
)

const (
	PS2_SKIN_ENTRY_SIZE      = 0x1C
	PS2_SKIN_MAX_BONES       = 3
	PS2_PRIMITIVE_SIZE       = 0xD0
	PS2_PRIMITIVE_LOOPS      = 0xC0
	PS2_LOOP_ENTRY_SIZE      = 0x10
	PS2_STRIP_BLOCK_SIZE     = 0x20
	PS2_GROUP_PREFIX_SIZE    = 0x0C
	PS2_LOOP_END_MARKER      = 0x6C218000
	PS2_LOOP_MARKER_OFFSET   = 0x0C
	PS2_LOOP_BLOCKS_OFFSET   = 0x10
	PS2_COLOUR_PREFIX_SIZE   = 0x0C
	PS2_SUBOBJECT_NAME_SIZE  = 0x10
	PS2_SUBOBJECT_EXTENDED   = 0x40
	PS2_STQ_LOOP_COUNT       = 4
	PS2_STQ_LOOP_RECORD_SIZE = 0x30
)

type Ps2SubObject struct {
	SkinTableCount     uint32
	PrimitiveCount     uint32
	SkinTablePtr       uint32
	PrimitivePtr       uint32
	VertexTableCount   uint32
	VertexGroupCount   uint32
	VertexTablePtr     uint32
	ColourPtr          uint32
	CombinedVertices   uint32
	ColourCount        uint32
	IndividualVertices uint32
	Sphere             common.BoundingSphere

	// 208 byte revision only
	MaterialCount   uint32
	MaterialPtr     uint32
	CollectionIndex int32
	Flags           uint32
	Name            string
}

type Ps2SkinEntry struct {
	VerticesAffected uint32
	BoneCount        uint32
	PositionOffset   uint32
	NormalOffset     uint32
	Bones            [PS2_SKIN_MAX_BONES]int32
}

type Ps2StripBlock struct {
	Weights   [3]float32
	Vertex    uint32
	S, T, Q   float32
	SkinTable uint32
}

func (b *Ps2StripBlock) UV() common.UV {
	q := b.Q
	if q == 0 {
		q = 1
	}
	return common.UV{b.S / q, b.T / q}
}

func (b *Ps2StripBlock) IsTerminator() bool {
	return b.Weights[0] == 0 && b.Weights[1] == 0 && b.Weights[2] == 0
}

func parsePs2SubObject(ctx *common.DecodeContext, rec *utils.BufView) (*Ps2SubObject, error) {
	so := &Ps2SubObject{CollectionIndex: -1}
	r := rec.Reader(0)
	so.SkinTableCount = r.U32()
	so.PrimitiveCount = r.U32()
	so.SkinTablePtr = r.U32()
	so.PrimitivePtr = r.U32()
	so.VertexTableCount = r.U32()
	so.VertexGroupCount = r.U32()
	so.VertexTablePtr = r.U32()
	so.ColourPtr = r.U32()
	so.CombinedVertices = r.U32()
	so.ColourCount = r.U32()
	so.IndividualVertices = r.U32()
	r.Skip(4)
	so.Sphere.Center = r.Vec3()
	so.Sphere.Radius = r.F32()

	if ctx.Revision.SubObjectRecordSize > PS2_SUBOBJECT_EXTENDED {
		so.MaterialCount = r.U32()
		so.MaterialPtr = r.U32()
		so.CollectionIndex = r.I32()
		so.Flags = r.U32()
		so.Name = ctx.DecodeName(r.Read(PS2_SUBOBJECT_NAME_SIZE))
	}
	return so, r.Err()
}

func parsePs2SkinTable(ctx *common.DecodeContext, so *Ps2SubObject) ([]Ps2SkinEntry, error) {
	if so.SkinTableCount == 0 {
		return make([]Ps2SkinEntry, 0), nil
	}
	view, err := ctx.Payload.At("skin table", so.SkinTablePtr)
	if err != nil {
		return nil, err
	}
	if err := view.CheckTable(int(so.SkinTableCount), PS2_SKIN_ENTRY_SIZE); err != nil {
		return nil, errors.Wrapf(err, "Skin table")
	}
	entries := make([]Ps2SkinEntry, so.SkinTableCount)
	r := view.Reader(0)
	for i := range entries {
		e := &entries[i]
		e.VerticesAffected = r.U32()
		e.BoneCount = r.U32()
		e.PositionOffset = r.U32()
		e.NormalOffset = r.U32()
		for j := range e.Bones {
			e.Bones[j] = r.I32()
		}
	}
	return entries, r.Err()
}

// readDeltaBlock reads vif code at off and its data, returns offset after data
func readDeltaBlock(view *utils.BufView, off int, imm uint16) (*vif.DeltaBlock, int, error) {
	raw, err := view.U32(off)
	if err != nil {
		return nil, 0, err
	}
	code := vif.NewCode(raw)
	if code.Imm() != imm {
		return nil, 0, errors.Errorf("%v at 0x%x: expected immediate 0x%x", code, view.Start()+off, imm)
	}
	if code.Mode() != vif.UNPACK_V4_32 {
		return nil, 0, errors.Wrapf(common.ErrUnsupportedVertexMode, "%v at 0x%x mode %s",
			code, view.Start()+off, vif.UnpackModeString(code.Mode()))
	}
	data, err := view.Bytes(off+4, vif.BlockSize(code))
	if err != nil {
		return nil, 0, err
	}
	block, err := vif.DecodeDeltaBlock(code, data, view.Order())
	if err != nil {
		return nil, 0, err
	}
	return block, off + 4 + len(data), nil
}

func decodePs2Vertices(ctx *common.DecodeContext, so *Ps2SubObject, sm *common.SubMesh, warn *common.Warnings) error {
	tables := int(so.VertexTableCount)
	if tables == 0 {
		tables = 1
	}
	ptrs, err := ctx.Payload.At("vertex table", so.VertexTablePtr)
	if err != nil {
		return err
	}
	for i := 0; i < tables; i++ {
		ptr, err := ptrs.U32(i * 4)
		if err != nil {
			return errors.Wrapf(err, "Vertex table pointer %d", i)
		}
		group, err := ctx.Payload.At("vertex group", ptr)
		if err != nil {
			return errors.Wrapf(err, "Vertex group %d", i)
		}

		positions, next, err := readDeltaBlock(group, PS2_GROUP_PREFIX_SIZE, vif.IMM_POSITIONS)
		if err != nil {
			return errors.Wrapf(err, "Vertex group %d positions", i)
		}
		normals, _, err := readDeltaBlock(group, next+vif.BLOCK_GAP, vif.IMM_NORMALS)
		if err != nil {
			return errors.Wrapf(err, "Vertex group %d normals", i)
		}
		if len(normals.Resolved) != len(positions.Resolved) {
			warn.Addf("vertex group %d: %d positions but %d normals", i, len(positions.Resolved), len(normals.Resolved))
		}
		for j, p := range positions.Resolved {
			sm.Vertices = append(sm.Vertices, p.Vec3())
			var n mgl32.Vec3
			if j < len(normals.Resolved) {
				n = normals.Resolved[j].Vec3()
			}
			sm.Normals = append(sm.Normals, n)
		}
	}
	if so.CombinedVertices != 0 && int(so.CombinedVertices) != len(sm.Vertices) {
		warn.Addf("header declares %d vertices, decoded %d", so.CombinedVertices, len(sm.Vertices))
	}
	return nil
}

func decodePs2Colours(ctx *common.DecodeContext, so *Ps2SubObject, sm *common.SubMesh, warn *common.Warnings) error {
	if so.ColourPtr == 0 || so.ColourPtr == so.PrimitivePtr || so.ColourCount == 0 {
		return nil
	}
	view, err := ctx.Payload.At("colours", so.ColourPtr)
	if err != nil {
		return err
	}
	colours := make([]common.Color, 0, len(sm.Vertices))
	off := PS2_COLOUR_PREFIX_SIZE
	for i := 0; i < int(so.ColourCount); i++ {
		raw, err := view.U32(off)
		if err != nil {
			return errors.Wrapf(err, "Colour packet %d", i)
		}
		block, next, err := readDeltaBlock(view, off, vif.NewCode(raw).Imm())
		if err != nil {
			return errors.Wrapf(err, "Colour packet %d", i)
		}
		for _, c := range block.Resolved {
			colours = append(colours, common.Color(c))
		}
		off = next + vif.BLOCK_GAP
	}
	if len(colours) != len(sm.Vertices) {
		warn.Addf("%d colours for %d vertices, colours dropped", len(colours), len(sm.Vertices))
		return nil
	}
	sm.VertexColors = colours
	return nil
}

func decodePs2Primitives(ctx *common.DecodeContext, skel *common.Skeleton, so *Ps2SubObject,
	skin []Ps2SkinEntry, sm *common.SubMesh, warn *common.Warnings) error {
	if so.PrimitiveCount == 0 {
		return nil
	}
	prims, err := ctx.Payload.At("primitives", so.PrimitivePtr)
	if err != nil {
		return err
	}

	vertexCount := uint32(len(sm.Vertices))
	sm.UVs = make([]common.UV, vertexCount)
	seen := make([]bool, vertexCount)
	sb := &stripBuilder{}

	for p := 0; p < int(so.PrimitiveCount); p++ {
		r := prims.Reader(p*PS2_PRIMITIVE_SIZE + PS2_PRIMITIVE_LOOPS)
		loopCount := int(r.U16())
		r.Skip(2) // flags
		r.Skip(4) // group count
		loopTablePtr := r.U32()
		loopTableEnd := r.U32()
		if err := r.Err(); err != nil {
			return errors.Wrapf(err, "Primitive %d", p)
		}

		loops, err := ctx.Payload.At("loop table", loopTablePtr)
		if err != nil {
			return errors.Wrapf(err, "Primitive %d loop table", p)
		}
		for l := 0; l < loopCount; l++ {
			if loopTableEnd != 0 && loopTablePtr+uint32(l*PS2_LOOP_ENTRY_SIZE) >= loopTableEnd {
				break
			}
			lr := loops.Reader(l * PS2_LOOP_ENTRY_SIZE)
			lr.Skip(8) // face count, redundant face count
			blockCount := int(lr.U32())
			blockPtr := lr.U32()
			if err := lr.Err(); err != nil {
				return errors.Wrapf(err, "Primitive %d loop %d", p, l)
			}
			blocks, err := ctx.Payload.At("strip blocks", blockPtr)
			if err != nil {
				return errors.Wrapf(err, "Primitive %d loop %d", p, l)
			}
			marker, err := blocks.U32(PS2_LOOP_MARKER_OFFSET)
			if err != nil {
				return errors.Wrapf(err, "Primitive %d loop %d", p, l)
			}
			if marker == PS2_LOOP_END_MARKER {
				break
			}

			br := blocks.Reader(PS2_LOOP_BLOCKS_OFFSET)
			for b := 0; b < blockCount; b++ {
				var blk Ps2StripBlock
				for k := range blk.Weights {
					blk.Weights[k] = br.F32()
				}
				blk.Vertex = br.U32()
				blk.S = br.F32()
				blk.T = br.F32()
				blk.Q = br.F32()
				blk.SkinTable = br.U32()
				if err := br.Err(); err != nil {
					return errors.Wrapf(err, "Primitive %d loop %d block %d", p, l, b)
				}

				if blk.IsTerminator() || blk.Vertex >= vertexCount {
					sb.Flush()
					continue
				}
				sb.Push(blk.Vertex)

				if !seen[blk.Vertex] {
					seen[blk.Vertex] = true
					sm.UVs[blk.Vertex] = blk.UV()
					applyPs2Weights(sm, skel, skin, &blk, warn)
				}
			}
			sb.Flush()
		}
	}
	sm.Faces = sb.Faces()
	return nil
}

func applyPs2Weights(sm *common.SubMesh, skel *common.Skeleton, skin []Ps2SkinEntry, blk *Ps2StripBlock, warn *common.Warnings) {
	if skel.Len() == 0 {
		return
	}
	if int(blk.SkinTable) >= len(skin) {
		warn.Addf("vertex %d: skin table %d of %d, weights dropped", blk.Vertex, blk.SkinTable, len(skin))
		return
	}
	palette := &skin[blk.SkinTable]
	for k, w := range blk.Weights {
		if k >= int(palette.BoneCount) && palette.BoneCount != 0 {
			break
		}
		if palette.Bones[k] < 0 {
			continue
		}
		addInfluence(sm, skel, blk.Vertex, int(palette.Bones[k]), w, warn)
	}
}

func decodePs2(ctx *common.DecodeContext, skel *common.Skeleton, rec *utils.BufView, warn *common.Warnings) (*common.SubMesh, error) {
	so, err := parsePs2SubObject(ctx, rec)
	if err != nil {
		return nil, err
	}
	ctx.Log.Printf("[ps2] sub object %q: %s", so.Name, utils.SDump(so))

	sm := newSubMesh()
	sm.Name = so.Name
	sm.CollectionIndex = int(so.CollectionIndex)
	sm.BoundingSphere = so.Sphere

	skin, err := parsePs2SkinTable(ctx, so)
	if err != nil {
		return nil, errors.Wrapf(err, "Skin table")
	}
	if err := decodePs2Vertices(ctx, so, sm, warn); err != nil {
		return nil, err
	}
	if err := decodePs2Colours(ctx, so, sm, warn); err != nil {
		return nil, err
	}
	if err := decodePs2Primitives(ctx, skel, so, skin, sm, warn); err != nil {
		return nil, err
	}
	if so.MaterialCount != 0 {
		if sm.Material, err = mat.Decode(ctx, so.MaterialPtr, int(so.MaterialCount), warn); err != nil {
			return nil, err
		}
	}
	return sm, nil
}
