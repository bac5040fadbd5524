package writer

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/ps2/vif"
)

const (
	PS2_GROUP_MAX_VERTICES = 255
	PS2_GROUP_PREFIX_SIZE  = 0x0C
	PS2_SKIN_ENTRY_SIZE    = 0x1C
	PS2_PRIMITIVE_SIZE     = 0xD0
	PS2_LOOP_ENTRY_SIZE    = 0x10
	PS2_STRIP_BLOCK_SIZE   = 0x20
	PS2_LOOP_HEADER_SIZE   = 0x10
	PS2_SUBOBJECT_EXTENDED = 0x40
)

type ps2Palette struct {
	bones    [3]int32
	vertices uint32
}

type ps2VertexSkin struct {
	table   uint32
	weights [3]float32
}

// buildPs2Skin groups up to three strongest influences of every vertex
// into shared bone palettes
func buildPs2Skin(sm *common.SubMesh) ([]ps2Palette, []ps2VertexSkin) {
	palettes := make([]ps2Palette, 0)
	index := make(map[[3]int32]uint32)
	skins := make([]ps2VertexSkin, len(sm.Vertices))

	for v := range sm.Vertices {
		infs := make([]common.Influence, 0, 3)
		for _, inf := range sm.Weights[uint32(v)] {
			if inf.Weight != 0 {
				infs = append(infs, inf)
			}
		}
		sort.SliceStable(infs, func(i, j int) bool { return infs[i].Weight > infs[j].Weight })
		if len(infs) > 3 {
			infs = infs[:3]
		}
		sort.SliceStable(infs, func(i, j int) bool { return infs[i].Bone < infs[j].Bone })

		key := [3]int32{-1, -1, -1}
		var weights [3]float32
		for i, inf := range infs {
			key[i] = int32(inf.Bone)
			weights[i] = inf.Weight
		}
		if len(infs) == 0 {
			// strip blocks with zero weights end strips
			weights[0] = 1
		}

		table, ok := index[key]
		if !ok {
			table = uint32(len(palettes))
			index[key] = table
			palettes = append(palettes, ps2Palette{bones: key})
		}
		palettes[table].vertices++
		skins[v] = ps2VertexSkin{table: table, weights: weights}
	}
	return palettes, skins
}

func vec4s(vs []mgl32.Vec3, from, to int, w float32) []mgl32.Vec4 {
	out := make([]mgl32.Vec4, 0, to-from)
	for i := from; i < to; i++ {
		var v mgl32.Vec3
		if i < len(vs) {
			v = vs[i]
		}
		out = append(out, v.Vec4(w))
	}
	return out
}

func (w *writer) writePs2Groups(sm *common.SubMesh) (uint32, int, error) {
	c := w.c
	n := len(sm.Vertices)
	normals := sm.Normals
	if len(normals) != n {
		normals = nil
	}

	groups := make([]uint32, 0)
	for from := 0; from == 0 || from < n; from += PS2_GROUP_MAX_VERTICES {
		to := from + PS2_GROUP_MAX_VERTICES
		if to > n {
			to = n
		}
		base := sm.BoundingSphere.Center.Vec4(1)
		positions, err := vif.EncodeDeltaBlock(vif.IMM_POSITIONS, base, vec4s(sm.Vertices, from, to, 1), c.order)
		if err != nil {
			return 0, 0, err
		}
		norms, err := vif.EncodeDeltaBlock(vif.IMM_NORMALS, mgl32.Vec4{}, vec4s(normals, from, to, 0), c.order)
		if err != nil {
			return 0, 0, err
		}
		group := c.Alloc(PS2_GROUP_PREFIX_SIZE)
		c.Append(positions)
		c.Alloc(vif.BLOCK_GAP)
		c.Append(norms)
		groups = append(groups, group)
	}

	table := c.Alloc(len(groups) * 4)
	for i, g := range groups {
		c.PutPtr(table+uint32(i*4), g)
	}
	return table, len(groups), nil
}

func (w *writer) writePs2Colours(sm *common.SubMesh) (uint32, int, error) {
	n := len(sm.Vertices)
	if n == 0 || len(sm.VertexColors) != n {
		return 0, 0, nil
	}
	c := w.c
	ptr := c.Alloc(PS2_GROUP_PREFIX_SIZE)
	packets := 0
	for from := 0; from < n; from += PS2_GROUP_MAX_VERTICES {
		to := from + PS2_GROUP_MAX_VERTICES
		if to > n {
			to = n
		}
		colours := make([]mgl32.Vec4, 0, to-from)
		for _, col := range sm.VertexColors[from:to] {
			colours = append(colours, mgl32.Vec4(col))
		}
		packet, err := vif.EncodeDeltaBlock(vif.IMM_COLOURS, mgl32.Vec4{}, colours, c.order)
		if err != nil {
			return 0, 0, err
		}
		c.Append(packet)
		c.Alloc(vif.BLOCK_GAP)
		packets++
	}
	return ptr, packets, nil
}

// writePs2Primitive stores every triangle as own strip split by terminator blocks
func (w *writer) writePs2Primitive(sm *common.SubMesh, skins []ps2VertexSkin) (uint32, error) {
	if len(sm.Faces) == 0 {
		return 0, nil
	}
	c := w.c
	n := uint32(len(sm.Vertices))
	blockCount := len(sm.Faces)*4 - 1
	blocks := c.Alloc(PS2_LOOP_HEADER_SIZE + blockCount*PS2_STRIP_BLOCK_SIZE)

	pos := blocks + PS2_LOOP_HEADER_SIZE
	for i, f := range sm.Faces {
		if i != 0 {
			// terminator block is left zeroed
			pos += PS2_STRIP_BLOCK_SIZE
		}
		for _, v := range f {
			if v >= n {
				return 0, errors.Errorf("Face %d references vertex %d of %d", i, v, n)
			}
			skin := skins[v]
			c.PutF32(pos, skin.weights[:]...)
			c.PutU32(pos+0x0C, v)
			var uv common.UV
			if len(sm.UVs) == int(n) {
				uv = sm.UVs[v]
			}
			c.PutF32(pos+0x10, uv[0], uv[1], 1)
			c.PutU32(pos+0x1C, skin.table)
			pos += PS2_STRIP_BLOCK_SIZE
		}
	}

	loops := c.Alloc(PS2_LOOP_ENTRY_SIZE)
	c.PutU32(loops, uint32(len(sm.Faces)))
	c.PutU32(loops+0x08, uint32(blockCount))
	c.PutPtr(loops+0x0C, blocks)

	prim := c.Alloc(PS2_PRIMITIVE_SIZE)
	c.PutU16(prim+0xC0, 1)
	c.PutU32(prim+0xC4, 1)
	c.PutPtr(prim+0xC8, loops)
	c.PutPtr(prim+0xCC, loops+PS2_LOOP_ENTRY_SIZE)
	return prim, nil
}

func (w *writer) writePs2SubObject(rec uint32, sm *common.SubMesh) error {
	c := w.c
	palettes, skins := buildPs2Skin(sm)

	skinPtr := uint32(0)
	if len(palettes) != 0 {
		skinPtr = c.Alloc(len(palettes) * PS2_SKIN_ENTRY_SIZE)
		for i, p := range palettes {
			e := skinPtr + uint32(i*PS2_SKIN_ENTRY_SIZE)
			bones := uint32(0)
			for _, b := range p.bones {
				if b >= 0 {
					bones++
				}
			}
			c.PutU32(e, p.vertices)
			c.PutU32(e+0x04, bones)
			for j, b := range p.bones {
				c.PutI32(e+0x10+uint32(j*4), b)
			}
		}
	}

	vertexTable, groups, err := w.writePs2Groups(sm)
	if err != nil {
		return err
	}
	colourPtr, colourPackets, err := w.writePs2Colours(sm)
	if err != nil {
		return err
	}
	primPtr, err := w.writePs2Primitive(sm, skins)
	if err != nil {
		return err
	}

	c.PutU32(rec+0x00, uint32(len(palettes)))
	if primPtr != 0 {
		c.PutU32(rec+0x04, 1)
	}
	c.PutPtr(rec+0x08, skinPtr)
	c.PutPtr(rec+0x0C, primPtr)
	c.PutU32(rec+0x10, uint32(groups))
	c.PutU32(rec+0x14, uint32(groups))
	c.PutPtr(rec+0x18, vertexTable)
	c.PutPtr(rec+0x1C, colourPtr)
	c.PutU32(rec+0x20, uint32(len(sm.Vertices)))
	c.PutU32(rec+0x24, uint32(colourPackets))
	c.PutU32(rec+0x28, uint32(len(sm.Vertices)))
	c.PutVec3(rec+0x30, sm.BoundingSphere.Center)
	c.PutF32(rec+0x3C, sm.BoundingSphere.Radius)

	if w.rev.SubObjectRecordSize <= PS2_SUBOBJECT_EXTENDED {
		if len(sm.Material) != 0 {
			w.log.Printf("[writer] revision %q has no material table, %d params of %q dropped", w.rev.Name, len(sm.Material), sm.Name)
		}
		return nil
	}
	matPtr, err := w.writeMaterials(sm.Material)
	if err != nil {
		return err
	}
	name, err := w.name(sm.Name)
	if err != nil {
		return err
	}
	c.PutU32(rec+0x40, uint32(len(sm.Material)))
	c.PutPtr(rec+0x44, matPtr)
	c.PutI32(rec+0x48, int32(sm.CollectionIndex))
	c.Put(rec+0x50, name)
	return nil
}
