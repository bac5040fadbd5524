package writer

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/pack/yobj/common"
)

const (
	XBOX_MAX_BONE_REFS    = 20
	XBOX_VERTEX_SIZE      = 0x1C
	XBOX_UV_SIZE          = 0x08
	XBOX_TANGENT_SIZE     = 0x10
	XBOX_FACE_BATCH_SIZE  = 0x0C
	XBOX_FACE_BATCH_MAGIC = 6
	XBOX_SUBOBJECT_BASE   = 0xB4
	XBOX_WEIGHT_HEAD_SIZE = 0x10
	XBOX_WEIGHT_PAIR_SIZE = 0x08
	XBOX_CHAIN_MORE       = 0xFF
	XBOX_CHAIN_END        = 0xFFFFFFFF
	XBOX_DEFAULT_COLOR    = 0xFFFFFFFF
)

// xboxPalette returns bone refs and bone to chain index map.
// Too many bones leave refs empty and chain stores skeleton indexes.
func xboxPalette(sm *common.SubMesh, skel *common.Skeleton) ([]int32, map[int]uint32) {
	used := make(map[int]bool)
	for _, infs := range sm.Weights {
		for _, inf := range infs {
			if inf.Weight != 0 && skel.Valid(inf.Bone) {
				used[inf.Bone] = true
			}
		}
	}
	bones := make([]int, 0, len(used))
	for b := range used {
		bones = append(bones, b)
	}
	sort.Ints(bones)

	slots := make(map[int]uint32, len(bones))
	if len(bones) > XBOX_MAX_BONE_REFS {
		for _, b := range bones {
			slots[b] = uint32(b)
		}
		return nil, slots
	}
	refs := make([]int32, len(bones))
	for i, b := range bones {
		refs[i] = int32(b)
		slots[b] = uint32(i)
	}
	return refs, slots
}

// writeXboxWeights returns weight buffer pointer and chain entry count
func (w *writer) writeXboxWeights(sm *common.SubMesh, slots map[int]uint32) (uint32, uint32) {
	if w.scene.Skeleton.Len() == 0 || len(sm.Weights) == 0 || len(sm.Vertices) == 0 {
		return 0, 0
	}
	c := w.c
	c.Align(4)
	ptr := c.Pos()
	entries := uint32(0)
	for v := range sm.Vertices {
		infs := make([]common.Influence, 0)
		for _, inf := range sm.Weights[uint32(v)] {
			if _, ok := slots[inf.Bone]; ok && inf.Weight != 0 {
				infs = append(infs, inf)
			}
		}

		head := c.Alloc(XBOX_WEIGHT_HEAD_SIZE)
		entries++
		if len(infs) == 0 {
			continue
		}
		c.PutU32(head, slots[infs[0].Bone])
		c.PutF32(head+4, infs[0].Weight)
		if len(infs) == 1 {
			continue
		}
		c.PutU32(head+8, XBOX_CHAIN_MORE)
		for _, inf := range infs[1:] {
			pair := c.Alloc(XBOX_WEIGHT_PAIR_SIZE)
			c.PutF32(pair, inf.Weight)
			c.PutU32(pair+4, slots[inf.Bone])
			entries++
		}
		end := c.Alloc(XBOX_WEIGHT_PAIR_SIZE)
		c.PutU32(end+4, XBOX_CHAIN_END)
		entries++
	}
	return ptr, entries
}

// writeXboxFaces writes one batch per triangle, winding is stored flipped
func (w *writer) writeXboxFaces(sm *common.SubMesh) (uint32, error) {
	if len(sm.Faces) == 0 {
		return 0, nil
	}
	c := w.c
	batches := c.Alloc((len(sm.Faces) + 1) * XBOX_FACE_BATCH_SIZE)
	for i, f := range sm.Faces {
		for _, v := range f {
			if v > 0xFFFF || v >= uint32(len(sm.Vertices)) {
				return 0, errors.Errorf("Face %d vertex %d can't be stored", i, v)
			}
		}
		idx := c.Alloc(6)
		c.PutU16(idx, uint16(f[0]))
		c.PutU16(idx+2, uint16(f[2]))
		c.PutU16(idx+4, uint16(f[1]))

		rec := batches + uint32(i*XBOX_FACE_BATCH_SIZE)
		c.PutU32(rec, XBOX_FACE_BATCH_MAGIC)
		c.PutU32(rec+4, 3)
		c.PutPtr(rec+8, idx)
	}
	return batches, nil
}

func (w *writer) writeXboxSubObject(rec uint32, sm *common.SubMesh, recSize uint32) error {
	c := w.c
	n := len(sm.Vertices)

	var vertexPtr, uvPtr, tangentPtr uint32
	if n != 0 {
		vertexPtr = c.Alloc(n * XBOX_VERTEX_SIZE)
		for i, v := range sm.Vertices {
			at := vertexPtr + uint32(i*XBOX_VERTEX_SIZE)
			c.PutVec3(at, v)
			if i < len(sm.Normals) {
				c.PutVec3(at+0x0C, sm.Normals[i])
			}
			argb := uint32(XBOX_DEFAULT_COLOR)
			if len(sm.VertexColors) == n {
				argb = sm.VertexColors[i].ARGB()
			}
			c.PutU32(at+0x18, argb)
		}
		uvPtr = c.Alloc(n * XBOX_UV_SIZE)
		if len(sm.UVs) == n {
			for i, uv := range sm.UVs {
				c.PutF32(uvPtr+uint32(i*XBOX_UV_SIZE), uv[0], uv[1])
			}
		}
		if recSize > XBOX_SUBOBJECT_BASE && len(sm.Tangents) == n {
			tangentPtr = c.Alloc(n * XBOX_TANGENT_SIZE)
			for i, t := range sm.Tangents {
				c.PutVec4(tangentPtr+uint32(i*XBOX_TANGENT_SIZE), t)
			}
		}
	}

	refs, slots := xboxPalette(sm, &w.scene.Skeleton)
	weightPtr, entries := w.writeXboxWeights(sm, slots)
	batches, err := w.writeXboxFaces(sm)
	if err != nil {
		return err
	}
	matPtr, err := w.writeMaterials(sm.Material)
	if err != nil {
		return err
	}
	name, err := w.name(sm.Name)
	if err != nil {
		return err
	}

	c.PutU32(rec+0x00, uint32(n))
	c.PutU32(rec+0x04, uint32(len(refs)))
	c.PutU32(rec+0x08, entries)
	for i, b := range refs {
		c.PutI32(rec+0x0C+uint32(i*4), b)
	}
	c.PutPtr(rec+0x5C, vertexPtr)
	c.PutPtr(rec+0x60, weightPtr)
	c.PutPtr(rec+0x64, uvPtr)
	c.PutU32(rec+0x68, uint32(len(sm.Material)))
	c.PutPtr(rec+0x6C, matPtr)
	c.PutPtr(rec+0x70, batches)
	c.PutI32(rec+0x74, int32(sm.CollectionIndex))
	c.Put(rec+0x78, name)
	c.PutF32(rec+0xA4, sm.BoundingSphere.Radius)
	c.PutVec3(rec+0xA8, sm.BoundingSphere.Center)
	if recSize > XBOX_SUBOBJECT_BASE {
		c.PutPtr(rec+0xB4, tangentPtr)
	}
	return nil
}
