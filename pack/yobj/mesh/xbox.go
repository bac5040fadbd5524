package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/pack/yobj/mat"
	"github.com/mogaika/ymp_browser/utils"
)

const (
	XBOX_MAX_BONE_REFS       = 20
	XBOX_VERTEX_SIZE         = 0x1C
	XBOX_UV_SIZE             = 0x08
	XBOX_TANGENT_SIZE        = 0x10
	XBOX_FACE_BATCH_SIZE     = 0x0C
	XBOX_FACE_BATCH_MAGIC    = 6
	XBOX_SUBOBJECT_NAME      = 0x78
	XBOX_SUBOBJECT_NAME_SIZE = 0x10
	XBOX_SUBOBJECT_RADIUS    = 0xA4
	XBOX_SUBOBJECT_TANGENT   = 0xB4
)

type XboxSubObject struct {
	VertexCount      uint32
	BoneRefCount     uint32
	WeightEntryCount uint32
	BoneRefs         [XBOX_MAX_BONE_REFS]int32
	VertexPtr        uint32
	WeightPtr        uint32
	UVPtr            uint32
	MaterialCount    uint32
	MaterialPtr      uint32
	FaceBatchPtr     uint32
	CollectionIndex  int32
	Name             string
	Sphere           common.BoundingSphere
	// zero when record has no tangent field
	TangentPtr uint32
}

// Palette returns bone refs used by weight chain
func (so *XboxSubObject) Palette() []int32 {
	n := so.BoneRefCount
	if n > XBOX_MAX_BONE_REFS {
		n = XBOX_MAX_BONE_REFS
	}
	return so.BoneRefs[:n]
}

func parseXboxSubObject(ctx *common.DecodeContext, rec *utils.BufView) (*XboxSubObject, error) {
	so := &XboxSubObject{}
	r := rec.Reader(0)
	so.VertexCount = r.U32()
	so.BoneRefCount = r.U32()
	so.WeightEntryCount = r.U32()
	for i := range so.BoneRefs {
		so.BoneRefs[i] = r.I32()
	}
	so.VertexPtr = r.U32()
	so.WeightPtr = r.U32()
	so.UVPtr = r.U32()
	so.MaterialCount = r.U32()
	so.MaterialPtr = r.U32()
	so.FaceBatchPtr = r.U32()
	so.CollectionIndex = r.I32()
	so.Name = ctx.DecodeName(r.Read(XBOX_SUBOBJECT_NAME_SIZE))
	r.Seek(XBOX_SUBOBJECT_RADIUS)
	so.Sphere.Radius = r.F32()
	so.Sphere.Center = r.Vec3()
	if ctx.Header.SubObjectRecordSize(ctx.Revision) > XBOX_SUBOBJECT_TANGENT {
		so.TangentPtr = r.U32()
	}
	return so, r.Err()
}

func decodeXboxVertices(ctx *common.DecodeContext, so *XboxSubObject, sm *common.SubMesh) error {
	n := int(so.VertexCount)
	if n == 0 {
		return nil
	}
	verts, err := ctx.Payload.At("vertices", so.VertexPtr)
	if err != nil {
		return err
	}
	if err := verts.CheckTable(n, XBOX_VERTEX_SIZE); err != nil {
		return errors.Wrapf(err, "Vertex buffer of %d vertices", n)
	}
	sm.Vertices = make([]common.Position, n)
	sm.Normals = make([]common.Normal, n)
	sm.VertexColors = make([]common.Color, n)
	r := verts.Reader(0)
	for i := 0; i < n; i++ {
		sm.Vertices[i] = r.Vec3()
		sm.Normals[i] = r.Vec3()
		sm.VertexColors[i] = utils.NewColorFloatARGB(r.U32())
	}

	sm.UVs = make([]common.UV, n)
	if so.UVPtr != 0 {
		uvs, err := ctx.Payload.At("uvs", so.UVPtr)
		if err != nil {
			return err
		}
		ur := uvs.Reader(0)
		for i := 0; i < n; i++ {
			sm.UVs[i] = common.UV{ur.F32(), ur.F32()}
		}
		if err := ur.Err(); err != nil {
			return errors.Wrapf(err, "UV buffer")
		}
	}

	if so.TangentPtr != 0 {
		tangents, err := ctx.Payload.At("tangents", so.TangentPtr)
		if err != nil {
			return err
		}
		sm.Tangents = make([]mgl32.Vec4, n)
		tr := tangents.Reader(0)
		for i := 0; i < n; i++ {
			sm.Tangents[i] = tr.Vec4()
		}
		if err := tr.Err(); err != nil {
			return errors.Wrapf(err, "Tangent buffer")
		}
	}
	return r.Err()
}

func decodeXboxFaces(ctx *common.DecodeContext, so *XboxSubObject, sm *common.SubMesh, warn *common.Warnings) error {
	if so.FaceBatchPtr == 0 {
		return nil
	}
	batches, err := ctx.Payload.At("face batches", so.FaceBatchPtr)
	if err != nil {
		return err
	}

	vertexCount := uint32(len(sm.Vertices))
	for i := 0; ; i++ {
		off := i * XBOX_FACE_BATCH_SIZE
		// missing magic, including end of buffer, is the end marker
		if magic, err := batches.U32(off); err != nil || magic != XBOX_FACE_BATCH_MAGIC {
			break
		}
		count, err := batches.U32(off + 4)
		if err != nil {
			return errors.Wrapf(err, "Face batch %d", i)
		}
		ptr, err := batches.U32(off + 8)
		if err != nil {
			return errors.Wrapf(err, "Face batch %d", i)
		}
		indexes, err := ctx.Payload.At("face indexes", ptr)
		if err != nil {
			return errors.Wrapf(err, "Face batch %d", i)
		}
		if err := indexes.CheckTable(int(count), 2); err != nil {
			return errors.Wrapf(err, "Face batch %d of %d indexes", i, count)
		}
		strip := make([]uint32, count)
		for j := range strip {
			v, _ := indexes.U16(j * 2)
			strip[j] = uint32(v)
		}

		tris := StripToTriangles(strip)
		FlipWinding(tris)
		for _, t := range tris {
			if t[0] >= vertexCount || t[1] >= vertexCount || t[2] >= vertexCount {
				warn.Addf("face batch %d: triangle %v references vertex out of %d, dropped", i, t, vertexCount)
				continue
			}
			sm.Faces = append(sm.Faces, t)
		}
	}
	return nil
}

func decodeXbox(ctx *common.DecodeContext, skel *common.Skeleton, rec *utils.BufView, warn *common.Warnings) (*common.SubMesh, error) {
	so, err := parseXboxSubObject(ctx, rec)
	if err != nil {
		return nil, err
	}
	ctx.Log.Printf("[xbox] sub object %q: %s", so.Name, utils.SDump(so))

	sm := newSubMesh()
	sm.Name = so.Name
	sm.CollectionIndex = int(so.CollectionIndex)
	sm.BoundingSphere = so.Sphere

	if err := decodeXboxVertices(ctx, so, sm); err != nil {
		return nil, errors.Wrapf(err, "Vertices")
	}
	if err := decodeXboxWeights(ctx, skel, so, sm, warn); err != nil {
		return nil, errors.Wrapf(err, "Weights")
	}
	if err := decodeXboxFaces(ctx, so, sm, warn); err != nil {
		return nil, errors.Wrapf(err, "Faces")
	}
	if so.MaterialCount != 0 {
		if sm.Material, err = mat.Decode(ctx, so.MaterialPtr, int(so.MaterialCount), warn); err != nil {
			return nil, err
		}
	}
	return sm, nil
}
