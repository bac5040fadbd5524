package yobj

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
	"github.com/mogaika/ymp_browser/utils/gltfutils"
)

const GLTF_MAX_INFLUENCES = 4

// topInfluences keeps strongest influences and normalizes them
func topInfluences(infs []common.Influence) ([4]uint16, [4]float32) {
	var joints [4]uint16
	var weights [4]float32
	sorted := append([]common.Influence(nil), infs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	if len(sorted) > GLTF_MAX_INFLUENCES {
		sorted = sorted[:GLTF_MAX_INFLUENCES]
	}
	sum := float32(0)
	for _, inf := range sorted {
		sum += inf.Weight
	}
	if sum <= 0 {
		return joints, weights
	}
	for i, inf := range sorted {
		joints[i] = uint16(inf.Bone)
		weights[i] = inf.Weight / sum
	}
	return joints, weights
}

func exportSkeleton(doc *gltf.Document, s *common.Skeleton) (skin *uint32, roots []uint32) {
	if s.Len() == 0 {
		return nil, nil
	}
	first := uint32(len(doc.Nodes))
	axis := mgl32.QuatRotate(float32(-math.Pi/2), mgl32.Vec3{1, 0, 0})
	ibms := make([]mgl32.Mat4, s.Len())
	joints := make([]uint32, s.Len())

	for i := range s.Bones {
		b := &s.Bones[i]
		node := gltfutils.NewNode(b.Name)
		t, r := b.LocalTranslation, b.LocalRotation.Normalize()
		if !b.HasParent() {
			t = axis.Rotate(t)
			r = axis.Mul(r)
		}
		node.Translation = t
		node.Rotation = r.V.Vec4(r.W)
		for _, child := range b.Children {
			node.Children = append(node.Children, first+uint32(child))
		}
		doc.Nodes = append(doc.Nodes, node)

		joints[i] = first + uint32(i)
		ibms[i] = b.World.Inv()
		if !b.HasParent() {
			roots = append(roots, first+uint32(i))
		}
	}

	doc.Skins = append(doc.Skins, &gltf.Skin{
		Name:                "skeleton",
		Joints:              joints,
		InverseBindMatrices: gltf.Index(gltfutils.WriteMatrices(doc, ibms)),
	})
	return gltf.Index(uint32(len(doc.Skins) - 1)), roots
}

func exportSubMesh(doc *gltf.Document, sm *common.SubMesh, index int, skinned bool) *gltf.Mesh {
	n := len(sm.Vertices)
	attributes := make(map[string]uint32)

	positions := make([][3]float32, n)
	for i, v := range sm.Vertices {
		positions[i] = v
	}
	attributes["POSITION"] = modeler.WritePosition(doc, positions)

	if len(sm.Normals) == n {
		normals := make([][3]float32, n)
		for i, normal := range sm.Normals {
			if normal.Len() > 0.5 {
				normal = normal.Normalize()
			}
			normals[i] = normal
		}
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
	}
	if len(sm.UVs) == n {
		uvs := make([][2]float32, n)
		for i, uv := range sm.UVs {
			uvs[i] = uv
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
	}
	if len(sm.VertexColors) == n {
		colors := make([][4]uint8, n)
		for i, c := range sm.VertexColors {
			colors[i] = c.RGBA8()
		}
		attributes["COLOR_0"] = modeler.WriteColor(doc, colors)
	}
	if skinned && len(sm.Weights) != 0 {
		joints := make([][4]uint16, n)
		weights := make([][4]float32, n)
		for v, infs := range sm.Weights {
			if int(v) < n {
				joints[v], weights[v] = topInfluences(infs)
			}
		}
		attributes["JOINTS_0"] = modeler.WriteJoints(doc, joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(doc, weights)
	}

	indices := make([]uint32, 0, len(sm.Faces)*3)
	for _, f := range sm.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}

	name := sm.Name
	if name == "" {
		name = fmt.Sprintf("subobject_%d", index)
	}
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:        name,
		DoubleSided: true,
		Extras:      materialExtras(sm),
	})
	return &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: attributes,
			Material:   gltf.Index(uint32(len(doc.Materials) - 1)),
		}},
	}
}

func materialExtras(sm *common.SubMesh) map[string]interface{} {
	extras := make(map[string]interface{})
	for _, p := range sm.Material {
		switch p.Type {
		case common.MAT_TYPE_FLOAT4:
			extras[p.Name] = p.Float4
		case common.MAT_TYPE_FLOAT1:
			extras[p.Name] = p.Float
		case common.MAT_TYPE_BOOL:
			extras[p.Name] = p.Bool()
		default:
			extras[p.Name] = p.Int
		}
	}
	for _, slot := range sm.Textures {
		extras[fmt.Sprintf("texture_%d", slot.Slot)] = slot.Name
	}
	return extras
}

// BuildGLTF converts scene into gltf document, returns scene root nodes
func BuildGLTF(scene *common.Scene) (*gltf.Document, []uint32) {
	doc := gltfutils.NewDocument()
	skin, roots := exportSkeleton(doc, &scene.Skeleton)

	for i := range scene.SubMeshes {
		sm := &scene.SubMeshes[i]
		m := exportSubMesh(doc, sm, i, skin != nil)
		doc.Meshes = append(doc.Meshes, m)

		node := gltfutils.NewNode(m.Name)
		node.Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))
		if skin != nil && len(sm.Weights) != 0 {
			node.Skin = skin
		}
		roots = append(roots, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, node)
	}
	return doc, roots
}

func ExportGLTF(w io.Writer, scene *common.Scene, log *utils.Logger) error {
	doc, roots := BuildGLTF(scene)
	log.Printf("[yobj] gltf: %d nodes, %d meshes", len(doc.Nodes), len(doc.Meshes))
	return gltfutils.ExportBinary(w, doc, roots)
}
