package common

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ymp_browser/utils"
)

type Position = mgl32.Vec3
type Normal = mgl32.Vec3
type UV = mgl32.Vec2
type Color = utils.ColorFloat

const NO_PARENT = -1

type Bone struct {
	Name             string
	LocalTranslation mgl32.Vec3
	LocalRotation    mgl32.Quat
	// source rotation for formats that store euler angles (radians, applied Z, Y, X)
	LocalEuler    *mgl32.Vec3 `json:",omitempty"`
	RestMatrix    *mgl32.Mat4 `json:",omitempty"`
	// NO_PARENT for roots
	Parent   int
	Local    mgl32.Mat4
	World    mgl32.Mat4
	Children []int
	// display tail in world space, head is World translation
	Tail mgl32.Vec3
}

func (b *Bone) HasParent() bool {
	return b.Parent != NO_PARENT
}

func (b *Bone) Head() mgl32.Vec3 {
	return b.World.Col(3).Vec3()
}

type Skeleton struct {
	Bones []Bone
}

func (s *Skeleton) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bones)
}

func (s *Skeleton) Valid(boneIndex int) bool {
	return boneIndex >= 0 && boneIndex < s.Len()
}

type BoundingSphere struct {
	Center mgl32.Vec3
	Radius float32
}

type Influence struct {
	Bone   int
	Weight float32
}

type Triangle [3]uint32

type SubMesh struct {
	Name string `json:",omitempty"`
	// -1 when sub object is not bound to collection
	CollectionIndex int
	BoundingSphere  BoundingSphere
	Vertices        []Position
	Normals         []Normal
	UVs             []UV
	VertexColors    []Color      `json:",omitempty"`
	Tangents        []mgl32.Vec4 `json:",omitempty"`
	Faces           []Triangle
	// vertex index => influences, weights are not normalized
	Weights map[uint32][]Influence
	// parameters from every material record referenced by sub mesh
	Material MaterialParams `json:",omitempty"`
	// texture slots used by Material, unresolved until bound to pool
	Textures []TextureSlot `json:",omitempty"`
	Warnings  []string         `json:",omitempty"`
}

type Collection struct {
	Name           string
	Flags          int32
	FirstSubObject int32
	SubObjectCount int32
}

type TextureEntry struct {
	Name string
	// only filled for extended texture records
	Type   uint32 `json:",omitempty"`
	Size   uint32 `json:",omitempty"`
	Offset uint32 `json:",omitempty"`
	// borrowed view over embedded texture bytes, nil when absent
	Embedded []byte `json:"-"`
}

// TextureSlot references texture table entry, Handle is nil when unresolved
type TextureSlot struct {
	Slot   int
	Name   string
	Handle interface{} `json:",omitempty"`
}

type Scene struct {
	Skeleton    Skeleton
	SubMeshes   []SubMesh
	Collections []Collection `json:",omitempty"`
	Textures    []TextureEntry
	Warnings    []string `json:",omitempty"`
}

// Materials returns material params per sub mesh, index aligned with SubMeshes
func (s *Scene) Materials() []MaterialParams {
	r := make([]MaterialParams, len(s.SubMeshes))
	for i := range s.SubMeshes {
		r[i] = s.SubMeshes[i].Material
	}
	return r
}
