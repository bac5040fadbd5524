package gltfutils

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// ExportBinary writes document as glb, roots are added to first scene
func ExportBinary(w io.Writer, doc *gltf.Document, roots []uint32) error {
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, roots...)

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

// WriteMatrices stores column major matrices, used for inverse bind matrices
func WriteMatrices(doc *gltf.Document, mats []mgl32.Mat4) uint32 {
	data := make([][4][4]float32, len(mats))
	for i, m := range mats {
		for col := 0; col < 4; col++ {
			data[i][col] = m.Col(col)
		}
	}
	return modeler.WriteAccessor(doc, gltf.TargetNone, data)
}

// NewNode creates node with identity transform fields filled
func NewNode(name string) *gltf.Node {
	return &gltf.Node{
		Name:     name,
		Matrix:   mgl32.Ident4(),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}
