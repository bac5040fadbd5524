package yobj

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/pack/yobj/writer"
	"github.com/mogaika/ymp_browser/utils"
)

func testMaterial() common.MaterialParams {
	return common.MaterialParams{
		{Name: "g_f4MatDifCol", Type: common.MAT_TYPE_FLOAT4, Float4: [4]float32{1, 0.5, 0.25, 1}},
		{Name: "g_fSpecPow", Type: common.MAT_TYPE_FLOAT1, Float: 8},
		{Name: "g_DifTex", Type: common.MAT_TYPE_TEXTURE, Int: 0},
	}
}

func testSubMesh(name string, collection int) common.SubMesh {
	return common.SubMesh{
		Name:            name,
		CollectionIndex: collection,
		BoundingSphere:  common.BoundingSphere{Radius: 2},
		Vertices:        []common.Position{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:         []common.Normal{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:             []common.UV{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		VertexColors:    []common.Color{{1, 1, 1, 1}, {1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 0}},
		Faces:           []common.Triangle{{0, 1, 2}, {0, 2, 3}},
		Weights: map[uint32][]common.Influence{
			0: {{Bone: 0, Weight: 1}},
			1: {{Bone: 0, Weight: 0.5}, {Bone: 1, Weight: 0.5}},
			2: {{Bone: 1, Weight: 1}},
		},
		Material: testMaterial(),
	}
}

func testScene() *common.Scene {
	return &common.Scene{
		Skeleton: common.Skeleton{Bones: []common.Bone{
			{Name: "root", LocalTranslation: mgl32.Vec3{0, 1, 0}, LocalRotation: mgl32.QuatIdent(), Parent: common.NO_PARENT},
			{Name: "spine", LocalTranslation: mgl32.Vec3{0, 1, 0}, LocalRotation: mgl32.QuatIdent(), Parent: 0},
		}},
		SubMeshes:   []common.SubMesh{testSubMesh("body", 0)},
		Collections: []common.Collection{{Name: "main", SubObjectCount: 1}},
		Textures:    []common.TextureEntry{{Name: "body_dif"}},
	}
}

func vecsEqual(a, b []mgl32.Vec3) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].ApproxEqualThreshold(b[i], 1e-5) {
			return false
		}
	}
	return true
}

func roundTrip(t *testing.T, scene *common.Scene, p config.Platform, rev *config.Revision, workers int) *common.Scene {
	t.Helper()
	data, err := writer.Write(scene, p, writer.Options{Revision: rev, POF0: true})
	if err != nil {
		t.Fatalf("write %v: %v", p, err)
	}
	decoded, err := DecodeWithOptions(data, p, Options{Revision: rev, Workers: workers})
	if err != nil {
		t.Fatalf("decode %v: %v", p, err)
	}
	return decoded
}

func checkSkeleton(t *testing.T, got *common.Skeleton) {
	t.Helper()
	if got.Len() != 2 {
		t.Fatalf("got %d bones", got.Len())
	}
	if got.Bones[0].Name != "root" || got.Bones[1].Name != "spine" {
		t.Errorf("bone names %q %q", got.Bones[0].Name, got.Bones[1].Name)
	}
	if got.Bones[1].Parent != 0 || got.Bones[0].HasParent() {
		t.Errorf("parents %d %d", got.Bones[0].Parent, got.Bones[1].Parent)
	}
	want := utils.AxisCorrection().Mul4x1(mgl32.Vec4{0, 2, 0, 1}).Vec3()
	if head := got.Bones[1].Head(); !head.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("spine head %v, want %v", head, want)
	}
}

func checkGeometry(t *testing.T, want, got *common.SubMesh) {
	t.Helper()
	if !vecsEqual(want.Vertices, got.Vertices) {
		t.Errorf("vertices %v, want %v", got.Vertices, want.Vertices)
	}
	if !vecsEqual(want.Normals, got.Normals) {
		t.Errorf("normals %v, want %v", got.Normals, want.Normals)
	}
	if !reflect.DeepEqual(want.UVs, got.UVs) {
		t.Errorf("uvs %v, want %v", got.UVs, want.UVs)
	}
	if !reflect.DeepEqual(want.VertexColors, got.VertexColors) {
		t.Errorf("colours %v, want %v", got.VertexColors, want.VertexColors)
	}
	if !reflect.DeepEqual(want.Faces, got.Faces) {
		t.Errorf("faces %v, want %v", got.Faces, want.Faces)
	}
	if !reflect.DeepEqual(want.Weights, got.Weights) {
		t.Errorf("weights %v, want %v", got.Weights, want.Weights)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", got.Warnings)
	}
}

func checkMaterial(t *testing.T, got *common.SubMesh) {
	t.Helper()
	want := testMaterial()
	if len(got.Material) != len(want) {
		t.Fatalf("got %d material params", len(got.Material))
	}
	for i := range want {
		g := got.Material[i]
		if g.Name != want[i].Name || g.Type != want[i].Type || g.Float4 != want[i].Float4 ||
			g.Float != want[i].Float || g.Int != want[i].Int {
			t.Errorf("param %d: %v, want %v", i, g, want[i])
		}
	}
	wantSlots := []common.TextureSlot{{Slot: 0, Name: "body_dif"}}
	if !reflect.DeepEqual(got.Textures, wantSlots) {
		t.Errorf("texture slots %v", got.Textures)
	}
}

func TestRoundTripPs2(t *testing.T) {
	scene := testScene()
	got := roundTrip(t, scene, config.PS2, nil, 1)

	checkSkeleton(t, &got.Skeleton)
	if len(got.SubMeshes) != 1 {
		t.Fatalf("got %d sub meshes", len(got.SubMeshes))
	}
	sm := &got.SubMeshes[0]
	checkGeometry(t, &scene.SubMeshes[0], sm)
	checkMaterial(t, sm)
	if sm.Name != "body" || sm.CollectionIndex != 0 || sm.BoundingSphere.Radius != 2 {
		t.Errorf("record fields %q %d %v", sm.Name, sm.CollectionIndex, sm.BoundingSphere)
	}
	if !reflect.DeepEqual(got.Collections, scene.Collections) {
		t.Errorf("collections %v", got.Collections)
	}
	if len(got.Textures) != 1 || got.Textures[0].Name != "body_dif" {
		t.Errorf("textures %v", got.Textures)
	}
}

func TestRoundTripXbox(t *testing.T) {
	scene := testScene()
	scene.SubMeshes[0].Tangents = []mgl32.Vec4{{1, 0, 0, 1}, {1, 0, 0, 1}, {1, 0, 0, -1}, {1, 0, 0, -1}}
	got := roundTrip(t, scene, config.Xbox, nil, 1)

	checkSkeleton(t, &got.Skeleton)
	if len(got.SubMeshes) != 1 {
		t.Fatalf("got %d sub meshes", len(got.SubMeshes))
	}
	sm := &got.SubMeshes[0]
	checkGeometry(t, &scene.SubMeshes[0], sm)
	checkMaterial(t, sm)
	if !reflect.DeepEqual(sm.Tangents, scene.SubMeshes[0].Tangents) {
		t.Errorf("tangents %v", sm.Tangents)
	}
	if sm.Name != "body" || sm.CollectionIndex != 0 {
		t.Errorf("record fields %q %d", sm.Name, sm.CollectionIndex)
	}
}

func TestRoundTripPs2Legacy(t *testing.T) {
	rev, err := config.GetRevision(config.REVISION_PS2_LEGACY)
	if err != nil {
		t.Fatal(err)
	}
	scene := testScene()
	scene.Textures = nil

	got := roundTrip(t, scene, config.PS2, rev, 1)
	checkSkeleton(t, &got.Skeleton)
	sm := &got.SubMeshes[0]
	checkGeometry(t, &scene.SubMeshes[0], sm)
	if len(sm.Material) != 0 || sm.Name != "" || sm.CollectionIndex != -1 {
		t.Errorf("legacy record carries %d params, name %q, collection %d", len(sm.Material), sm.Name, sm.CollectionIndex)
	}
	if len(got.Textures) != 0 {
		t.Errorf("textures %v", got.Textures)
	}
}

func TestLegacyHeaderOverlap(t *testing.T) {
	rev, _ := config.GetRevision(config.REVISION_PS2_LEGACY)
	if _, err := writer.Write(testScene(), config.PS2, writer.Options{Revision: rev}); err == nil {
		t.Errorf("texture pointer overlapping bone pointer must fail")
	}
}

func TestRevisionPlatformMismatch(t *testing.T) {
	data, err := writer.Write(testScene(), config.PS2, writer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	xrev, _ := config.GetRevision(config.REVISION_XBOX)
	if _, err := DecodeWithOptions(data, config.PS2, Options{Revision: xrev}); err == nil {
		t.Errorf("xbox revision accepted for ps2 container")
	}
}

func TestUnskinnedScene(t *testing.T) {
	for _, p := range []config.Platform{config.PS2, config.Xbox} {
		scene := testScene()
		scene.Skeleton.Bones = nil
		got := roundTrip(t, scene, p, nil, 1)
		if got.Skeleton.Len() != 0 {
			t.Errorf("%v: got %d bones", p, got.Skeleton.Len())
		}
		sm := &got.SubMeshes[0]
		if len(sm.Weights) != 0 {
			t.Errorf("%v: weights without skeleton %v", p, sm.Weights)
		}
		if !reflect.DeepEqual(sm.Faces, scene.SubMeshes[0].Faces) {
			t.Errorf("%v: faces %v", p, sm.Faces)
		}
	}
}

func TestPOF0Trailer(t *testing.T) {
	for _, p := range []config.Platform{config.PS2, config.Xbox} {
		data, err := writer.Write(testScene(), p, writer.Options{POF0: true})
		if err != nil {
			t.Fatal(err)
		}
		c, err := ReadContainer(data, p)
		if err != nil {
			t.Fatal(err)
		}
		offsets, err := writer.DecodePOF0(c.Trailer, c.Payload.Order())
		if err != nil {
			t.Fatalf("%v: %v", p, err)
		}
		if len(offsets) == 0 {
			t.Errorf("%v: no pointers recorded", p)
		}
		for _, off := range offsets {
			ptr, err := c.Payload.U32(int(off))
			if err != nil {
				t.Errorf("%v: pointer field 0x%x: %v", p, off, err)
				continue
			}
			if ptr == 0 || int(ptr) > c.Payload.Len() {
				t.Errorf("%v: field 0x%x holds 0x%x, payload 0x%x", p, off, ptr, c.Payload.Len())
			}
		}
	}
}

func TestDecodeIsRepeatable(t *testing.T) {
	for _, p := range []config.Platform{config.PS2, config.Xbox} {
		data, err := writer.Write(testScene(), p, writer.Options{})
		if err != nil {
			t.Fatal(err)
		}
		a, err := Decode(data, p)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Decode(data, p)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%v: decoding same bytes twice differs", p)
		}
	}
}

func TestWorkersKeepOrder(t *testing.T) {
	for _, p := range []config.Platform{config.PS2, config.Xbox} {
		scene := testScene()
		scene.SubMeshes = nil
		for i, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
			sm := testSubMesh(name, 0)
			sm.Vertices[0] = common.Position{float32(i), 0, 0}
			scene.SubMeshes = append(scene.SubMeshes, sm)
		}
		scene.Collections[0].SubObjectCount = int32(len(scene.SubMeshes))

		data, err := writer.Write(scene, p, writer.Options{})
		if err != nil {
			t.Fatal(err)
		}
		serial, err := DecodeWithOptions(data, p, Options{Workers: 1})
		if err != nil {
			t.Fatal(err)
		}
		parallel, err := DecodeWithOptions(data, p, Options{Workers: 3})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(serial, parallel) {
			t.Errorf("%v: parallel decode differs", p)
		}
		for i := range parallel.SubMeshes {
			if parallel.SubMeshes[i].Vertices[0][0] != float32(i) {
				t.Errorf("%v: sub mesh %d out of order", p, i)
			}
		}
	}
}

func TestSubMeshErrorAbortsDecode(t *testing.T) {
	data, err := writer.Write(testScene(), config.Xbox, writer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	// point vertex buffer of first sub object past payload
	c, _ := ReadContainer(data, config.Xbox)
	subPtr, _ := c.Payload.U32(0x14)
	binary.BigEndian.PutUint32(data[CONTAINER_HEADER_SIZE+int(subPtr)+0x5C:], 0x7FFFFFF0)
	if _, err := DecodeWithOptions(data, config.Xbox, Options{Workers: 2}); err == nil {
		t.Errorf("broken vertex pointer accepted")
	}
}

func TestExport(t *testing.T) {
	scene := testScene()

	var glb bytes.Buffer
	if err := ExportGLTF(&glb, scene, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(glb.Bytes(), []byte("glTF")) {
		t.Errorf("glb magic %q", glb.Bytes()[:4])
	}

	var obj bytes.Buffer
	if err := ExportObj(&obj, scene); err != nil {
		t.Fatal(err)
	}
	text := obj.String()
	for _, line := range []string{"o body", "vt 1.000000 1.000000", "f 1/1/1 2/2/2 3/3/3", "f 1/1/1 3/3/3 4/4/4"} {
		if !strings.Contains(text, line+"\n") {
			t.Errorf("obj output misses %q", line)
		}
	}
}

func TestBuildGLTF(t *testing.T) {
	doc, roots := BuildGLTF(testScene())
	if len(doc.Skins) != 1 || len(doc.Skins[0].Joints) != 2 {
		t.Fatalf("skins %v", doc.Skins)
	}
	if len(doc.Meshes) != 1 {
		t.Fatalf("meshes %d", len(doc.Meshes))
	}
	// root bone and mesh node
	if len(roots) != 2 {
		t.Errorf("roots %v", roots)
	}
	if doc.Meshes[0].Primitives[0].Material == nil {
		t.Errorf("primitive without material")
	}
}
