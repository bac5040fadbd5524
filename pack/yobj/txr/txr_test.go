package txr

import (
	"encoding/binary"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

func TestResolveTextures(t *testing.T) {
	pool := make(Pool)
	pool.Add("Body_Dif", "body handle")
	pool.Add("face", "face handle")

	slots := []common.TextureSlot{
		{Slot: 0, Name: "BODY_DIF"},
		{Slot: 1, Name: "missing"},
		{Slot: 2, Name: "Face"},
		{Slot: 3},
	}
	got := ResolveTextures(slots, pool)
	want := []Handle{"body handle", nil, "face handle", nil}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d: got %v, want %v", i, got[i], want[i])
		}
	}

	missing := Bind(slots, pool, nil)
	if len(missing) != 2 || missing[0] != "missing" {
		t.Errorf("missing %v", missing)
	}
	if slots[0].Handle != "body handle" || slots[1].Handle != nil {
		t.Errorf("bound slots %v", slots)
	}
}

func TestSlots(t *testing.T) {
	params := common.MaterialParams{
		{Name: "g_DifTex", Type: common.MAT_TYPE_TEXTURE, Int: 1},
		{Name: "g_NrmTex", Type: common.MAT_TYPE_TEXTURE, Int: common.MATERIAL_NO_TEXTURE},
		{Name: "g_SpcTex", Type: common.MAT_TYPE_TEXTURE, Int: 7},
		{Name: "g_fPow", Type: common.MAT_TYPE_FLOAT1, Float: 1},
	}
	table := []common.TextureEntry{{Name: "a"}, {Name: "b"}}
	warn := common.NewWarnings(nil, "test")
	slots := Slots(params, table, warn)
	if len(slots) != 2 || slots[0].Name != "b" || slots[1].Slot != 7 || slots[1].Name != "" {
		t.Errorf("slots %v", slots)
	}
	if len(warn.List()) != 1 {
		t.Errorf("warnings %v", warn.List())
	}
}

func TestDecodeTable(t *testing.T) {
	for _, tc := range []struct {
		platform config.Platform
		recSize  uint32
	}{
		{config.PS2, config.TEXTURE_NAME_RECORD_SIZE},
		{config.Xbox, config.TEXTURE_EXTENDED_RECORD_SIZE},
	} {
		order := common.PlatformOrder(tc.platform)
		rev := *config.DefaultRevision(tc.platform)
		rev.TextureRecordSize = tc.recSize

		buf := make([]byte, 0x40+2*tc.recSize+8)
		names := []string{"skin01", "eye\x00junk"}
		for i, n := range names {
			copy(buf[0x40+uint32(i)*tc.recSize:], n)
		}
		embedded := 0x40 + 2*tc.recSize
		copy(buf[embedded:], "DDS data")
		if tc.recSize == config.TEXTURE_EXTENDED_RECORD_SIZE {
			rec := 0x40 + tc.recSize
			order.PutUint32(buf[rec+TEXTURE_TYPE:], 3)
			order.PutUint32(buf[rec+TEXTURE_SIZE:], 8)
			order.PutUint32(buf[rec+TEXTURE_OFFSET:], embedded)
		}

		ctx := &common.DecodeContext{
			Platform: tc.platform,
			Revision: &rev,
			Header:   &common.Header{TextureCount: 2, TexturePtr: 0x40},
			Payload:  utils.NewBufView("payload", buf, order),
		}
		entries, err := DecodeTable(ctx, common.NewWarnings(nil, "test"))
		if err != nil {
			t.Fatalf("%v: %v", tc.platform, err)
		}
		if entries[0].Name != "skin01" || entries[1].Name != "eye" {
			t.Errorf("%v: names %q %q", tc.platform, entries[0].Name, entries[1].Name)
		}
		if tc.recSize == config.TEXTURE_EXTENDED_RECORD_SIZE {
			if entries[1].Type != 3 || string(entries[1].Embedded) != "DDS data" {
				t.Errorf("%v: extended entry %+v", tc.platform, entries[1])
			}
		}
	}
}

func writeTga(t *testing.T, path string, w, h int) {
	hdr := make([]byte, 18)
	hdr[2] = 2 // uncompressed true color
	binary.LittleEndian.PutUint16(hdr[12:], uint16(w))
	binary.LittleEndian.PutUint16(hdr[14:], uint16(h))
	hdr[16] = 24
	data := append(hdr, make([]byte, w*h*3)...)
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTga(t, filepath.Join(dir, "Body_Dif.TGA"), 4, 2)

	dds := make([]byte, DDS_HEADER_SIZE)
	copy(dds, DDS_MAGIC)
	binary.LittleEndian.PutUint32(dds[DDS_HEIGHT:], 16)
	binary.LittleEndian.PutUint32(dds[DDS_WIDTH:], 32)
	if err := ioutil.WriteFile(filepath.Join(dir, "face.dds"), dds, 0644); err != nil {
		t.Fatal(err)
	}
	ioutil.WriteFile(filepath.Join(dir, "broken.dds"), []byte("nope"), 0644)
	ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644)

	pool, err := IndexDirectory(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	body, ok := pool.Get("body_dif")
	if !ok {
		t.Fatalf("body_dif not indexed: %v", pool)
	}
	if tex := body.(*Texture); tex.Width != 4 || tex.Height != 2 || tex.Format != "tga" {
		t.Errorf("tga probe %+v", tex)
	}
	if face, ok := pool.Get("FACE.dds"); !ok || face.(*Texture).Width != 32 {
		t.Errorf("dds probe %v", face)
	}
	if _, ok := pool.Get("broken"); ok {
		t.Errorf("broken dds indexed")
	}
	if len(pool) != 4 {
		t.Errorf("pool size %d", len(pool))
	}
}
