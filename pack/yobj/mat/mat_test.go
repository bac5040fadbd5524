package mat

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

type testRecord struct {
	name    string
	tag     uint16
	size    int16
	payload []uint32
}

// layout: pointer table at 0, records after it
func buildMaterials(order binary.ByteOrder, recs []testRecord) []byte {
	buf := make([]byte, len(recs)*4)
	for i, r := range recs {
		order.PutUint32(buf[i*4:], uint32(len(buf)))
		rec := make([]byte, MATERIAL_PAYLOAD+len(r.payload)*4)
		copy(rec, r.name)
		order.PutUint16(rec[MATERIAL_TYPE:], r.tag)
		order.PutUint16(rec[MATERIAL_SIZE:], uint16(r.size))
		for j, v := range r.payload {
			order.PutUint32(rec[MATERIAL_PAYLOAD+j*4:], v)
		}
		buf = append(buf, rec...)
	}
	return buf
}

func f(v float32) uint32 { return math.Float32bits(v) }

func newCtx(p config.Platform, data []byte) *common.DecodeContext {
	return &common.DecodeContext{
		Platform: p,
		Revision: config.DefaultRevision(p),
		Payload:  utils.NewBufView("payload", data, common.PlatformOrder(p)),
	}
}

func TestDecodeFloat4(t *testing.T) {
	for _, p := range []config.Platform{config.PS2, config.Xbox} {
		ctx := newCtx(p, buildMaterials(common.PlatformOrder(p), []testRecord{
			{"g_f4MatDifCol", 13, 0x24, []uint32{f(0.1), f(0.2), f(0.3), f(1.0)}},
		}))
		warn := common.NewWarnings(nil, "test")
		params, err := Decode(ctx, 0, 1, warn)
		if err != nil {
			t.Fatalf("%v: %v", p, err)
		}
		got, ok := params.Get("g_f4MatDifCol")
		if !ok {
			t.Fatalf("%v: g_f4MatDifCol not found in %v", p, params)
		}
		if got.Type != common.MAT_TYPE_FLOAT4 || got.Float4 != [4]float32{0.1, 0.2, 0.3, 1.0} {
			t.Errorf("%v: got %v", p, got)
		}
		if len(warn.List()) != 0 {
			t.Errorf("%v: unexpected warnings %v", p, warn.List())
		}
	}
}

func TestDecodeKinds(t *testing.T) {
	ctx := newCtx(config.Xbox, buildMaterials(binary.BigEndian, []testRecord{
		{"g_fSpecPow", 12, 0x18, []uint32{f(8)}},
		{"g_iMode", 5, 0x18, []uint32{3}},
		{"g_bAlpha", 16, 0x18, []uint32{1}},
		{"g_DifTex", 15, 0x18, []uint32{2}},
		{"g_NrmTex", 15, 0x18, []uint32{0xFFFFFFFF}},
	}))
	params, err := Decode(ctx, 0, 5, common.NewWarnings(nil, "test"))
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 5 {
		t.Fatalf("got %d params", len(params))
	}
	if params[0].Float != 8 || params[1].Int != 3 || !params[2].Bool() {
		t.Errorf("scalar values wrong: %v", params)
	}
	if slot, ok := params[3].TextureSlot(); !ok || slot != 2 {
		t.Errorf("slot %d %v", slot, ok)
	}
	if _, ok := params[4].TextureSlot(); ok {
		t.Errorf("slot -1 must be unbound")
	}
	if slots := params.TextureSlots(); len(slots) != 1 || slots[0] != 2 {
		t.Errorf("texture slots %v", slots)
	}
}

func TestUnknownTag(t *testing.T) {
	ctx := newCtx(config.PS2, buildMaterials(binary.LittleEndian, []testRecord{
		{"g_fOk", 12, 0x18, []uint32{f(1)}},
		{"g_Weird", 7, 0x18, []uint32{0}},
	}))
	_, err := Decode(ctx, 0, 2, common.NewWarnings(nil, "test"))
	if !errors.Is(err, common.ErrUnsupportedMaterialType) {
		t.Errorf("got %v, want ErrUnsupportedMaterialType", err)
	}
}

func TestSizeMismatchWarns(t *testing.T) {
	ctx := newCtx(config.PS2, buildMaterials(binary.LittleEndian, []testRecord{
		{"g_fOk", 12, 0x40, []uint32{f(1)}},
	}))
	warn := common.NewWarnings(nil, "test")
	params, err := Decode(ctx, 0, 1, warn)
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 1 || len(warn.List()) != 1 {
		t.Errorf("params %v warnings %v", params, warn.List())
	}
}

func TestTruncatedRecord(t *testing.T) {
	data := buildMaterials(binary.LittleEndian, []testRecord{
		{"g_f4Col", 13, 0x24, []uint32{f(1), f(1), f(1), f(1)}},
	})
	ctx := newCtx(config.PS2, data[:len(data)-4])
	_, err := Decode(ctx, 0, 1, common.NewWarnings(nil, "test"))
	if !errors.Is(err, common.ErrOutOfBounds) {
		t.Errorf("got %v, want ErrOutOfBounds", err)
	}
}

func TestDecodeOversizedCount(t *testing.T) {
	ctx := newCtx(config.PS2, make([]byte, 4))
	_, err := Decode(ctx, 0, 0x7FFFFFFF, common.NewWarnings(nil, "test"))
	if !errors.Is(err, common.ErrOutOfBounds) {
		t.Errorf("got %v, want ErrOutOfBounds", err)
	}
}
