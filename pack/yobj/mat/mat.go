package mat

import (
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

const (
	MATERIAL_TYPE    = 0x10
	MATERIAL_SIZE    = 0x12
	MATERIAL_PAYLOAD = common.MATERIAL_HEAD_SIZE
)

// Decode reads table of count absolute record pointers located at tablePtr.
// Unknown type tag stops decoding, next records can't be trusted.
func Decode(ctx *common.DecodeContext, tablePtr uint32, count int, warn *common.Warnings) (common.MaterialParams, error) {
	if count == 0 {
		return make(common.MaterialParams, 0), nil
	}

	table, err := ctx.Payload.At("material table", tablePtr)
	if err != nil {
		return nil, errors.Wrapf(err, "Material table")
	}
	if err := table.CheckTable(count, 4); err != nil {
		return nil, errors.Wrapf(err, "Material table")
	}
	params := make(common.MaterialParams, 0, count)
	for i := 0; i < count; i++ {
		ptr, err := table.U32(i * 4)
		if err != nil {
			return nil, errors.Wrapf(err, "Material pointer %d", i)
		}
		if ptr == 0 {
			warn.Addf("material %d: null record pointer skipped", i)
			continue
		}
		rec, err := ctx.Payload.At("material", ptr)
		if err != nil {
			return nil, errors.Wrapf(err, "Material %d", i)
		}
		p, err := ParseRecord(ctx, rec)
		if err != nil {
			return nil, errors.Wrapf(err, "Material %d at 0x%x", i, ptr)
		}
		payloadSize, _ := p.Type.PayloadSize()
		if int(p.DeclaredSize) != MATERIAL_PAYLOAD+payloadSize {
			warn.Addf("material %d %q: declared size %d, %v takes %d", i, p.Name, p.DeclaredSize, p.Type, MATERIAL_PAYLOAD+payloadSize)
		}
		params = append(params, p)
	}
	return params, nil
}

func ParseRecord(ctx *common.DecodeContext, rec *utils.BufView) (common.MaterialParam, error) {
	var p common.MaterialParam
	r := rec.Reader(0)
	p.Name = ctx.DecodeName(r.Read(common.MATERIAL_NAME_SIZE))
	p.Type = common.MaterialType(r.U16())
	p.DeclaredSize = r.I16()
	if err := r.Err(); err != nil {
		return p, err
	}

	switch p.Type {
	case common.MAT_TYPE_FLOAT4:
		p.Float4 = r.Vec4()
	case common.MAT_TYPE_FLOAT1:
		p.Float = r.F32()
	case common.MAT_TYPE_INT32, common.MAT_TYPE_BOOL, common.MAT_TYPE_TEXTURE:
		p.Int = r.I32()
	default:
		return p, errors.Wrapf(common.ErrUnsupportedMaterialType, "%q has type tag %d", p.Name, uint16(p.Type))
	}
	return p, r.Err()
}
