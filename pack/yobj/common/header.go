package common

import (
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/utils"
)

// Header holds payload header fields read through revision offsets
type Header struct {
	FormatMarker     uint32
	SubObjectCount   uint32
	BoneCount        uint32
	TextureCount     uint32
	SubObjectPtr     uint32
	BonePtr          uint32
	TexturePtr       uint32
	ObjectGroupPtr   uint32
	ObjectGroupCount uint32
}

// ReadHeader treats an empty payload as header with zero counts
func ReadHeader(payload *utils.BufView, rev *config.Revision) (*Header, error) {
	h := &Header{}
	if payload.Len() == 0 {
		return h, nil
	}

	fields := []struct {
		off uint32
		dst *uint32
	}{
		{0, &h.FormatMarker},
		{rev.SubObjectCount, &h.SubObjectCount},
		{rev.BoneCount, &h.BoneCount},
		{rev.TextureCount, &h.TextureCount},
		{rev.SubObjectPtr, &h.SubObjectPtr},
		{rev.BonePtr, &h.BonePtr},
		{rev.TexturePtr, &h.TexturePtr},
		{rev.ObjectGroupPtr, &h.ObjectGroupPtr},
		{rev.ObjectGroupCount, &h.ObjectGroupCount},
	}
	for _, f := range fields {
		v, err := payload.U32(int(f.off))
		if err != nil {
			return nil, errors.Wrapf(err, "Payload header (revision %q) field at 0x%x", rev.Name, f.off)
		}
		*f.dst = v
	}
	return h, nil
}

// HasTangents reports xbox tangent extended sub object records
func (h *Header) HasTangents() bool {
	return h.FormatMarker == config.XBOX_TANGENT_FORMAT_MARKER
}

// SubObjectRecordSize picks record stride for revision and format marker
func (h *Header) SubObjectRecordSize(rev *config.Revision) uint32 {
	if rev.Platform == config.Xbox && h.HasTangents() && rev.TangentSubObjectRecordSize != 0 {
		return rev.TangentSubObjectRecordSize
	}
	return rev.SubObjectRecordSize
}
