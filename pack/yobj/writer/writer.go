package writer

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

const (
	NAME_SIZE              = 0x10
	COLLECTION_RECORD_SIZE = 0x20
)

type Options struct {
	// nil selects config.DefaultRevision
	Revision *config.Revision
	// nil selects config.GetPlatformEncoding
	Encoding encoding.Encoding
	// append relocation footer after payload
	POF0 bool
	Log  *utils.Logger
}

type writer struct {
	platform config.Platform
	rev      *config.Revision
	enc      encoding.Encoding
	log      *utils.Logger
	c        *chunk
	scene    *common.Scene
}

// Write encodes scene into container. Decoding result repeats the fields
// decoder reads, everything else (reserved fields, STQ loops) is zero.
func Write(scene *common.Scene, p config.Platform, opts Options) ([]byte, error) {
	w := &writer{
		platform: p,
		rev:      opts.Revision,
		enc:      opts.Encoding,
		log:      opts.Log,
		c:        newChunk(common.PlatformOrder(p)),
		scene:    scene,
	}
	if w.rev == nil {
		w.rev = config.DefaultRevision(p)
	}
	if w.rev.Platform != p {
		return nil, errors.Errorf("Revision %q is for %v, not %v", w.rev.Name, w.rev.Platform, p)
	}
	if w.enc == nil {
		w.enc = config.GetPlatformEncoding(p)
	}

	payload, err := w.writePayload()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 8, 8+len(payload))
	copy(out, containerTag(p))
	w.c.order.PutUint32(out[4:], uint32(len(payload)))
	out = append(out, payload...)

	if opts.POF0 {
		footer, err := EncodePOF0(w.c.pointers, w.c.order)
		if err != nil {
			return nil, err
		}
		out = append(out, footer...)
	}
	w.log.Printf("[writer] %v container: payload 0x%x bytes, %d pointers", p, len(payload), len(w.c.pointers))
	return out, nil
}

func containerTag(p config.Platform) string {
	if p == config.Xbox {
		return "JBOY"
	}
	return "YOBJ"
}

func (w *writer) name(s string) ([]byte, error) {
	return utils.StringToBytesBuffer(s, NAME_SIZE, w.enc)
}

func (w *writer) hasTangents() bool {
	if w.platform != config.Xbox || w.rev.TangentSubObjectRecordSize == 0 {
		return false
	}
	for i := range w.scene.SubMeshes {
		if len(w.scene.SubMeshes[i].Tangents) != 0 {
			return true
		}
	}
	return false
}

func (w *writer) writePayload() ([]byte, error) {
	s := w.scene
	rev := w.rev
	c := w.c
	c.Alloc(int(rev.HeaderSize()))

	h := common.Header{
		SubObjectCount:   uint32(len(s.SubMeshes)),
		BoneCount:        uint32(s.Skeleton.Len()),
		TextureCount:     uint32(len(s.Textures)),
		ObjectGroupCount: uint32(len(s.Collections)),
	}
	subRecordSize := rev.SubObjectRecordSize
	if w.hasTangents() {
		h.FormatMarker = config.XBOX_TANGENT_FORMAT_MARKER
		subRecordSize = rev.TangentSubObjectRecordSize
	}

	if h.BoneCount != 0 {
		h.BonePtr = c.Alloc(int(h.BoneCount * rev.BoneRecordSize))
	}
	if h.SubObjectCount != 0 {
		h.SubObjectPtr = c.Alloc(int(h.SubObjectCount * subRecordSize))
	}
	if h.TextureCount != 0 {
		h.TexturePtr = c.Alloc(int(h.TextureCount * rev.TextureRecordSize))
	}
	if h.ObjectGroupCount != 0 {
		h.ObjectGroupPtr = c.Alloc(int(h.ObjectGroupCount * COLLECTION_RECORD_SIZE))
	}

	if err := w.writeBones(h.BonePtr); err != nil {
		return nil, err
	}
	if err := w.writeTextures(h.TexturePtr); err != nil {
		return nil, err
	}
	if err := w.writeCollections(h.ObjectGroupPtr); err != nil {
		return nil, err
	}
	for i := range s.SubMeshes {
		rec := h.SubObjectPtr + uint32(i)*subRecordSize
		var err error
		if w.platform == config.Xbox {
			err = w.writeXboxSubObject(rec, &s.SubMeshes[i], subRecordSize)
		} else {
			err = w.writePs2SubObject(rec, &s.SubMeshes[i])
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Sub mesh %d", i)
		}
	}

	if err := w.writeHeader(&h); err != nil {
		return nil, err
	}
	return c.data, nil
}

// writeHeader fails when revision fields overlap and can't hold values
func (w *writer) writeHeader(h *common.Header) error {
	rev := w.rev
	c := w.c
	if w.platform == config.Xbox {
		c.PutU32(0, h.FormatMarker)
	}
	fields := []struct {
		off   uint32
		value uint32
		ptr   bool
		used  bool
	}{
		{rev.SubObjectCount, h.SubObjectCount, false, true},
		{rev.BoneCount, h.BoneCount, false, true},
		{rev.TextureCount, h.TextureCount, false, true},
		{rev.ObjectGroupCount, h.ObjectGroupCount, false, true},
		{rev.SubObjectPtr, h.SubObjectPtr, true, h.SubObjectCount != 0},
		{rev.BonePtr, h.BonePtr, true, h.BoneCount != 0},
		{rev.TexturePtr, h.TexturePtr, true, h.TextureCount != 0},
		{rev.ObjectGroupPtr, h.ObjectGroupPtr, true, h.ObjectGroupCount != 0},
	}
	for _, f := range fields {
		if !f.used {
			continue
		}
		if f.ptr {
			if f.off%4 == 0 {
				c.PutPtr(f.off, f.value)
			} else {
				c.PutU32(f.off, f.value)
			}
		} else {
			c.PutU32(f.off, f.value)
		}
	}
	for _, f := range fields {
		if f.used && c.order.Uint32(c.data[f.off:]) != f.value {
			return errors.Errorf("Revision %q: header field at 0x%x overlaps another field, can't store 0x%x",
				rev.Name, f.off, f.value)
		}
	}
	return nil
}

func (w *writer) writeTextures(at uint32) error {
	c := w.c
	recSize := w.rev.TextureRecordSize
	for i, t := range w.scene.Textures {
		rec := at + uint32(i)*recSize
		name, err := w.name(t.Name)
		if err != nil {
			return err
		}
		c.Put(rec, name)
		if recSize < config.TEXTURE_EXTENDED_RECORD_SIZE {
			continue
		}
		c.PutU32(rec+0x10, t.Type)
		if len(t.Embedded) != 0 {
			data := c.Append(t.Embedded)
			c.PutU32(rec+0x14, uint32(len(t.Embedded)))
			c.PutPtr(rec+0x18, data)
		}
	}
	return nil
}

func (w *writer) writeCollections(at uint32) error {
	c := w.c
	for i, col := range w.scene.Collections {
		rec := at + uint32(i)*COLLECTION_RECORD_SIZE
		name, err := w.name(col.Name)
		if err != nil {
			return err
		}
		c.Put(rec, name)
		c.PutI32(rec+0x10, col.Flags)
		c.PutI32(rec+0x14, col.FirstSubObject)
		c.PutI32(rec+0x18, col.SubObjectCount)
	}
	return nil
}

// writeMaterials returns pointer to table of record pointers
func (w *writer) writeMaterials(params common.MaterialParams) (uint32, error) {
	if len(params) == 0 {
		return 0, nil
	}
	c := w.c
	table := c.Alloc(len(params) * 4)
	for i, p := range params {
		payloadSize, ok := p.Type.PayloadSize()
		if !ok {
			return 0, errors.Wrapf(common.ErrUnsupportedMaterialType, "%q type %d", p.Name, uint16(p.Type))
		}
		rec := c.Alloc(common.MATERIAL_HEAD_SIZE + payloadSize)
		name, err := w.name(p.Name)
		if err != nil {
			return 0, err
		}
		c.Put(rec, name)
		c.PutU16(rec+0x10, uint16(p.Type))
		c.PutU16(rec+0x12, uint16(common.MATERIAL_HEAD_SIZE+payloadSize))
		payload := rec + common.MATERIAL_HEAD_SIZE
		switch p.Type {
		case common.MAT_TYPE_FLOAT4:
			c.PutF32(payload, p.Float4[:]...)
		case common.MAT_TYPE_FLOAT1:
			c.PutF32(payload, p.Float)
		default:
			c.PutI32(payload, p.Int)
		}
		c.PutPtr(table+uint32(i*4), rec)
	}
	return table, nil
}
