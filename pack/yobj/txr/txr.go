package txr

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

const (
	TEXTURE_NAME_SIZE = 0x10
	TEXTURE_TYPE      = 0x10
	TEXTURE_SIZE      = 0x14
	TEXTURE_OFFSET    = 0x18
)

// Handle is opaque host texture object
type Handle interface{}

// Pool maps lower cased texture name to handle
type Pool map[string]Handle

// Key normalizes name for pool lookup
func Key(name string) string {
	if i := strings.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

func (p Pool) Add(name string, h Handle) {
	p[Key(name)] = h
}

func (p Pool) Get(name string) (Handle, bool) {
	h, ok := p[Key(name)]
	return h, ok
}

// DecodeTable reads texture records. Extended records also borrow
// embedded bytes when offset and size fit payload.
func DecodeTable(ctx *common.DecodeContext, warn *common.Warnings) ([]common.TextureEntry, error) {
	count := int(ctx.Header.TextureCount)
	if count == 0 {
		return make([]common.TextureEntry, 0), nil
	}

	table, err := ctx.Payload.At("textures", ctx.Header.TexturePtr)
	if err != nil {
		return nil, errors.Wrapf(err, "Texture table")
	}
	recSize := int(ctx.Revision.TextureRecordSize)
	if err := table.CheckTable(count, recSize); err != nil {
		return nil, errors.Wrapf(err, "Texture table")
	}
	entries := make([]common.TextureEntry, count)
	for i := range entries {
		e := &entries[i]
		name, err := table.Bytes(i*recSize, TEXTURE_NAME_SIZE)
		if err != nil {
			return nil, errors.Wrapf(err, "Texture %d", i)
		}
		e.Name = ctx.DecodeName(name)
		if recSize < config.TEXTURE_EXTENDED_RECORD_SIZE {
			continue
		}

		r := table.Reader(i*recSize + TEXTURE_TYPE)
		e.Type = r.U32()
		e.Size = r.U32()
		e.Offset = r.U32()
		if err := r.Err(); err != nil {
			return nil, errors.Wrapf(err, "Texture %d %q", i, e.Name)
		}
		if e.Size == 0 {
			continue
		}
		if data, err := ctx.Payload.Bytes(int(e.Offset), int(e.Size)); err != nil {
			warn.Addf("texture %d %q: embedded data 0x%x:0x%x outside payload", i, e.Name, e.Offset, e.Size)
		} else {
			e.Embedded = data
		}
	}
	return entries, nil
}

// Slots maps bound material texture slot indexes to texture table names
func Slots(params common.MaterialParams, table []common.TextureEntry, warn *common.Warnings) []common.TextureSlot {
	var slots []common.TextureSlot
	for _, idx := range params.TextureSlots() {
		slot := common.TextureSlot{Slot: idx}
		if idx < len(table) {
			slot.Name = table[idx].Name
		} else {
			warn.Addf("texture slot %d outside table of %d", idx, len(table))
		}
		slots = append(slots, slot)
	}
	return slots
}

// ResolveTextures matches slots by case insensitive name, nil for unmatched
func ResolveTextures(slots []common.TextureSlot, pool Pool) []Handle {
	result := make([]Handle, len(slots))
	for i, slot := range slots {
		if slot.Name == "" {
			continue
		}
		if h, ok := pool.Get(slot.Name); ok {
			result[i] = h
		}
	}
	return result
}

// Bind stores resolved handles into slots and returns names not found in pool
func Bind(slots []common.TextureSlot, pool Pool, log *utils.Logger) []string {
	var missing []string
	for i, h := range ResolveTextures(slots, pool) {
		if h == nil {
			log.Printf("[txr] texture %q (slot %d) not found in pool", slots[i].Name, slots[i].Slot)
			missing = append(missing, slots[i].Name)
			continue
		}
		slots[i].Handle = h
	}
	return missing
}
