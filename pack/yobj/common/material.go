package common

import "fmt"

type MaterialType uint16

const (
	MAT_TYPE_INT32   MaterialType = 5
	MAT_TYPE_FLOAT1  MaterialType = 12
	MAT_TYPE_FLOAT4  MaterialType = 13
	MAT_TYPE_TEXTURE MaterialType = 15
	MAT_TYPE_BOOL    MaterialType = 16
)

// material record head: name[16] type i16 size i16
const (
	MATERIAL_NAME_SIZE   = 0x10
	MATERIAL_HEAD_SIZE   = 0x14
	MATERIAL_NO_TEXTURE  = -1
	MATERIAL_FLOAT4_SIZE = 0x10
	MATERIAL_SCALAR_SIZE = 0x4
)

// PayloadSize returns bytes consumed after record head, false for unknown tags
func (t MaterialType) PayloadSize() (int, bool) {
	switch t {
	case MAT_TYPE_FLOAT4:
		return MATERIAL_FLOAT4_SIZE, true
	case MAT_TYPE_FLOAT1, MAT_TYPE_INT32, MAT_TYPE_BOOL, MAT_TYPE_TEXTURE:
		return MATERIAL_SCALAR_SIZE, true
	}
	return 0, false
}

func (t MaterialType) String() string {
	switch t {
	case MAT_TYPE_INT32:
		return "Int32"
	case MAT_TYPE_FLOAT1:
		return "Float1"
	case MAT_TYPE_FLOAT4:
		return "Float4"
	case MAT_TYPE_TEXTURE:
		return "TextureSlotIndex"
	case MAT_TYPE_BOOL:
		return "Bool"
	}
	return fmt.Sprintf("MaterialType(%d)", uint16(t))
}

func (t MaterialType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// MaterialParam is tagged value, only field matching Type is meaningful
type MaterialParam struct {
	Name         string
	Type         MaterialType
	DeclaredSize int16
	Float4       [4]float32 `json:",omitempty"`
	Float        float32    `json:",omitempty"`
	// Int32, Bool (0 or 1) and TextureSlotIndex payloads
	Int int32 `json:",omitempty"`
}

func (p *MaterialParam) Bool() bool {
	return p.Int != 0
}

// TextureSlot returns slot index, false when no texture bound
func (p *MaterialParam) TextureSlot() (int, bool) {
	if p.Type != MAT_TYPE_TEXTURE || p.Int == MATERIAL_NO_TEXTURE || p.Int < 0 {
		return 0, false
	}
	return int(p.Int), true
}

func (p MaterialParam) String() string {
	switch p.Type {
	case MAT_TYPE_FLOAT4:
		return fmt.Sprintf("%s: Float4(%v)", p.Name, p.Float4)
	case MAT_TYPE_FLOAT1:
		return fmt.Sprintf("%s: Float1(%v)", p.Name, p.Float)
	case MAT_TYPE_BOOL:
		return fmt.Sprintf("%s: Bool(%t)", p.Name, p.Bool())
	case MAT_TYPE_TEXTURE:
		return fmt.Sprintf("%s: TextureSlotIndex(%d)", p.Name, p.Int)
	default:
		return fmt.Sprintf("%s: %v(%d)", p.Name, p.Type, p.Int)
	}
}

// MaterialParams keeps file order, names are not required to be unique
type MaterialParams []MaterialParam

// Get returns last parameter with exact name
func (mp MaterialParams) Get(name string) (*MaterialParam, bool) {
	for i := len(mp) - 1; i >= 0; i-- {
		if mp[i].Name == name {
			return &mp[i], true
		}
	}
	return nil, false
}

// TextureSlots lists bound slot indexes in parameter order
func (mp MaterialParams) TextureSlots() []int {
	slots := make([]int, 0)
	for i := range mp {
		if slot, ok := mp[i].TextureSlot(); ok {
			slots = append(slots, slot)
		}
	}
	return slots
}
