package vif

import "fmt"

type VifCode uint32

const (
	VIF_CMD_NOP      = 0x00 // No Operation
	VIF_CMD_STCYCL   = 0x01 // Sets CYCLE register
	VIF_CMD_OFFSET   = 0x02 // Sets OFFSET register (VIF1)
	VIF_CMD_BASE     = 0x03 // Sets BASE register (VIF1)
	VIF_CMD_ITOP     = 0x04 // Sets ITOPS register
	VIF_CMD_STMOD    = 0x05 // Sets MODE register
	VIF_CMD_MSKPATH3 = 0x06 // Mask GIF transfer (VIF1)
	VIF_CMD_MARK     = 0x07 // Sets Mark register
	VIF_CMD_FLUSHE   = 0x10 // Wait for end of microprogram
	VIF_CMD_FLUSH    = 0x11 // Wait for end of microprogram & Path 1/2 GIF xfer (VIF1)
	VIF_CMD_FLUSHA   = 0x13 // Wait for end of microprogram & all Path GIF xfer (VIF1)
	VIF_CMD_MSCAL    = 0x14 // Activate microprogram
	VIF_CMD_MSCNT    = 0x17 // Execute microrprogram continuously
	VIF_CMD_MSCALF   = 0x15 // Activate microprogram (VIF1)
	VIF_CMD_STMASK   = 0x20 // Sets MASK register
	VIF_CMD_STROW    = 0x30 // Sets ROW register
	VIF_CMD_STCOL    = 0x31 // Sets COL register
	VIF_CMD_MPG      = 0x4A // Load microprogram
	VIF_CMD_DIRECT   = 0x50 // Transfer data to GIF (VIF1)
	VIF_CMD_DIRECTHL = 0x51 // Transfer data to GIF but stall for Path 3 IMAGE mode (VIF1)
	VIF_CMD_UNPACK   = 0x60 // Unpack command base, low nibble is mode
)

// Unpack modes (low nibble of cmd), naming from ps2sdk
const (
	UNPACK_S_32  = 0x00
	UNPACK_S_16  = 0x01
	UNPACK_S_8   = 0x02
	UNPACK_V2_32 = 0x04
	UNPACK_V2_16 = 0x05
	UNPACK_V2_8  = 0x06
	UNPACK_V3_32 = 0x08
	UNPACK_V3_16 = 0x09
	UNPACK_V3_8  = 0x0A
	UNPACK_V4_32 = 0x0C
	UNPACK_V4_16 = 0x0D
	UNPACK_V4_8  = 0x0E
	UNPACK_V4_5  = 0x0F
)

var unpackModeToString = map[uint8]string{
	UNPACK_S_32: "S-32", UNPACK_S_16: "S-16", UNPACK_S_8: "S-8",
	UNPACK_V2_32: "V2-32", UNPACK_V2_16: "V2-16", UNPACK_V2_8: "V2-8",
	UNPACK_V3_32: "V3-32", UNPACK_V3_16: "V3-16", UNPACK_V3_8: "V3-8",
	UNPACK_V4_32: "V4-32", UNPACK_V4_16: "V4-16", UNPACK_V4_8: "V4-8",
	UNPACK_V4_5: "V4-5",
}

func UnpackModeString(mode uint8) string {
	if s, ok := unpackModeToString[mode]; ok {
		return s
	}
	return fmt.Sprintf("unknown(0x%x)", mode)
}

func (v VifCode) Cmd() uint8 {
	return uint8((v >> 24) & 0xff)
}

func (v VifCode) Num() uint8 {
	return uint8((v >> 16) & 0xff)
}

// Count is element count of unpack, zero num means 256
func (v VifCode) Count() int {
	if n := v.Num(); n != 0 {
		return int(n)
	}
	return 256
}

func (v VifCode) Imm() uint16 {
	return uint16(v & 0xffff)
}

func (v VifCode) Mode() uint8 {
	return v.Cmd() & 0x0f
}

func (v VifCode) IsUnpack() bool {
	return v.Cmd()&VIF_CMD_UNPACK == VIF_CMD_UNPACK
}

func (v VifCode) IsIRQ() bool {
	return (v>>31)&1 != 0
}

func (v VifCode) String() string {
	return fmt.Sprintf("VifCode{Cmd:0x%.2x; Num:0x%.2x; Imm:0x%.4x; IRQ:%t}",
		v.Cmd(), v.Num(), v.Imm(), v.IsIRQ())
}

func NewCode(raw uint32) VifCode {
	return VifCode(raw)
}

// NewUnpackCode builds unpack command, count 256 is stored as zero
func NewUnpackCode(mode uint8, count int, imm uint16) VifCode {
	return VifCode(uint32(VIF_CMD_UNPACK|mode&0x0f)<<24 | uint32(uint8(count))<<16 | uint32(imm))
}
