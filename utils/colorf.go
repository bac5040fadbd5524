package utils

type ColorFloat [4]float32

// NewColorFloatARGB unpacks d3d style 0xAARRGGBB diffuse
func NewColorFloatARGB(argb uint32) ColorFloat {
	return ColorFloat{
		float32((argb>>16)&0xff) / 255.0,
		float32((argb>>8)&0xff) / 255.0,
		float32(argb&0xff) / 255.0,
		float32((argb>>24)&0xff) / 255.0,
	}
}

func (c ColorFloat) ARGB() uint32 {
	q := func(f float32) uint32 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 0xff
		}
		return uint32(f*255.0 + 0.5)
	}
	return q(c[3])<<24 | q(c[0])<<16 | q(c[1])<<8 | q(c[2])
}

func (c ColorFloat) RGBA8() [4]uint8 {
	argb := c.ARGB()
	return [4]uint8{uint8(argb >> 16), uint8(argb >> 8), uint8(argb), uint8(argb >> 24)}
}
