package mesh

import "github.com/mogaika/ymp_browser/pack/yobj/common"

// StripToTriangles expands triangle strip. Even positions give (a,b,c),
// odd positions give (b,a,c). Triangles with repeated indexes are skipped
// but still advance parity.
func StripToTriangles(strip []uint32) []common.Triangle {
	if len(strip) < 3 {
		return nil
	}
	tris := make([]common.Triangle, 0, len(strip)-2)
	for i := 0; i+2 < len(strip); i++ {
		a, b, c := strip[i], strip[i+1], strip[i+2]
		if a == b || b == c || a == c {
			continue
		}
		if i%2 == 0 {
			tris = append(tris, common.Triangle{a, b, c})
		} else {
			tris = append(tris, common.Triangle{b, a, c})
		}
	}
	return tris
}

// FlipWinding reverses every triangle in place
func FlipWinding(tris []common.Triangle) {
	for i := range tris {
		tris[i][1], tris[i][2] = tris[i][2], tris[i][1]
	}
}

// stripBuilder collects strips split by terminator blocks
type stripBuilder struct {
	current []uint32
	faces   []common.Triangle
}

func (sb *stripBuilder) Push(v uint32) {
	sb.current = append(sb.current, v)
}

// Flush emits accumulated strip and starts new one
func (sb *stripBuilder) Flush() {
	sb.faces = append(sb.faces, StripToTriangles(sb.current)...)
	sb.current = sb.current[:0]
}

func (sb *stripBuilder) Faces() []common.Triangle {
	sb.Flush()
	if sb.faces == nil {
		return make([]common.Triangle, 0)
	}
	return sb.faces
}
