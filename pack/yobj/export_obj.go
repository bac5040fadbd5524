package yobj

import (
	"fmt"
	"io"

	"github.com/mogaika/ymp_browser/pack/yobj/common"
)

// ExportObj writes every sub mesh as separate object, uv v is flipped
func ExportObj(_w io.Writer, scene *common.Scene) error {
	var werr error
	w := func(format string, args ...interface{}) {
		if werr == nil {
			_, werr = _w.Write([]byte(fmt.Sprintf(format+"\n", args...)))
		}
	}

	iV := uint32(1)
	iT := uint32(1)
	iN := uint32(1)

	for iSubMesh := range scene.SubMeshes {
		sm := &scene.SubMeshes[iSubMesh]
		name := sm.Name
		if name == "" {
			name = fmt.Sprintf("subobject_%d", iSubMesh)
		}
		w("o %s", name)
		for _, v := range sm.Vertices {
			w("v %f %f %f", v[0], v[1], v[2])
		}
		haveUV := len(sm.UVs) == len(sm.Vertices) && len(sm.UVs) != 0
		haveNorm := len(sm.Normals) == len(sm.Vertices) && len(sm.Normals) != 0
		if haveUV {
			for _, uv := range sm.UVs {
				w("vt %f %f", uv[0], 1-uv[1])
			}
		}
		if haveNorm {
			for _, n := range sm.Normals {
				w("vn %f %f %f", n[0], n[1], n[2])
			}
		}

		for _, f := range sm.Faces {
			switch {
			case haveNorm && haveUV:
				w("f %v/%v/%v %v/%v/%v %v/%v/%v",
					iV+f[0], iT+f[0], iN+f[0],
					iV+f[1], iT+f[1], iN+f[1],
					iV+f[2], iT+f[2], iN+f[2])
			case haveNorm:
				w("f %v//%v %v//%v %v//%v",
					iV+f[0], iN+f[0],
					iV+f[1], iN+f[1],
					iV+f[2], iN+f[2])
			case haveUV:
				w("f %v/%v %v/%v %v/%v",
					iV+f[0], iT+f[0],
					iV+f[1], iT+f[1],
					iV+f[2], iT+f[2])
			default:
				w("f %v %v %v", iV+f[0], iV+f[1], iV+f[2])
			}
		}

		iV += uint32(len(sm.Vertices))
		if haveUV {
			iT += uint32(len(sm.UVs))
		}
		if haveNorm {
			iN += uint32(len(sm.Normals))
		}
	}
	return werr
}
