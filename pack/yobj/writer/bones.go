package writer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/utils"
)

func (w *writer) writeBones(at uint32) error {
	c := w.c
	for i := range w.scene.Skeleton.Bones {
		b := &w.scene.Skeleton.Bones[i]
		rec := at + uint32(i)*w.rev.BoneRecordSize
		name, err := w.name(b.Name)
		if err != nil {
			return err
		}
		c.Put(rec, name)

		rot := b.LocalRotation
		if rot.Len() == 0 {
			rot = mgl32.QuatIdent()
		}
		if w.platform == config.Xbox {
			c.PutVec3(rec+0x10, b.LocalTranslation)
			euler := utils.Mat4ToEuler(rot.Normalize().Mat4())
			if b.LocalEuler != nil {
				euler = *b.LocalEuler
			}
			c.PutVec3(rec+0x20, euler)
		} else {
			c.PutVec4(rec+0x10, b.LocalTranslation.Vec4(1))
			c.PutVec4(rec+0x20, rot.V.Vec4(rot.W))
			if w.rev.HasRestMatrix && b.RestMatrix != nil {
				m := *b.RestMatrix
				for row := 0; row < 4; row++ {
					c.PutVec4(rec+0x50+uint32(row*16), m.Row(row))
				}
			}
		}
		c.PutI32(rec+0x30, int32(b.Parent))
	}
	return nil
}
