package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AxisCorrection is -90 degrees around X, roots of skeleton are composed against it
func AxisCorrection() mgl32.Mat4 {
	return mgl32.HomogRotate3DX(float32(-math.Pi / 2))
}

// EulerToMat4 builds rotation that applies Z first, then Y, then X (radians)
func EulerToMat4(e mgl32.Vec3) mgl32.Mat4 {
	return mgl32.HomogRotate3DX(e[0]).Mul4(mgl32.HomogRotate3DY(e[1])).Mul4(mgl32.HomogRotate3DZ(e[2]))
}

// Mat4ToEuler is inverse of EulerToMat4 for pure rotation matrices
func Mat4ToEuler(m mgl32.Mat4) (e mgl32.Vec3) {
	sy := float64(m.At(0, 2))
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	e[1] = float32(math.Asin(sy))
	if math.Abs(sy) < 0.999999 {
		e[0] = float32(math.Atan2(float64(-m.At(1, 2)), float64(m.At(2, 2))))
		e[2] = float32(math.Atan2(float64(-m.At(0, 1)), float64(m.At(0, 0))))
	} else {
		// gimbal lock, put everything into X
		e[0] = float32(math.Atan2(float64(m.At(2, 1)), float64(m.At(1, 1))))
		e[2] = 0
	}
	return e
}

// LocalTransform composes translation * rotation
func LocalTransform(t mgl32.Vec3, r mgl32.Quat) mgl32.Mat4 {
	return mgl32.Translate3D(t[0], t[1], t[2]).Mul4(r.Normalize().Mat4())
}

func Mat4ApproxEqual(a, b mgl32.Mat4, eps float32) bool {
	for i := range a {
		if !mgl32.FloatEqualThreshold(a[i], b[i], eps) {
			return false
		}
	}
	return true
}
