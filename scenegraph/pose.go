package scenegraph

import (
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// Pose is a local node transform carried either as a position and an
// orientation quaternion or as a full 4x4 column-major matrix.
type Pose struct {
	Pos  types.Vec3
	Quat types.Quat

	// When UseMat is set the matrix takes precedence: the translation is
	// read from the 4th column and the rotation from the upper-left 3x3.
	UseMat bool
	Mat    types.Mat4
}

// Create a pose from a position and an orientation quaternion.
func PoseAt(pos types.Vec3, quat types.Quat) Pose {
	return Pose{Pos: pos, Quat: quat}
}

// Create a pose from a 4x4 transform matrix.
func PoseFromMat4(mat types.Mat4) Pose {
	return Pose{UseMat: true, Mat: mat}
}

// Decompose the pose into a position and an orientation quaternion.
// Scale embedded in a matrix pose is stripped before conversion.
func (p Pose) posQuat() (types.Vec3, types.Quat) {
	if !p.UseMat {
		return p.Pos, p.Quat
	}

	rot := p.Mat
	for col := 0; col < 3; col++ {
		basis := rot.Col(col).Vec3().Normalize()
		rot[col*4] = basis[0]
		rot[col*4+1] = basis[1]
		rot[col*4+2] = basis[2]
	}
	return p.Mat.Translation(), types.QuatFromMat4(rot).Normalize()
}
