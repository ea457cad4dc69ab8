package common

import (
	"math"
)

// BuildModelMatrix constructs a 4x4 model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll). All matrices are column-major.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - pos: translation in world space
//   - rot: rotation angles in radians around each axis
//   - scale: scale factors along each axis
func BuildModelMatrix(out []float32, pos, rot, scale [3]float32) {
	cx := float32(math.Cos(float64(rot[0])))
	sx := float32(math.Sin(float64(rot[0])))
	cy := float32(math.Cos(float64(rot[1])))
	sy := float32(math.Sin(float64(rot[1])))
	cz := float32(math.Cos(float64(rot[2])))
	sz := float32(math.Sin(float64(rot[2])))

	// R = Ry * Rx * Rz, column-major
	out[0] = (cy*cz + sy*sx*sz) * scale[0]
	out[1] = (cx * sz) * scale[0]
	out[2] = (-sy*cz + cy*sx*sz) * scale[0]
	out[3] = 0

	out[4] = (cy*-sz + sy*sx*cz) * scale[1]
	out[5] = (cx * cz) * scale[1]
	out[6] = (sy*sz + cy*sx*cz) * scale[1]
	out[7] = 0

	out[8] = (sy * cx) * scale[2]
	out[9] = (-sx) * scale[2]
	out[10] = (cy * cx) * scale[2]
	out[11] = 0

	out[12] = pos[0]
	out[13] = pos[1]
	out[14] = pos[2]
	out[15] = 1
}

// BuildNormalMatrix writes the inverse-transpose of the rotation/scale part of a model matrix
// built by BuildModelMatrix. Since the rotation is orthonormal, the inverse-transpose of R*S
// is R*S^-1, so no general inversion is needed. Zero scale components are treated as 1.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - rot: rotation angles in radians around each axis
//   - scale: scale factors along each axis
func BuildNormalMatrix(out []float32, rot, scale [3]float32) {
	var inv [3]float32
	for i, s := range scale {
		if s == 0 {
			s = 1
		}
		inv[i] = 1 / s
	}
	BuildModelMatrix(out, [3]float32{}, rot, inv)
}

// BuildUVTransform constructs a 2D texture coordinate transform (scale, then rotate, then offset)
// laid out as three vec4 columns of a column-major 3x4 matrix, matching the WGSL mat3x4<f32> layout.
//
// Parameters:
//   - out: destination slice (must be at least 12 elements)
//   - offset: UV translation
//   - rotation: rotation in radians around the UV origin
//   - scale: UV scale
func BuildUVTransform(out []float32, offset [2]float32, rotation float32, scale [2]float32) {
	c := float32(math.Cos(float64(rotation)))
	s := float32(math.Sin(float64(rotation)))

	out[0], out[1], out[2], out[3] = c*scale[0], s*scale[0], 0, 0
	out[4], out[5], out[6], out[7] = -s*scale[1], c*scale[1], 0, 0
	out[8], out[9], out[10], out[11] = offset[0], offset[1], 1, 0
}
