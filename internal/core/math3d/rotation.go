package math3d

import "math"

// RotationMatrix is an orthonormal 3x3 rotation built from Euler angles.
//
// Angles are degrees: X is pitch, Y is yaw, Z is roll. The matrix is the
// product Ry·Rx·Rz, so roll is applied to a vector first and yaw last. The
// last angle triple is cached and SetToAngles is a no-op while it is
// unchanged, which keeps per-tick updates of idle entities cheap.
//
// The zero value is not a valid rotation; use NewRotationMatrix.
type RotationMatrix struct {
	m00, m01, m02 float64
	m10, m11, m12 float64
	m20, m21, m22 float64

	lastAngles Vector3
	computed   bool
}

// NewRotationMatrix returns the identity rotation.
func NewRotationMatrix() *RotationMatrix {
	r := &RotationMatrix{}
	r.setIdentity()
	r.computed = true
	return r
}

// NewRotationMatrixFromAngles returns the rotation for the given angles.
func NewRotationMatrixFromAngles(pitch, yaw, roll float64) *RotationMatrix {
	r := &RotationMatrix{}
	r.SetFromEulerAngles(pitch, yaw, roll)
	return r
}

func (r *RotationMatrix) setIdentity() {
	r.m00, r.m01, r.m02 = 1, 0, 0
	r.m10, r.m11, r.m12 = 0, 1, 0
	r.m20, r.m21, r.m22 = 0, 0, 1
	r.lastAngles = Vector3{}
}

// SetToAngles sets the matrix from the X/Y/Z components of angles.
func (r *RotationMatrix) SetToAngles(angles *Vector3) *RotationMatrix {
	return r.SetFromEulerAngles(angles.X, angles.Y, angles.Z)
}

// SetFromEulerAngles rebuilds the matrix unless the triple matches the last one
// applied.
func (r *RotationMatrix) SetFromEulerAngles(pitch, yaw, roll float64) *RotationMatrix {
	if r.computed && r.lastAngles.X == pitch && r.lastAngles.Y == yaw && r.lastAngles.Z == roll {
		return r
	}
	sx, cx := math.Sincos(Radians(pitch))
	sy, cy := math.Sincos(Radians(yaw))
	sz, cz := math.Sincos(Radians(roll))

	r.m00 = cy*cz + sy*sx*sz
	r.m01 = -cy*sz + sy*sx*cz
	r.m02 = sy * cx
	r.m10 = cx * sz
	r.m11 = cx * cz
	r.m12 = -sx
	r.m20 = -sy*cz + cy*sx*sz
	r.m21 = sy*sz + cy*sx*cz
	r.m22 = cy * cx

	r.lastAngles.Set(pitch, yaw, roll)
	r.computed = true
	return r
}

// LastAngles returns the angle triple the matrix was last built from.
func (r *RotationMatrix) LastAngles() Vector3 {
	return r.lastAngles
}

// Angles derives the Euler triple back from the matrix. For pitch at ±90
// degrees yaw and roll are not separable; roll is reported as 0 there.
func (r *RotationMatrix) Angles() Vector3 {
	pitch := math.Asin(clampUnit(-r.m12))
	if math.Abs(r.m12) > 1-1e-9 {
		return Vector3{X: Degrees(pitch), Y: Degrees(math.Atan2(-r.m20, r.m00)), Z: 0}
	}
	return Vector3{
		X: Degrees(pitch),
		Y: Degrees(math.Atan2(r.m02, r.m22)),
		Z: Degrees(math.Atan2(r.m10, r.m11)),
	}
}

// Set copies o, cache included.
func (r *RotationMatrix) Set(o *RotationMatrix) *RotationMatrix {
	*r = *o
	return r
}

// Multiply returns a new matrix r·o. The result carries no angle cache.
func (r *RotationMatrix) Multiply(o *RotationMatrix) *RotationMatrix {
	return &RotationMatrix{
		m00: r.m00*o.m00 + r.m01*o.m10 + r.m02*o.m20,
		m01: r.m00*o.m01 + r.m01*o.m11 + r.m02*o.m21,
		m02: r.m00*o.m02 + r.m01*o.m12 + r.m02*o.m22,
		m10: r.m10*o.m00 + r.m11*o.m10 + r.m12*o.m20,
		m11: r.m10*o.m01 + r.m11*o.m11 + r.m12*o.m21,
		m12: r.m10*o.m02 + r.m11*o.m12 + r.m12*o.m22,
		m20: r.m20*o.m00 + r.m21*o.m10 + r.m22*o.m20,
		m21: r.m20*o.m01 + r.m21*o.m11 + r.m22*o.m21,
		m22: r.m20*o.m02 + r.m21*o.m12 + r.m22*o.m22,
	}
}

// Transpose returns a new matrix holding the inverse rotation.
func (r *RotationMatrix) Transpose() *RotationMatrix {
	return &RotationMatrix{
		m00: r.m00, m01: r.m10, m02: r.m20,
		m10: r.m01, m11: r.m11, m12: r.m21,
		m20: r.m02, m21: r.m12, m22: r.m22,
	}
}

// Row returns row i (0..2) of the matrix.
func (r *RotationMatrix) Row(i int) Vector3 {
	switch i {
	case 0:
		return Vector3{X: r.m00, Y: r.m01, Z: r.m02}
	case 1:
		return Vector3{X: r.m10, Y: r.m11, Z: r.m12}
	default:
		return Vector3{X: r.m20, Y: r.m21, Z: r.m22}
	}
}
