package math3d

import "math"

// TransformationMatrix is a 4x4 affine transform stored row-major.
//
// Points are column vectors, so for M = A·B a point is transformed by B first
// and by A second. Combine appends on the right (the new transform acts on
// points before everything accumulated so far, i.e. it is the more local
// one); CombinePrior appends on the left (it acts last). Building a hierarchy
// entity → part → sub-part is a chain of Combine calls starting at the entity.
//
// The zero value is the all-zero matrix, not the identity; use
// NewTransformationMatrix or call ResetTransforms first.
type TransformationMatrix struct {
	m [16]float64
}

// NewTransformationMatrix returns the identity transform.
func NewTransformationMatrix() *TransformationMatrix {
	t := &TransformationMatrix{}
	t.ResetTransforms()
	return t
}

// ResetTransforms sets the matrix back to identity.
func (t *TransformationMatrix) ResetTransforms() *TransformationMatrix {
	t.m = [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	return t
}

// Set copies o into t.
func (t *TransformationMatrix) Set(o *TransformationMatrix) *TransformationMatrix {
	t.m = o.m
	return t
}

// At returns the coefficient at row, col.
func (t *TransformationMatrix) At(row, col int) float64 {
	return t.m[row*4+col]
}

// Translate combines a translation.
func (t *TransformationMatrix) Translate(x, y, z float64) *TransformationMatrix {
	return t.Combine(&TransformationMatrix{m: [16]float64{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}})
}

// TranslateVector combines a translation by v.
func (t *TransformationMatrix) TranslateVector(v *Vector3) *TransformationMatrix {
	return t.Translate(v.X, v.Y, v.Z)
}

// Rotate combines a rotation of angle degrees about the axis (x, y, z). The axis
// does not need to be normalized; a zero axis leaves t unchanged.
func (t *TransformationMatrix) Rotate(angle, x, y, z float64) *TransformationMatrix {
	axis := Vector3{X: x, Y: y, Z: z}
	if axis.Length() <= normalizeEpsilon {
		return t
	}
	axis.Normalize()
	s, c := math.Sincos(Radians(angle))
	k := 1 - c
	ax, ay, az := axis.X, axis.Y, axis.Z
	return t.Combine(&TransformationMatrix{m: [16]float64{
		k*ax*ax + c, k*ax*ay - s*az, k*ax*az + s*ay, 0,
		k*ax*ay + s*az, k*ay*ay + c, k*ay*az - s*ax, 0,
		k*ax*az - s*ay, k*ay*az + s*ax, k*az*az + c, 0,
		0, 0, 0, 1,
	}})
}

// ApplyRotation combines the rotation r.
func (t *TransformationMatrix) ApplyRotation(r *RotationMatrix) *TransformationMatrix {
	return t.Combine(rotationBlock(r))
}

// SetRotation overwrites the rotational 3x3 block with r and keeps the
// translation column.
func (t *TransformationMatrix) SetRotation(r *RotationMatrix) *TransformationMatrix {
	t.m[0], t.m[1], t.m[2] = r.m00, r.m01, r.m02
	t.m[4], t.m[5], t.m[6] = r.m10, r.m11, r.m12
	t.m[8], t.m[9], t.m[10] = r.m20, r.m21, r.m22
	t.m[15] = 1
	return t
}

// Scale combines a uniform scale.
func (t *TransformationMatrix) Scale(s float64) *TransformationMatrix {
	return t.ScaleXYZ(s, s, s)
}

// ScaleXYZ combines a per-axis scale.
func (t *TransformationMatrix) ScaleXYZ(x, y, z float64) *TransformationMatrix {
	return t.Combine(&TransformationMatrix{m: [16]float64{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}})
}

// Combine sets t = t·o.
func (t *TransformationMatrix) Combine(o *TransformationMatrix) *TransformationMatrix {
	t.m = multiply4(&t.m, &o.m)
	return t
}

// CombinePrior sets t = o·t.
func (t *TransformationMatrix) CombinePrior(o *TransformationMatrix) *TransformationMatrix {
	t.m = multiply4(&o.m, &t.m)
	return t
}

// Translation returns the translation column.
func (t *TransformationMatrix) Translation() Vector3 {
	return Vector3{X: t.m[3], Y: t.m[7], Z: t.m[11]}
}

// InvertRigid returns the inverse of a rotation+translation transform. The
// result is wrong for matrices that carry scale.
func (t *TransformationMatrix) InvertRigid() *TransformationMatrix {
	m := &t.m
	inv := &TransformationMatrix{}
	inv.m = [16]float64{
		m[0], m[4], m[8], 0,
		m[1], m[5], m[9], 0,
		m[2], m[6], m[10], 0,
		0, 0, 0, 1,
	}
	inv.m[3] = -(inv.m[0]*m[3] + inv.m[1]*m[7] + inv.m[2]*m[11])
	inv.m[7] = -(inv.m[4]*m[3] + inv.m[5]*m[7] + inv.m[6]*m[11])
	inv.m[11] = -(inv.m[8]*m[3] + inv.m[9]*m[7] + inv.m[10]*m[11])
	return inv
}

func rotationBlock(r *RotationMatrix) *TransformationMatrix {
	return &TransformationMatrix{m: [16]float64{
		r.m00, r.m01, r.m02, 0,
		r.m10, r.m11, r.m12, 0,
		r.m20, r.m21, r.m22, 0,
		0, 0, 0, 1,
	}}
}

func multiply4(a, b *[16]float64) [16]float64 {
	var out [16]float64
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[row*4+col] = a[row*4]*b[col] +
				a[row*4+1]*b[4+col] +
				a[row*4+2]*b[8+col] +
				a[row*4+3]*b[12+col]
		}
	}
	return out
}
