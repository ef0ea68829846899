package math3d

import (
	"fmt"
	"math"
)

const (
	// normalizeEpsilon is the length below which Normalize leaves a vector untouched.
	normalizeEpsilon = 1.0e-8
	// parallelEpsilon is the squared axis delta below which a segment is treated as
	// parallel to an axis plane.
	parallelEpsilon = 1.0e-7
)

// Vector3 is a mutable 3D point or vector.
//
// Mutating methods change the receiver and return it so calls can be chained.
// Only Copy and CrossProduct allocate a new vector. Hot per-tick code should
// keep its own scratch vectors and reuse them.
type Vector3 struct {
	X, Y, Z float64
}

// NewVector3 returns a new vector with the given components.
func NewVector3(x, y, z float64) *Vector3 {
	return &Vector3{X: x, Y: y, Z: z}
}

// Equals compares at single precision so accumulated floating-point drift does
// not break equality of points that are meant to be the same.
func (v *Vector3) Equals(o *Vector3) bool {
	if o == nil {
		return false
	}
	return float32(v.X) == float32(o.X) && float32(v.Y) == float32(o.Y) && float32(v.Z) == float32(o.Z)
}

func (v *Vector3) String() string {
	return fmt.Sprintf("[X:%g, Y:%g, Z:%g]", v.X, v.Y, v.Z)
}

// Set sets all three components.
func (v *Vector3) Set(x, y, z float64) *Vector3 {
	v.X, v.Y, v.Z = x, y, z
	return v
}

// SetVector copies o into v.
func (v *Vector3) SetVector(o *Vector3) *Vector3 {
	v.X, v.Y, v.Z = o.X, o.Y, o.Z
	return v
}

// Add adds the given components.
func (v *Vector3) Add(x, y, z float64) *Vector3 {
	v.X += x
	v.Y += y
	v.Z += z
	return v
}

// AddVector adds o to v.
func (v *Vector3) AddVector(o *Vector3) *Vector3 {
	v.X += o.X
	v.Y += o.Y
	v.Z += o.Z
	return v
}

// AddScaled adds o*scale to v without touching o.
func (v *Vector3) AddScaled(o *Vector3, scale float64) *Vector3 {
	v.X += o.X * scale
	v.Y += o.Y * scale
	v.Z += o.Z * scale
	return v
}

// Subtract subtracts o from v.
func (v *Vector3) Subtract(o *Vector3) *Vector3 {
	v.X -= o.X
	v.Y -= o.Y
	v.Z -= o.Z
	return v
}

// Scale multiplies every component by scale.
func (v *Vector3) Scale(scale float64) *Vector3 {
	v.X *= scale
	v.Y *= scale
	v.Z *= scale
	return v
}

// Multiply multiplies v component-wise by o.
func (v *Vector3) Multiply(o *Vector3) *Vector3 {
	v.X *= o.X
	v.Y *= o.Y
	v.Z *= o.Z
	return v
}

// Interpolate moves v toward o by the given fraction.
func (v *Vector3) Interpolate(o *Vector3, fraction float64) *Vector3 {
	v.X += (o.X - v.X) * fraction
	v.Y += (o.Y - v.Y) * fraction
	v.Z += (o.Z - v.Z) * fraction
	return v
}

// Invert flips the sign of every component.
func (v *Vector3) Invert() *Vector3 {
	v.X, v.Y, v.Z = -v.X, -v.Y, -v.Z
	return v
}

// DistanceTo returns the euclidean distance between v and o.
func (v *Vector3) DistanceTo(o *Vector3) float64 {
	dx := o.X - v.X
	dy := o.Y - v.Y
	dz := o.Z - v.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// IsDistanceToCloserThan reports whether o is strictly closer than distance.
// No square root is taken.
func (v *Vector3) IsDistanceToCloserThan(o *Vector3, distance float64) bool {
	dx := o.X - v.X
	dy := o.Y - v.Y
	dz := o.Z - v.Z
	return dx*dx+dy*dy+dz*dz < distance*distance
}

// DotProduct returns v·o.
func (v *Vector3) DotProduct(o *Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// CrossProduct returns a new vector v×o. Neither operand is modified.
func (v *Vector3) CrossProduct(o *Vector3) *Vector3 {
	return &Vector3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the magnitude of v.
func (v *Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize scales v to unit length. Vectors shorter than 1e-8 are left as is.
func (v *Vector3) Normalize() *Vector3 {
	length := v.Length()
	if length > normalizeEpsilon {
		v.X /= length
		v.Y /= length
		v.Z /= length
	}
	return v
}

// ClampedYDelta returns v.Y - otherY wrapped into [-180, 180]. Y carries yaw for
// angle vectors, so this is the shortest signed yaw difference.
func (v *Vector3) ClampedYDelta(otherY float64) float64 {
	delta := v.Y - otherY
	for delta > 180 {
		delta -= 360
	}
	for delta < -180 {
		delta += 360
	}
	return delta
}

// Angles replaces v with the pitch/yaw angles (degrees) of the direction it
// points in. Roll is always 0. Pitch is the negated asin of Y; downstream
// orientation code depends on that sign. Pass normalize when v is not a unit
// vector. A zero vector yields zero angles.
func (v *Vector3) Angles(normalize bool) *Vector3 {
	if normalize {
		v.Normalize()
	}
	theta := math.Asin(clampUnit(v.Y))
	phi := math.Atan2(v.X, v.Z)
	return v.Set(-Degrees(theta), Degrees(phi), 0)
}

// Copy returns a new vector equal to v.
func (v *Vector3) Copy() *Vector3 {
	return &Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

// IsZero reports whether every component is exactly zero.
func (v *Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// IntermediateWithXValue returns the point on the segment v→end whose X equals
// targetX. It reports false when the segment is parallel to that plane or
// does not reach it.
func (v *Vector3) IntermediateWithXValue(end *Vector3, targetX float64) (Vector3, bool) {
	delta := Vector3{X: end.X - v.X, Y: end.Y - v.Y, Z: end.Z - v.Z}
	if delta.X*delta.X < parallelEpsilon {
		return Vector3{}, false
	}
	return v.intermediate(&delta, (targetX-v.X)/delta.X)
}

// IntermediateWithYValue is IntermediateWithXValue for the Y axis.
func (v *Vector3) IntermediateWithYValue(end *Vector3, targetY float64) (Vector3, bool) {
	delta := Vector3{X: end.X - v.X, Y: end.Y - v.Y, Z: end.Z - v.Z}
	if delta.Y*delta.Y < parallelEpsilon {
		return Vector3{}, false
	}
	return v.intermediate(&delta, (targetY-v.Y)/delta.Y)
}

// IntermediateWithZValue is IntermediateWithXValue for the Z axis.
func (v *Vector3) IntermediateWithZValue(end *Vector3, targetZ float64) (Vector3, bool) {
	delta := Vector3{X: end.X - v.X, Y: end.Y - v.Y, Z: end.Z - v.Z}
	if delta.Z*delta.Z < parallelEpsilon {
		return Vector3{}, false
	}
	return v.intermediate(&delta, (targetZ-v.Z)/delta.Z)
}

func (v *Vector3) intermediate(delta *Vector3, factor float64) (Vector3, bool) {
	if factor < 0 || factor > 1 {
		return Vector3{}, false
	}
	delta.Scale(factor).AddVector(v)
	return *delta, true
}

// Rotate applies R·v.
func (v *Vector3) Rotate(r *RotationMatrix) *Vector3 {
	tx := r.m00*v.X + r.m01*v.Y + r.m02*v.Z
	ty := r.m10*v.X + r.m11*v.Y + r.m12*v.Z
	v.Z = r.m20*v.X + r.m21*v.Y + r.m22*v.Z
	v.X, v.Y = tx, ty
	return v
}

// ReOrigin applies Rᵗ·v. The physical vector stays put; only the frame it is
// expressed in changes to the one R describes. Use it to turn a world-space
// offset into an entity's local frame.
func (v *Vector3) ReOrigin(r *RotationMatrix) *Vector3 {
	tx := r.m00*v.X + r.m10*v.Y + r.m20*v.Z
	ty := r.m01*v.X + r.m11*v.Y + r.m21*v.Z
	v.Z = r.m02*v.X + r.m12*v.Y + r.m22*v.Z
	v.X, v.Y = tx, ty
	return v
}

// RotateY rotates v about the Y axis by angle degrees.
func (v *Vector3) RotateY(angle float64) *Vector3 {
	if angle == 0 {
		return v
	}
	s, c := math.Sincos(Radians(angle))
	return v.Set(v.X*c+v.Z*s, v.Y, -v.X*s+v.Z*c)
}

// Transform applies the affine transform m to v treated as a point.
func (v *Vector3) Transform(m *TransformationMatrix) *Vector3 {
	tx := m.m[0]*v.X + m.m[1]*v.Y + m.m[2]*v.Z + m.m[3]
	ty := m.m[4]*v.X + m.m[5]*v.Y + m.m[6]*v.Z + m.m[7]
	v.Z = m.m[8]*v.X + m.m[9]*v.Y + m.m[10]*v.Z + m.m[11]
	v.X, v.Y = tx, ty
	return v
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

func clampUnit(f float64) float64 {
	if f > 1 {
		return 1
	}
	if f < -1 {
		return -1
	}
	return f
}
