// Package spatialmath defines the rigid-transform type shared across the
// submap engine: a translation paired with a unit rotation quaternion. It
// mirrors the role of the teacher's spatialmath.Pose/DualQuaternion types
// (spatialmath/orientation.go, spatialmath/dualquaternion.go) but keeps the
// representation to a plain quaternion + translation, which is all the
// engine ever needs to compose, invert, and apply.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// rigidTolerance is how far a quaternion's norm may drift from 1 before a
// Pose is no longer considered a valid rigid transform.
const rigidTolerance = 1e-6

// Pose is a rigid transform: a rotation (unit quaternion) followed by a
// translation, applied in that order to any point expressed in the frame
// the Pose is relative to.
type Pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return Pose{orientation: quat.Number{Real: 1}}
}

// NewPoseFromPoint returns a pure translation with identity rotation.
func NewPoseFromPoint(p r3.Vector) Pose {
	return Pose{point: p, orientation: quat.Number{Real: 1}}
}

// NewPose returns a Pose with the given translation and rotation. The
// rotation is normalized so that IsRigid holds for the result whenever o is
// non-zero.
func NewPose(p r3.Vector, o quat.Number) Pose {
	n := quat.Abs(o)
	if n == 0 {
		o = quat.Number{Real: 1}
	} else {
		o = quat.Scale(1/n, o)
	}
	return Pose{point: p, orientation: o}
}

// Point returns the translation component.
func (p Pose) Point() r3.Vector {
	return p.point
}

// Orientation returns the rotation component.
func (p Pose) Orientation() quat.Number {
	return p.orientation
}

// IsRigid reports whether p's rotation is a unit quaternion, i.e. whether p
// is a valid rigid transform as required by every Pose-accepting entry
// point in this module.
func IsRigid(p Pose) bool {
	return math.Abs(quat.Abs(p.orientation)-1) <= rigidTolerance
}

// rotate applies only the rotation component of p to v — used for normals,
// which transform by rotation but not translation.
func rotate(p Pose, v r3.Vector) r3.Vector {
	vq := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rq := quat.Mul(quat.Mul(p.orientation, vq), quat.Conj(p.orientation))
	return r3.Vector{X: rq.Imag, Y: rq.Jmag, Z: rq.Kmag}
}

// TransformPoint applies the full rigid transform p to the point v:
// rotate, then translate.
func TransformPoint(p Pose, v r3.Vector) r3.Vector {
	return rotate(p, v).Add(p.point)
}

// RotateVector applies only the rotation component of p to v. Used for
// direction-like quantities (surface normals) that must not be translated.
func RotateVector(p Pose, v r3.Vector) r3.Vector {
	return rotate(p, v)
}

// Compose returns the Pose equivalent to first applying b, then a — i.e.
// a∘b, matching the convention mapToRangeSensor = mapToRangeSensor ∘ T used
// throughout the submap orchestrator.
func Compose(a, b Pose) Pose {
	return Pose{
		point:       TransformPoint(a, b.point),
		orientation: quat.Mul(a.orientation, b.orientation),
	}
}

// Invert returns the Pose that undoes p.
func Invert(p Pose) Pose {
	inv := quat.Conj(p.orientation)
	invPoint := rotate(Pose{orientation: inv}, p.point.Mul(-1))
	return Pose{point: invPoint, orientation: inv}
}

// PoseBetween returns the Pose that, composed after a, yields b: the
// relative transform from a's frame to b's frame.
func PoseBetween(a, b Pose) Pose {
	return Compose(Invert(a), b)
}

// PoseAlmostEqual reports whether a and b agree on both translation and
// rotation within tol.
func PoseAlmostEqual(a, b Pose, tol float64) bool {
	if a.point.Sub(b.point).Norm() > tol {
		return false
	}
	diff := quat.Mul(a.orientation, quat.Conj(b.orientation))
	// A quaternion representing (near-)zero rotation has Real close to ±1.
	return math.Abs(math.Abs(diff.Real)-1) <= tol
}
