// Package cropping implements the pose-anchored spatial predicate spec.md
// calls a cropping volume: a tagged variant over {box, cylinder, sphere,
// maxRadius} behind one capability set {SetPose, Crop, IndicesWithin}. The
// teacher's design notes favor a closed tagged variant over an open
// interface hierarchy wherever the set of cases is small and fixed
// (pointcloud.VoxelCoords-style plain structs over polymorphism); a
// cropping volume is exactly that case, per spec.md §9.
package cropping

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/manthan99/open3d-slam/pointcloud"
	"github.com/manthan99/open3d-slam/slamerrors"
	"github.com/manthan99/open3d-slam/spatialmath"
)

// Kind discriminates the cropping volume shape.
type Kind int

const (
	// Box keeps points within ±Radius in the local X and Y axes and
	// between MinZ and MaxZ in the local Z axis.
	Box Kind = iota
	// Cylinder keeps points within Radius of the local Z axis and
	// between MinZ and MaxZ in the local Z axis.
	Cylinder
	// Sphere keeps points within Radius of the volume's pose, in all
	// three axes.
	Sphere
	// MaxRadius keeps points within Radius of the local Z axis,
	// unbounded in Z — an infinite cylinder.
	MaxRadius
)

func (k Kind) String() string {
	switch k {
	case Box:
		return "box"
	case Cylinder:
		return "cylinder"
	case Sphere:
		return "sphere"
	case MaxRadius:
		return "maxRadius"
	default:
		return "unknown"
	}
}

// ParseKind maps the MapperParameters cropper.name string onto a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "box":
		return Box, nil
	case "cylinder":
		return Cylinder, nil
	case "sphere":
		return Sphere, nil
	case "maxRadius":
		return MaxRadius, nil
	default:
		return 0, slamerrors.NewUnknownCropperKindError(name)
	}
}

// Volume is a pose-anchored spatial predicate. Containment is tested in
// the volume's local frame (the inverse of its pose applied to the query
// point); points exactly on the boundary are included (spec.md's
// tie-break).
type Volume struct {
	kind    Kind
	radius  float64
	minZ    float64
	maxZ    float64
	pose    spatialmath.Pose
	poseInv spatialmath.Pose
}

// New returns a Volume of the given kind and parameters, anchored at the
// identity pose.
func New(kind Kind, radius, minZ, maxZ float64) *Volume {
	v := &Volume{kind: kind, radius: radius, minZ: minZ, maxZ: maxZ}
	v.SetPose(spatialmath.NewZeroPose())
	return v
}

// SetPose repositions the volume.
func (v *Volume) SetPose(pose spatialmath.Pose) {
	v.pose = pose
	v.poseInv = spatialmath.Invert(pose)
}

// contains reports whether the world-frame point p lies within the
// volume.
func (v *Volume) contains(p r3.Vector) bool {
	local := spatialmath.TransformPoint(v.poseInv, p)
	switch v.kind {
	case Box:
		return math.Abs(local.X) <= v.radius && math.Abs(local.Y) <= v.radius &&
			local.Z >= v.minZ && local.Z <= v.maxZ
	case Cylinder:
		radial := math.Hypot(local.X, local.Y)
		return radial <= v.radius && local.Z >= v.minZ && local.Z <= v.maxZ
	case Sphere:
		return local.Norm() <= v.radius
	case MaxRadius:
		return math.Hypot(local.X, local.Y) <= v.radius
	default:
		return false
	}
}

// IndicesWithin returns the sorted, unique indices of cloud's points that
// lie within the volume.
func (v *Volume) IndicesWithin(cloud *pointcloud.PointCloud) []int {
	var idxs []int
	for i, p := range cloud.Points {
		if v.contains(p) {
			idxs = append(idxs, i)
		}
	}
	sort.Ints(idxs)
	return idxs
}

// Crop returns a new cloud containing only the points of cloud (with
// attributes preserved) that lie within the volume.
func (v *Volume) Crop(cloud *pointcloud.PointCloud) *pointcloud.PointCloud {
	return cloud.SelectByIndex(v.IndicesWithin(cloud))
}
