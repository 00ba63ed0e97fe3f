package voxel

import (
	"image/color"

	"github.com/golang/geo/r3"

	"github.com/manthan99/open3d-slam/pointcloud"
	"github.com/manthan99/open3d-slam/spatialmath"
)

// bucket aggregates the running mean of every attribute contributed to one
// voxel. Normal and color counts are tracked independently of the point
// count so that a voxel fed a mix of attributed and unattributed points
// still reports a correct mean over only the contributions it actually
// received.
type bucket struct {
	sumPoint    r3.Vector
	pointCount  int
	sumNormal   r3.Vector
	normalCount int
	sumColorR   float64
	sumColorG   float64
	sumColorB   float64
	colorCount  int
}

func (b *bucket) meanPoint() r3.Vector {
	return b.sumPoint.Mul(1 / float64(b.pointCount))
}

func (b *bucket) meanNormal() (r3.Vector, bool) {
	if b.normalCount == 0 {
		return r3.Vector{}, false
	}
	return b.sumNormal.Mul(1 / float64(b.normalCount)), true
}

func (b *bucket) meanColor() (color.NRGBA, bool) {
	if b.colorCount == 0 {
		return color.NRGBA{}, false
	}
	n := float64(b.colorCount)
	return color.NRGBA{
		R: uint8(b.sumColorR / n),
		G: uint8(b.sumColorG / n),
		B: uint8(b.sumColorB / n),
		A: 255,
	}, true
}

func (b *bucket) add(p r3.Vector, normal *r3.Vector, col *color.NRGBA) {
	b.sumPoint = b.sumPoint.Add(p)
	b.pointCount++
	if normal != nil {
		b.sumNormal = b.sumNormal.Add(*normal)
		b.normalCount++
	}
	if col != nil {
		b.sumColorR += float64(col.R)
		b.sumColorG += float64(col.G)
		b.sumColorB += float64(col.B)
		b.colorCount++
	}
}

// VoxelizedCloud is the dense C3 structure: a mapping from voxel key to
// aggregated point attributes, built by running-mean insertion.
type VoxelizedCloud struct {
	size    float64
	buckets map[Key]*bucket
}

// NewVoxelizedCloud returns an empty dense voxel cloud keyed at the given
// voxel size.
func NewVoxelizedCloud(size float64) *VoxelizedCloud {
	return &VoxelizedCloud{size: size, buckets: make(map[Key]*bucket)}
}

// Insert folds every point of cloud into its voxel bucket's running mean.
func (v *VoxelizedCloud) Insert(cloud *pointcloud.PointCloud) {
	hasN := cloud.HasNormals()
	hasC := cloud.HasColors()
	for i, p := range cloud.Points {
		k := KeyOf(p, v.size)
		b, ok := v.buckets[k]
		if !ok {
			b = &bucket{}
			v.buckets[k] = b
		}
		var normal *r3.Vector
		if hasN {
			n := cloud.Normals[i]
			normal = &n
		}
		var col *color.NRGBA
		if hasC {
			c := cloud.Colors[i]
			col = &c
		}
		b.add(p, normal, col)
	}
}

// RemoveKey deletes the bucket at key, if present.
func (v *VoxelizedCloud) RemoveKey(k Key) {
	delete(v.buckets, k)
}

// IsEmpty reports whether the dense cloud has no occupied voxels.
func (v *VoxelizedCloud) IsEmpty() bool {
	return len(v.buckets) == 0
}

// Size returns the number of occupied voxels.
func (v *VoxelizedCloud) Size() int {
	return len(v.buckets)
}

// Entry is one occupied voxel's aggregated attributes, as returned by
// Entries.
type Entry struct {
	Key        Key
	Point      r3.Vector
	Normal     r3.Vector
	HasNormal  bool
	Color      color.NRGBA
	HasColor   bool
}

// Entries returns every occupied voxel's aggregated attributes. Order is
// unspecified.
func (v *VoxelizedCloud) Entries() []Entry {
	out := make([]Entry, 0, len(v.buckets))
	for k, b := range v.buckets {
		e := Entry{Key: k, Point: b.meanPoint()}
		e.Normal, e.HasNormal = b.meanNormal()
		e.Color, e.HasColor = b.meanColor()
		out = append(out, e)
	}
	return out
}

// Transform applies the rigid transform T to every voxel's representative
// position (and normal, by rotation only) and rebuilds the key index from
// the transformed positions — per spec.md, a transform must not leave a
// bucket keyed by a position it no longer contains.
func (v *VoxelizedCloud) Transform(t spatialmath.Pose) {
	rebuilt := make(map[Key]*bucket, len(v.buckets))
	for _, b := range v.buckets {
		newPoint := spatialmath.TransformPoint(t, b.meanPoint())
		nb := &bucket{
			sumPoint:   newPoint,
			pointCount: 1,
		}
		if n, ok := b.meanNormal(); ok {
			nb.sumNormal = spatialmath.RotateVector(t, n)
			nb.normalCount = 1
		}
		if c, ok := b.meanColor(); ok {
			nb.sumColorR, nb.sumColorG, nb.sumColorB = float64(c.R), float64(c.G), float64(c.B)
			nb.colorCount = 1
		}
		newKey := KeyOf(newPoint, v.size)
		if existing, ok := rebuilt[newKey]; ok {
			// Two voxels collapsed into one under the transform (can
			// happen near the edges of a rotation); merge their
			// representative attributes rather than drop one.
			existing.sumPoint = existing.sumPoint.Add(newPoint)
			existing.pointCount++
			if nb.normalCount > 0 {
				existing.sumNormal = existing.sumNormal.Add(nb.sumNormal)
				existing.normalCount++
			}
			if nb.colorCount > 0 {
				existing.sumColorR += nb.sumColorR
				existing.sumColorG += nb.sumColorG
				existing.sumColorB += nb.sumColorB
				existing.colorCount++
			}
			continue
		}
		rebuilt[newKey] = nb
	}
	v.buckets = rebuilt
}
