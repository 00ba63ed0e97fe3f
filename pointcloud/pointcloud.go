// Package pointcloud defines the point cloud primitive the rest of the
// submap engine is built on: an ordered sequence of 3D points with
// optional parallel normal and color attributes. Its API style — a
// concrete struct over github.com/golang/geo/r3 vectors rather than an
// open interface hierarchy — follows the teacher's pointcloud.basicData
// and pointcloud.Vectors (pointcloud/point.go), generalized from the
// teacher's position-keyed dictionary cloud to an ordered-slice cloud, the
// shape the space-carving and voxel-downsample algorithms in this module
// need (stable indices, duplicate positions allowed).
package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"

	"github.com/manthan99/open3d-slam/slamerrors"
)

// PointCloud is an ordered sequence of points with optional parallel
// normal and color attributes. Normals and Colors are either empty or
// exactly len(Points) long — see MustConsistent.
type PointCloud struct {
	Points  []r3.Vector
	Normals []r3.Vector
	Colors  []color.NRGBA
}

// New returns an empty point cloud.
func New() *PointCloud {
	return &PointCloud{}
}

// NewWithCapacity returns an empty point cloud whose Points slice is
// preallocated for n points, matching the teacher's
// pointcloud.NewWithPrealloc sizing convention.
func NewWithCapacity(n int) *PointCloud {
	return &PointCloud{Points: make([]r3.Vector, 0, n)}
}

// Size returns the number of points in the cloud.
func (pc *PointCloud) Size() int {
	if pc == nil {
		return 0
	}
	return len(pc.Points)
}

// HasNormals reports whether the cloud carries a normal per point.
func (pc *PointCloud) HasNormals() bool {
	return pc != nil && len(pc.Normals) == len(pc.Points) && len(pc.Normals) > 0
}

// HasColors reports whether the cloud carries a color per point.
func (pc *PointCloud) HasColors() bool {
	return pc != nil && len(pc.Colors) == len(pc.Points) && len(pc.Colors) > 0
}

// MustConsistent panics with a slamerrors typed error if the optional
// attribute arrays are neither empty nor exactly len(Points) long. This is
// the "mismatched attribute array lengths" programmer error from the
// engine's error taxonomy: it happens when calling code builds a
// PointCloud by hand with mismatched arrays, or when Append joins two
// clouds that disagree on which attributes they carry.
func (pc *PointCloud) MustConsistent() {
	if pc == nil {
		return
	}
	n := len(pc.Points)
	if len(pc.Normals) != 0 && len(pc.Normals) != n {
		panic(slamerrors.NewAttributeLengthMismatchError("normals", len(pc.Normals), n))
	}
	if len(pc.Colors) != 0 && len(pc.Colors) != n {
		panic(slamerrors.NewAttributeLengthMismatchError("colors", len(pc.Colors), n))
	}
}

// Clone returns a deep copy of pc.
func (pc *PointCloud) Clone() *PointCloud {
	if pc == nil {
		return New()
	}
	out := &PointCloud{Points: append([]r3.Vector(nil), pc.Points...)}
	if len(pc.Normals) > 0 {
		out.Normals = append([]r3.Vector(nil), pc.Normals...)
	}
	if len(pc.Colors) > 0 {
		out.Colors = append([]color.NRGBA(nil), pc.Colors...)
	}
	return out
}

// Append concatenates other onto pc in place. Both clouds must agree on
// whether they carry normals and whether they carry colors; a mismatch is
// a programmer error (spec's attribute-consistency invariant) and panics
// via MustConsistent once the mismatched state is visible.
func (pc *PointCloud) Append(other *PointCloud) {
	if other == nil || other.Size() == 0 {
		return
	}
	if pc.Size() == 0 {
		pc.Points = append([]r3.Vector(nil), other.Points...)
		pc.Normals = append([]r3.Vector(nil), other.Normals...)
		pc.Colors = append([]color.NRGBA(nil), other.Colors...)
		return
	}
	pc.Points = append(pc.Points, other.Points...)
	if pc.HasNormals() || other.HasNormals() {
		pc.Normals = append(pc.Normals, other.Normals...)
	}
	if pc.HasColors() || other.HasColors() {
		pc.Colors = append(pc.Colors, other.Colors...)
	}
	pc.MustConsistent()
}

// SelectByIndex returns a new cloud containing only the points (and
// matching attributes) at the given indices, in the given order.
func (pc *PointCloud) SelectByIndex(idxs []int) *PointCloud {
	out := NewWithCapacity(len(idxs))
	hasN, hasC := pc.HasNormals(), pc.HasColors()
	if hasN {
		out.Normals = make([]r3.Vector, 0, len(idxs))
	}
	if hasC {
		out.Colors = make([]color.NRGBA, 0, len(idxs))
	}
	for _, idx := range idxs {
		out.Points = append(out.Points, pc.Points[idx])
		if hasN {
			out.Normals = append(out.Normals, pc.Normals[idx])
		}
		if hasC {
			out.Colors = append(out.Colors, pc.Colors[idx])
		}
	}
	return out
}

// Centroid returns the arithmetic mean of pc's points. Returns the zero
// vector for an empty cloud.
func (pc *PointCloud) Centroid() r3.Vector {
	if pc.Size() == 0 {
		return r3.Vector{}
	}
	sum := r3.Vector{}
	for _, p := range pc.Points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(pc.Size()))
}

// complementIndices returns the indices in [0,n) not present in idxs.
func complementIndices(idxs []int, n int) []int {
	excluded := make(map[int]struct{}, len(idxs))
	for _, idx := range idxs {
		excluded[idx] = struct{}{}
	}
	out := make([]int, 0, n-len(idxs))
	for i := 0; i < n; i++ {
		if _, ok := excluded[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// ComplementIndices exposes complementIndices for callers outside this
// package (submap's voxelize-within-cropping-volume step needs the points
// outside a cropping volume left untouched).
func ComplementIndices(idxs []int, n int) []int {
	return complementIndices(idxs, n)
}
