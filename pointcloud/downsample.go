package pointcloud

import (
	"image/color"
	"sort"

	"github.com/golang/geo/r3"
)

// voxelKey is the integer lattice coordinate of a point under a given
// voxel size, by component-wise floor division — the same construction as
// the teacher's pointcloud.VoxelCoords (pointcloud/voxel.go). It is private
// to this downsample; the voxel package's Key uses the same construction.
type voxelKey struct {
	I, J, K int64
}

func keyOf(p r3.Vector, size float64) voxelKey {
	return voxelKey{
		I: int64(floorDiv(p.X, size)),
		J: int64(floorDiv(p.Y, size)),
		K: int64(floorDiv(p.Z, size)),
	}
}

func floorDiv(v, size float64) float64 {
	q := v / size
	f := float64(int64(q))
	if q < f {
		f--
	}
	return f
}

type voxelAccumulator struct {
	sumPoint  r3.Vector
	sumNormal r3.Vector
	count     int
	firstIdx  int
}

// VoxelDownsample returns a new cloud with one point per occupied voxel of
// the given size, each representative being the mean position (and mean
// normal, if present) of the points that fell in that voxel. A
// non-positive size is a no-op condition per spec and returns an
// unchanged clone. Colors, if present, take the color of the first point
// encountered in each voxel (the teacher's aggregation machinery,
// pointcloud/voxel.go's Voxel.ComputeCenter, treats color analogously:
// representative, not blended).
func (pc *PointCloud) VoxelDownsample(size float64) *PointCloud {
	if size <= 0 {
		return pc.Clone()
	}
	if pc.Size() == 0 {
		return New()
	}
	hasN := pc.HasNormals()
	hasC := pc.HasColors()

	buckets := make(map[voxelKey]*voxelAccumulator)
	order := make([]voxelKey, 0)
	for i, p := range pc.Points {
		k := keyOf(p, size)
		acc, ok := buckets[k]
		if !ok {
			acc = &voxelAccumulator{firstIdx: i}
			buckets[k] = acc
			order = append(order, k)
		}
		acc.sumPoint = acc.sumPoint.Add(p)
		if hasN {
			acc.sumNormal = acc.sumNormal.Add(pc.Normals[i])
		}
		acc.count++
	}

	// Deterministic output order: by voxel key, not map iteration order,
	// so repeated calls on unchanged input are bitwise reproducible (the
	// idempotence property spec.md requires of feature recomputation).
	sort.Slice(order, func(a, b int) bool {
		ka, kb := order[a], order[b]
		if ka.I != kb.I {
			return ka.I < kb.I
		}
		if ka.J != kb.J {
			return ka.J < kb.J
		}
		return ka.K < kb.K
	})

	out := NewWithCapacity(len(order))
	if hasN {
		out.Normals = make([]r3.Vector, 0, len(order))
	}
	if hasC {
		out.Colors = make([]color.NRGBA, 0, len(order))
	}
	for _, k := range order {
		acc := buckets[k]
		mean := acc.sumPoint.Mul(1 / float64(acc.count))
		out.Points = append(out.Points, mean)
		if hasN {
			n := acc.sumNormal.Mul(1 / float64(acc.count))
			out.Normals = append(out.Normals, n)
		}
		if hasC {
			out.Colors = append(out.Colors, pc.Colors[acc.firstIdx])
		}
	}
	return out
}
