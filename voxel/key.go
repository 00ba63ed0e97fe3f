// Package voxel implements the two voxel-keyed structures spec.md assigns
// to C3 and C4: a dense VoxelizedCloud (one aggregated attribute bucket
// per occupied voxel) and a sparse VoxelMap (a voxel-to-point-indices
// adjacency map over a referenced cloud). Both key off the same integer
// lattice coordinate, generalizing the teacher's pointcloud.VoxelCoords
// (pointcloud/voxel.go) into its own package since C3 and C4 share it but
// neither owns it.
package voxel

import "github.com/golang/geo/r3"

// Key is an integer lattice coordinate, derived from a point by
// component-wise floor division by a voxel size.
type Key struct {
	I, J, K int64
}

// KeyOf returns the Key of p under the given voxel size.
func KeyOf(p r3.Vector, size float64) Key {
	return Key{
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

// Neighbors26 returns the 26 lattice neighbors of k (not including k
// itself), used by VoxelMap.KeysNear for adjacency queries.
func Neighbors26(k Key) []Key {
	out := make([]Key, 0, 26)
	for di := int64(-1); di <= 1; di++ {
		for dj := int64(-1); dj <= 1; dj++ {
			for dk := int64(-1); dk <= 1; dk++ {
				if di == 0 && dj == 0 && dk == 0 {
					continue
				}
				out = append(out, Key{k.I + di, k.J + dj, k.K + dk})
			}
		}
	}
	return out
}
