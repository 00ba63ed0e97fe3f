// Package carving implements C5, the ray-consistency routine that removes
// map geometry invalidated by a fresher scan. It has two entry points
// sharing one carve test: a point-cloud variant that mutates a
// *pointcloud.PointCloud in place, and a voxel variant that removes keys
// from a *voxel.VoxelizedCloud. Both are gated by a timing.GatingTimer and
// report their wall time through a timing.CarveStats accumulator, matching
// the telemetry contract spec.md assigns to C5.
package carving

import (
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/manthan99/open3d-slam/cropping"
	"github.com/manthan99/open3d-slam/pointcloud"
	"github.com/manthan99/open3d-slam/timing"
	"github.com/manthan99/open3d-slam/voxel"
)

// Parameters controls the ray-consistency carve test.
type Parameters struct {
	// MaxRangeToDrop bounds candidates: anything farther than this from
	// the sensor is never carved.
	MaxRangeToDrop float64
	// VoxelSizeRay is the perpendicular-distance tolerance a scan point
	// must fall within a candidate's ray to count as "along" it.
	VoxelSizeRay float64
	// StepSize is both the discretization granularity of an equivalent
	// ray-march implementation and the minimum margin a scan return must
	// lead a candidate by to declare it carved.
	StepSize float64
	// MinDotThresholdForDropping gates carving on the candidate's normal
	// facing the sensor; ignored when the target carries no normals.
	MinDotThresholdForDropping float64
	// CarveSpaceEveryNsec is the minimum spacing, in nanoseconds, between
	// carve calls that actually run their removal pass.
	CarveSpaceEveryNsec int64
}

func (p Parameters) intervalSeconds() float64 {
	return float64(p.CarveSpaceEveryNsec) / 1e9
}

// isCarved reports whether candidate point p, with optional normal, is
// invalidated by scan as observed from sensorOrigin: p is carved if a
// fresh scan return lands along roughly the same ray but strictly closer
// to the sensor than p, beyond a tolerance — the ray must have passed
// straight through p's location to reach that closer surface, so
// whatever was previously mapped at p can no longer be there. (See
// DESIGN.md: this resolves spec.md §4.5's carve-direction wording, which
// literally reads the other way, in favor of its own worked scenario and
// ordinary ray-consistency carving semantics.)
func isCarved(sensorOrigin, p, normal r3.Vector, hasNormal bool, scan *pointcloud.PointCloud, params Parameters) bool {
	toPoint := p.Sub(sensorOrigin)
	distP := toPoint.Norm()
	if distP < 1e-9 || distP > params.MaxRangeToDrop {
		return false
	}
	dirP := toPoint.Mul(1 / distP)
	if hasNormal {
		viewDir := sensorOrigin.Sub(p).Normalize()
		if normal.Dot(viewDir) < params.MinDotThresholdForDropping {
			return false
		}
	}
	for _, q := range scan.Points {
		toScan := q.Sub(sensorOrigin)
		distQ := toScan.Norm()
		if distQ < 1e-9 {
			continue
		}
		along := toScan.Dot(dirP)
		if along <= 0 {
			continue
		}
		perp := toScan.Sub(dirP.Mul(along)).Norm()
		if perp <= params.VoxelSizeRay && distQ+params.StepSize < distP {
			return true
		}
	}
	return false
}

// CarvePointCloud removes, in place, every point of target that lies
// within volume and is invalidated by scan (already in the world frame).
// It is a no-op unless target is non-empty and timer has elapsed its
// configured interval. Returns the number of points removed.
func CarvePointCloud(
	target *pointcloud.PointCloud,
	scan *pointcloud.PointCloud,
	sensorOrigin r3.Vector,
	volume *cropping.Volume,
	params Parameters,
	timer *timing.GatingTimer,
	stats *timing.CarveStats,
	logger golog.Logger,
) int {
	if target.Size() == 0 || !timer.Due(params.intervalSeconds()) {
		return 0
	}
	start := time.Now()

	candidates := volume.IndicesWithin(target)
	hasNormals := target.HasNormals()
	var carved []int
	for _, idx := range candidates {
		p := target.Points[idx]
		var normal r3.Vector
		if hasNormals {
			normal = target.Normals[idx]
		}
		if isCarved(sensorOrigin, p, normal, hasNormals, scan, params) {
			carved = append(carved, idx)
		}
	}
	if len(carved) > 0 {
		kept := pointcloud.ComplementIndices(carved, target.Size())
		*target = *target.SelectByIndex(kept)
	}

	timer.Reset()
	stats.Record(float64(time.Since(start).Microseconds())/1000.0, logger)
	return len(carved)
}

// CarveVoxels removes, by key, every voxel of denseMap whose
// representative point is invalidated by scan. Gating and telemetry mirror
// CarvePointCloud.
func CarveVoxels(
	denseMap *voxel.VoxelizedCloud,
	scan *pointcloud.PointCloud,
	sensorOrigin r3.Vector,
	params Parameters,
	timer *timing.GatingTimer,
	stats *timing.CarveStats,
	logger golog.Logger,
) int {
	if denseMap.IsEmpty() || !timer.Due(params.intervalSeconds()) {
		return 0
	}
	start := time.Now()

	var carvedKeys []voxel.Key
	for _, e := range denseMap.Entries() {
		if isCarved(sensorOrigin, e.Point, e.Normal, e.HasNormal, scan, params) {
			carvedKeys = append(carvedKeys, e.Key)
		}
	}
	for _, k := range carvedKeys {
		denseMap.RemoveKey(k)
	}

	timer.Reset()
	stats.Record(float64(time.Since(start).Microseconds())/1000.0, logger)
	return len(carvedKeys)
}
