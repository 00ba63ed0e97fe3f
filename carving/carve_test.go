package carving

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/manthan99/open3d-slam/cropping"
	"github.com/manthan99/open3d-slam/pointcloud"
	"github.com/manthan99/open3d-slam/timing"
	"github.com/manthan99/open3d-slam/voxel"
)

func testParams() Parameters {
	return Parameters{
		MaxRangeToDrop:             100,
		VoxelSizeRay:               0.2,
		StepSize:                   0.1,
		MinDotThresholdForDropping: 0.5,
		CarveSpaceEveryNsec:        0,
	}
}

func dueTimer() *timing.GatingTimer {
	return &timing.GatingTimer{}
}

func TestCarvePointCloudRemovesOccludedPointWithAlignedNormals(t *testing.T) {
	target := &pointcloud.PointCloud{
		Points:  []r3.Vector{{X: 5, Y: 0, Z: 0}},
		Normals: []r3.Vector{{X: -1, Y: 0, Z: 0}},
	}
	scan := &pointcloud.PointCloud{Points: []r3.Vector{{X: 3, Y: 0, Z: 0}}}
	vol := cropping.New(cropping.Sphere, 1000, -1000, 1000)

	removed := CarvePointCloud(target, scan, r3.Vector{}, vol, testParams(), dueTimer(), timing.NewCarveStats(), golog.NewTestLogger(t))

	test.That(t, removed, test.ShouldEqual, 1)
	test.That(t, target.Size(), test.ShouldEqual, 0)
}

func TestCarvePointCloudLeavesPointWhenDisabledByEmptyScan(t *testing.T) {
	target := &pointcloud.PointCloud{
		Points:  []r3.Vector{{X: 5, Y: 0, Z: 0}},
		Normals: []r3.Vector{{X: -1, Y: 0, Z: 0}},
	}
	scan := pointcloud.New()
	vol := cropping.New(cropping.Sphere, 1000, -1000, 1000)

	removed := CarvePointCloud(target, scan, r3.Vector{}, vol, testParams(), dueTimer(), timing.NewCarveStats(), golog.NewTestLogger(t))

	test.That(t, removed, test.ShouldEqual, 0)
	test.That(t, target.Size(), test.ShouldEqual, 1)
}

func TestCarvePointCloudIsNoOpOnEmptyTarget(t *testing.T) {
	target := pointcloud.New()
	scan := &pointcloud.PointCloud{Points: []r3.Vector{{X: 3, Y: 0, Z: 0}}}
	vol := cropping.New(cropping.Sphere, 1000, -1000, 1000)

	removed := CarvePointCloud(target, scan, r3.Vector{}, vol, testParams(), dueTimer(), timing.NewCarveStats(), golog.NewTestLogger(t))

	test.That(t, removed, test.ShouldEqual, 0)
}

func TestCarvePointCloudIsNoOpWhenTimerNotDue(t *testing.T) {
	target := &pointcloud.PointCloud{
		Points:  []r3.Vector{{X: 5, Y: 0, Z: 0}},
		Normals: []r3.Vector{{X: -1, Y: 0, Z: 0}},
	}
	scan := &pointcloud.PointCloud{Points: []r3.Vector{{X: 3, Y: 0, Z: 0}}}
	vol := cropping.New(cropping.Sphere, 1000, -1000, 1000)

	timer := dueTimer()
	params := testParams()
	params.CarveSpaceEveryNsec = int64(1e9 * 3600)
	timer.Reset()

	removed := CarvePointCloud(target, scan, r3.Vector{}, vol, params, timer, timing.NewCarveStats(), golog.NewTestLogger(t))

	test.That(t, removed, test.ShouldEqual, 0)
	test.That(t, target.Size(), test.ShouldEqual, 1)
}

func TestCarvePointCloudSkipsPointsBeyondMaxRange(t *testing.T) {
	target := &pointcloud.PointCloud{
		Points:  []r3.Vector{{X: 500, Y: 0, Z: 0}},
		Normals: []r3.Vector{{X: -1, Y: 0, Z: 0}},
	}
	scan := &pointcloud.PointCloud{Points: []r3.Vector{{X: 3, Y: 0, Z: 0}}}
	vol := cropping.New(cropping.Sphere, 1000, -1000, 1000)

	params := testParams()
	params.MaxRangeToDrop = 50

	removed := CarvePointCloud(target, scan, r3.Vector{}, vol, params, dueTimer(), timing.NewCarveStats(), golog.NewTestLogger(t))

	test.That(t, removed, test.ShouldEqual, 0)
}

func TestCarvePointCloudLeavesPointWhenNormalNotAligned(t *testing.T) {
	target := &pointcloud.PointCloud{
		Points:  []r3.Vector{{X: 5, Y: 0, Z: 0}},
		Normals: []r3.Vector{{X: 0, Y: 1, Z: 0}},
	}
	scan := &pointcloud.PointCloud{Points: []r3.Vector{{X: 3, Y: 0, Z: 0}}}
	vol := cropping.New(cropping.Sphere, 1000, -1000, 1000)

	removed := CarvePointCloud(target, scan, r3.Vector{}, vol, testParams(), dueTimer(), timing.NewCarveStats(), golog.NewTestLogger(t))

	test.That(t, removed, test.ShouldEqual, 0)
	test.That(t, target.Size(), test.ShouldEqual, 1)
}

func TestCarveVoxelsRemovesOccludedVoxel(t *testing.T) {
	denseMap := voxel.NewVoxelizedCloud(0.1)
	denseMap.Insert(&pointcloud.PointCloud{
		Points:  []r3.Vector{{X: 5, Y: 0, Z: 0}},
		Normals: []r3.Vector{{X: -1, Y: 0, Z: 0}},
	})
	scan := &pointcloud.PointCloud{Points: []r3.Vector{{X: 3, Y: 0, Z: 0}}}

	removed := CarveVoxels(denseMap, scan, r3.Vector{}, testParams(), dueTimer(), timing.NewCarveStats(), golog.NewTestLogger(t))

	test.That(t, removed, test.ShouldEqual, 1)
	test.That(t, denseMap.IsEmpty(), test.ShouldBeTrue)
}

func TestCarveVoxelsIsNoOpOnEmptyDenseMap(t *testing.T) {
	denseMap := voxel.NewVoxelizedCloud(0.1)
	scan := &pointcloud.PointCloud{Points: []r3.Vector{{X: 3, Y: 0, Z: 0}}}

	removed := CarveVoxels(denseMap, scan, r3.Vector{}, testParams(), dueTimer(), timing.NewCarveStats(), golog.NewTestLogger(t))

	test.That(t, removed, test.ShouldEqual, 0)
}
