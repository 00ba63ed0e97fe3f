package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/manthan99/open3d-slam/spatialmath"
)

func TestEmptyCloudIsValid(t *testing.T) {
	pc := New()
	test.That(t, pc.Size(), test.ShouldEqual, 0)
	test.That(t, pc.HasNormals(), test.ShouldBeFalse)
	test.That(t, pc.VoxelDownsample(0.5).Size(), test.ShouldEqual, 0)
	pc.EstimateNormals(5)
	test.That(t, pc.HasNormals(), test.ShouldBeFalse)
}

func TestAppendConcatenates(t *testing.T) {
	a := &PointCloud{Points: []r3.Vector{{X: 0}, {X: 1}}}
	b := &PointCloud{Points: []r3.Vector{{X: 2}}}
	a.Append(b)
	test.That(t, a.Size(), test.ShouldEqual, 3)
	test.That(t, a.Points[2].X, test.ShouldEqual, 2.0)
}

func TestAppendOntoEmpty(t *testing.T) {
	a := New()
	b := &PointCloud{Points: []r3.Vector{{X: 2}}}
	a.Append(b)
	test.That(t, a.Size(), test.ShouldEqual, 1)
}

func TestSelectByIndex(t *testing.T) {
	pc := &PointCloud{Points: []r3.Vector{{X: 0}, {X: 1}, {X: 2}}}
	sel := pc.SelectByIndex([]int{2, 0})
	test.That(t, sel.Size(), test.ShouldEqual, 2)
	test.That(t, sel.Points[0].X, test.ShouldEqual, 2.0)
	test.That(t, sel.Points[1].X, test.ShouldEqual, 0.0)
}

func TestVoxelDownsampleMeansPerVoxel(t *testing.T) {
	pc := &PointCloud{Points: []r3.Vector{
		{X: 0.1, Y: 0, Z: 0},
		{X: 0.2, Y: 0, Z: 0},
		{X: 5, Y: 0, Z: 0},
	}}
	down := pc.VoxelDownsample(1.0)
	test.That(t, down.Size(), test.ShouldEqual, 2)
	test.That(t, down.Points[0].X, test.ShouldAlmostEqual, 0.15)
}

func TestVoxelDownsampleNonPositiveSizeIsNoop(t *testing.T) {
	pc := &PointCloud{Points: []r3.Vector{{X: 1}, {X: 2}}}
	down := pc.VoxelDownsample(0)
	test.That(t, down.Size(), test.ShouldEqual, 2)
}

func TestVoxelDownsampleIdempotent(t *testing.T) {
	pc := &PointCloud{Points: []r3.Vector{
		{X: 0.1, Y: 0, Z: 0},
		{X: 0.2, Y: 0, Z: 0},
		{X: 5, Y: 0, Z: 0},
	}}
	first := pc.VoxelDownsample(1.0)
	second := pc.VoxelDownsample(1.0)
	test.That(t, first.Points, test.ShouldResemble, second.Points)
}

func TestTransformAppliesToPointsAndNormalsOnly(t *testing.T) {
	pc := &PointCloud{
		Points:  []r3.Vector{{X: 1, Y: 0, Z: 0}},
		Normals: []r3.Vector{{X: 0, Y: 0, Z: 1}},
	}
	T := spatialmath.NewPoseFromPoint(r3.Vector{X: 10, Y: 0, Z: 0})
	pc.Transform(T)
	test.That(t, pc.Points[0].X, test.ShouldAlmostEqual, 11.0)
	test.That(t, pc.Normals[0].Z, test.ShouldAlmostEqual, 1.0)
}

func TestEstimateNormalsLeavesSparsePointsUnset(t *testing.T) {
	pc := &PointCloud{Points: []r3.Vector{{X: 0}, {X: 1}}}
	pc.EstimateNormals(5)
	test.That(t, pc.Normals[0], test.ShouldResemble, r3.Vector{})
}

func TestEstimateNormalsOnFlatPatch(t *testing.T) {
	pc := &PointCloud{Points: []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 1, Y: 1, Z: 0},
	}}
	pc.EstimateNormals(4)
	pc.NormalizeNormals()
	pc.OrientNormalsTowardsCameraLocation(r3.Vector{X: 0, Y: 0, Z: 10})
	for _, n := range pc.Normals {
		test.That(t, n.Norm(), test.ShouldAlmostEqual, 1.0)
		test.That(t, n.Z, test.ShouldBeGreaterThanOrEqualTo, 0.0)
	}
}

func TestCentroid(t *testing.T) {
	pc := &PointCloud{Points: []r3.Vector{{X: 0}, {X: 2}}}
	c := pc.Centroid()
	test.That(t, c.X, test.ShouldAlmostEqual, 1.0)
}
