package feature

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/manthan99/open3d-slam/pointcloud"
)

func planeCloud() *pointcloud.PointCloud {
	pc := pointcloud.New()
	for x := 0.0; x < 3; x++ {
		for y := 0.0; y < 3; y++ {
			pc.Points = append(pc.Points, r3.Vector{X: x * 0.2, Y: y * 0.2, Z: 0})
		}
	}
	return pc
}

func testParameters() Parameters {
	return Parameters{
		FeatureVoxelSize:       0.1,
		NormalEstimationRadius: 0.5,
		NormalKnn:              6,
		FeatureRadius:          0.5,
		FeatureKnn:             6,
	}
}

func TestExtractReturnsMatchingSparseSizeAndDescriptorRows(t *testing.T) {
	sparse, descriptors := Extract(planeCloud(), testParameters())
	r, c := descriptors.Dims()
	test.That(t, r, test.ShouldEqual, sparse.Size())
	test.That(t, c, test.ShouldEqual, Dim)
}

func TestExtractOnEmptyCloud(t *testing.T) {
	sparse, descriptors := Extract(pointcloud.New(), testParameters())
	test.That(t, sparse.Size(), test.ShouldEqual, 0)
	r, _ := descriptors.Dims()
	test.That(t, r, test.ShouldEqual, 0)
}

func TestExtractIsIdempotentOnUnchangedInput(t *testing.T) {
	cloud := planeCloud()
	_, first := Extract(cloud, testParameters())
	_, second := Extract(cloud, testParameters())
	r, c := first.Dims()
	r2, c2 := second.Dims()
	test.That(t, r, test.ShouldEqual, r2)
	test.That(t, c, test.ShouldEqual, c2)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			test.That(t, first.At(i, j), test.ShouldAlmostEqual, second.At(i, j))
		}
	}
}
