// Package feature implements C6, the place-recognition descriptor step:
// voxel-downsample, hybrid radius+knn normal estimation, and a 33-
// dimensional Fast Point Feature Histogram per sparse point. The
// descriptor itself has no teacher analogue in this corpus — it is
// grounded directly in original_source/open3d_slam's feature extractor —
// but its numerical core (angle histograms folded into a matrix) goes
// through gonum/mat, matching how pointcloud's normal estimation already
// uses gonum for its own eigendecomposition.
package feature

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/manthan99/open3d-slam/pointcloud"
)

// numBins is the bin count per angular feature; FPFH concatenates three
// such histograms (alpha, phi, theta) into one descriptor.
const numBins = 11

// Dim is the fixed descriptor width spec.md assigns to C6.
const Dim = 3 * numBins

// Parameters controls voxel-downsample, normal estimation, and descriptor
// neighbor search.
type Parameters struct {
	FeatureVoxelSize       float64
	NormalEstimationRadius float64
	NormalKnn              int
	FeatureRadius          float64
	FeatureKnn             int
}

// Extract voxel-downsamples input, estimates and orients normals via
// hybrid radius+knn search, and computes a per-point FPFH descriptor.
// Returns the resulting sparse cloud and its (n, Dim) descriptor matrix;
// when the sparse cloud is empty the matrix is the zero-value mat.Dense,
// whose Dims are (0, 0).
func Extract(input *pointcloud.PointCloud, params Parameters) (*pointcloud.PointCloud, *mat.Dense) {
	sparse := input.VoxelDownsample(params.FeatureVoxelSize)
	sparse.EstimateNormalsHybrid(params.NormalEstimationRadius, params.NormalKnn)
	sparse.NormalizeNormals()
	sparse.OrientNormalsTowardsCameraLocation(r3.Vector{})

	n := sparse.Size()
	if n == 0 {
		return sparse, &mat.Dense{}
	}

	neighborSets := make([][]int, n)
	spfh := make([][]float64, n)
	for i, p := range sparse.Points {
		neighbors := sparse.NearestWithinRadius(p, params.FeatureRadius, params.FeatureKnn)
		neighborSets[i] = neighbors
		spfh[i] = computeSPFH(sparse, i, neighbors)
	}

	out := mat.NewDense(n, Dim, nil)
	for i := range sparse.Points {
		fpfh := fpfhFor(sparse, i, neighborSets[i], spfh)
		for d := 0; d < Dim; d++ {
			out.Set(i, d, fpfh[d])
		}
	}
	return sparse, out
}

// computeSPFH builds the simplified point feature histogram of point idx
// against its own neighbors: one angular-feature triple per neighbor pair,
// accumulated into three 11-bin histograms and averaged over the neighbor
// count.
func computeSPFH(cloud *pointcloud.PointCloud, idx int, neighbors []int) []float64 {
	hist := make([]float64, Dim)
	n1 := cloud.Normals[idx]
	if n1.Norm() == 0 {
		return hist
	}
	p1 := cloud.Points[idx]
	count := 0
	for _, j := range neighbors {
		if j == idx {
			continue
		}
		n2 := cloud.Normals[j]
		if n2.Norm() == 0 {
			continue
		}
		alpha, phi, theta := angularFeatures(p1, n1, cloud.Points[j], n2)
		addToHistogram(hist, alpha, phi, theta)
		count++
	}
	if count == 0 {
		return hist
	}
	for d := range hist {
		hist[d] /= float64(count)
	}
	return hist
}

// fpfhFor weights idx's own SPFH with its neighbors' SPFH by inverse
// distance, the standard FPFH refinement over a plain SPFH.
func fpfhFor(cloud *pointcloud.PointCloud, idx int, neighbors []int, spfh [][]float64) []float64 {
	fpfh := make([]float64, Dim)
	copy(fpfh, spfh[idx])

	p1 := cloud.Points[idx]
	weighted := make([]float64, Dim)
	var weightSum float64
	for _, j := range neighbors {
		if j == idx {
			continue
		}
		dist := cloud.Points[j].Sub(p1).Norm()
		if dist < 1e-12 {
			continue
		}
		w := 1.0 / dist
		weightSum += w
		for d := 0; d < Dim; d++ {
			weighted[d] += w * spfh[j][d]
		}
	}
	if weightSum > 0 {
		for d := 0; d < Dim; d++ {
			fpfh[d] += weighted[d] / weightSum
		}
	}
	return fpfh
}

// angularFeatures computes the Darboux-frame angle triple (alpha, phi,
// theta) of the ordered pair ((p1, n1), (p2, n2)).
func angularFeatures(p1, n1, p2, n2 r3.Vector) (alpha, phi, theta float64) {
	diff := p2.Sub(p1)
	dist := diff.Norm()
	if dist < 1e-12 {
		return 0, 0, 0
	}
	dirP2 := diff.Mul(1 / dist)

	u := n1
	v := diff.Cross(u)
	if v.Norm() < 1e-12 {
		return 0, 0, 0
	}
	v = v.Normalize()
	w := u.Cross(v)

	alpha = v.Dot(n2)
	phi = u.Dot(dirP2)
	theta = math.Atan2(w.Dot(n2), u.Dot(n2))
	return alpha, phi, theta
}

// addToHistogram bins one (alpha, phi, theta) sample into hist's three
// concatenated 11-bin ranges: alpha and phi in [-1, 1], theta in
// [-pi, pi].
func addToHistogram(hist []float64, alpha, phi, theta float64) {
	hist[binIndex(alpha, -1, 1)] += 1
	hist[numBins+binIndex(phi, -1, 1)] += 1
	hist[2*numBins+binIndex(theta, -math.Pi, math.Pi)] += 1
}

func binIndex(v, lo, hi float64) int {
	if v <= lo {
		return 0
	}
	if v >= hi {
		return numBins - 1
	}
	b := int((v - lo) / (hi - lo) * float64(numBins))
	if b >= numBins {
		b = numBins - 1
	}
	return b
}
