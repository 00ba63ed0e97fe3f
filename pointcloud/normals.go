package pointcloud

import (
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// EstimateNormals fits a local plane via PCA over each point's k nearest
// neighbors and takes the eigenvector of least variance as that point's
// normal. Neighbor search is a brute-force distance scan: after the
// voxel-downsample step submaps stay small enough (a few thousand points)
// that a kd-tree buys little, and wiring one with confidence from this
// corpus wasn't possible (see DESIGN.md); the numerical core — the
// covariance eigendecomposition — does go through gonum/mat, matching the
// plane-fitting approach in the teacher's pointcloud/voxel.go. Points with
// fewer than 3 neighbors (including themselves) are left with a
// zero-vector normal, per spec.
func (pc *PointCloud) EstimateNormals(knn int) {
	n := pc.Size()
	if n == 0 {
		return
	}
	if knn < 1 {
		knn = 1
	}
	normals := make([]r3.Vector, n)
	for i, p := range pc.Points {
		neighbors := pc.nearestIndices(p, knn)
		if len(neighbors) < 3 {
			continue
		}
		normals[i] = planeNormal(pc.Points, neighbors)
	}
	pc.Normals = normals
}

// nearestIndices returns the indices of up to k of pc's own points nearest
// to query, sorted by ascending distance.
func (pc *PointCloud) nearestIndices(query r3.Vector, k int) []int {
	n := pc.Size()
	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, n)
	for i, p := range pc.Points {
		cands[i] = cand{i, p.Sub(query).Norm2()}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if k > n {
		k = n
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = cands[i].idx
	}
	return out
}

// nearestWithinRadius returns, from pc's own points, the indices within
// radius of query, capped at k and sorted by ascending distance — the
// "hybrid radius+knn" neighbor search spec.md asks C6 to use.
func (pc *PointCloud) nearestWithinRadius(query r3.Vector, radius float64, k int) []int {
	r2 := radius * radius
	type cand struct {
		idx  int
		dist float64
	}
	var cands []cand
	for i, p := range pc.Points {
		d2 := p.Sub(query).Norm2()
		if d2 <= r2 {
			cands = append(cands, cand{i, d2})
		}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if k > 0 && k < len(cands) {
		cands = cands[:k]
	}
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.idx
	}
	return out
}

// planeNormal returns the unit normal of the best-fit plane through
// points[idxs]: the eigenvector of the covariance matrix with the smallest
// eigenvalue.
func planeNormal(points []r3.Vector, idxs []int) r3.Vector {
	mean := r3.Vector{}
	for _, idx := range idxs {
		mean = mean.Add(points[idx])
	}
	mean = mean.Mul(1 / float64(len(idxs)))

	var xx, xy, xz, yy, yz, zz float64
	for _, idx := range idxs {
		d := points[idx].Sub(mean)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}
	m := float64(len(idxs))
	sym := mat.NewSymDense(3, []float64{
		xx / m, xy / m, xz / m,
		xy / m, yy / m, yz / m,
		xz / m, yz / m, zz / m,
	})

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return r3.Vector{}
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	// gonum orders eigenvalues ascending, so column 0 is the eigenvector
	// of least variance: the plane normal.
	normal := r3.Vector{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}
	if normal.Norm() == 0 {
		return normal
	}
	return normal.Normalize()
}

// EstimateNormalsHybrid is EstimateNormals's hybrid radius+knn variant:
// neighbors are first gathered by radius, then capped to knn nearest among
// those. Used by the feature extractor, which spec.md requires to use
// hybrid search rather than pure knn.
func (pc *PointCloud) EstimateNormalsHybrid(radius float64, knn int) {
	n := pc.Size()
	if n == 0 {
		return
	}
	normals := make([]r3.Vector, n)
	for i, p := range pc.Points {
		neighbors := pc.nearestWithinRadius(p, radius, knn)
		if len(neighbors) < 3 {
			continue
		}
		normals[i] = planeNormal(pc.Points, neighbors)
	}
	pc.Normals = normals
}

// NearestWithinRadius exposes the hybrid radius+knn neighbor search for
// callers outside this package (the feature extractor's descriptor step).
func (pc *PointCloud) NearestWithinRadius(query r3.Vector, radius float64, k int) []int {
	return pc.nearestWithinRadius(query, radius, k)
}

// NormalizeNormals rescales every normal to unit length, leaving
// zero-vector (unset) normals untouched.
func (pc *PointCloud) NormalizeNormals() {
	for i, n := range pc.Normals {
		if norm := n.Norm(); norm > 0 {
			pc.Normals[i] = n.Mul(1 / norm)
		}
	}
}

// OrientNormalsTowardsCameraLocation flips each normal's sign, if needed,
// so it has non-negative dot product with (origin - point).
func (pc *PointCloud) OrientNormalsTowardsCameraLocation(origin r3.Vector) {
	for i, n := range pc.Normals {
		if n.Norm() == 0 {
			continue
		}
		viewDir := origin.Sub(pc.Points[i])
		if n.Dot(viewDir) < 0 {
			pc.Normals[i] = n.Mul(-1)
		}
	}
}
