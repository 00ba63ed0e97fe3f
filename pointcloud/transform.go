package pointcloud

import "github.com/manthan99/open3d-slam/spatialmath"

// Transform applies the rigid transform T to every point in pc in place,
// and rotates (but does not translate) every normal, per spec's C1
// contract. Colors are untouched.
func (pc *PointCloud) Transform(t spatialmath.Pose) {
	if pc == nil {
		return
	}
	for i, p := range pc.Points {
		pc.Points[i] = spatialmath.TransformPoint(t, p)
	}
	for i, n := range pc.Normals {
		pc.Normals[i] = spatialmath.RotateVector(t, n)
	}
}
