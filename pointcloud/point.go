package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
)

// NewColor is a small convenience constructor mirroring the teacher's
// pointcloud.NewColoredData (pointcloud/point.go): a fully-opaque RGB
// triplet.
func NewColor(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// isColorValid reports whether c looks like a populated color sample
// rather than the zero value — the same alpha test the submap's dense-map
// color filter applies inline to drop scan returns whose color never got
// set.
func isColorValid(c color.NRGBA) bool {
	return c.A != 0
}

// vectorNear reports whether a and b are within tol of each other,
// component-wise-free (Euclidean distance).
func vectorNear(a, b r3.Vector, tol float64) bool {
	return a.Sub(b).Norm() <= tol
}
