// Package slamerrors defines the typed, fatal programmer errors raised by
// the submap engine. None of these are meant to be recovered from; callers
// that trip one have violated a documented precondition.
package slamerrors

import "github.com/pkg/errors"

// NewNonRigidTransformError is used when a Transform/Pose handed to the
// engine is not a valid rigid transform (translation + unit-norm rotation).
func NewNonRigidTransformError() error {
	return errors.New("mapToRangeSensor is not a valid rigid transform")
}

// NewAttributeLengthMismatchError is used when a PointCloud's optional
// attribute arrays (normals, colors) don't agree in length with its points.
func NewAttributeLengthMismatchError(attribute string, got, want int) error {
	return errors.Errorf("point cloud %s array has length %d, want %d or 0", attribute, got, want)
}

// NewFeaturesNotComputedError is used when GetFeatures is called before
// ComputeFeatures has ever completed.
func NewFeaturesNotComputedError() error {
	return errors.New("features requested before computeFeatures has run")
}

// NewUnknownCropperKindError is used when a CroppingVolume is configured
// with a discriminator outside {box, cylinder, sphere, maxRadius}.
func NewUnknownCropperKindError(kind string) error {
	return errors.Errorf("unknown cropping volume kind %q", kind)
}
