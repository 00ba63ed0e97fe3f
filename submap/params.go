package submap

import (
	"github.com/manthan99/open3d-slam/carving"
	"github.com/manthan99/open3d-slam/cropping"
	"github.com/manthan99/open3d-slam/feature"
)

// Time is a monotonic scalar, nanoseconds since some epoch fixed by the
// caller. The core never reads wall-clock time off it; it is bookkeeping
// for creationTime and is compared only for equality against what the
// caller last recorded.
type Time int64

// ICPObjective selects whether the outer scan matcher needs oriented
// normals on the preprocessed scan before insertScan can hand it to ICP.
type ICPObjective int

const (
	PointToPoint ICPObjective = iota
	PointToPlane
)

// CropperParameters names a cropping.Kind and its shape parameters, as
// recognized under mapBuilder.cropper / denseMapBuilder.cropper.
type CropperParameters struct {
	Name string
	// Radius is the cropper's radius (box half-extent, cylinder/sphere/
	// maxRadius radius, depending on Name).
	Radius float64
	MinZ   float64
	MaxZ   float64
}

func (c CropperParameters) build() *cropping.Volume {
	kind, err := cropping.ParseKind(c.Name)
	if err != nil {
		panic(err)
	}
	return cropping.New(kind, c.Radius, c.MinZ, c.MaxZ)
}

// MapBuilderParameters is the mapBuilder / denseMapBuilder record shape:
// a voxel size, a cropper, and carving parameters.
type MapBuilderParameters struct {
	MapVoxelSize float64
	Cropper      CropperParameters
	Carving      carving.Parameters
}

// ScanMatcherParameters governs preprocessing done on the caller's behalf
// before the matcher described by this record runs externally.
type ScanMatcherParameters struct {
	KNNNormalEstimation int
	ICPObjective        ICPObjective
}

// Parameters is the full MapperParameters record §6 assigns the core.
type Parameters struct {
	MapBuilder       MapBuilderParameters
	DenseMapBuilder  MapBuilderParameters
	ScanMatcher      ScanMatcherParameters
	PlaceRecognition feature.Parameters
	Submaps          SubmapsParameters
}

// SubmapsParameters holds the feature-recomputation gate.
type SubmapsParameters struct {
	MinSecondsBetweenFeatureComputation float64
}

// denseCropperRadiusExpansion is the factor by which the dense map's
// cropping volume widens beyond its own configured radius. Grounded in
// original_source/open3d_slam/src/Submap.cpp's Submap::update, which
// hardcodes this as 1.2 with a "todo remove magic" marking it as a known
// wart the original authors hadn't cleaned up; carried forward rather than
// silently dropped since it materially changes dense-map coverage.
const denseCropperRadiusExpansion = 1.2

// voxelMapExpansionFactor scales mapBuilder.mapVoxelSize up to the voxel
// size used by the sparse adjacency index (C4). Not present in the
// retrieved original source (VoxelMap's own constructor lives outside the
// captured file); spec.md's C4 description only requires that such a
// factor exist, so this value is this module's own choice. See DESIGN.md.
const voxelMapExpansionFactor = 2.0

// DefaultParameters returns a Parameters with conservative, non-zero
// values for every field a fresh Submap needs before its first
// setParameters call.
func DefaultParameters() Parameters {
	return Parameters{
		MapBuilder: MapBuilderParameters{
			MapVoxelSize: 0.1,
			Cropper:      CropperParameters{Name: "maxRadius", Radius: 40, MinZ: -10, MaxZ: 10},
			Carving: carving.Parameters{
				MaxRangeToDrop:             30,
				VoxelSizeRay:               0.1,
				StepSize:                   0.05,
				MinDotThresholdForDropping: 0.3,
				CarveSpaceEveryNsec:        1e9,
			},
		},
		DenseMapBuilder: MapBuilderParameters{
			MapVoxelSize: 0.05,
			Cropper:      CropperParameters{Name: "maxRadius", Radius: 20, MinZ: -10, MaxZ: 10},
			Carving: carving.Parameters{
				MaxRangeToDrop:             30,
				VoxelSizeRay:               0.05,
				StepSize:                   0.025,
				MinDotThresholdForDropping: 0.3,
				CarveSpaceEveryNsec:        1e9,
			},
		},
		ScanMatcher: ScanMatcherParameters{
			KNNNormalEstimation: 10,
			ICPObjective:        PointToPlane,
		},
		PlaceRecognition: feature.Parameters{
			FeatureVoxelSize:       0.3,
			NormalEstimationRadius: 0.5,
			NormalKnn:              15,
			FeatureRadius:          0.75,
			FeatureKnn:             30,
		},
		Submaps: SubmapsParameters{
			MinSecondsBetweenFeatureComputation: 5,
		},
	}
}
