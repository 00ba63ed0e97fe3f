package voxel

import (
	"github.com/manthan99/open3d-slam/pointcloud"
)

// VoxelMap is the sparse C4 structure: a mapping from voxel key to the
// indices, into a referenced cloud, of the points that fall in that voxel.
// Unlike VoxelizedCloud it carries no aggregated attributes of its own —
// callers dereference back into the layer's cloud. It supports multiple
// named layers sharing one lattice size; the submap orchestrator indexes
// a single layer, its map cloud.
type VoxelMap struct {
	size   float64
	layers map[string]map[Key][]int
}

// NewVoxelMap returns an empty sparse index keyed at the given voxel size.
// Per spec.md, callers derive size from the map builder's voxel size
// scaled by an expansion factor; VoxelMap itself is agnostic to that derivation.
func NewVoxelMap(size float64) *VoxelMap {
	return &VoxelMap{size: size, layers: make(map[string]map[Key][]int)}
}

// Clear drops every layer's contents, leaving the voxel size unchanged.
func (vm *VoxelMap) Clear() {
	vm.layers = make(map[string]map[Key][]int)
}

// InsertCloud rebuilds layer's bucket-to-indices map from scratch against
// cloud. VoxelMap is rebuilt wholesale on every call, never incrementally
// patched, matching spec.md's contract for C4.
func (vm *VoxelMap) InsertCloud(layer string, cloud *pointcloud.PointCloud) {
	buckets := make(map[Key][]int)
	for i, p := range cloud.Points {
		k := KeyOf(p, vm.size)
		buckets[k] = append(buckets[k], i)
	}
	vm.layers[layer] = buckets
}

// IndicesAt returns the indices stored at key in layer, or nil if the
// layer or voxel is empty.
func (vm *VoxelMap) IndicesAt(layer string, k Key) []int {
	buckets, ok := vm.layers[layer]
	if !ok {
		return nil
	}
	return buckets[k]
}

// KeysNear returns the subset of k's 26-neighborhood (k itself is not
// included) that is actually populated in layer.
func (vm *VoxelMap) KeysNear(layer string, k Key) []Key {
	buckets, ok := vm.layers[layer]
	if !ok {
		return nil
	}
	var out []Key
	for _, n := range Neighbors26(k) {
		if _, ok := buckets[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// IndicesNear returns the concatenated indices of every occupied voxel in
// k's 26-neighborhood plus k itself, in layer.
func (vm *VoxelMap) IndicesNear(layer string, k Key) []int {
	buckets, ok := vm.layers[layer]
	if !ok {
		return nil
	}
	var out []int
	out = append(out, buckets[k]...)
	for _, n := range Neighbors26(k) {
		out = append(out, buckets[n]...)
	}
	return out
}

// HasLayer reports whether layer has been populated by InsertCloud since
// the last Clear.
func (vm *VoxelMap) HasLayer(layer string) bool {
	_, ok := vm.layers[layer]
	return ok
}
