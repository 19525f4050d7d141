package labels

import (
	"encoding/binary"
	"fmt"

	"github.com/janelia-flyem/seedseg/dvid"
)

// Raster is a dense label arena: one label per voxel, indexed by raster index.
type Raster struct {
	Dims dvid.Dims
	ids  []uint32
}

// NewRaster returns an all-background raster of the given extent.
func NewRaster(dims dvid.Dims) *Raster {
	return &Raster{Dims: dims, ids: make([]uint32, dims.NumVoxels())}
}

// At returns the label at a raster index.
func (r *Raster) At(i int) uint32 {
	return r.ids[i]
}

// Set stores a label at a raster index.
func (r *Raster) Set(i int, label uint32) {
	r.ids[i] = label
}

// Label returns the label at a point or Background if the point is outside the raster.
func (r *Raster) Label(p dvid.Point3d) uint32 {
	if !r.Dims.Contains(p) {
		return Background
	}
	return r.ids[r.Dims.Index(p)]
}

// Len returns the number of voxels.
func (r *Raster) Len() int {
	return len(r.ids)
}

// Clone returns an independent copy.
func (r *Raster) Clone() *Raster {
	ids := make([]uint32, len(r.ids))
	copy(ids, r.ids)
	return &Raster{Dims: r.Dims, ids: ids}
}

// Equal returns true if both rasters have the same extent and labels.
func (r *Raster) Equal(r2 *Raster) bool {
	if r.Dims != r2.Dims || len(r.ids) != len(r2.ids) {
		return false
	}
	for i, label := range r.ids {
		if r2.ids[i] != label {
			return false
		}
	}
	return true
}

// Relabel rewrites every label through the mapping.  Labels absent from the mapping are
// set to Background.
func (r *Raster) Relabel(mapping map[uint32]uint32) {
	for i, label := range r.ids {
		if label == Background {
			continue
		}
		r.ids[i] = mapping[label]
	}
}

// Counts returns the number of voxels for each non-background label.
func (r *Raster) Counts() map[uint32]int {
	counts := make(map[uint32]int)
	for _, label := range r.ids {
		if label != Background {
			counts[label]++
		}
	}
	return counts
}

// Bytes returns the labels as packed little-endian uint32 in raster order.
func (r *Raster) Bytes() []byte {
	b := make([]byte, 4*len(r.ids))
	for i, label := range r.ids {
		binary.LittleEndian.PutUint32(b[i*4:i*4+4], label)
	}
	return b
}

// RasterFromBytes reads packed little-endian uint32 labels.
func RasterFromBytes(dims dvid.Dims, b []byte) (*Raster, error) {
	n := dims.NumVoxels()
	if len(b) != 4*n {
		return nil, fmt.Errorf("label raster %s needs %d bytes, got %d", dims, 4*n, len(b))
	}
	r := NewRaster(dims)
	for i := 0; i < n; i++ {
		r.ids[i] = binary.LittleEndian.Uint32(b[i*4 : i*4+4])
	}
	return r, nil
}
