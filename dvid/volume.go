package dvid

import "math"

// Volume is a dense scalar image in ZYX raster order.  It is used for energy maps,
// intensity maps, and any other per-voxel measure consumed by the segmentation layers.
type Volume struct {
	Dims  Dims
	Calib Calibration
	Data  []float32
}

// NewVolume returns a zeroed volume of the given extent with unit calibration.
func NewVolume(dims Dims) *Volume {
	return &Volume{
		Dims:  dims,
		Calib: DefaultCalibration,
		Data:  make([]float32, dims.NumVoxels()),
	}
}

// NewVolumeFromData wraps an existing slice, which must hold exactly one value per voxel.
func NewVolumeFromData(dims Dims, data []float32) (*Volume, error) {
	if err := dims.Check(); err != nil {
		return nil, err
	}
	if len(data) != dims.NumVoxels() {
		return nil, NewConfigurationError("volume %s needs %d values, got %d", dims, dims.NumVoxels(), len(data))
	}
	return &Volume{Dims: dims, Calib: DefaultCalibration, Data: data}, nil
}

// At returns the value at a raster index.
func (v *Volume) At(i int) float64 {
	return float64(v.Data[i])
}

// Value returns the value at a point, or NaN if the point is outside the volume.
func (v *Volume) Value(p Point3d) float64 {
	if !v.Dims.Contains(p) {
		return math.NaN()
	}
	return float64(v.Data[v.Dims.Index(p)])
}

// Set stores a value at a point.  Points outside the volume are ignored.
func (v *Volume) Set(p Point3d, value float64) {
	if v.Dims.Contains(p) {
		v.Data[v.Dims.Index(p)] = float32(value)
	}
}

// Mask is a binary validity mask over a volume.  A nil *Mask accepts every voxel
// within the volume bounds.
type Mask struct {
	Dims Dims
	bits []bool
}

// NewMask returns an empty mask of the given extent.
func NewMask(dims Dims) *Mask {
	return &Mask{Dims: dims, bits: make([]bool, dims.NumVoxels())}
}

// NewMaskFromBytes returns a mask where every nonzero byte is a valid voxel.
func NewMaskFromBytes(dims Dims, data []byte) (*Mask, error) {
	if len(data) != dims.NumVoxels() {
		return nil, NewConfigurationError("mask %s needs %d bytes, got %d", dims, dims.NumVoxels(), len(data))
	}
	m := NewMask(dims)
	for i, b := range data {
		m.bits[i] = b != 0
	}
	return m, nil
}

// Set marks a point as valid or not.
func (m *Mask) Set(p Point3d, valid bool) {
	if m.Dims.Contains(p) {
		m.bits[m.Dims.Index(p)] = valid
	}
}

// ContainsIndex returns true if the raster index is valid.  The index must be in bounds.
func (m *Mask) ContainsIndex(i int) bool {
	if m == nil {
		return true
	}
	return m.bits[i]
}

// Contains returns true if the point is inside the given extent and valid within the mask.
func (m *Mask) Contains(dims Dims, p Point3d) bool {
	if !dims.Contains(p) {
		return false
	}
	if m == nil {
		return true
	}
	return m.bits[dims.Index(p)]
}

// Count returns the number of valid voxels given the extent of the masked volume.
func (m *Mask) Count(dims Dims) int {
	if m == nil {
		return dims.NumVoxels()
	}
	var n int
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}
