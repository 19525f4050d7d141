package labels

import (
	"sort"

	"github.com/janelia-flyem/seedseg/dvid"
)

// NoScale is the scale index of regions that were not produced by a multi-scale run.
const NoScale = -1

// Region is a finished segment.  Once returned to a caller it should be treated as
// immutable.
type Region struct {
	Label   uint32
	Scale   int
	Voxels  []dvid.Point3d // ZYX raster order
	Quality float64
	Calib   dvid.Calibration
	Is2D    bool
}

// NewRegion returns a region over the given voxels, which are sorted into raster order.
func NewRegion(label uint32, voxels []dvid.Point3d, dims dvid.Dims, calib dvid.Calibration) *Region {
	r := &Region{
		Label:  label,
		Scale:  NoScale,
		Voxels: voxels,
		Calib:  calib,
		Is2D:   dims.Is2D(),
	}
	r.sortVoxels()
	return r
}

func (r *Region) sortVoxels() {
	sort.Slice(r.Voxels, func(i, j int) bool {
		a, b := r.Voxels[i], r.Voxels[j]
		if a[2] != b[2] {
			return a[2] < b[2]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[0] < b[0]
	})
}

// NumVoxels returns the size of the region.
func (r *Region) NumVoxels() int {
	return len(r.Voxels)
}

// Bounds returns the inclusive bounding box of the region.
func (r *Region) Bounds() (min, max dvid.Point3d) {
	if len(r.Voxels) == 0 {
		return
	}
	min, max = r.Voxels[0], r.Voxels[0]
	for _, p := range r.Voxels[1:] {
		min.SetMinimum(p)
		max.SetMaximum(p)
	}
	return
}

// Centroid returns the mean voxel coordinate in voxel units.
func (r *Region) Centroid() [3]float64 {
	var c [3]float64
	if len(r.Voxels) == 0 {
		return c
	}
	for _, p := range r.Voxels {
		c[0] += float64(p[0])
		c[1] += float64(p[1])
		c[2] += float64(p[2])
	}
	n := float64(len(r.Voxels))
	return [3]float64{c[0] / n, c[1] / n, c[2] / n}
}

// Volume returns the calibrated volume (or area for 2d regions).
func (r *Region) Volume() float64 {
	calib := r.Calib
	if calib.XY <= 0 {
		calib = dvid.DefaultCalibration
	}
	v := float64(len(r.Voxels)) * calib.XY * calib.XY
	if !r.Is2D {
		v *= calib.Z
	}
	return v
}

// RLEs returns the run-length encoding of the region's voxels.
func (r *Region) RLEs() dvid.RLEs {
	return dvid.RLEsFromPoints(r.Voxels)
}

// Values samples a volume at every voxel of the region.
func (r *Region) Values(vol *dvid.Volume) []float64 {
	values := make([]float64, len(r.Voxels))
	for i, p := range r.Voxels {
		values[i] = vol.Value(p)
	}
	return values
}
