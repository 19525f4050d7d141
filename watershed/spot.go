package watershed

import (
	"sort"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// Spot is a region under active growth.  Spots are owned by the transform that grows
// them; callers get read-only access through a Context or after a run completes.
type Spot struct {
	Label   uint32
	Scale   int
	Quality float64

	voxels []int // raster indices in claim order
	sum    [3]float64
	alive  bool
}

func newSpot(label uint32, scale int) *Spot {
	return &Spot{Label: label, Scale: scale, alive: true}
}

// Size returns the number of voxels claimed.
func (s *Spot) Size() int {
	return len(s.voxels)
}

// Alive returns false once the spot was absorbed by another.
func (s *Spot) Alive() bool {
	return s.alive
}

// Indices returns the raster indices of the spot in ascending order.
func (s *Spot) Indices() []int {
	idx := make([]int, len(s.voxels))
	copy(idx, s.voxels)
	sort.Ints(idx)
	return idx
}

// Centroid returns the mean voxel coordinate.
func (s *Spot) Centroid() [3]float64 {
	n := float64(len(s.voxels))
	if n == 0 {
		return [3]float64{}
	}
	return [3]float64{s.sum[0] / n, s.sum[1] / n, s.sum[2] / n}
}

// add claims a voxel.  Quality tracks the lowest value reached when growing toward
// decreasing energy and the highest value otherwise.
func (s *Spot) add(i int, p dvid.Point3d, value float64, dir Direction) {
	if len(s.voxels) == 0 {
		s.Quality = value
	} else if dir == Decreasing && value < s.Quality {
		s.Quality = value
	} else if dir == Increasing && value > s.Quality {
		s.Quality = value
	}
	s.voxels = append(s.voxels, i)
	s.sum[0] += float64(p[0])
	s.sum[1] += float64(p[1])
	s.sum[2] += float64(p[2])
}

// absorb moves every voxel of o into s and retires o.
func (s *Spot) absorb(o *Spot, dir Direction) {
	if len(o.voxels) > 0 {
		if len(s.voxels) == 0 {
			s.Quality = o.Quality
		} else if dir == Decreasing && o.Quality < s.Quality {
			s.Quality = o.Quality
		} else if dir == Increasing && o.Quality > s.Quality {
			s.Quality = o.Quality
		}
	}
	s.voxels = append(s.voxels, o.voxels...)
	for d := 0; d < 3; d++ {
		s.sum[d] += o.sum[d]
	}
	o.voxels = nil
	o.sum = [3]float64{}
	o.alive = false
}

// Region freezes the spot into a Region.
func (s *Spot) Region(dims dvid.Dims, calib dvid.Calibration) *labels.Region {
	idx := s.Indices()
	pts := make([]dvid.Point3d, len(idx))
	for i, index := range idx {
		pts[i] = dims.Point(index)
	}
	return &labels.Region{
		Label:   s.Label,
		Scale:   s.Scale,
		Voxels:  pts,
		Quality: s.Quality,
		Calib:   calib,
		Is2D:    dims.Is2D(),
	}
}

// SpotFromRegion rebuilds a spot from a finished region, e.g., to resume growth from a
// previous segmentation.  Voxels outside the extent are dropped.
func SpotFromRegion(r *labels.Region, dims dvid.Dims) *Spot {
	s := newSpot(r.Label, r.Scale)
	for _, p := range r.Voxels {
		if !dims.Contains(p) {
			continue
		}
		s.voxels = append(s.voxels, dims.Index(p))
		s.sum[0] += float64(p[0])
		s.sum[1] += float64(p[1])
		s.sum[2] += float64(p[2])
	}
	s.Quality = r.Quality
	return s
}
