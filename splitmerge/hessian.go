package splitmerge

import (
	"math"

	"github.com/janelia-flyem/seedseg/cluster"
	"github.com/janelia-flyem/seedseg/dvid"
)

// Hessian values an interface by the summed curvature response along the border over
// the summed intensity above background.  Flat, bright borders merge first.  A border
// with no intensity above background is valued NaN and never fuses.
type Hessian struct {
	HessianMap   *dvid.Volume
	IntensityMap *dvid.Volume
	Background   float64
}

// Intensity returns the map regions are measured on.
func (h *Hessian) Intensity() *dvid.Volume {
	return h.IntensityMap
}

func (h *Hessian) Value(ctx *cluster.Context, it *cluster.Interface) (float64, error) {
	hessian := borderValues(ctx, h.HessianMap, it)
	intensity := borderValues(ctx, h.IntensityMap, it)
	var sumH, sumI float64
	for i := range hessian {
		sumH += hessian[i]
		sumI += math.Max(0, intensity[i]-h.Background)
	}
	if sumI == 0 {
		dvid.Debugf("interface %d-%d: no intensity above %g on %d border voxels\n", it.A, it.B, h.Background, len(intensity))
		return math.NaN(), nil
	}
	return sumH / sumI, nil
}

func (h *Hessian) Escape(*cluster.Context, *cluster.Interface) (fuse, decided bool) {
	return false, false
}

func (h *Hessian) Fuse(value, threshold float64) bool {
	return value < threshold
}

func (h *Hessian) Ascending() bool {
	return true
}

// Check makes sure the maps match the partition.
func (h *Hessian) Check(dims dvid.Dims) error {
	return checkMaps(dims, namedMap{"hessian", h.HessianMap, true}, namedMap{"intensity", h.IntensityMap, true})
}
