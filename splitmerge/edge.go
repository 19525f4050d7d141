package splitmerge

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/janelia-flyem/seedseg/cluster"
	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// Edge values an interface by a quantile of an edge map sampled on the border voxels
// of both regions.  Weak borders merge first.
type Edge struct {
	EdgeMap      *dvid.Volume
	IntensityMap *dvid.Volume

	// Quantile in [0,1] taken over the border values.
	Quantile float64

	// Normalize multiplies the quantile by the ratio of the larger to the smaller mean
	// intensity of the two regions.
	Normalize bool

	// MinBorder is the smallest number of border pairs an interface needs to be fused.
	MinBorder int
}

// Intensity returns the map regions are measured on.
func (e *Edge) Intensity() *dvid.Volume {
	return e.IntensityMap
}

func (e *Edge) Value(ctx *cluster.Context, it *cluster.Interface) (float64, error) {
	values := borderValues(ctx, e.EdgeMap, it)
	if len(values) == 0 {
		return math.NaN(), nil
	}
	sort.Float64s(values)
	value := stat.Quantile(e.Quantile, stat.Empirical, values, nil)
	if e.Normalize && it.A != labels.Background {
		value *= intensityRatio(ctx.Mean(e.IntensityMap, it.A), ctx.Mean(e.IntensityMap, it.B))
	}
	return value, nil
}

// intensityRatio is max/min of two means.  Two zero means give 1 and a single
// non-positive mean gives +Inf.
func intensityRatio(ma, mb float64) float64 {
	lo, hi := math.Min(ma, mb), math.Max(ma, mb)
	switch {
	case hi == 0 && lo == 0:
		return 1
	case lo <= 0:
		return math.Inf(1)
	}
	return hi / lo
}

func (e *Edge) Escape(ctx *cluster.Context, it *cluster.Interface) (fuse, decided bool) {
	if len(it.Pairs) < e.MinBorder {
		return false, true
	}
	return false, false
}

func (e *Edge) Fuse(value, threshold float64) bool {
	return value < threshold
}

func (e *Edge) Ascending() bool {
	return true
}

// borderValues samples a map on the distinct in-bounds border voxels of both sides.
func borderValues(ctx *cluster.Context, vol *dvid.Volume, it *cluster.Interface) []float64 {
	values := ctx.Values(vol, it.Border(it.A))
	return append(values, ctx.Values(vol, it.Border(it.B))...)
}

// Check makes sure the maps match the partition.
func (e *Edge) Check(dims dvid.Dims) error {
	if e.Quantile < 0 || e.Quantile > 1 {
		return dvid.NewConfigurationError("edge quantile %g is outside [0,1]", e.Quantile)
	}
	return checkMaps(dims, namedMap{"edge", e.EdgeMap, true}, namedMap{"intensity", e.IntensityMap, e.Normalize})
}
