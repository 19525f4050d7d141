package splitmerge

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/seedseg/cluster"
	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// Policy selects the region statistic compared by a RegionCriterion.
type Policy uint8

const (
	// MeanIntensity is the mean intensity over both regions; bright pairs merge first
	// and fuse when the value reaches the threshold.
	MeanIntensity Policy = iota

	// AbsMeanDiff is |mean(A) - mean(B)|.
	AbsMeanDiff

	// MedianDiff is median(A) - median(B), A being the lower label.
	MedianDiff

	// InverseMedianDiff is median(B) - median(A).
	InverseMedianDiff

	// AbsMedianDiff is |median(A) - median(B)|.
	AbsMedianDiff
)

var policyNames = map[Policy]string{
	MeanIntensity:     "mean_intensity",
	AbsMeanDiff:       "abs_mean_diff",
	MedianDiff:        "median_diff",
	InverseMedianDiff: "inverse_median_diff",
	AbsMedianDiff:     "abs_median_diff",
}

func (p Policy) String() string {
	if name, found := policyNames[p]; found {
		return name
	}
	return fmt.Sprintf("policy %d", uint8(p))
}

// PolicyFromString returns the policy with the given name.
func PolicyFromString(s string) (Policy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown region criterion policy %q", s)
}

// RegionCriterion values an interface by comparing statistics of the two whole
// regions.  Medians come from the cluster's median source.  The background has no
// statistics, so its interfaces are valued NaN and never fuse.
type RegionCriterion struct {
	IntensityMap *dvid.Volume
	Policy       Policy
}

// Intensity returns the map regions are measured on.
func (rc *RegionCriterion) Intensity() *dvid.Volume {
	return rc.IntensityMap
}

func (rc *RegionCriterion) Value(ctx *cluster.Context, it *cluster.Interface) (float64, error) {
	if it.A == labels.Background {
		if dvid.Verbose {
			dvid.Debugf("region %d: no %s against background\n", it.B, rc.Policy)
		}
		return math.NaN(), nil
	}
	switch rc.Policy {
	case MeanIntensity:
		na, nb := float64(ctx.Node(it.A).Size()), float64(ctx.Node(it.B).Size())
		ma, mb := ctx.Mean(rc.IntensityMap, it.A), ctx.Mean(rc.IntensityMap, it.B)
		return (ma*na + mb*nb) / (na + nb), nil
	case AbsMeanDiff:
		return math.Abs(ctx.Mean(rc.IntensityMap, it.A) - ctx.Mean(rc.IntensityMap, it.B)), nil
	case MedianDiff:
		return ctx.Median(it.A) - ctx.Median(it.B), nil
	case InverseMedianDiff:
		return ctx.Median(it.B) - ctx.Median(it.A), nil
	case AbsMedianDiff:
		return math.Abs(ctx.Median(it.A) - ctx.Median(it.B)), nil
	}
	return 0, fmt.Errorf("unknown region criterion policy %d", rc.Policy)
}

func (rc *RegionCriterion) Escape(*cluster.Context, *cluster.Interface) (fuse, decided bool) {
	return false, false
}

func (rc *RegionCriterion) Fuse(value, threshold float64) bool {
	if rc.Policy == MeanIntensity {
		return value >= threshold
	}
	return value < threshold
}

func (rc *RegionCriterion) Ascending() bool {
	return rc.Policy != MeanIntensity
}

// Check makes sure the intensity map matches the partition.
func (rc *RegionCriterion) Check(dims dvid.Dims) error {
	return checkMaps(dims, namedMap{"intensity", rc.IntensityMap, true})
}
