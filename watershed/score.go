package watershed

import "math"

// Candidate summarizes one spot that touches a voxel about to be claimed.  Values are
// sampled from the candidate spot's own map so they are never compared across scales.
type Candidate struct {
	Label uint32

	// Count is the number of neighbors of the center voxel held by this spot.
	Count int

	// Last is the most recently visited neighbor held by this spot, in neighborhood
	// order.
	Last Voxel

	// CenterValue is the center voxel sampled in this spot's map.
	CenterValue float64

	// MinDiff and MaxDiff bound |CenterValue - neighbor value| over every neighbor held
	// by this spot.
	MinDiff float64
	MaxDiff float64
}

// diff returns the absolute difference between the center and the last neighbor.  Only
// the majority tie-break uses it.
func (c Candidate) diff() float64 {
	return math.Abs(c.CenterValue - c.Last.Value)
}

// Score arbitrates which spot claims a voxel touched by several spots.  Candidates are
// sorted by ascending label and there is always at least one.  Implementations must be
// pure: the same inputs always give the same label.
type Score interface {
	Choose(ctx *Context, center Voxel, candidates []Candidate) uint32
}

// MajorityScore awards the voxel to the spot holding the most neighbors.  Ties go to the
// smallest absolute difference between the center value and the value at that spot's
// most recently visited neighbor, then to the lowest label.
type MajorityScore struct{}

func (MajorityScore) Choose(ctx *Context, center Voxel, candidates []Candidate) uint32 {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Count > best.Count || (c.Count == best.Count && c.diff() < best.diff()) {
			best = c
		}
	}
	return best.Label
}

// MinDiffScore awards the voxel to the spot holding the neighbor whose value is closest
// to the center value.  Ties go to the lowest label.
type MinDiffScore struct{}

func (MinDiffScore) Choose(ctx *Context, center Voxel, candidates []Candidate) uint32 {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.MinDiff < best.MinDiff {
			best = c
		}
	}
	return best.Label
}

// MaxDiffScore awards the voxel to the spot holding the neighbor whose value is farthest
// from the center value.  Ties go to the lowest label.  It is the default for multi-scale runs.
type MaxDiffScore struct{}

func (MaxDiffScore) Choose(ctx *Context, center Voxel, candidates []Candidate) uint32 {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.MaxDiff > best.MaxDiff {
			best = c
		}
	}
	return best.Label
}

// NearestCentroidScore awards the voxel to the spot whose centroid is nearest, in
// calibrated distance.  Ties go to the lowest label.
type NearestCentroidScore struct{}

func (NearestCentroidScore) Choose(ctx *Context, center Voxel, candidates []Candidate) uint32 {
	aniso := ctx.Calibration().Anisotropy()
	bestLabel := candidates[0].Label
	bestDist := math.Inf(1)
	for _, c := range candidates {
		spot := ctx.Spot(c.Label)
		if spot == nil {
			continue
		}
		centroid := spot.Centroid()
		dx := centroid[0] - float64(center.P[0])
		dy := centroid[1] - float64(center.P[1])
		dz := (centroid[2] - float64(center.P[2])) * aniso
		if d := dx*dx + dy*dy + dz*dz; d < bestDist {
			bestDist = d
			bestLabel = c.Label
		}
	}
	return bestLabel
}
