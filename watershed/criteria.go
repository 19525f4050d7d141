package watershed

import (
	"fmt"

	"github.com/janelia-flyem/seedseg/dvid"
)

// PropagationCriterion decides whether growth may extend from a claimed voxel to an
// unclaimed neighbor.  Both voxels carry values sampled from the growing spot's map.
type PropagationCriterion interface {
	Continue(ctx *Context, from, to Voxel) bool
}

// FusionCriterion decides whether two touching spots fuse.  The voxel is where they
// met.
type FusionCriterion interface {
	Fuse(ctx *Context, a, b *Spot, at Voxel) bool
}

// Always never stops propagation.
type Always struct{}

func (Always) Continue(*Context, Voxel, Voxel) bool { return true }

// Monotonic refuses to move against the growth direction.
type Monotonic struct{}

func (Monotonic) Continue(ctx *Context, from, to Voxel) bool {
	if ctx.Direction() == Increasing {
		return to.Value >= from.Value
	}
	return to.Value <= from.Value
}

// Threshold stops growth at a cutoff.  The neighbor's value is read from Map, or is the
// sampled growth value if Map is nil.  Growth continues only while the value is strictly
// on the growth side of the cutoff: below it when increasing, above it when decreasing.
type Threshold struct {
	Map    *dvid.Volume
	Cutoff float64
}

func (t Threshold) Continue(ctx *Context, from, to Voxel) bool {
	return onGrowthSide(ctx.Direction(), sampleOr(t.Map, to), t.Cutoff)
}

// AllOf continues only if every criterion agrees.
type AllOf []PropagationCriterion

func (all AllOf) Continue(ctx *Context, from, to Voxel) bool {
	for _, c := range all {
		if !c.Continue(ctx, from, to) {
			return false
		}
	}
	return true
}

// Never is the default fusion criterion: spots never fuse while growing.
type Never struct{}

func (Never) Fuse(*Context, *Spot, *Spot, Voxel) bool { return false }

// SizeFusion fuses whenever either spot holds at most MinSize voxels.  It erases small
// fragments.
type SizeFusion struct {
	MinSize int
}

func (f SizeFusion) Fuse(ctx *Context, a, b *Spot, at Voxel) bool {
	return a.Size() <= f.MinSize || b.Size() <= f.MinSize
}

// NumberFusion fuses while more than Target spots are alive.
type NumberFusion struct {
	Target int
}

func (f NumberFusion) Fuse(ctx *Context, a, b *Spot, at Voxel) bool {
	return ctx.LiveSpots() > f.Target
}

// ThresholdFusion fuses when the voxel where the spots meet lies on the growth side of
// a cutoff, i.e., the spots touch before the flood reached the cutoff.  Map nil means
// the growth value of the voxel.
type ThresholdFusion struct {
	Map    *dvid.Volume
	Cutoff float64
}

func (f ThresholdFusion) Fuse(ctx *Context, a, b *Spot, at Voxel) bool {
	return onGrowthSide(ctx.Direction(), sampleOr(f.Map, at), f.Cutoff)
}

// AllFusion fuses only if every criterion agrees.
type AllFusion []FusionCriterion

func (all AllFusion) Fuse(ctx *Context, a, b *Spot, at Voxel) bool {
	for _, c := range all {
		if !c.Fuse(ctx, a, b, at) {
			return false
		}
	}
	return len(all) > 0
}

// AnyFusion fuses if any criterion agrees.
type AnyFusion []FusionCriterion

func (some AnyFusion) Fuse(ctx *Context, a, b *Spot, at Voxel) bool {
	for _, c := range some {
		if c.Fuse(ctx, a, b, at) {
			return true
		}
	}
	return false
}

func sampleOr(vol *dvid.Volume, v Voxel) float64 {
	if vol == nil {
		return v.Value
	}
	return vol.At(v.Index)
}

func onGrowthSide(dir Direction, value, cutoff float64) bool {
	if dir == Increasing {
		return value < cutoff
	}
	return value > cutoff
}

// checkMap makes sure an auxiliary map of a criterion matches the transform extent.
func checkMap(name string, vol *dvid.Volume, dims dvid.Dims) error {
	if vol != nil && vol.Dims != dims {
		return dvid.NewConfigurationError("%s map has extent %s but energy map has %s", name, vol.Dims, dims)
	}
	return nil
}

// checkCriteria walks composite criteria and verifies every auxiliary map.
func checkCriteria(prop PropagationCriterion, fusion FusionCriterion, dims dvid.Dims) error {
	switch c := prop.(type) {
	case Threshold:
		if err := checkMap("threshold", c.Map, dims); err != nil {
			return err
		}
	case AllOf:
		for _, sub := range c {
			if err := checkCriteria(sub, nil, dims); err != nil {
				return err
			}
		}
	}
	switch c := fusion.(type) {
	case ThresholdFusion:
		if err := checkMap("fusion threshold", c.Map, dims); err != nil {
			return err
		}
	case AllFusion:
		for _, sub := range c {
			if err := checkCriteria(nil, sub, dims); err != nil {
				return err
			}
		}
	case AnyFusion:
		for _, sub := range c {
			if err := checkCriteria(nil, sub, dims); err != nil {
				return err
			}
		}
	}
	return nil
}

func describe(v interface{}) string {
	return fmt.Sprintf("%T%+v", v, v)
}
