package watershed

import (
	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// Transform grows seeds over a single energy map.
type Transform struct {
	e *engine
}

// NewTransform checks the inputs and seeds one spot per non-empty seed set, labeled
// 1..N in input order.  The mask may be nil.  Seed voxels outside the mask are dropped.
func NewTransform(energy *dvid.Volume, mask *dvid.Mask, seeds [][]dvid.Point3d, cfg Config) (*Transform, error) {
	e, err := newEngine([]*dvid.Volume{energy}, mask, [][][]dvid.Point3d{seeds}, cfg, true)
	if err != nil {
		return nil, err
	}
	return &Transform{e: e}, nil
}

// OnFusion registers a handler called after every fusion during growth.
func (t *Transform) OnFusion(handler labels.FusionHandler) {
	t.e.handlers = append(t.e.handlers, handler)
}

// Run grows every spot to completion.  A transform can only be run once.
func (t *Transform) Run() error {
	return t.e.run()
}

// RegionPopulation returns the live spots as regions labeled 1..N along with the
// matching label raster.
func (t *Transform) RegionPopulation() *labels.Population {
	return t.e.population(func(*Spot) bool { return true })
}

// Raster returns a copy of the working label raster.  Labels are not compacted, so
// they match the labels used in the merge log.
func (t *Transform) Raster() *labels.Raster {
	return t.e.raster.Clone()
}

// MergeLog returns the fusions performed during growth in order.
func (t *Transform) MergeLog() labels.MergeLog {
	return append(labels.MergeLog(nil), t.e.log...)
}

// Stats returns counters for the run.
func (t *Transform) Stats() Stats {
	return t.e.stats
}

// Spots returns the live spots in ascending label order.
func (t *Transform) Spots() []*Spot {
	return t.e.liveSpots()
}

// Context returns the read-only view used by criteria, e.g., for inspecting a
// finished run.
func (t *Transform) Context() *Context {
	return t.e.ctx
}
