package watershed

import (
	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// MultiScale grows seeds over several co-registered energy maps that share one
// frontier and one raster.  Every spot is bound to the map of its seed's scale and
// keeps that scale for life.  Values are never compared across maps and spots of
// different scales never fuse.
type MultiScale struct {
	e *engine
}

// NewMultiScale checks that every map has the same geometry and seeds the spots.
// seeds[s] are the seeds for maps[s].  Labels are assigned 1..N across all scales in
// scale order, then input order.
func NewMultiScale(maps []*dvid.Volume, mask *dvid.Mask, seeds [][][]dvid.Point3d, cfg Config) (*MultiScale, error) {
	e, err := newEngine(maps, mask, seeds, cfg, false)
	if err != nil {
		return nil, err
	}
	return &MultiScale{e: e}, nil
}

// OnFusion registers a handler called after every fusion during growth.
func (ms *MultiScale) OnFusion(handler labels.FusionHandler) {
	ms.e.handlers = append(ms.e.handlers, handler)
}

// Run grows every spot to completion.  It can only be called once.
func (ms *MultiScale) Run() error {
	return ms.e.run()
}

// NumScales returns the number of maps.
func (ms *MultiScale) NumScales() int {
	return len(ms.e.maps)
}

// RegionPopulations returns one population per scale, each labeled 1..N.
func (ms *MultiScale) RegionPopulations() []*labels.Population {
	pops := make([]*labels.Population, len(ms.e.maps))
	for s := range ms.e.maps {
		scale := s
		pops[s] = ms.e.population(func(spot *Spot) bool { return spot.Scale == scale })
	}
	return pops
}

// RegionPopulation flattens the per-scale populations into one, numbering regions of
// lower scales first.
func (ms *MultiScale) RegionPopulation() (*labels.Population, error) {
	return labels.Flatten(ms.RegionPopulations())
}

// Raster returns a copy of the shared working raster.
func (ms *MultiScale) Raster() *labels.Raster {
	return ms.e.raster.Clone()
}

// MergeLog returns the fusions performed during growth in order.
func (ms *MultiScale) MergeLog() labels.MergeLog {
	return append(labels.MergeLog(nil), ms.e.log...)
}

// Stats returns counters for the run.
func (ms *MultiScale) Stats() Stats {
	return ms.e.stats
}
