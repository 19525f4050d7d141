package splitmerge

import (
	"github.com/janelia-flyem/seedseg/cluster"
	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// MedianCache holds the median intensity of each region.  Entries are dropped only by
// Invalidate, which must be registered as a fusion handler wherever regions fuse.
type MedianCache struct {
	intensity *dvid.Volume
	medians   map[uint32]float64

	hits, misses int
}

// NewMedianCache returns an empty cache measuring the given map.
func NewMedianCache(intensity *dvid.Volume) *MedianCache {
	return &MedianCache{
		intensity: intensity,
		medians:   make(map[uint32]float64),
	}
}

// Median returns the cached median of a region, computing it on a miss.
func (mc *MedianCache) Median(ctx *cluster.Context, label uint32) float64 {
	if m, found := mc.medians[label]; found {
		mc.hits++
		return m
	}
	mc.misses++
	m := cluster.MedianOf(mc.intensity, ctx.Node(label))
	mc.medians[label] = m
	return m
}

// Invalidate drops both regions of a fusion.
func (mc *MedianCache) Invalidate(op labels.MergeOp) {
	delete(mc.medians, op.Target)
	delete(mc.medians, op.Merged)
}

// Reset empties the cache, e.g., when regions are relabeled.
func (mc *MedianCache) Reset() {
	mc.medians = make(map[uint32]float64)
}

// Len returns the number of cached medians.
func (mc *MedianCache) Len() int {
	return len(mc.medians)
}

// Stats returns the number of cache hits and misses so far.
func (mc *MedianCache) Stats() (hits, misses int) {
	return mc.hits, mc.misses
}
