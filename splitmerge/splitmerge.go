package splitmerge

import (
	"errors"
	"sort"

	"github.com/janelia-flyem/seedseg/cluster"
	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
	"github.com/janelia-flyem/seedseg/watershed"
)

// Strategy is a merge criterion bound to the maps it measures.
type Strategy interface {
	cluster.Criterion

	// Intensity returns the map region statistics are computed on.
	Intensity() *dvid.Volume

	// Check verifies that every map of the strategy has the given extent.
	Check(dims dvid.Dims) error
}

// Config controls both phases.
type Config struct {
	// Watershed configures the split.
	Watershed watershed.Config

	// Threshold is compared with interface values by the strategy.
	Threshold float64

	// MinSize forces fusion of regions holding at most MinSize voxels.  Zero disables it.
	MinSize int

	// Background lets regions fuse with the complement of the mask, which erases them.
	Background bool

	// Forbid vetoes individual fusions.
	Forbid cluster.ForbidFunc

	// MinRegions stops merging once this many regions remain.  Zero merges until no
	// interface passes the gate.
	MinRegions int
}

// SplitAndMerge over-segments with a seeded watershed and merges the result.
type SplitAndMerge struct {
	cfg      Config
	strategy Strategy
	medians  *MedianCache
}

// New returns a split-and-merge run using the given strategy.
func New(strategy Strategy, cfg Config) *SplitAndMerge {
	return &SplitAndMerge{
		cfg:      cfg,
		strategy: strategy,
		medians:  NewMedianCache(strategy.Intensity()),
	}
}

// Medians returns the median cache shared by both phases.
func (sm *SplitAndMerge) Medians() *MedianCache {
	return sm.medians
}

// Split grows the seeds over the energy map.  Fusions during growth invalidate the
// median cache.  The returned population is labeled 1..N, so the cache is reset.
func (sm *SplitAndMerge) Split(energy *dvid.Volume, mask *dvid.Mask, seeds [][]dvid.Point3d) (*labels.Population, error) {
	t, err := watershed.NewTransform(energy, mask, seeds, sm.cfg.Watershed)
	if err != nil {
		return nil, err
	}
	t.OnFusion(sm.medians.Invalidate)
	if err := t.Run(); err != nil {
		return nil, err
	}
	sm.medians.Reset()
	return t.RegionPopulation(), nil
}

// Cluster builds the region cluster of a population with the strategy as criterion.
func (sm *SplitAndMerge) Cluster(pop *labels.Population, mask *dvid.Mask) (*cluster.Cluster, error) {
	if err := sm.strategy.Check(pop.Dims); err != nil {
		return nil, err
	}
	sm.medians.Reset()
	c, err := cluster.New(pop, sm.strategy, cluster.Options{
		LowConnectivity: sm.cfg.Watershed.LowConnectivity,
		Mask:            mask,
		Background:      sm.cfg.Background,
		Threshold:       sm.cfg.Threshold,
		MinSize:         sm.cfg.MinSize,
		Forbid:          sm.cfg.Forbid,
		Intensity:       sm.strategy.Intensity(),
		Medians:         sm.medians,
	})
	if err != nil {
		return nil, err
	}
	c.OnFusion(sm.medians.Invalidate)
	return c, nil
}

// Merge fuses adjacent regions of the population best-first.  A *dvid.DegenerateResult
// is returned alongside the merged population if everything collapsed into one region
// or none.
func (sm *SplitAndMerge) Merge(pop *labels.Population, mask *dvid.Mask) (*labels.Population, error) {
	c, err := sm.Cluster(pop, mask)
	if err != nil {
		return nil, err
	}
	var stop cluster.StopFunc
	if sm.cfg.MinRegions > 0 {
		stop = cluster.MinRegions(sm.cfg.MinRegions)
	}
	err = c.Merge(stop)
	var degenerate *dvid.DegenerateResult
	if err != nil && !errors.As(err, &degenerate) {
		return nil, err
	}
	return c.Population(), err
}

// Run splits then merges.
func (sm *SplitAndMerge) Run(energy *dvid.Volume, mask *dvid.Mask, seeds [][]dvid.Point3d) (*labels.Population, error) {
	pop, err := sm.Split(energy, mask, seeds)
	if err != nil {
		return nil, err
	}
	return sm.Merge(pop, mask)
}

// Candidates returns the interfaces still queued in a cluster, ordered by cmp.
func (sm *SplitAndMerge) Candidates(c *cluster.Cluster, cmp Comparator) []*cluster.Interface {
	its := c.Active()
	ctx := c.Context()
	sort.SliceStable(its, func(i, j int) bool { return cmp(ctx, its[i], its[j]) })
	return its
}

type namedMap struct {
	name     string
	vol      *dvid.Volume
	required bool
}

func checkMaps(dims dvid.Dims, maps ...namedMap) error {
	for _, m := range maps {
		if m.vol == nil {
			if m.required {
				return dvid.NewConfigurationError("%s map is required", m.name)
			}
			continue
		}
		if m.vol.Dims != dims {
			return dvid.NewConfigurationError("%s map has extent %s but partition has %s", m.name, m.vol.Dims, dims)
		}
	}
	return nil
}
