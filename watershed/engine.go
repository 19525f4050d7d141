package watershed

import (
	"fmt"
	"math"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// Mode selects how contested voxels are resolved.
type Mode uint8

const (
	// Normal queues unclaimed neighbors and decides ownership when a voxel is popped,
	// arbitrating between touching spots with a Score.
	Normal Mode = iota

	// Direct claims neighbors as soon as they are discovered; the first claim wins.
	Direct
)

func (m Mode) String() string {
	if m == Direct {
		return "direct"
	}
	return "normal"
}

// Config holds the decision points of a run.  Nil criteria take their defaults.
type Config struct {
	// LowConnectivity uses face neighbors only (6 in 3d, 4 in 2d) instead of the full
	// 26 or 8 neighborhood.
	LowConnectivity bool

	Direction   Direction
	Mode        Mode
	Propagation PropagationCriterion // default Always
	Fusion      FusionCriterion      // default Never
	Score       Score                // default MajorityScore, MaxDiffScore for multi-scale
}

// Stats counts the work done by a run.
type Stats struct {
	Claimed  int
	Fusions  int
	Pushes   int
	Pops     int
	Discards int
}

// engine grows spots over one or more maps sharing a single frontier and raster.
type engine struct {
	cfg       Config
	dims      dvid.Dims
	maps      []*dvid.Volume
	mask      *dvid.Mask
	neighbors []dvid.Point3d

	raster   *labels.Raster
	spots    []*Spot // indexed by label; slot 0 unused
	live     int
	frontier *frontier
	log      labels.MergeLog
	handlers []labels.FusionHandler
	stats    Stats
	ran      bool
	ctx      *Context
}

// newEngine checks inputs and seeds the spots.  seeds[s] holds the seeds bound to map s.
func newEngine(maps []*dvid.Volume, mask *dvid.Mask, seeds [][][]dvid.Point3d, cfg Config, singleScale bool) (*engine, error) {
	if len(maps) == 0 || maps[0] == nil {
		return nil, dvid.NewConfigurationError("no energy map given")
	}
	dims := maps[0].Dims
	if err := dims.Check(); err != nil {
		return nil, err
	}
	for s, m := range maps {
		if m == nil {
			return nil, dvid.NewConfigurationError("energy map for scale %d is missing", s)
		}
		if m.Dims != dims {
			return nil, dvid.NewConfigurationError("energy map for scale %d has extent %s, expected %s", s, m.Dims, dims)
		}
		if len(m.Data) != dims.NumVoxels() {
			return nil, dvid.NewConfigurationError("energy map for scale %d holds %d values for %d voxels", s, len(m.Data), dims.NumVoxels())
		}
	}
	if mask != nil && mask.Dims != dims {
		return nil, dvid.NewConfigurationError("mask has extent %s but energy map has %s", mask.Dims, dims)
	}
	if len(seeds) != len(maps) {
		return nil, dvid.NewConfigurationError("got seeds for %d scales but %d energy maps", len(seeds), len(maps))
	}
	if cfg.Propagation == nil {
		cfg.Propagation = Always{}
	}
	if cfg.Fusion == nil {
		cfg.Fusion = Never{}
	}
	if cfg.Score == nil {
		if singleScale {
			cfg.Score = MajorityScore{}
		} else {
			cfg.Score = MaxDiffScore{}
		}
	}
	if err := checkCriteria(cfg.Propagation, cfg.Fusion, dims); err != nil {
		return nil, err
	}

	radiusXY, radiusZ := dvid.ConnectivityRadius(cfg.LowConnectivity, dims.Is2D())
	e := &engine{
		cfg:       cfg,
		dims:      dims,
		maps:      maps,
		mask:      mask,
		neighbors: dvid.Neighborhood(radiusXY, radiusZ),
		raster:    labels.NewRaster(dims),
		spots:     []*Spot{nil},
		frontier:  newFrontier(cfg.Direction, dims.NumVoxels()),
	}
	e.ctx = &Context{e: e}

	for s, scaleSeeds := range seeds {
		scale := s
		if singleScale {
			scale = labels.NoScale
		}
		for n, seed := range scaleSeeds {
			if err := e.addSeed(scale, seed); err != nil {
				return nil, fmt.Errorf("seed %d of scale %d: %w", n, s, err)
			}
		}
	}
	if e.live == 0 {
		return nil, dvid.NewConfigurationError("no usable seeds: every seed is empty or outside the mask")
	}
	return e, nil
}

// addSeed creates a spot from a seed voxel set.  Voxels outside the mask are dropped and
// a seed left empty is skipped without consuming a label.
func (e *engine) addSeed(scale int, seed []dvid.Point3d) error {
	label := uint32(len(e.spots))
	spot := newSpot(label, scale)
	m := e.scaleMap(scale)
	for _, p := range seed {
		if !e.mask.Contains(e.dims, p) {
			dvid.Debugf("dropping seed voxel %s outside of mask for label %d\n", p, label)
			continue
		}
		i := e.dims.Index(p)
		if prev := e.raster.At(i); prev != labels.Background {
			if prev == label {
				continue
			}
			return dvid.NewConfigurationError("seeds overlap at %s (labels %d and %d)", p, prev, label)
		}
		e.raster.Set(i, label)
		spot.add(i, p, m.At(i), e.cfg.Direction)
	}
	if spot.Size() == 0 {
		dvid.Warningf("skipping seed with no voxels inside the mask\n")
		return nil
	}
	e.spots = append(e.spots, spot)
	e.live++
	e.stats.Claimed += spot.Size()
	return nil
}

func (e *engine) scaleMap(scale int) *dvid.Volume {
	if scale < 0 || scale >= len(e.maps) {
		return e.maps[0]
	}
	return e.maps[scale]
}

// spot returns the live spot for a label or nil.
func (e *engine) spot(label uint32) *Spot {
	if label == labels.Background || int(label) >= len(e.spots) {
		return nil
	}
	if s := e.spots[label]; s.alive {
		return s
	}
	return nil
}

func (e *engine) valid(p dvid.Point3d) bool {
	return e.mask.Contains(e.dims, p)
}

func (e *engine) violation(p dvid.Point3d, label uint32, reason string) error {
	return dvid.NewInvariantViolation(e.dims, p, label, reason, e.raster.At)
}

func (e *engine) claim(s *Spot, v Voxel) {
	e.raster.Set(v.Index, s.Label)
	s.add(v.Index, v.P, v.Value, e.cfg.Direction)
	e.stats.Claimed++
}

// fuse merges two live spots: the lower label absorbs the higher and the raster is
// rewritten for the absorbed voxels.  Returns the surviving label.
func (e *engine) fuse(a, b uint32) uint32 {
	target, merged := a, b
	if merged < target {
		target, merged = merged, target
	}
	t, m := e.spots[target], e.spots[merged]
	op := labels.MergeOp{
		Target:       target,
		Merged:       merged,
		TargetVoxels: t.Size(),
		MergedVoxels: m.Size(),
	}
	for _, i := range m.voxels {
		e.raster.Set(i, target)
	}
	t.absorb(m, e.cfg.Direction)
	e.live--
	e.stats.Fusions++
	e.log.Add(op)
	if dvid.Verbose {
		dvid.Debugf("%s\n", op)
	}
	for _, handler := range e.handlers {
		handler(op)
	}
	return target
}

// canFuse consults the fusion criterion for two distinct live spots of the same scale.
func (e *engine) canFuse(a, b *Spot, at Voxel) bool {
	if a == nil || b == nil || a.Label == b.Label || a.Scale != b.Scale {
		return false
	}
	return e.cfg.Fusion.Fuse(e.ctx, a, b, at)
}

func (e *engine) run() error {
	if e.ran {
		return fmt.Errorf("watershed transform can only be run once")
	}
	e.ran = true
	timedLog := dvid.NewTimeLog()
	var err error
	if e.cfg.Mode == Direct {
		err = e.runDirect()
	} else {
		err = e.runNormal()
	}
	e.stats.Pushes = e.frontier.pushes
	e.stats.Pops = e.frontier.pops
	if err != nil {
		return err
	}
	timedLog.Infof("%s watershed (%s mode) over %s voxels in %d map(s): %s claimed, %d spots alive, %d fusions",
		e.cfg.Direction, e.cfg.Mode, humanize.Comma(int64(e.dims.NumVoxels())), len(e.maps),
		humanize.Comma(int64(e.stats.Claimed)), e.live, e.stats.Fusions)
	dvid.Debugf("watershed label arena uses %s\n", humanize.Bytes(uint64(size.Of(e.raster))))
	return nil
}

// runNormal queues unclaimed neighbors and resolves ownership when a voxel is popped.
func (e *engine) runNormal() error {
	for _, s := range e.spots[1:] {
		if !s.alive {
			continue
		}
		m := e.scaleMap(s.Scale)
		for _, i := range s.Indices() {
			from := Voxel{P: e.dims.Point(i), Index: i, Value: m.At(i)}
			e.pushNeighbors(s, from)
		}
	}

	candidates := make([]Candidate, 0, len(e.neighbors))
	for {
		v, ok := e.frontier.pop()
		if !ok {
			break
		}
		if e.raster.At(v.Index) != labels.Background {
			e.stats.Discards++
			continue
		}

		var err error
		if candidates, err = e.gatherCandidates(v, candidates[:0]); err != nil {
			return err
		}
		if len(candidates) == 0 {
			return e.violation(v.P, labels.Background, "frontier voxel has no claimed neighbor")
		}
		winner := e.cfg.Score.Choose(e.ctx, v, candidates)
		s := e.spot(winner)
		if s == nil || !hasCandidate(candidates, winner) {
			return e.violation(v.P, winner, fmt.Sprintf("score %s chose a label that does not touch the voxel", describe(e.cfg.Score)))
		}
		claimed := Voxel{P: v.P, Index: v.Index, Value: e.scaleMap(s.Scale).At(v.Index)}
		e.claim(s, claimed)
		e.pushNeighbors(s, claimed)

		cur := winner
		for _, c := range candidates {
			if c.Label == winner {
				continue
			}
			if e.canFuse(e.spot(cur), e.spot(c.Label), claimed) {
				cur = e.fuse(cur, c.Label)
			}
		}
	}
	return nil
}

// gatherCandidates collects the spots holding neighbors of v, sorted by label.  Every
// neighbor updates its spot's count and diff bounds; Last is the final one in
// neighborhood order.
func (e *engine) gatherCandidates(v Voxel, candidates []Candidate) ([]Candidate, error) {
	for _, off := range e.neighbors {
		q := v.P.Add(off)
		if !e.valid(q) {
			continue
		}
		qi := e.dims.Index(q)
		label := e.raster.At(qi)
		if label == labels.Background {
			continue
		}
		s := e.spot(label)
		if s == nil {
			return nil, e.violation(q, label, "claimed voxel resolves to no live spot")
		}
		m := e.scaleMap(s.Scale)
		last := Voxel{P: q, Index: qi, Value: m.At(qi)}
		center := m.At(v.Index)
		d := math.Abs(center - last.Value)
		found := false
		for n := range candidates {
			c := &candidates[n]
			if c.Label == label {
				c.Count++
				c.Last = last
				c.MinDiff = math.Min(c.MinDiff, d)
				c.MaxDiff = math.Max(c.MaxDiff, d)
				found = true
				break
			}
		}
		if !found {
			candidates = insertCandidate(candidates, Candidate{
				Label:       label,
				Count:       1,
				Last:        last,
				CenterValue: center,
				MinDiff:     d,
				MaxDiff:     d,
			})
		}
	}
	return candidates, nil
}

func insertCandidate(candidates []Candidate, c Candidate) []Candidate {
	pos := len(candidates)
	for n := range candidates {
		if c.Label < candidates[n].Label {
			pos = n
			break
		}
	}
	candidates = append(candidates, Candidate{})
	copy(candidates[pos+1:], candidates[pos:])
	candidates[pos] = c
	return candidates
}

func hasCandidate(candidates []Candidate, label uint32) bool {
	for _, c := range candidates {
		if c.Label == label {
			return true
		}
	}
	return false
}

// pushNeighbors queues every unclaimed valid neighbor of a voxel held by s that the
// propagation criterion accepts.  Values are sampled from s's map.
func (e *engine) pushNeighbors(s *Spot, from Voxel) {
	m := e.scaleMap(s.Scale)
	for _, off := range e.neighbors {
		q := from.P.Add(off)
		if !e.valid(q) {
			continue
		}
		qi := e.dims.Index(q)
		if e.raster.At(qi) != labels.Background || e.frontier.isQueued(qi) {
			continue
		}
		to := Voxel{P: q, Index: qi, Value: m.At(qi)}
		if e.cfg.Propagation.Continue(e.ctx, from, to) {
			e.frontier.push(to)
		}
	}
}

// runDirect claims neighbors on discovery and tests fusion against foreign neighbors.
func (e *engine) runDirect() error {
	for _, s := range e.spots[1:] {
		if !s.alive {
			continue
		}
		m := e.scaleMap(s.Scale)
		for _, i := range s.Indices() {
			e.frontier.push(Voxel{P: e.dims.Point(i), Index: i, Value: m.At(i)})
		}
	}

	for {
		v, ok := e.frontier.pop()
		if !ok {
			break
		}
		label := e.raster.At(v.Index)
		s := e.spot(label)
		if s == nil {
			return e.violation(v.P, label, "claimed frontier voxel resolves to no live spot")
		}
		for _, off := range e.neighbors {
			q := v.P.Add(off)
			if !e.valid(q) {
				continue
			}
			qi := e.dims.Index(q)
			qLabel := e.raster.At(qi)
			switch {
			case qLabel == labels.Background:
				to := Voxel{P: q, Index: qi, Value: e.scaleMap(s.Scale).At(qi)}
				if e.frontier.isQueued(qi) || !e.cfg.Propagation.Continue(e.ctx, v, to) {
					continue
				}
				if e.frontier.push(to) {
					e.claim(s, to)
				}
			case qLabel != s.Label:
				other := e.spot(qLabel)
				if other == nil {
					return e.violation(q, qLabel, "claimed neighbor resolves to no live spot")
				}
				if e.canFuse(s, other, v) {
					s = e.spot(e.fuse(s.Label, qLabel))
				}
			}
		}
	}
	return nil
}

// liveSpots returns the live spots in ascending label order.
func (e *engine) liveSpots() []*Spot {
	spots := make([]*Spot, 0, e.live)
	for _, s := range e.spots[1:] {
		if s.alive {
			spots = append(spots, s)
		}
	}
	return spots
}

// population freezes the live spots accepted by keep into a population with labels
// compacted to 1..N in ascending order of their live labels.
func (e *engine) population(keep func(*Spot) bool) *labels.Population {
	calib := e.maps[0].Calib
	pop := &labels.Population{Dims: e.dims, Calib: calib, Raster: labels.NewRaster(e.dims)}
	var next uint32 = 1
	for _, s := range e.liveSpots() {
		if !keep(s) {
			continue
		}
		r := s.Region(e.dims, calib)
		r.Label = next
		for _, i := range s.voxels {
			pop.Raster.Set(i, next)
		}
		pop.Regions = append(pop.Regions, r)
		next++
	}
	return pop
}
