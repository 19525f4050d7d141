package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/google/btree"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// Criterion turns interfaces into values and decides fusions.
type Criterion interface {
	// Value recomputes the scalar summary of an interface.  NaN means the value cannot
	// be computed, which never fuses except under the minimum size override.
	Value(ctx *Context, it *Interface) (float64, error)

	// Escape lets a criterion decide before the threshold is applied.  If decided is
	// false the threshold comparison is used.
	Escape(ctx *Context, it *Interface) (fuse, decided bool)

	// Fuse compares a value against the configured threshold.
	Fuse(value, threshold float64) bool

	// Ascending is true if lower values are merged first.
	Ascending() bool
}

// ForbidFunc vetoes the fusion of two regions.
type ForbidFunc func(ctx *Context, a, b *Node) bool

// ForbidLabels keeps the given labels apart: two regions that are both in the set never
// fuse with each other.
func ForbidLabels(set labels.Set) ForbidFunc {
	return func(ctx *Context, a, b *Node) bool {
		return set.Contains(a.Label) && set.Contains(b.Label)
	}
}

// StopFunc ends a merge loop early when it returns true.
type StopFunc func(c *Cluster) bool

// MinRegions stops merging once at most n regions remain.
func MinRegions(n int) StopFunc {
	return func(c *Cluster) bool {
		return c.NumRegions() <= n
	}
}

// Options configures the adjacency graph and the fusion gate.
type Options struct {
	// LowConnectivity restricts adjacency to face neighbors.
	LowConnectivity bool

	// Mask limits the foreground.  Nil means the whole volume.
	Mask *dvid.Mask

	// Background adds the virtual region 0 standing for everything outside the labeled
	// foreground.
	Background bool

	// Threshold is handed to the criterion's Fuse.
	Threshold float64

	// MinSize forces a fusion whenever either region holds at most MinSize voxels.
	// Zero disables the override.
	MinSize int

	// Forbid, if set, vetoes fusions before anything else is considered.
	Forbid ForbidFunc

	// Intensity and Medians are made available to the criterion through the Context.
	Intensity *dvid.Volume
	Medians   Medians
}

// Cluster is the live graph of regions and interfaces.
type Cluster struct {
	ctx        *Context
	crit       Criterion
	opts       Options
	interfaces map[key]*Interface
	queue      *btree.BTreeG[*Interface]
	log        labels.MergeLog
	handlers   []labels.FusionHandler
	initial    int
}

// New builds one interface per pair of adjacent regions of the population and computes
// every interface value.
func New(pop *labels.Population, crit Criterion, opts Options) (*Cluster, error) {
	if pop.Raster == nil || pop.Raster.Dims != pop.Dims {
		return nil, dvid.NewConfigurationError("population has no raster matching extent %s", pop.Dims)
	}
	if opts.Mask != nil && opts.Mask.Dims != pop.Dims {
		return nil, dvid.NewConfigurationError("mask has extent %s but population has %s", opts.Mask.Dims, pop.Dims)
	}
	if opts.Intensity != nil && opts.Intensity.Dims != pop.Dims {
		return nil, dvid.NewConfigurationError("intensity map has extent %s but population has %s", opts.Intensity.Dims, pop.Dims)
	}
	c := &Cluster{
		ctx: &Context{
			dims:      pop.Dims,
			calib:     pop.Calib,
			mask:      opts.Mask,
			intensity: opts.Intensity,
			medians:   opts.Medians,
			raster:    pop.Raster.Clone(),
			nodes:     make(map[uint32]*Node, len(pop.Regions)+1),
		},
		crit:       crit,
		opts:       opts,
		interfaces: make(map[key]*Interface),
		queue:      btree.NewG[*Interface](32, interfaceOrder(crit.Ascending())),
	}
	for _, r := range pop.Regions {
		if r.Label == labels.Background {
			return nil, dvid.NewConfigurationError("population holds a region with background label")
		}
		n := newNode(r.Label)
		n.Scale = r.Scale
		n.Quality = r.Quality
		n.voxels = make([]int, len(r.Voxels))
		for i, p := range r.Voxels {
			n.voxels[i] = pop.Dims.Index(p)
		}
		c.ctx.nodes[r.Label] = n
	}
	c.initial = len(pop.Regions)
	if opts.Background {
		c.ctx.nodes[labels.Background] = newNode(labels.Background)
	}

	timedLog := dvid.NewTimeLog()
	c.buildAdjacency()
	for _, it := range c.Interfaces() {
		if err := c.update(it); err != nil {
			return nil, err
		}
	}
	timedLog.Debugf("built region cluster: %d regions, %s interfaces", c.initial, humanize.Comma(int64(len(c.interfaces))))
	return c, nil
}

// interfaceOrder sorts interfaces by value in the merge direction, then by label pair.
// NaN values sort last.
func interfaceOrder(ascending bool) btree.LessFunc[*Interface] {
	return func(a, b *Interface) bool {
		aNaN, bNaN := math.IsNaN(a.Value), math.IsNaN(b.Value)
		switch {
		case aNaN != bNaN:
			return bNaN
		case !aNaN && a.Value != b.Value:
			if ascending {
				return a.Value < b.Value
			}
			return a.Value > b.Value
		case a.A != b.A:
			return a.A < b.A
		}
		return a.B < b.B
	}
}

// buildAdjacency scans region voxels in raster order.  In-bounds pairs are counted from
// the lower raster index only; background pairs once from the region side.
func (c *Cluster) buildAdjacency() {
	dims := c.ctx.dims
	radiusXY, radiusZ := dvid.ConnectivityRadius(c.opts.LowConnectivity, dims.Is2D())
	offsets := dvid.Neighborhood(radiusXY, radiusZ)
	for i := 0; i < dims.NumVoxels(); i++ {
		label := c.ctx.raster.At(i)
		if label == labels.Background || !c.opts.Mask.ContainsIndex(i) {
			continue
		}
		p := dims.Point(i)
		for _, off := range offsets {
			q := p.Add(off)
			qLabel := c.ctx.Label(q)
			if qLabel == label {
				continue
			}
			if qLabel == labels.Background {
				if c.opts.Background {
					c.link(label, p, labels.Background, q)
				}
				continue
			}
			if dims.Index(q) > i {
				c.link(label, p, qLabel, q)
			}
		}
	}
}

func (c *Cluster) link(la uint32, pa dvid.Point3d, lb uint32, pb dvid.Point3d) {
	k := makeKey(la, lb)
	it := c.interfaces[k]
	if it == nil {
		it = newInterface(la, lb)
		c.interfaces[k] = it
		c.ctx.nodes[la].interfaces[lb] = it
		c.ctx.nodes[lb].interfaces[la] = it
	}
	it.AddPair(la, pa, lb, pb)
}

// update recomputes the value of an interface and requeues it.
func (c *Cluster) update(it *Interface) error {
	c.dequeue(it)
	value, err := c.crit.Value(c.ctx, it)
	if err != nil {
		return fmt.Errorf("unable to compute value of %s: %v", it, err)
	}
	it.Value = value
	it.retired = false
	it.queued = true
	c.queue.ReplaceOrInsert(it)
	return nil
}

func (c *Cluster) dequeue(it *Interface) {
	if it.queued {
		c.queue.Delete(it)
		it.queued = false
	}
}

// checkFusion is the fusion gate.
func (c *Cluster) checkFusion(it *Interface) bool {
	a, b := c.ctx.nodes[it.A], c.ctx.nodes[it.B]
	if c.opts.Forbid != nil && c.opts.Forbid(c.ctx, a, b) {
		return false
	}
	if c.opts.MinSize > 0 && (c.small(a) || c.small(b)) {
		return true
	}
	if math.IsNaN(it.Value) {
		return false
	}
	if fuse, decided := c.crit.Escape(c.ctx, it); decided {
		return fuse
	}
	return c.crit.Fuse(it.Value, c.opts.Threshold)
}

func (c *Cluster) small(n *Node) bool {
	return !n.IsBackground() && n.Size() <= c.opts.MinSize
}

// OnFusion registers a handler called after every fusion.
func (c *Cluster) OnFusion(handler labels.FusionHandler) {
	c.handlers = append(c.handlers, handler)
}

// Merge runs the best-first merge until no active interface remains or stop returns
// true.  If the merge collapses several regions into one or none, the cluster is left
// in its merged state and a *dvid.DegenerateResult is returned.
func (c *Cluster) Merge(stop StopFunc) error {
	timedLog := dvid.NewTimeLog()
	before := c.NumRegions()
	for c.queue.Len() > 0 {
		if stop != nil && stop(c) {
			break
		}
		it, _ := c.queue.DeleteMin()
		it.queued = false
		if !c.checkFusion(it) {
			it.retired = true
			continue
		}
		if err := c.fuse(it); err != nil {
			return err
		}
	}
	after := c.NumRegions()
	timedLog.Infof("merged %d regions into %d with %d fusions", before, after, len(c.log))
	if before > 1 && after <= 1 {
		return &dvid.DegenerateResult{
			Regions: after,
			Reason:  fmt.Sprintf("merge collapsed %d regions", before),
		}
	}
	return nil
}

// fuse merges the higher label of an interface into the lower one.  Background
// absorbs anything, which erases the region.
func (c *Cluster) fuse(it *Interface) error {
	target, merged := c.ctx.nodes[it.A], c.ctx.nodes[it.B]
	op := labels.MergeOp{
		Target:       target.Label,
		Merged:       merged.Label,
		TargetVoxels: target.Size(),
		MergedVoxels: merged.Size(),
	}

	c.dequeue(it)
	delete(c.interfaces, makeKey(it.A, it.B))
	delete(target.interfaces, merged.Label)
	delete(merged.interfaces, target.Label)

	for _, label := range merged.Neighbors() {
		old := merged.interfaces[label]
		other := c.ctx.nodes[label]
		c.dequeue(old)
		delete(c.interfaces, makeKey(old.A, old.B))
		delete(other.interfaces, merged.Label)
		if existing := target.interfaces[label]; existing != nil {
			if err := existing.Fold(old); err != nil {
				return err
			}
			continue
		}
		old.relabel(merged.Label, target.Label)
		c.interfaces[makeKey(old.A, old.B)] = old
		target.interfaces[label] = old
		other.interfaces[target.Label] = old
	}

	for _, i := range merged.voxels {
		c.ctx.raster.Set(i, target.Label)
	}
	if !target.IsBackground() {
		target.voxels = append(target.voxels, merged.voxels...)
	}
	delete(c.ctx.nodes, merged.Label)

	c.log.Add(op)
	if dvid.Verbose {
		dvid.Debugf("%s\n", op)
	}
	for _, handler := range c.handlers {
		handler(op)
	}

	for _, label := range target.Neighbors() {
		if err := c.update(target.interfaces[label]); err != nil {
			return err
		}
	}
	return nil
}

// Context returns the view passed to criteria.
func (c *Cluster) Context() *Context {
	return c.ctx
}

// NumRegions returns the number of live foreground regions.
func (c *Cluster) NumRegions() int {
	n := len(c.ctx.nodes)
	if _, found := c.ctx.nodes[labels.Background]; found {
		n--
	}
	return n
}

// Node returns the live region with the given label or nil.
func (c *Cluster) Node(label uint32) *Node {
	return c.ctx.nodes[label]
}

// Interface returns the interface between two regions or nil if they do not touch.
func (c *Cluster) Interface(a, b uint32) *Interface {
	return c.interfaces[makeKey(a, b)]
}

// Interfaces returns all interfaces ordered by label pair.
func (c *Cluster) Interfaces() []*Interface {
	its := make([]*Interface, 0, len(c.interfaces))
	for _, it := range c.interfaces {
		its = append(its, it)
	}
	sort.Slice(its, func(i, j int) bool {
		if its[i].A != its[j].A {
			return its[i].A < its[j].A
		}
		return its[i].B < its[j].B
	})
	return its
}

// Active returns the interfaces still waiting in the merge queue, in merge order.
func (c *Cluster) Active() []*Interface {
	its := make([]*Interface, 0, c.queue.Len())
	c.queue.Ascend(func(it *Interface) bool {
		its = append(its, it)
		return true
	})
	return its
}

// MergeLog returns the fusions performed so far.
func (c *Cluster) MergeLog() labels.MergeLog {
	return append(labels.MergeLog(nil), c.log...)
}

// Population freezes the live foreground regions with labels compacted to 1..N.
func (c *Cluster) Population() *labels.Population {
	dims := c.ctx.dims
	pop := &labels.Population{Dims: dims, Calib: c.ctx.calib, Raster: c.ctx.raster.Clone()}
	lbls := make([]uint32, 0, len(c.ctx.nodes))
	for label := range c.ctx.nodes {
		if label != labels.Background {
			lbls = append(lbls, label)
		}
	}
	sort.Slice(lbls, func(i, j int) bool { return lbls[i] < lbls[j] })
	for _, label := range lbls {
		n := c.ctx.nodes[label]
		pts := make([]dvid.Point3d, len(n.voxels))
		for i, index := range n.voxels {
			pts[i] = dims.Point(index)
		}
		r := labels.NewRegion(label, pts, dims, c.ctx.calib)
		r.Scale = n.Scale
		r.Quality = n.Quality
		pop.Regions = append(pop.Regions, r)
	}
	pop.Compact()
	return pop
}
