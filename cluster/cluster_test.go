package cluster

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// meanDiff values an interface by the absolute difference of the regions' mean
// intensities and merges the most similar regions first.
type meanDiff struct{}

func (meanDiff) Value(ctx *Context, it *Interface) (float64, error) {
	return math.Abs(ctx.Mean(ctx.Intensity(), it.A) - ctx.Mean(ctx.Intensity(), it.B)), nil
}

func (meanDiff) Escape(*Context, *Interface) (bool, bool) { return false, false }

func (meanDiff) Fuse(value, threshold float64) bool { return value < threshold }

func (meanDiff) Ascending() bool { return true }

// towardBackground values background interfaces at 0 and all others at 1.
type towardBackground struct{}

func (towardBackground) Value(ctx *Context, it *Interface) (float64, error) {
	if it.A == labels.Background {
		return 0, nil
	}
	return 1, nil
}

func (towardBackground) Escape(*Context, *Interface) (bool, bool) { return false, false }

func (towardBackground) Fuse(value, threshold float64) bool { return value < threshold }

func (towardBackground) Ascending() bool { return true }

func makePopulation(t *testing.T, dims dvid.Dims, ids []uint32) *labels.Population {
	raster := labels.NewRaster(dims)
	for i, label := range ids {
		raster.Set(i, label)
	}
	return labels.PopulationFromRaster(raster, dvid.DefaultCalibration)
}

func makeIntensity(t *testing.T, dims dvid.Dims, values []float32) *dvid.Volume {
	vol, err := dvid.NewVolumeFromData(dims, values)
	if err != nil {
		t.Fatalf("bad intensity: %v", err)
	}
	return vol
}

func rasterIDs(r *labels.Raster) []uint32 {
	ids := make([]uint32, r.Len())
	for i := range ids {
		ids[i] = r.At(i)
	}
	return ids
}

// checkInterfaces verifies that every border pair still straddles its two regions.
func checkInterfaces(t *testing.T, c *Cluster) {
	ctx := c.Context()
	for _, it := range c.Interfaces() {
		if c.Node(it.A) == nil || c.Node(it.B) == nil {
			t.Errorf("%s references a dead region", it)
		}
		for _, pair := range it.Pairs {
			if la, lb := ctx.Label(pair.A), ctx.Label(pair.B); la != it.A || lb != it.B {
				t.Errorf("%s holds pair %s-%s with labels %d-%d", it, pair.A, pair.B, la, lb)
			}
		}
	}
}

func TestAdjacency(t *testing.T) {
	dims := dvid.Dims{4, 3, 1}
	pop := makePopulation(t, dims, []uint32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 3, 2,
	})
	c, err := New(pop, meanDiff{}, Options{LowConnectivity: true, Intensity: dvid.NewVolume(dims)})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	if n := len(c.Interfaces()); n != 3 {
		t.Fatalf("expected 3 interfaces, got %d", n)
	}
	for _, pair := range [][2]uint32{{1, 2}, {1, 3}, {2, 3}} {
		it := c.Interface(pair[1], pair[0])
		if it == nil || it.A != pair[0] || it.B != pair[1] {
			t.Fatalf("missing canonical interface %v: %v", pair, it)
		}
		if len(it.Pairs) != 2 {
			t.Errorf("%s: expected 2 border pairs, got %d", it, len(it.Pairs))
		}
	}
	expected := []VoxelPair{
		{A: dvid.Point3d{2, 1, 0}, B: dvid.Point3d{2, 2, 0}},
		{A: dvid.Point3d{3, 2, 0}, B: dvid.Point3d{2, 2, 0}},
	}
	if diff := cmp.Diff(expected, c.Interface(2, 3).Pairs); diff != "" {
		t.Errorf("interface 2-3 pairs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{2, 3}, c.Node(1).Neighbors()); diff != "" {
		t.Errorf("neighbors of 1 (-want +got):\n%s", diff)
	}
	checkInterfaces(t, c)
}

func TestBackgroundAdjacency(t *testing.T) {
	dims := dvid.Dims{4, 3, 1}
	pop := makePopulation(t, dims, []uint32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 3, 2,
	})
	c, err := New(pop, towardBackground{}, Options{LowConnectivity: true, Background: true})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	it := c.Interface(1, labels.Background)
	if it == nil || it.A != labels.Background {
		t.Fatalf("expected background interface for region 1, got %v", it)
	}
	if len(it.Pairs) != 4 {
		t.Errorf("expected 4 background pairs for region 1, got %d", len(it.Pairs))
	}
	first := it.Pairs[0]
	if dims.Contains(first.A) || first.B != (dvid.Point3d{0, 0, 0}) {
		t.Errorf("expected first background pair to leave the volume, got %v", first)
	}
	if c.NumRegions() != 3 {
		t.Errorf("background must not count as a region, got %d regions", c.NumRegions())
	}
}

func TestMergeThreshold(t *testing.T) {
	dims := dvid.Dims{6, 1, 1}
	pop := makePopulation(t, dims, []uint32{1, 1, 2, 2, 3, 3})
	intensity := makeIntensity(t, dims, []float32{10, 10, 12, 12, 30, 30})
	c, err := New(pop, meanDiff{}, Options{Threshold: 5, Intensity: intensity})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	var handled []labels.MergeOp
	c.OnFusion(func(op labels.MergeOp) { handled = append(handled, op) })
	if err := c.Merge(nil); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	expected := labels.MergeLog{{Target: 1, Merged: 2, TargetVoxels: 2, MergedVoxels: 2}}
	if diff := cmp.Diff(expected, c.MergeLog()); diff != "" {
		t.Errorf("merge log (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]labels.MergeOp(expected), handled); diff != "" {
		t.Errorf("handler calls (-want +got):\n%s", diff)
	}
	it := c.Interface(1, 3)
	if it == nil || !it.Retired() || it.Value != 19 {
		t.Errorf("expected retired interface 1-3 with value 19, got %v", it)
	}
	final := c.Population()
	if diff := cmp.Diff([]uint32{1, 1, 1, 1, 2, 2}, rasterIDs(final.Raster)); diff != "" {
		t.Errorf("merged raster (-want +got):\n%s", diff)
	}
	if err := final.Check(); err != nil {
		t.Errorf("merged population: %v", err)
	}
}

func TestMergeTieBreak(t *testing.T) {
	dims := dvid.Dims{3, 1, 1}
	pop := makePopulation(t, dims, []uint32{1, 2, 3})
	intensity := makeIntensity(t, dims, []float32{0, 1, 2})
	c, err := New(pop, meanDiff{}, Options{Threshold: 1.5, Intensity: intensity})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	if err := c.Merge(nil); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	log := c.MergeLog()
	if len(log) != 1 || log[0].Target != 1 || log[0].Merged != 2 {
		t.Errorf("expected equal-valued interfaces to merge lowest pair first, got %v", log)
	}
}

func TestMinSizeOverride(t *testing.T) {
	dims := dvid.Dims{7, 1, 1}
	pop := makePopulation(t, dims, []uint32{1, 2, 2, 2, 3, 3, 3})
	intensity := makeIntensity(t, dims, []float32{100, 5, 5, 5, 6, 6, 6})
	c, err := New(pop, meanDiff{}, Options{Threshold: 0, MinSize: 2, Intensity: intensity})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	if err := c.Merge(nil); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	expected := labels.MergeLog{{Target: 1, Merged: 2, TargetVoxels: 1, MergedVoxels: 3}}
	if diff := cmp.Diff(expected, c.MergeLog()); diff != "" {
		t.Errorf("merge log (-want +got):\n%s", diff)
	}
	if c.NumRegions() != 2 {
		t.Errorf("expected 2 regions, got %d", c.NumRegions())
	}
}

func TestMergeFoldsInterfaces(t *testing.T) {
	dims := dvid.Dims{4, 4, 1}
	pop := makePopulation(t, dims, []uint32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	})
	intensity := makeIntensity(t, dims, []float32{
		10, 10, 11, 11,
		10, 10, 11, 11,
		20, 20, 22, 22,
		20, 20, 22, 22,
	})
	c, err := New(pop, meanDiff{}, Options{Threshold: 100, Intensity: intensity})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	if len(c.Interfaces()) != 6 {
		t.Fatalf("expected 6 interfaces with diagonal adjacency, got %d", len(c.Interfaces()))
	}
	if err := c.Merge(MinRegions(2)); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	expected := labels.MergeLog{
		{Target: 1, Merged: 2, TargetVoxels: 4, MergedVoxels: 4},
		{Target: 3, Merged: 4, TargetVoxels: 4, MergedVoxels: 4},
	}
	if diff := cmp.Diff(expected, c.MergeLog()); diff != "" {
		t.Errorf("merge log (-want +got):\n%s", diff)
	}
	its := c.Interfaces()
	if len(its) != 1 || its[0].A != 1 || its[0].B != 3 {
		t.Fatalf("expected single interface 1-3, got %v", its)
	}
	if len(its[0].Pairs) != 10 {
		t.Errorf("expected folded interface with 10 pairs, got %d", len(its[0].Pairs))
	}
	if its[0].Value != 10.5 {
		t.Errorf("expected recomputed value 10.5, got %f", its[0].Value)
	}
	checkInterfaces(t, c)
	retired := c.MergeLog().Retired()
	for _, label := range []uint32{2, 4} {
		if !retired.Contains(label) || c.Node(label) != nil {
			t.Errorf("label %d should be retired", label)
		}
	}
}

func TestNaNNeverFuses(t *testing.T) {
	dims := dvid.Dims{4, 1, 1}
	pop := makePopulation(t, dims, []uint32{1, 1, 2, 2})
	intensity := makeIntensity(t, dims, []float32{1, 1, 2, 2})
	c, err := New(pop, meanDiff{}, Options{Threshold: 1000, Background: true, Intensity: intensity})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	if bg := c.Interface(labels.Background, 1); bg == nil || !math.IsNaN(bg.Value) {
		t.Fatalf("expected NaN background interface, got %v", bg)
	}
	err = c.Merge(nil)
	var degenerate *dvid.DegenerateResult
	if !errors.As(err, &degenerate) {
		t.Fatalf("expected degenerate result, got %v", err)
	}
	if degenerate.Regions != 1 {
		t.Errorf("expected 1 remaining region, got %d", degenerate.Regions)
	}
	for _, op := range c.MergeLog() {
		if op.Target == labels.Background {
			t.Errorf("NaN interface fused with background: %s", op)
		}
	}
	if pop := c.Population(); pop.NumRegions() != 1 || pop.Regions[0].NumVoxels() != 4 {
		t.Errorf("expected merged population to still be available")
	}
}

func TestBackgroundFusion(t *testing.T) {
	dims := dvid.Dims{6, 1, 1}
	pop := makePopulation(t, dims, []uint32{1, 1, 0, 2, 0, 3})
	protect := func(ctx *Context, a, b *Node) bool {
		return a.Label >= 2 || b.Label >= 2
	}
	c, err := New(pop, towardBackground{}, Options{Threshold: 0.5, Background: true, Forbid: protect})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	if err := c.Merge(nil); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	expected := labels.MergeLog{{Target: labels.Background, Merged: 1, TargetVoxels: 0, MergedVoxels: 2}}
	if diff := cmp.Diff(expected, c.MergeLog()); diff != "" {
		t.Errorf("merge log (-want +got):\n%s", diff)
	}
	final := c.Population()
	if diff := cmp.Diff([]uint32{0, 0, 0, 1, 0, 2}, rasterIDs(final.Raster)); diff != "" {
		t.Errorf("raster after erasing region 1 (-want +got):\n%s", diff)
	}
	for _, label := range []uint32{2, 3} {
		if it := c.Interface(labels.Background, label); it == nil || !it.Retired() {
			t.Errorf("expected retired background interface for %d, got %v", label, it)
		}
	}
	if len(c.Active()) != 0 {
		t.Errorf("expected empty merge queue, got %d", len(c.Active()))
	}
}

func TestForbidLabels(t *testing.T) {
	dims := dvid.Dims{3, 1, 1}
	pop := makePopulation(t, dims, []uint32{1, 2, 3})
	intensity := makeIntensity(t, dims, []float32{1, 1, 1})
	c, err := New(pop, meanDiff{}, Options{Threshold: 1, Intensity: intensity, Forbid: ForbidLabels(labels.NewSet(1, 3))})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	err = c.Merge(nil)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if c.NumRegions() != 2 || len(c.MergeLog()) != 1 {
		t.Errorf("expected only 1-2 to fuse, got log %v", c.MergeLog())
	}
}

func TestInterfaceRelabelAndFold(t *testing.T) {
	p2, p5 := dvid.Point3d{2, 0, 0}, dvid.Point3d{5, 0, 0}
	it := newInterface(5, 2)
	it.AddPair(5, p5, 2, p2)
	if it.A != 2 || it.Pairs[0].A != p2 {
		t.Fatalf("pair not oriented to lower label: %v", it.Pairs)
	}
	it.relabel(5, 1)
	if it.A != 1 || it.B != 2 || it.Pairs[0] != (VoxelPair{A: p5, B: p2}) {
		t.Errorf("bad relabel: %s %v", it, it.Pairs)
	}

	p3, q2 := dvid.Point3d{3, 0, 0}, dvid.Point3d{2, 1, 0}
	o := newInterface(2, 3)
	o.AddPair(2, q2, 3, p3)
	if err := it.Fold(o); err != nil {
		t.Fatalf("fold failed: %v", err)
	}
	if len(it.Pairs) != 2 || it.Pairs[1] != (VoxelPair{A: p3, B: q2}) {
		t.Errorf("bad fold: %v", it.Pairs)
	}
	if err := it.Fold(newInterface(7, 8)); err == nil {
		t.Errorf("expected error folding unrelated interface")
	}
	if diff := cmp.Diff([]dvid.Point3d{p5, p3}, it.Border(1)); diff != "" {
		t.Errorf("border of 1 (-want +got):\n%s", diff)
	}
}

func TestMedianOf(t *testing.T) {
	dims := dvid.Dims{5, 1, 1}
	pop := makePopulation(t, dims, []uint32{1, 1, 1, 2, 2})
	intensity := makeIntensity(t, dims, []float32{7, 1, 4, 9, 3})
	c, err := New(pop, meanDiff{}, Options{Intensity: intensity})
	if err != nil {
		t.Fatalf("unable to build cluster: %v", err)
	}
	ctx := c.Context()
	if m := ctx.Median(1); m != 4 {
		t.Errorf("expected median 4, got %f", m)
	}
	if m := ctx.Median(2); m != 3 {
		t.Errorf("expected lower median 3 for even count, got %f", m)
	}
	if m := ctx.Median(9); !math.IsNaN(m) {
		t.Errorf("expected NaN median for missing region, got %f", m)
	}
}
