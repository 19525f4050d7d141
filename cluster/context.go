package cluster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// Node is a live region of the cluster.  The background node has label 0 and no
// voxels.
type Node struct {
	Label   uint32
	Scale   int
	Quality float64

	voxels     []int // raster indices
	interfaces map[uint32]*Interface
}

func newNode(label uint32) *Node {
	return &Node{Label: label, Scale: labels.NoScale, interfaces: make(map[uint32]*Interface)}
}

// IsBackground returns true for the virtual background region.
func (n *Node) IsBackground() bool {
	return n.Label == labels.Background
}

// Size returns the number of voxels.
func (n *Node) Size() int {
	return len(n.voxels)
}

// Indices returns the raster indices of the region's voxels.  The slice must not be
// modified.
func (n *Node) Indices() []int {
	return n.voxels
}

// Neighbors returns the labels of adjacent regions in ascending order.
func (n *Node) Neighbors() []uint32 {
	lbls := make([]uint32, 0, len(n.interfaces))
	for label := range n.interfaces {
		lbls = append(lbls, label)
	}
	sort.Slice(lbls, func(i, j int) bool { return lbls[i] < lbls[j] })
	return lbls
}

// Medians supplies median intensities of regions, usually from a cache invalidated on
// fusion.
type Medians interface {
	Median(ctx *Context, label uint32) float64
}

// Context is the explicit view of cluster state passed to criteria, comparators, and
// caches.
type Context struct {
	dims      dvid.Dims
	calib     dvid.Calibration
	mask      *dvid.Mask
	intensity *dvid.Volume
	medians   Medians
	raster    *labels.Raster
	nodes     map[uint32]*Node
}

// Dims returns the extent of the partition.
func (ctx *Context) Dims() dvid.Dims {
	return ctx.dims
}

// Calibration returns the voxel calibration.
func (ctx *Context) Calibration() dvid.Calibration {
	return ctx.calib
}

// Intensity returns the intensity map, which may be nil.
func (ctx *Context) Intensity() *dvid.Volume {
	return ctx.intensity
}

// Node returns the live region with the given label or nil.
func (ctx *Context) Node(label uint32) *Node {
	return ctx.nodes[label]
}

// Label returns the live label of a point, or background for points that are outside
// the volume, outside the mask, or unlabeled.
func (ctx *Context) Label(p dvid.Point3d) uint32 {
	if !ctx.mask.Contains(ctx.dims, p) {
		return labels.Background
	}
	return ctx.raster.Label(p)
}

// Values returns the map values at the in-bounds points.
func (ctx *Context) Values(vol *dvid.Volume, pts []dvid.Point3d) []float64 {
	values := make([]float64, 0, len(pts))
	for _, p := range pts {
		if ctx.dims.Contains(p) {
			values = append(values, vol.At(ctx.dims.Index(p)))
		}
	}
	return values
}

// Mean returns the mean of a map over a region, or NaN for the background or an empty
// region.
func (ctx *Context) Mean(vol *dvid.Volume, label uint32) float64 {
	n := ctx.nodes[label]
	if n == nil || n.Size() == 0 || vol == nil {
		return math.NaN()
	}
	values := make([]float64, n.Size())
	for i, index := range n.voxels {
		values[i] = vol.At(index)
	}
	return stat.Mean(values, nil)
}

// Median returns the median intensity of a region.  Without a Medians source the value
// is computed on every call.
func (ctx *Context) Median(label uint32) float64 {
	if ctx.medians != nil {
		return ctx.medians.Median(ctx, label)
	}
	return MedianOf(ctx.intensity, ctx.nodes[label])
}

// MedianOf computes the median of a map over a region.  NaN is returned when there is
// nothing to measure.
func MedianOf(vol *dvid.Volume, n *Node) float64 {
	if vol == nil || n == nil || n.Size() == 0 {
		return math.NaN()
	}
	values := make([]float64, n.Size())
	for i, index := range n.voxels {
		values[i] = vol.At(index)
	}
	sort.Float64s(values)
	return stat.Quantile(0.5, stat.Empirical, values, nil)
}
