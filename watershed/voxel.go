package watershed

import (
	"math"

	"github.com/google/btree"

	"github.com/janelia-flyem/seedseg/dvid"
)

// Direction gives the sense of growth through the energy map.
type Direction uint8

const (
	// Decreasing grows from high energy toward low energy: the frontier pops its
	// highest-valued voxel first.
	Decreasing Direction = iota

	// Increasing grows from low energy toward high energy: the frontier pops its
	// lowest-valued voxel first.
	Increasing
)

func (d Direction) String() string {
	if d == Increasing {
		return "increasing"
	}
	return "decreasing"
}

// Voxel is a frontier entry: a coordinate, its raster index, and the value sampled from
// the energy map at insertion time.  Identity is by coordinate.
type Voxel struct {
	P     dvid.Point3d
	Index int
	Value float64
}

// voxelOrder returns the frontier comparator for a direction.  It is built once per run.
// Ties in value are broken by coordinate so the order is total.
func voxelOrder(dir Direction) btree.LessFunc[Voxel] {
	if dir == Increasing {
		return func(a, b Voxel) bool {
			if a.Value != b.Value {
				return a.Value < b.Value
			}
			return a.P.Less(b.P)
		}
	}
	return func(a, b Voxel) bool {
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return a.P.Less(b.P)
	}
}

// frontier is the ordered set of voxels awaiting processing.  A voxel is queued at most
// once per run.
type frontier struct {
	tree   *btree.BTreeG[Voxel]
	queued []bool
	pushes int
	pops   int
}

func newFrontier(dir Direction, numVoxels int) *frontier {
	return &frontier{
		tree:   btree.NewG[Voxel](32, voxelOrder(dir)),
		queued: make([]bool, numVoxels),
	}
}

// push adds a voxel unless it was already queued or its value is not a number.
func (f *frontier) push(v Voxel) bool {
	if f.queued[v.Index] || math.IsNaN(v.Value) {
		return false
	}
	f.queued[v.Index] = true
	f.tree.ReplaceOrInsert(v)
	f.pushes++
	return true
}

func (f *frontier) isQueued(i int) bool {
	return f.queued[i]
}

// pop removes and returns the extremal voxel.
func (f *frontier) pop() (Voxel, bool) {
	v, ok := f.tree.DeleteMin()
	if ok {
		f.pops++
	}
	return v, ok
}

func (f *frontier) Len() int {
	return f.tree.Len()
}
