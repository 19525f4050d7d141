package cluster

import (
	"fmt"

	"github.com/janelia-flyem/seedseg/dvid"
)

// VoxelPair is one pair of touching voxels on a border.  A lies in the interface's
// lower-labeled region, B in the higher-labeled one.
type VoxelPair struct {
	A, B dvid.Point3d
}

// Interface is the relationship between two adjacent regions.  A is always the lower
// label.
type Interface struct {
	A, B  uint32
	Pairs []VoxelPair
	Value float64

	queued  bool
	retired bool
}

func newInterface(a, b uint32) *Interface {
	if a > b {
		a, b = b, a
	}
	return &Interface{A: a, B: b}
}

// AddPair records two touching voxels, pa in region la and pb in region lb.  The pair is
// stored oriented to the interface.
func (it *Interface) AddPair(la uint32, pa dvid.Point3d, lb uint32, pb dvid.Point3d) {
	if la == it.A && lb == it.B {
		it.Pairs = append(it.Pairs, VoxelPair{A: pa, B: pb})
	} else {
		it.Pairs = append(it.Pairs, VoxelPair{A: pb, B: pa})
	}
}

// Other returns the label on the other side of the given one.
func (it *Interface) Other(label uint32) uint32 {
	if label == it.A {
		return it.B
	}
	return it.A
}

// Has returns true if the label is one of the interface's regions.
func (it *Interface) Has(label uint32) bool {
	return it.A == label || it.B == label
}

// Retired returns true if the interface failed the fusion gate and neither of its
// regions has changed since.
func (it *Interface) Retired() bool {
	return it.retired
}

// Border returns the distinct voxels of the border on the side of the given label.
func (it *Interface) Border(label uint32) []dvid.Point3d {
	seen := make(map[dvid.Point3d]struct{}, len(it.Pairs))
	var pts []dvid.Point3d
	for _, pair := range it.Pairs {
		p := pair.A
		if label == it.B {
			p = pair.B
		}
		if _, found := seen[p]; !found {
			seen[p] = struct{}{}
			pts = append(pts, p)
		}
	}
	return pts
}

// Fold merges the pairs of another interface into this one.  The two interfaces must
// share one region; the other region of o has been absorbed into the other region of
// the receiver.
func (it *Interface) Fold(o *Interface) error {
	var shared uint32
	switch {
	case o.Has(it.A) && !o.Has(it.B):
		shared = it.A
	case o.Has(it.B) && !o.Has(it.A):
		shared = it.B
	default:
		return fmt.Errorf("cannot fold interface %s into %s: need exactly one shared region", o, it)
	}
	survivor := it.Other(shared)
	for _, pair := range o.Pairs {
		sharedPt, absorbedPt := pair.A, pair.B
		if o.B == shared {
			sharedPt, absorbedPt = pair.B, pair.A
		}
		it.AddPair(shared, sharedPt, survivor, absorbedPt)
	}
	o.Pairs = nil
	return nil
}

// relabel replaces one of the interface's labels, keeping pairs oriented.
func (it *Interface) relabel(from, to uint32) {
	keep := it.Other(from)
	flip := (keep < to) != (keep == it.A)
	if keep < to {
		it.A, it.B = keep, to
	} else {
		it.A, it.B = to, keep
	}
	if flip {
		for i, pair := range it.Pairs {
			it.Pairs[i] = VoxelPair{A: pair.B, B: pair.A}
		}
	}
}

func (it *Interface) String() string {
	return fmt.Sprintf("interface %d-%d (%d pairs, value %g)", it.A, it.B, len(it.Pairs), it.Value)
}

type key struct {
	a, b uint32
}

func makeKey(a, b uint32) key {
	if a > b {
		a, b = b, a
	}
	return key{a, b}
}
