package splitmerge

import (
	"math"

	"github.com/janelia-flyem/seedseg/cluster"
)

// Comparator orders candidate interfaces.  It returns true if a comes before b.
type Comparator func(ctx *cluster.Context, a, b *cluster.Interface) bool

func canonicalLess(a, b *cluster.Interface) bool {
	if a.A != b.A {
		return a.A < b.A
	}
	return a.B < b.B
}

func nodeSize(ctx *cluster.Context, label uint32) int {
	n := ctx.Node(label)
	if n == nil || n.IsBackground() {
		return math.MaxInt
	}
	return n.Size()
}

// BySize puts interfaces touching the smallest region first.
func BySize(ctx *cluster.Context, a, b *cluster.Interface) bool {
	sa := min(nodeSize(ctx, a.A), nodeSize(ctx, a.B))
	sb := min(nodeSize(ctx, b.A), nodeSize(ctx, b.B))
	if sa != sb {
		return sa < sb
	}
	return canonicalLess(a, b)
}

// ByIntensity orders interfaces by the median intensities of their regions.  With
// highest set, the interface whose brighter region is brightest comes first; otherwise
// the one whose darker region is darkest.  Unmeasurable interfaces come last.
func ByIntensity(highest bool) Comparator {
	extreme := func(ctx *cluster.Context, it *cluster.Interface) float64 {
		ma, mb := ctx.Median(it.A), ctx.Median(it.B)
		switch {
		case math.IsNaN(ma):
			return mb
		case math.IsNaN(mb):
			return ma
		case highest:
			return math.Max(ma, mb)
		}
		return math.Min(ma, mb)
	}
	return func(ctx *cluster.Context, a, b *cluster.Interface) bool {
		va, vb := extreme(ctx, a), extreme(ctx, b)
		aNaN, bNaN := math.IsNaN(va), math.IsNaN(vb)
		switch {
		case aNaN != bNaN:
			return bNaN
		case !aNaN && va != vb:
			if highest {
				return va > vb
			}
			return va < vb
		}
		return canonicalLess(a, b)
	}
}
