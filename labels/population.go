package labels

import (
	"fmt"
	"sort"

	"github.com/janelia-flyem/seedseg/dvid"
)

// Population is a set of regions over a common raster.  Region labels match the
// raster contents.
type Population struct {
	Dims    dvid.Dims
	Calib   dvid.Calibration
	Regions []*Region // ascending label
	Raster  *Raster
}

// PopulationFromRaster builds one region per distinct non-background label.
func PopulationFromRaster(raster *Raster, calib dvid.Calibration) *Population {
	voxels := make(map[uint32][]dvid.Point3d)
	for i := 0; i < raster.Len(); i++ {
		label := raster.At(i)
		if label == Background {
			continue
		}
		voxels[label] = append(voxels[label], raster.Dims.Point(i))
	}
	pop := &Population{Dims: raster.Dims, Calib: calib, Raster: raster}
	for label, pts := range voxels {
		// Raster traversal already yields raster order.
		pop.Regions = append(pop.Regions, &Region{
			Label:  label,
			Scale:  NoScale,
			Voxels: pts,
			Calib:  calib,
			Is2D:   raster.Dims.Is2D(),
		})
	}
	pop.sortRegions()
	return pop
}

func (pop *Population) sortRegions() {
	sort.Slice(pop.Regions, func(i, j int) bool { return pop.Regions[i].Label < pop.Regions[j].Label })
}

// NumRegions returns the number of regions.
func (pop *Population) NumRegions() int {
	return len(pop.Regions)
}

// Region returns the region with the given label or nil.
func (pop *Population) Region(label uint32) *Region {
	i := sort.Search(len(pop.Regions), func(i int) bool { return pop.Regions[i].Label >= label })
	if i < len(pop.Regions) && pop.Regions[i].Label == label {
		return pop.Regions[i]
	}
	return nil
}

// Labels returns the region labels in ascending order.
func (pop *Population) Labels() []uint32 {
	lbls := make([]uint32, len(pop.Regions))
	for i, r := range pop.Regions {
		lbls[i] = r.Label
	}
	return lbls
}

// Compact relabels regions and raster to the dense sequence 1..N, preserving the
// relative order of labels.  The returned mapping goes from old to new labels.
func (pop *Population) Compact() map[uint32]uint32 {
	pop.sortRegions()
	mapping := make(map[uint32]uint32, len(pop.Regions))
	dense := true
	for i, r := range pop.Regions {
		newLabel := uint32(i + 1)
		mapping[r.Label] = newLabel
		if r.Label != newLabel {
			dense = false
		}
		r.Label = newLabel
	}
	if !dense && pop.Raster != nil {
		pop.Raster.Relabel(mapping)
	}
	return mapping
}

// Check verifies that the raster and the regions describe the same partition.
func (pop *Population) Check() error {
	if pop.Raster == nil {
		return fmt.Errorf("population has no raster")
	}
	counts := pop.Raster.Counts()
	if len(counts) != len(pop.Regions) {
		return fmt.Errorf("raster has %d labels but population has %d regions", len(counts), len(pop.Regions))
	}
	for _, r := range pop.Regions {
		if counts[r.Label] != r.NumVoxels() {
			return fmt.Errorf("region %d has %d voxels but raster holds %d", r.Label, r.NumVoxels(), counts[r.Label])
		}
		for _, p := range r.Voxels {
			if pop.Raster.Label(p) != r.Label {
				return fmt.Errorf("region %d voxel %s has raster label %d", r.Label, p, pop.Raster.Label(p))
			}
		}
	}
	return nil
}

// Flatten combines populations over the same extent, e.g., one per scale, into a single
// population.  Labels are renumbered consecutively in population order.  Populations
// must not claim the same voxel.
func Flatten(pops []*Population) (*Population, error) {
	if len(pops) == 0 {
		return nil, fmt.Errorf("no populations to flatten")
	}
	dims := pops[0].Dims
	flat := &Population{Dims: dims, Calib: pops[0].Calib, Raster: NewRaster(dims)}
	var next uint32 = 1
	for n, pop := range pops {
		if pop.Dims != dims {
			return nil, dvid.NewConfigurationError("population %d has extent %s, expected %s", n, pop.Dims, dims)
		}
		for _, r := range pop.Regions {
			flatRegion := *r
			flatRegion.Label = next
			flatRegion.Voxels = append([]dvid.Point3d(nil), r.Voxels...)
			for _, p := range r.Voxels {
				i := dims.Index(p)
				if prev := flat.Raster.At(i); prev != Background {
					return nil, fmt.Errorf("voxel %s claimed by flattened regions %d and %d", p, prev, next)
				}
				flat.Raster.Set(i, next)
			}
			flat.Regions = append(flat.Regions, &flatRegion)
			next++
		}
	}
	return flat, nil
}
