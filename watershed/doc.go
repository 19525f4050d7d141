/*
	Package watershed implements seeded, priority-ordered region growing over one or more
	co-registered scalar maps.

	Growth processes exactly one frontier voxel at a time in a total order: by sampled
	value (descending when growing toward decreasing energy, ascending otherwise), then by
	coordinate.  Decision points are pluggable:

		PropagationCriterion	whether growth may extend from a voxel to a neighbor
		FusionCriterion		whether two touching spots should fuse during growth
		Score			which neighboring spot claims a contested voxel (Normal mode)

	A Transform or MultiScale instance must not be used from more than one goroutine.
	Independent instances share nothing but their read-only inputs and may run in parallel.
*/
package watershed
