/*
	Package cluster builds the region adjacency graph of a label partition and drives a
	best-first merge over it.

	Exactly one Interface exists per pair of voxel-adjacent regions.  A Criterion turns
	each interface into a scalar value; the merge loop repeatedly takes the extremal
	interface under a strict total order (value, then the canonical label pair), asks the
	fusion gate, and either fuses the two regions or retires the interface until one of
	its regions changes.

	With Options.Background set, a virtual region with label 0 stands for every voxel
	that is unlabeled, outside the mask, or outside the volume.  Its side of a border
	pair may therefore hold coordinates outside the volume.
*/
package cluster
