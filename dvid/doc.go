/*
	Package dvid provides types, constants, and functions that have no other dependencies
	and can be used by all packages within seedseg.  This includes voxel coordinates,
	volume geometry, scalar volumes and validity masks, run-length encodings, the error
	taxonomy, logging, and serialization.  Since these elements are used at multiple
	layers, we keep them here and allow reuse in layer-specific types through embedding.
*/
package dvid
