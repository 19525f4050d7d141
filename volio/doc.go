/*
	Package volio reads and writes the files around a segmentation run: raw scalar
	volumes and masks, JSON seed lists, serialized label rasters, and msgpack region
	summaries.
*/
package volio
