/*
	This file contains run-length encodings used to store sparse voxel membership.
*/

package dvid

import (
	"encoding/binary"
	"fmt"
)

// RLE is a single run-length encoded span with a start coordinate and length along X.
type RLE struct {
	start  Point3d
	length int32
}

func NewRLE(start Point3d, length int32) RLE {
	return RLE{start, length}
}

// Start returns the first voxel of the run.
func (rle RLE) Start() Point3d {
	return rle.start
}

// Length returns the number of voxels in the run.
func (rle RLE) Length() int32 {
	return rle.length
}

// RLEs are simply a slice of RLE.
type RLEs []RLE

// RLEsFromPoints encodes points, which must be sorted in ZYX raster order, as runs
// along X.
func RLEsFromPoints(pts []Point3d) RLEs {
	var rles RLEs
	for _, p := range pts {
		n := len(rles)
		if n > 0 {
			last := &rles[n-1]
			if last.start[1] == p[1] && last.start[2] == p[2] && last.start[0]+last.length == p[0] {
				last.length++
				continue
			}
		}
		rles = append(rles, RLE{p, 1})
	}
	return rles
}

// Points expands the runs into individual voxel coordinates.
func (rles RLEs) Points() []Point3d {
	numVoxels, _ := rles.Stats()
	pts := make([]Point3d, 0, numVoxels)
	for _, rle := range rles {
		pt := rle.start
		for i := int32(0); i < rle.length; i++ {
			pts = append(pts, pt)
			pt[0]++
		}
	}
	return pts
}

// MarshalBinary fulfills the encoding.BinaryMarshaler interface.
func (rles RLEs) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 16*len(rles))
	for i, rle := range rles {
		off := i * 16
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(rle.start[0]))
		binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(rle.start[1]))
		binary.LittleEndian.PutUint32(buf[off+8:off+12], uint32(rle.start[2]))
		binary.LittleEndian.PutUint32(buf[off+12:off+16], uint32(rle.length))
	}
	return buf, nil
}

// UnmarshalBinary fulfills the encoding.BinaryUnmarshaler interface.
func (rles *RLEs) UnmarshalBinary(b []byte) error {
	if len(b)%16 != 0 {
		return fmt.Errorf("RLE encoding # bytes is not divisible by 16: %d", len(b))
	}
	numRLEs := len(b) / 16
	*rles = make(RLEs, numRLEs)
	for i := 0; i < numRLEs; i++ {
		off := i * 16
		(*rles)[i].start[0] = int32(binary.LittleEndian.Uint32(b[off : off+4]))
		(*rles)[i].start[1] = int32(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		(*rles)[i].start[2] = int32(binary.LittleEndian.Uint32(b[off+8 : off+12]))
		(*rles)[i].length = int32(binary.LittleEndian.Uint32(b[off+12 : off+16]))
	}
	return nil
}

// Stats returns the total number of voxels and runs.
func (rles RLEs) Stats() (numVoxels, numRuns int32) {
	for _, rle := range rles {
		numVoxels += rle.length
	}
	return numVoxels, int32(len(rles))
}
