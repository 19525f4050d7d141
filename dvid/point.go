package dvid

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Point3d is an ordered list of three 32-bit signed integers: x, y, z.
type Point3d [3]int32

// Bytes returns a byte representation of the Point3d in little endian format.
func (p Point3d) Bytes() []byte {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b[0:4], uint32(p[0]))
	binary.LittleEndian.PutUint32(b[4:8], uint32(p[1]))
	binary.LittleEndian.PutUint32(b[8:12], uint32(p[2]))
	return b
}

// PointFromBytes returns a Point3d from bytes.
func PointFromBytes(b []byte) (Point3d, error) {
	if len(b) != 12 {
		return Point3d{}, fmt.Errorf("Point3d should be 12 bytes, got %d bytes", len(b))
	}
	return Point3d{
		int32(binary.LittleEndian.Uint32(b[0:4])),
		int32(binary.LittleEndian.Uint32(b[4:8])),
		int32(binary.LittleEndian.Uint32(b[8:12])),
	}, nil
}

// SetMinimum sets the point to the minimum elements of current and passed points.
func (p *Point3d) SetMinimum(p2 Point3d) {
	for i := 0; i < 3; i++ {
		if p2[i] < p[i] {
			p[i] = p2[i]
		}
	}
}

// SetMaximum sets the point to the maximum elements of current and passed points.
func (p *Point3d) SetMaximum(p2 Point3d) {
	for i := 0; i < 3; i++ {
		if p2[i] > p[i] {
			p[i] = p2[i]
		}
	}
}

// Add returns the addition of two points.
func (p Point3d) Add(p2 Point3d) Point3d {
	return Point3d{p[0] + p2[0], p[1] + p2[1], p[2] + p2[2]}
}

// Sub returns the subtraction of the passed point from the receiver.
func (p Point3d) Sub(p2 Point3d) Point3d {
	return Point3d{p[0] - p2[0], p[1] - p2[1], p[2] - p2[2]}
}

// Less returns true if the receiver precedes the passed point in x, then y, then z order.
func (p Point3d) Less(p2 Point3d) bool {
	if p[0] != p2[0] {
		return p[0] < p2[0]
	}
	if p[1] != p2[1] {
		return p[1] < p2[1]
	}
	return p[2] < p2[2]
}

// Compare returns -1, 0, or +1 using the same x, then y, then z order as Less.
func (p Point3d) Compare(p2 Point3d) int {
	for i := 0; i < 3; i++ {
		switch {
		case p[i] < p2[i]:
			return -1
		case p[i] > p2[i]:
			return 1
		}
	}
	return 0
}

// DistanceSquared returns the squared euclidean distance in voxel units.
func (p Point3d) DistanceSquared(p2 Point3d) int64 {
	dx := int64(p[0] - p2[0])
	dy := int64(p[1] - p2[1])
	dz := int64(p[2] - p2[2])
	return dx*dx + dy*dy + dz*dz
}

// Distance returns the integer distance (rounding down).
func (p Point3d) Distance(p2 Point3d) int32 {
	return int32(math.Sqrt(float64(p.DistanceSquared(p2))))
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}
