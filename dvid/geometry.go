package dvid

import (
	"fmt"
	"math"
)

// Dims gives the voxel extent of a volume along x, y, and z.  Voxels are laid out in
// ZYX raster order, i.e., the index of (x,y,z) is x + nx*(y + ny*z).
type Dims [3]int32

// NumVoxels returns the number of voxels within the extent.
func (d Dims) NumVoxels() int {
	return int(d[0]) * int(d[1]) * int(d[2])
}

// Is2D returns true if the extent is a single plane.
func (d Dims) Is2D() bool {
	return d[2] == 1
}

// Contains returns true if the point lies within the extent.
func (d Dims) Contains(p Point3d) bool {
	return p[0] >= 0 && p[1] >= 0 && p[2] >= 0 && p[0] < d[0] && p[1] < d[1] && p[2] < d[2]
}

// Index returns the raster index of a point.  The point is not bounds checked.
func (d Dims) Index(p Point3d) int {
	return int(p[0]) + int(d[0])*(int(p[1])+int(d[1])*int(p[2]))
}

// Point returns the coordinate of a raster index.
func (d Dims) Point(i int) Point3d {
	nxy := int(d[0]) * int(d[1])
	z := i / nxy
	rem := i % nxy
	return Point3d{int32(rem % int(d[0])), int32(rem / int(d[0])), int32(z)}
}

// Check returns a ConfigurationError if any extent is not positive.
func (d Dims) Check() error {
	if d[0] <= 0 || d[1] <= 0 || d[2] <= 0 {
		return NewConfigurationError("volume dimensions must be positive, got %s", d)
	}
	return nil
}

func (d Dims) String() string {
	return fmt.Sprintf("%d x %d x %d", d[0], d[1], d[2])
}

// Calibration gives the physical size of a voxel in the XY plane and along Z.
type Calibration struct {
	XY float64
	Z  float64
}

// DefaultCalibration is isotropic unit calibration.
var DefaultCalibration = Calibration{XY: 1, Z: 1}

// Anisotropy returns the ratio of Z to XY voxel size, or 1 if undefined.
func (c Calibration) Anisotropy() float64 {
	if c.XY <= 0 || c.Z <= 0 {
		return 1
	}
	return c.Z / c.XY
}

// ConnectivityRadius returns the ellipsoid radii used to build a neighborhood.  Low
// connectivity gives the face neighbors only (6 in 3d, 4 in 2d); otherwise the full
// cube is covered (26 in 3d, 8 in 2d).  A 2d volume always has a zero Z radius.
func ConnectivityRadius(lowConnectivity, is2D bool) (radiusXY, radiusZ float64) {
	if lowConnectivity {
		radiusXY = 1
	} else {
		radiusXY = math.Sqrt(3)
	}
	if is2D {
		return radiusXY, 0
	}
	return radiusXY, radiusXY
}

// Neighborhood returns the offsets, excluding the origin, within the ellipsoid of the
// given radii.  Offsets come out in ZYX raster order so iteration is deterministic.
func Neighborhood(radiusXY, radiusZ float64) []Point3d {
	rxy := int32(math.Floor(radiusXY))
	rz := int32(math.Floor(radiusZ))
	var offsets []Point3d
	for dz := -rz; dz <= rz; dz++ {
		for dy := -rxy; dy <= rxy; dy++ {
			for dx := -rxy; dx <= rxy; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				d := float64(dx*dx+dy*dy) / (radiusXY * radiusXY)
				if radiusZ > 0 {
					d += float64(dz*dz) / (radiusZ * radiusZ)
				}
				if d <= 1.0+1e-9 {
					offsets = append(offsets, Point3d{dx, dy, dz})
				}
			}
		}
	}
	return offsets
}
