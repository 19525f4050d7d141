package dvid

import (
	. "github.com/janelia-flyem/go/gocheck"
)

type VolumeTest struct {
	pts  []Point3d
	rles RLEs
}

var _ = Suite(&VolumeTest{})

func (s *VolumeTest) SetUpSuite(c *C) {
	s.pts = []Point3d{
		{2, 3, 4}, {3, 3, 4}, {4, 3, 4},
		{7, 3, 4},
		{0, 4, 4}, {1, 4, 4},
		{5, 0, 5},
	}
	s.rles = RLEs{
		NewRLE(Point3d{2, 3, 4}, 3),
		NewRLE(Point3d{7, 3, 4}, 1),
		NewRLE(Point3d{0, 4, 4}, 2),
		NewRLE(Point3d{5, 0, 5}, 1),
	}
}

func (s *VolumeTest) TestRLEsFromPoints(c *C) {
	rles := RLEsFromPoints(s.pts)
	c.Assert(rles, DeepEquals, s.rles)
	c.Assert(rles.Points(), DeepEquals, s.pts)

	numVoxels, numRuns := rles.Stats()
	c.Assert(numVoxels, Equals, int32(7))
	c.Assert(numRuns, Equals, int32(4))
}

func (s *VolumeTest) TestRLEMarshaling(c *C) {
	serialization, err := s.rles.MarshalBinary()
	c.Assert(err, IsNil)
	c.Assert(serialization, HasLen, 64)

	var obtained RLEs
	c.Assert(obtained.UnmarshalBinary(serialization), IsNil)
	c.Assert(obtained, DeepEquals, s.rles)

	c.Assert(obtained.UnmarshalBinary(serialization[:10]), NotNil)
}
