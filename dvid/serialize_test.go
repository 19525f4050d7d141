package dvid

import (
	"bytes"

	. "github.com/janelia-flyem/go/gocheck"
)

type SerializeSuite struct{}

var _ = Suite(&SerializeSuite{})

func (s *SerializeSuite) TestSerializeData(c *C) {
	data := bytes.Repeat([]byte("label raster payload "), 200)
	for _, compress := range []Compression{Uncompressed, Snappy, Zstd} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			ser, err := SerializeData(data, compress, checksum)
			c.Assert(err, IsNil)
			got, gotCompress, err := DeserializeData(ser)
			c.Assert(err, IsNil)
			c.Assert(gotCompress, Equals, compress)
			c.Assert(bytes.Equal(got, data), Equals, true)
		}
	}
}

func (s *SerializeSuite) TestBadChecksum(c *C) {
	ser, err := SerializeData([]byte("some voxels"), Snappy, CRC32)
	c.Assert(err, IsNil)
	ser[len(ser)-1] ^= 0xff
	_, _, err = DeserializeData(ser)
	c.Assert(err, ErrorMatches, "Bad checksum.*")
}

func (s *SerializeSuite) TestCompressionNames(c *C) {
	compress, err := CompressionFromString("zstd")
	c.Assert(err, IsNil)
	c.Assert(compress, Equals, Zstd)
	_, err = CompressionFromString("lzma")
	c.Assert(err, NotNil)
}
