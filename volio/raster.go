package volio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// rasterHeaderSize is the byte size of the dims header preceding the serialized labels.
const rasterHeaderSize = 12

// EncodeRaster returns the dims header followed by the serialized, checksummed labels.
func EncodeRaster(raster *labels.Raster, compress dvid.Compression) ([]byte, error) {
	data, err := dvid.SerializeData(raster.Bytes(), compress, dvid.CRC32)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, rasterHeaderSize, rasterHeaderSize+len(data))
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], uint32(raster.Dims[i]))
	}
	return append(buf, data...), nil
}

// DecodeRaster parses the output of EncodeRaster.
func DecodeRaster(b []byte) (*labels.Raster, error) {
	if len(b) < rasterHeaderSize {
		return nil, fmt.Errorf("label raster too short: %d bytes", len(b))
	}
	var dims dvid.Dims
	for i := 0; i < 3; i++ {
		dims[i] = int32(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	if err := dims.Check(); err != nil {
		return nil, err
	}
	data, _, err := dvid.DeserializeData(b[rasterHeaderSize:])
	if err != nil {
		return nil, err
	}
	return labels.RasterFromBytes(dims, data)
}

// WriteRaster writes an encoded label raster.
func WriteRaster(w io.Writer, raster *labels.Raster, compress dvid.Compression) error {
	b, err := EncodeRaster(raster, compress)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadRaster reads a label raster written by WriteRaster.
func ReadRaster(r io.Reader) (*labels.Raster, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeRaster(b)
}

// WriteRasterFile writes an encoded label raster to a file.
func WriteRasterFile(path string, raster *labels.Raster, compress dvid.Compression) error {
	b, err := EncodeRaster(raster, compress)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ReadRasterFile reads a label raster file.
func ReadRasterFile(path string) (*labels.Raster, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raster, err := DecodeRaster(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return raster, nil
}
