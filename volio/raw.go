package volio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/janelia-flyem/seedseg/dvid"
)

// ReadVolume reads little-endian float32 values in ZYX raster order.
func ReadVolume(r io.Reader, dims dvid.Dims) (*dvid.Volume, error) {
	if err := dims.Check(); err != nil {
		return nil, err
	}
	data := make([]float32, dims.NumVoxels())
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("unable to read %s volume: %v", dims, err)
	}
	return dvid.NewVolumeFromData(dims, data)
}

// ReadVolumeFile reads a raw volume from a file and sets its calibration.
func ReadVolumeFile(path string, dims dvid.Dims, calib dvid.Calibration) (*dvid.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vol, err := ReadVolume(bufio.NewReader(f), dims)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	vol.Calib = calib
	return vol, nil
}

// WriteVolume writes a volume as little-endian float32 values.
func WriteVolume(w io.Writer, vol *dvid.Volume) error {
	return binary.Write(w, binary.LittleEndian, vol.Data)
}

// ReadMaskFile reads a mask stored as one byte per voxel, nonzero meaning valid.
func ReadMaskFile(path string, dims dvid.Dims) (*dvid.Mask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mask, err := dvid.NewMaskFromBytes(dims, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return mask, nil
}
