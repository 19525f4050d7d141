/*
	This file supports serialization/deserialization and compression of data.
*/

package dvid

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Compression is the format of compression for storing data.
// NOTE: Should be no more than 8 (3 bits) of compression types.
type Compression uint8

const (
	Uncompressed Compression = 0
	Snappy       Compression = 1
	Zstd         Compression = 2
)

func (compress Compression) String() string {
	switch compress {
	case Uncompressed:
		return "No compression"
	case Snappy:
		return "Go Snappy compression"
	case Zstd:
		return "Zstandard compression"
	default:
		return "Unknown compression"
	}
}

// CompressionFromString parses a configured compression name ("none", "snappy", "zstd").
func CompressionFromString(s string) (Compression, error) {
	switch s {
	case "", "none":
		return Uncompressed, nil
	case "snappy":
		return Snappy, nil
	case "zstd":
		return Zstd, nil
	default:
		return Uncompressed, fmt.Errorf("unknown compression %q", s)
	}
}

// Checksum is the type of checksum employed for error checking stored data.
// NOTE: Should be no more than 4 (2 bits) of checksum types.
type Checksum uint8

const (
	NoChecksum Checksum = 0
	CRC32      Checksum = 1
)

func (checksum Checksum) String() string {
	switch checksum {
	case NoChecksum:
		return "No checksum"
	case CRC32:
		return "CRC32 checksum"
	default:
		return "Unknown checksum"
	}
}

// SerializationFormat is a single byte combining both compression and checksum methods.
type SerializationFormat uint8

func EncodeSerializationFormat(compress Compression, checksum Checksum) SerializationFormat {
	a := (uint8(compress) & 0x07) << 5
	b := (uint8(checksum) & 0x03) << 3
	return SerializationFormat(a | b)
}

func DecodeSerializationFormat(s SerializationFormat) (compress Compression, checksum Checksum) {
	compress = Compression(uint8(s) >> 5)
	checksum = Checksum((uint8(s) >> 3) & 0x03)
	return
}

// SerializeData serializes a slice of bytes using optional compression, checksum.
// The format byte is written first, then any checksum, then the payload.
func SerializeData(data []byte, compress Compression, checksum Checksum) ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte(byte(EncodeSerializationFormat(compress, checksum)))

	var byteData []byte
	switch compress {
	case Uncompressed:
		byteData = data
	case Snappy:
		byteData = snappy.Encode(nil, data)
	case Zstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		byteData = enc.EncodeAll(data, nil)
		enc.Close()
	default:
		return nil, fmt.Errorf("Illegal compression (%s) during serialization", compress)
	}

	switch checksum {
	case NoChecksum:
	case CRC32:
		crcChecksum := crc32.ChecksumIEEE(byteData)
		if err := binary.Write(&buffer, binary.LittleEndian, crcChecksum); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("Illegal checksum (%s) in SerializeData()", checksum)
	}
	buffer.Write(byteData)
	return buffer.Bytes(), nil
}

// DeserializeData deserializes a slice of bytes using stored compression, checksum.
func DeserializeData(s []byte) (data []byte, compress Compression, err error) {
	if len(s) == 0 {
		return nil, Uncompressed, fmt.Errorf("cannot deserialize empty data")
	}
	var checksum Checksum
	compress, checksum = DecodeSerializationFormat(SerializationFormat(s[0]))
	cdata := s[1:]

	switch checksum {
	case NoChecksum:
	case CRC32:
		if len(cdata) < 4 {
			return nil, compress, fmt.Errorf("serialized data too short for CRC32 checksum")
		}
		storedCrc32 := binary.LittleEndian.Uint32(cdata[0:4])
		cdata = cdata[4:]
		if crcChecksum := crc32.ChecksumIEEE(cdata); crcChecksum != storedCrc32 {
			return nil, compress, fmt.Errorf("Bad checksum.  Stored %x got %x", storedCrc32, crcChecksum)
		}
	default:
		return nil, compress, fmt.Errorf("Illegal checksum in deserializing data")
	}

	switch compress {
	case Uncompressed:
		data = cdata
	case Snappy:
		data, err = snappy.Decode(nil, cdata)
	case Zstd:
		var dec *zstd.Decoder
		if dec, err = zstd.NewReader(nil); err != nil {
			return nil, compress, err
		}
		data, err = dec.DecodeAll(cdata, nil)
		dec.Close()
	default:
		err = fmt.Errorf("Illegal compression format (%d) in deserialization", compress)
	}
	return
}
