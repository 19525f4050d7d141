package volio

import (
	"github.com/tinylib/msgp/msgp"

	"github.com/janelia-flyem/seedseg/dvid"
)

// Summaries are encoded as msgpack maps keyed by field name.  Unknown keys are skipped
// so newer minor versions stay readable.

func appendPoint(b []byte, p dvid.Point3d) []byte {
	b = msgp.AppendArrayHeader(b, 3)
	for _, v := range p {
		b = msgp.AppendInt32(b, v)
	}
	return b
}

func readPoint(bts []byte) (p dvid.Point3d, o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if sz != 3 {
		err = msgp.ArrayError{Wanted: 3, Got: sz}
		return
	}
	for i := range p {
		p[i], bts, err = msgp.ReadInt32Bytes(bts)
		if err != nil {
			return
		}
	}
	o = bts
	return
}

const pointMsgsize = msgp.ArrayHeaderSize + 3*msgp.Int32Size

// MarshalMsg implements msgp.Marshaler
func (z *RegionSummary) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 8)
	o = msgp.AppendString(o, "Label")
	o = msgp.AppendUint32(o, z.Label)
	o = msgp.AppendString(o, "Scale")
	o = msgp.AppendInt(o, z.Scale)
	o = msgp.AppendString(o, "NumVoxels")
	o = msgp.AppendInt(o, z.NumVoxels)
	o = msgp.AppendString(o, "Quality")
	o = msgp.AppendFloat64(o, z.Quality)
	o = msgp.AppendString(o, "Min")
	o = appendPoint(o, z.Min)
	o = msgp.AppendString(o, "Max")
	o = appendPoint(o, z.Max)
	o = msgp.AppendString(o, "Centroid")
	o = msgp.AppendArrayHeader(o, 3)
	for _, c := range z.Centroid {
		o = msgp.AppendFloat64(o, c)
	}
	o = msgp.AppendString(o, "RLEs")
	o = msgp.AppendBytes(o, z.RLEs)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *RegionSummary) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for sz > 0 {
		sz--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		switch msgp.UnsafeString(field) {
		case "Label":
			z.Label, bts, err = msgp.ReadUint32Bytes(bts)
		case "Scale":
			z.Scale, bts, err = msgp.ReadIntBytes(bts)
		case "NumVoxels":
			z.NumVoxels, bts, err = msgp.ReadIntBytes(bts)
		case "Quality":
			z.Quality, bts, err = msgp.ReadFloat64Bytes(bts)
		case "Min":
			z.Min, bts, err = readPoint(bts)
		case "Max":
			z.Max, bts, err = readPoint(bts)
		case "Centroid":
			var n uint32
			n, bts, err = msgp.ReadArrayHeaderBytes(bts)
			if err == nil && n != 3 {
				err = msgp.ArrayError{Wanted: 3, Got: n}
			}
			for i := 0; err == nil && i < 3; i++ {
				z.Centroid[i], bts, err = msgp.ReadFloat64Bytes(bts)
			}
		case "RLEs":
			z.RLEs, bts, err = msgp.ReadBytesBytes(bts, z.RLEs)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			err = msgp.WrapError(err, string(field))
			return
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *RegionSummary) Msgsize() (s int) {
	s = 1 + 6 + msgp.Uint32Size + 6 + msgp.IntSize + 10 + msgp.IntSize + 8 + msgp.Float64Size +
		4 + pointMsgsize + 4 + pointMsgsize + 9 + msgp.ArrayHeaderSize + 3*msgp.Float64Size +
		5 + msgp.BytesPrefixSize + len(z.RLEs)
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *SummaryFile) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 5)
	o = msgp.AppendString(o, "Version")
	o = msgp.AppendString(o, z.Version)
	o = msgp.AppendString(o, "RunID")
	o = msgp.AppendString(o, z.RunID)
	o = msgp.AppendString(o, "Job")
	o = msgp.AppendString(o, z.Job)
	o = msgp.AppendString(o, "Dims")
	o = appendPoint(o, dvid.Point3d(z.Dims))
	o = msgp.AppendString(o, "Regions")
	o = msgp.AppendArrayHeader(o, uint32(len(z.Regions)))
	for i := range z.Regions {
		o, err = z.Regions[i].MarshalMsg(o)
		if err != nil {
			err = msgp.WrapError(err, "Regions", i)
			return
		}
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *SummaryFile) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for sz > 0 {
		sz--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		switch msgp.UnsafeString(field) {
		case "Version":
			z.Version, bts, err = msgp.ReadStringBytes(bts)
		case "RunID":
			z.RunID, bts, err = msgp.ReadStringBytes(bts)
		case "Job":
			z.Job, bts, err = msgp.ReadStringBytes(bts)
		case "Dims":
			var p dvid.Point3d
			p, bts, err = readPoint(bts)
			z.Dims = dvid.Dims(p)
		case "Regions":
			var n uint32
			n, bts, err = msgp.ReadArrayHeaderBytes(bts)
			if err != nil {
				break
			}
			if cap(z.Regions) >= int(n) {
				z.Regions = z.Regions[:n]
			} else {
				z.Regions = make([]RegionSummary, n)
			}
			for i := range z.Regions {
				bts, err = z.Regions[i].UnmarshalMsg(bts)
				if err != nil {
					err = msgp.WrapError(err, "Regions", i)
					return
				}
			}
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			err = msgp.WrapError(err, string(field))
			return
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *SummaryFile) Msgsize() (s int) {
	s = 1 + 8 + msgp.StringPrefixSize + len(z.Version) + 6 + msgp.StringPrefixSize + len(z.RunID) +
		4 + msgp.StringPrefixSize + len(z.Job) + 5 + pointMsgsize + 8 + msgp.ArrayHeaderSize
	for i := range z.Regions {
		s += z.Regions[i].Msgsize()
	}
	return
}
