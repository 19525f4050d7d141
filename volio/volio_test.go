package volio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

func testRaster() *labels.Raster {
	dims := dvid.Dims{4, 3, 2}
	raster := labels.NewRaster(dims)
	ids := []uint32{
		1, 1, 2, 2,
		1, 0, 2, 2,
		3, 3, 3, 2,

		1, 1, 0, 0,
		3, 3, 0, 2,
		3, 3, 3, 3,
	}
	for i, label := range ids {
		raster.Set(i, label)
	}
	return raster
}

func TestVolumeRoundTrip(t *testing.T) {
	dims := dvid.Dims{3, 2, 2}
	vol := dvid.NewVolume(dims)
	for i := range vol.Data {
		vol.Data[i] = float32(i) * 0.5
	}
	vol.Data[5] = float32(math.Inf(-1))

	var buf bytes.Buffer
	if err := WriteVolume(&buf, vol); err != nil {
		t.Fatalf("unable to write volume: %v", err)
	}
	if buf.Len() != 4*dims.NumVoxels() {
		t.Fatalf("expected %d bytes, got %d", 4*dims.NumVoxels(), buf.Len())
	}
	got, err := ReadVolume(&buf, dims)
	if err != nil {
		t.Fatalf("unable to read volume: %v", err)
	}
	if diff := cmp.Diff(vol.Data, got.Data); diff != "" {
		t.Errorf("volume data (-want +got):\n%s", diff)
	}

	short := bytes.NewReader(make([]byte, 10))
	if _, err := ReadVolume(short, dims); err == nil {
		t.Errorf("expected error reading truncated volume")
	}
	if _, err := ReadVolume(bytes.NewReader(nil), dvid.Dims{0, 1, 1}); err == nil {
		t.Errorf("expected error on empty dims")
	}
}

func TestVolumeFiles(t *testing.T) {
	dir := t.TempDir()
	dims := dvid.Dims{2, 2, 1}
	raw := make([]byte, 16)
	for i, v := range []float32{1, 2, 3, 4} {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	volPath := filepath.Join(dir, "energy.raw")
	if err := os.WriteFile(volPath, raw, 0644); err != nil {
		t.Fatal(err)
	}
	calib := dvid.Calibration{XY: 4, Z: 40}
	vol, err := ReadVolumeFile(volPath, dims, calib)
	if err != nil {
		t.Fatalf("unable to read volume file: %v", err)
	}
	if vol.Calib != calib {
		t.Errorf("expected calibration %v, got %v", calib, vol.Calib)
	}
	if vol.Value(dvid.Point3d{1, 1, 0}) != 4 {
		t.Errorf("expected 4 at (1,1,0), got %f", vol.Value(dvid.Point3d{1, 1, 0}))
	}

	maskPath := filepath.Join(dir, "mask.raw")
	if err := os.WriteFile(maskPath, []byte{1, 0, 255, 1}, 0644); err != nil {
		t.Fatal(err)
	}
	mask, err := ReadMaskFile(maskPath, dims)
	if err != nil {
		t.Fatalf("unable to read mask: %v", err)
	}
	if n := mask.Count(dims); n != 3 {
		t.Errorf("expected 3 valid voxels, got %d", n)
	}
	if mask.Contains(dims, dvid.Point3d{1, 0, 0}) {
		t.Errorf("expected (1,0,0) to be masked out")
	}
	if _, err := ReadMaskFile(maskPath, dvid.Dims{3, 2, 1}); err == nil {
		t.Errorf("expected error on mask size mismatch")
	}
	if _, err := ReadVolumeFile(filepath.Join(dir, "missing.raw"), dims, calib); err == nil {
		t.Errorf("expected error on missing file")
	}
}

func TestSeeds(t *testing.T) {
	text := `{"seeds": [[[0,0,0],[1,0,0]], [[4,2,1]]]}`
	seeds, err := ReadSeeds(strings.NewReader(text))
	if err != nil {
		t.Fatalf("unable to read seeds: %v", err)
	}
	want := [][]dvid.Point3d{{{0, 0, 0}, {1, 0, 0}}, {{4, 2, 1}}}
	if diff := cmp.Diff(want, seeds); diff != "" {
		t.Errorf("seeds (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := WriteSeeds(&buf, seeds); err != nil {
		t.Fatalf("unable to write seeds: %v", err)
	}
	again, err := ReadSeeds(&buf)
	if err != nil {
		t.Fatalf("unable to reread seeds: %v", err)
	}
	if diff := cmp.Diff(want, again); diff != "" {
		t.Errorf("reread seeds (-want +got):\n%s", diff)
	}

	bad := []string{
		`not json`,
		`{"points": []}`,
		`{"seeds": [[[0,0]]]}`,
		`{"seeds": [[[0,0,-1]]]}`,
		`{"seeds": [[]]}`,
		`{"seeds": [[[0.5,0,0]]]}`,
	}
	for _, text := range bad {
		if _, err := ReadSeeds(strings.NewReader(text)); err == nil {
			t.Errorf("expected error reading seeds %s", text)
		}
	}

	path := filepath.Join(t.TempDir(), "seeds.json")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSeedsFile(path); err != nil {
		t.Errorf("unable to read seed file: %v", err)
	}
}

func TestRasterRoundTrip(t *testing.T) {
	raster := testRaster()
	for _, compress := range []dvid.Compression{dvid.Uncompressed, dvid.Snappy, dvid.Zstd} {
		var buf bytes.Buffer
		if err := WriteRaster(&buf, raster, compress); err != nil {
			t.Fatalf("%s: unable to write raster: %v", compress, err)
		}
		got, err := ReadRaster(&buf)
		if err != nil {
			t.Fatalf("%s: unable to read raster: %v", compress, err)
		}
		if !got.Equal(raster) {
			t.Errorf("%s: raster changed after round trip", compress)
		}
	}

	b, err := EncodeRaster(raster, dvid.Snappy)
	if err != nil {
		t.Fatal(err)
	}
	b[len(b)-1] ^= 0xff
	if _, err := DecodeRaster(b); err == nil {
		t.Errorf("expected checksum error on corrupted raster")
	}
	if _, err := DecodeRaster(b[:8]); err == nil {
		t.Errorf("expected error on truncated header")
	}

	path := filepath.Join(t.TempDir(), "labels.bin")
	if err := WriteRasterFile(path, raster, dvid.Zstd); err != nil {
		t.Fatalf("unable to write raster file: %v", err)
	}
	got, err := ReadRasterFile(path)
	if err != nil {
		t.Fatalf("unable to read raster file: %v", err)
	}
	if !got.Equal(raster) {
		t.Errorf("raster file changed after round trip")
	}
}

func TestSummaries(t *testing.T) {
	raster := testRaster()
	pop := labels.PopulationFromRaster(raster, dvid.DefaultCalibration)
	pop.Regions[1].Quality = 2.5

	runID := NewRunID()
	if len(runID) != 32 {
		t.Errorf("expected 32 hex digit run id, got %q", runID)
	}
	if runID == NewRunID() {
		t.Errorf("expected distinct run ids")
	}
	sf, err := NewSummaryFile(runID, "test", pop)
	if err != nil {
		t.Fatalf("unable to summarize: %v", err)
	}
	if len(sf.Regions) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(sf.Regions))
	}
	two := sf.Regions[1]
	if two.Label != 2 || two.NumVoxels != 6 || two.Quality != 2.5 {
		t.Errorf("bad summary for region 2: %+v", two)
	}
	if two.Min != (dvid.Point3d{2, 0, 0}) || two.Max != (dvid.Point3d{3, 2, 1}) {
		t.Errorf("bad bounds for region 2: %s %s", two.Min, two.Max)
	}

	var buf bytes.Buffer
	if err := WriteSummaries(&buf, sf); err != nil {
		t.Fatalf("unable to write summaries: %v", err)
	}
	got, err := ReadSummaries(&buf)
	if err != nil {
		t.Fatalf("unable to read summaries: %v", err)
	}
	if diff := cmp.Diff(sf, got); diff != "" {
		t.Errorf("summaries (-want +got):\n%s", diff)
	}
	for i, rs := range got.Regions {
		pts, err := rs.Points()
		if err != nil {
			t.Fatalf("region %d: %v", rs.Label, err)
		}
		if diff := cmp.Diff(pop.Regions[i].Voxels, pts); diff != "" {
			t.Errorf("region %d voxels (-want +got):\n%s", rs.Label, diff)
		}
	}

	sf.Version = "2.0.0"
	buf.Reset()
	if err := WriteSummaries(&buf, sf); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSummaries(&buf); err == nil {
		t.Errorf("expected error on incompatible summary version")
	}
	sf.Version = "1.3.0"
	if err := sf.CheckVersion(); err != nil {
		t.Errorf("expected minor version to be accepted: %v", err)
	}
	sf.Version = "one"
	if err := sf.CheckVersion(); err == nil {
		t.Errorf("expected error on malformed version")
	}
}
