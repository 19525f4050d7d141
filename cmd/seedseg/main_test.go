package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/janelia-flyem/seedseg/config"
	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/volio"
)

const testConfig = `
[watershed]
direction = "increasing"

[merge]
strategy = "edge"
threshold = 0.5
quantile = 0.75

[output]
dir = "out"
compression = "snappy"
summaries = true

[[job]]
name = "strip"
dims = [9, 3, 1]
energy = ["edge.raw"]
seeds = ["seeds.json"]
edge = "edge.raw"
`

func writeJob(t *testing.T) string {
	dir := t.TempDir()
	dims := dvid.Dims{9, 3, 1}
	vol := dvid.NewVolume(dims)
	for i := range vol.Data {
		if x := dims.Point(i)[0]; x == 4 || x == 5 {
			vol.Data[i] = 1
		}
	}
	var buf bytes.Buffer
	if err := volio.WriteVolume(&buf, vol); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "edge.raw"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	seeds := [][]dvid.Point3d{{{0, 1, 0}}, {{2, 1, 0}}, {{8, 1, 0}}}
	if err := volio.WriteSeeds(&buf, seeds); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "seeds.json"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	filename := filepath.Join(dir, "run.toml")
	if err := os.WriteFile(filename, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestRun(t *testing.T) {
	cfg, err := config.Load(writeJob(t))
	if err != nil {
		t.Fatalf("unable to load config: %v", err)
	}
	if err := run(cfg, "", 2); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	rasters, err := filepath.Glob(filepath.Join(cfg.Output.Dir, "strip-*.labels"))
	if err != nil || len(rasters) != 1 {
		t.Fatalf("expected one raster output, got %v (%v)", rasters, err)
	}
	raster, err := volio.ReadRasterFile(rasters[0])
	if err != nil {
		t.Fatalf("unable to read raster: %v", err)
	}
	var got []uint32
	for i := 0; i < raster.Len(); i++ {
		got = append(got, raster.At(i))
	}
	expected := []uint32{
		1, 1, 1, 1, 1, 1, 2, 2, 2,
		1, 1, 1, 1, 1, 1, 2, 2, 2,
		1, 1, 1, 1, 1, 1, 2, 2, 2,
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("raster (-want +got):\n%s", diff)
	}

	summaryPath := rasters[0][:len(rasters[0])-len(".labels")] + ".summary"
	sf, err := volio.ReadSummariesFile(summaryPath)
	if err != nil {
		t.Fatalf("unable to read summaries: %v", err)
	}
	if sf.Job != "strip" || len(sf.Regions) != 2 {
		t.Errorf("unexpected summary file: job %q with %d regions", sf.Job, len(sf.Regions))
	}
	if sf.Regions[0].NumVoxels != 18 || sf.Regions[1].NumVoxels != 9 {
		t.Errorf("unexpected region sizes %d and %d", sf.Regions[0].NumVoxels, sf.Regions[1].NumVoxels)
	}
}

func TestRunWatershedOnly(t *testing.T) {
	cfg, err := config.Load(writeJob(t))
	if err != nil {
		t.Fatalf("unable to load config: %v", err)
	}
	cfg.Merge.Strategy = ""
	cfg.Output.Summaries = false
	if err := run(cfg, "strip", 1); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	rasters, _ := filepath.Glob(filepath.Join(cfg.Output.Dir, "strip-*.labels"))
	if len(rasters) != 1 {
		t.Fatalf("expected one raster output, got %v", rasters)
	}
	summaries, _ := filepath.Glob(filepath.Join(cfg.Output.Dir, "*.summary"))
	if len(summaries) != 0 {
		t.Errorf("expected no summaries, got %v", summaries)
	}
	raster, err := volio.ReadRasterFile(rasters[0])
	if err != nil {
		t.Fatalf("unable to read raster: %v", err)
	}
	if n := len(raster.Counts()); n != 3 {
		t.Errorf("expected 3 watershed regions, got %d", n)
	}

	if err := run(cfg, "missing", 1); err == nil {
		t.Errorf("expected error running unknown job")
	}
}
