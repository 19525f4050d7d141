package volio

import (
	"fmt"
	"io"
	"os"

	"github.com/blang/semver"
	"github.com/twinj/uuid"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
)

// SummaryVersion is the format version written into summary files.  Readers accept any
// file with the same major version.
var SummaryVersion = semver.MustParse("1.0.0")

// RegionSummary describes one region of a finished population.
type RegionSummary struct {
	Label     uint32
	Scale     int
	NumVoxels int
	Quality   float64
	Min       dvid.Point3d
	Max       dvid.Point3d
	Centroid  [3]float64
	RLEs      []byte // dvid.RLEs binary encoding
}

// SummaryFile is the region summary output of one job.
type SummaryFile struct {
	Version string
	RunID   string
	Job     string
	Dims    dvid.Dims
	Regions []RegionSummary
}

// NewRunID returns a fresh identifier for a segmentation run.
func NewRunID() string {
	return fmt.Sprintf("%x", uuid.NewV4().Bytes())
}

// Summarize returns the summary of a region.
func Summarize(r *labels.Region) (RegionSummary, error) {
	rles, err := r.RLEs().MarshalBinary()
	if err != nil {
		return RegionSummary{}, err
	}
	min, max := r.Bounds()
	return RegionSummary{
		Label:     r.Label,
		Scale:     r.Scale,
		NumVoxels: r.NumVoxels(),
		Quality:   r.Quality,
		Min:       min,
		Max:       max,
		Centroid:  r.Centroid(),
		RLEs:      rles,
	}, nil
}

// NewSummaryFile summarizes every region of a population.
func NewSummaryFile(runID, job string, pop *labels.Population) (*SummaryFile, error) {
	sf := &SummaryFile{
		Version: SummaryVersion.String(),
		RunID:   runID,
		Job:     job,
		Dims:    pop.Dims,
		Regions: make([]RegionSummary, 0, len(pop.Regions)),
	}
	for _, r := range pop.Regions {
		rs, err := Summarize(r)
		if err != nil {
			return nil, fmt.Errorf("region %d: %v", r.Label, err)
		}
		sf.Regions = append(sf.Regions, rs)
	}
	return sf, nil
}

// Points decodes the region's voxels.
func (rs *RegionSummary) Points() ([]dvid.Point3d, error) {
	var rles dvid.RLEs
	if err := rles.UnmarshalBinary(rs.RLEs); err != nil {
		return nil, err
	}
	return rles.Points(), nil
}

// CheckVersion returns an error if the file was written with an incompatible format.
func (sf *SummaryFile) CheckVersion() error {
	v, err := semver.Make(sf.Version)
	if err != nil {
		return fmt.Errorf("bad summary version %q: %v", sf.Version, err)
	}
	if v.Major != SummaryVersion.Major {
		return fmt.Errorf("summary version %s is incompatible with supported version %s", v, SummaryVersion)
	}
	return nil
}

// WriteSummaries writes a msgpack-encoded summary file.
func WriteSummaries(w io.Writer, sf *SummaryFile) error {
	b, err := sf.MarshalMsg(nil)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadSummaries reads and version checks a summary file.
func ReadSummaries(r io.Reader) (*SummaryFile, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	sf := new(SummaryFile)
	left, err := sf.UnmarshalMsg(b)
	if err != nil {
		return nil, err
	}
	if len(left) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after summary file", len(left))
	}
	if err := sf.CheckVersion(); err != nil {
		return nil, err
	}
	return sf, nil
}

// WriteSummariesFile writes a summary file to disk.
func WriteSummariesFile(path string, sf *SummaryFile) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSummaries(f, sf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSummariesFile reads a summary file from disk.
func ReadSummariesFile(path string) (*SummaryFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSummaries(f)
}
