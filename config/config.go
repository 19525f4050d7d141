// Package config reads the TOML description of a batch segmentation run.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/splitmerge"
	"github.com/janelia-flyem/seedseg/watershed"
)

// Config is a complete run configuration.
type Config struct {
	Logging   dvid.LogConfig
	Watershed WatershedConfig
	Merge     MergeConfig
	Output    OutputConfig
	Job       []JobConfig
}

// WatershedConfig is the [watershed] section.
type WatershedConfig struct {
	Direction       string // "decreasing" (default) or "increasing"
	Mode            string // "normal" (default) or "direct"
	LowConnectivity bool   `toml:"low_connectivity"`
	Score           string // "majority", "min_diff", "max_diff", "nearest_centroid"

	// Propagation is "always" or "monotonic".  A cutoff adds a threshold on the growth
	// map to either.
	Propagation string
	Cutoff      *float64

	// Fusion is "never", "size", "number", or "threshold".
	Fusion       string
	FusionSize   int      `toml:"fusion_size"`
	FusionNumber int      `toml:"fusion_number"`
	FusionCutoff *float64 `toml:"fusion_cutoff"`
}

// MergeConfig is the [merge] section.  An empty strategy skips merging.
type MergeConfig struct {
	Strategy   string // "edge", "hessian", "region", or ""
	Threshold  float64
	MinSize    int  `toml:"min_size"`
	Background bool
	MinRegions int `toml:"min_regions"`

	// Edge
	Quantile  float64
	Normalize bool
	MinBorder int `toml:"min_border"`

	// Hessian
	HessianBackground float64 `toml:"hessian_background"`

	// Region
	Policy string
}

// OutputConfig is the [output] section.
type OutputConfig struct {
	Dir         string
	Compression string // "none", "snappy", or "zstd"
	Summaries   bool
}

// JobConfig describes one independent segmentation.  Energy and Seeds hold one file per
// scale.
type JobConfig struct {
	Name        string
	Dims        [3]int32
	Calibration [2]float64 // xy, z
	Energy      []string
	Seeds       []string
	Mask        string
	Intensity   string
	Edge        string
	Hessian     string
}

// Load decodes a TOML file and makes every relative path absolute with respect to the
// directory holding the file.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no TOML configuration file provided")
	}
	var c Config
	if _, err := toml.DecodeFile(filename, &c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return nil, fmt.Errorf("could not convert relative paths to absolute paths in TOML config: %v", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Decode parses TOML text without touching paths.
func Decode(text string) (*Config, error) {
	var c Config
	if _, err := toml.Decode(text, &c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func convertToAbsolute(path, dir string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(filepath.Join(dir, path))
}

// Some settings can be given as paths relative to the TOML file's own directory.
func (c *Config) convertPathsToAbsolute(configPath string) error {
	var err error
	configDir := filepath.Dir(configPath)

	// [logging].logfile
	if c.Logging.Logfile, err = convertToAbsolute(c.Logging.Logfile, configDir); err != nil {
		return fmt.Errorf("error converting logfile setting to absolute path: %v", err)
	}

	// [output].dir
	if c.Output.Dir, err = convertToAbsolute(c.Output.Dir, configDir); err != nil {
		return fmt.Errorf("error converting output dir to absolute path: %v", err)
	}

	// [[job]] files
	for j := range c.Job {
		job := &c.Job[j]
		for _, list := range [][]string{job.Energy, job.Seeds} {
			for i := range list {
				if list[i], err = convertToAbsolute(list[i], configDir); err != nil {
					return fmt.Errorf("error converting file %q of job %q: %v", list[i], job.Name, err)
				}
			}
		}
		for _, path := range []*string{&job.Mask, &job.Intensity, &job.Edge, &job.Hessian} {
			if *path, err = convertToAbsolute(*path, configDir); err != nil {
				return fmt.Errorf("error converting file %q of job %q: %v", *path, job.Name, err)
			}
		}
	}
	return nil
}

// Validate checks settings that do not need any file to be read.
func (c *Config) Validate() error {
	if _, err := c.Watershed.Config(); err != nil {
		return err
	}
	if _, err := dvid.CompressionFromString(c.Output.Compression); err != nil {
		return err
	}
	switch c.Merge.Strategy {
	case "", "edge", "hessian":
	case "region":
		if _, err := splitmerge.PolicyFromString(c.Merge.Policy); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown merge strategy %q", c.Merge.Strategy)
	}
	names := make(map[string]struct{}, len(c.Job))
	for n, job := range c.Job {
		if job.Name == "" {
			return fmt.Errorf("job %d has no name", n)
		}
		if _, found := names[job.Name]; found {
			return fmt.Errorf("job name %q is used more than once", job.Name)
		}
		names[job.Name] = struct{}{}
		if err := job.Validate(c.Merge); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that a job names every file the merge settings need.
func (job JobConfig) Validate(merge MergeConfig) error {
	strategy := merge.Strategy
	if err := dvid.Dims(job.Dims).Check(); err != nil {
		return fmt.Errorf("job %q: %v", job.Name, err)
	}
	if len(job.Energy) == 0 {
		return fmt.Errorf("job %q has no energy map", job.Name)
	}
	if len(job.Seeds) != len(job.Energy) {
		return fmt.Errorf("job %q has %d energy maps but %d seed files", job.Name, len(job.Energy), len(job.Seeds))
	}
	if strategy != "" && len(job.Energy) > 1 {
		return fmt.Errorf("job %q: merging is only supported for single-scale jobs", job.Name)
	}
	switch {
	case strategy == "edge" && job.Edge == "":
		return fmt.Errorf("job %q needs an edge map for the edge strategy", job.Name)
	case strategy == "edge" && merge.Normalize && job.Intensity == "":
		return fmt.Errorf("job %q needs an intensity map to normalize edge values", job.Name)
	case strategy == "hessian" && (job.Hessian == "" || job.Intensity == ""):
		return fmt.Errorf("job %q needs hessian and intensity maps for the hessian strategy", job.Name)
	case strategy == "region" && job.Intensity == "":
		return fmt.Errorf("job %q needs an intensity map for the region strategy", job.Name)
	}
	return nil
}

// Calib returns the voxel calibration of a job, defaulting to unit voxels.
func (job JobConfig) Calib() dvid.Calibration {
	if job.Calibration[0] <= 0 || job.Calibration[1] <= 0 {
		return dvid.DefaultCalibration
	}
	return dvid.Calibration{XY: job.Calibration[0], Z: job.Calibration[1]}
}

// Config converts the section into a watershed configuration.
func (w WatershedConfig) Config() (watershed.Config, error) {
	cfg := watershed.Config{LowConnectivity: w.LowConnectivity}
	switch w.Direction {
	case "", "decreasing":
		cfg.Direction = watershed.Decreasing
	case "increasing":
		cfg.Direction = watershed.Increasing
	default:
		return cfg, fmt.Errorf("unknown watershed direction %q", w.Direction)
	}
	switch w.Mode {
	case "", "normal":
		cfg.Mode = watershed.Normal
	case "direct":
		cfg.Mode = watershed.Direct
	default:
		return cfg, fmt.Errorf("unknown watershed mode %q", w.Mode)
	}
	switch w.Score {
	case "":
	case "majority":
		cfg.Score = watershed.MajorityScore{}
	case "min_diff":
		cfg.Score = watershed.MinDiffScore{}
	case "max_diff":
		cfg.Score = watershed.MaxDiffScore{}
	case "nearest_centroid":
		cfg.Score = watershed.NearestCentroidScore{}
	default:
		return cfg, fmt.Errorf("unknown watershed score %q", w.Score)
	}

	var prop watershed.PropagationCriterion
	switch w.Propagation {
	case "", "always":
		prop = watershed.Always{}
	case "monotonic":
		prop = watershed.Monotonic{}
	default:
		return cfg, fmt.Errorf("unknown propagation criterion %q", w.Propagation)
	}
	if w.Cutoff != nil {
		prop = watershed.AllOf{prop, watershed.Threshold{Cutoff: *w.Cutoff}}
	}
	cfg.Propagation = prop

	switch w.Fusion {
	case "", "never":
		cfg.Fusion = watershed.Never{}
	case "size":
		cfg.Fusion = watershed.SizeFusion{MinSize: w.FusionSize}
	case "number":
		cfg.Fusion = watershed.NumberFusion{Target: w.FusionNumber}
	case "threshold":
		if w.FusionCutoff == nil {
			return cfg, fmt.Errorf("threshold fusion needs fusion_cutoff")
		}
		cfg.Fusion = watershed.ThresholdFusion{Cutoff: *w.FusionCutoff}
	default:
		return cfg, fmt.Errorf("unknown fusion criterion %q", w.Fusion)
	}
	return cfg, nil
}

// SplitMerge returns the split-and-merge configuration for the run.
func (c *Config) SplitMerge() (splitmerge.Config, error) {
	wcfg, err := c.Watershed.Config()
	if err != nil {
		return splitmerge.Config{}, err
	}
	return splitmerge.Config{
		Watershed:  wcfg,
		Threshold:  c.Merge.Threshold,
		MinSize:    c.Merge.MinSize,
		Background: c.Merge.Background,
		MinRegions: c.Merge.MinRegions,
	}, nil
}

// NewStrategy builds the merge strategy over loaded maps.  Maps not needed by the strategy
// may be nil.
func (m MergeConfig) NewStrategy(intensity, edge, hessian *dvid.Volume) (splitmerge.Strategy, error) {
	switch m.Strategy {
	case "edge":
		return &splitmerge.Edge{
			EdgeMap:      edge,
			IntensityMap: intensity,
			Quantile:     m.Quantile,
			Normalize:    m.Normalize,
			MinBorder:    m.MinBorder,
		}, nil
	case "hessian":
		return &splitmerge.Hessian{
			HessianMap:   hessian,
			IntensityMap: intensity,
			Background:   m.HessianBackground,
		}, nil
	case "region":
		policy, err := splitmerge.PolicyFromString(m.Policy)
		if err != nil {
			return nil, err
		}
		return &splitmerge.RegionCriterion{IntensityMap: intensity, Policy: policy}, nil
	}
	return nil, fmt.Errorf("unknown merge strategy %q", m.Strategy)
}
