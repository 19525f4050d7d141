//go:generate go run ../gen-version -o version.go

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/seedseg/config"
	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
	"github.com/janelia-flyem/seedseg/splitmerge"
	"github.com/janelia-flyem/seedseg/volio"
	"github.com/janelia-flyem/seedseg/watershed"
)

// gitVersion is set by a generated version.go.
var gitVersion = "unknown"

var (
	// Maximum number of jobs run concurrently.
	numJobs = flag.Int("jobs", runtime.NumCPU(), "")

	// Only run the named job.
	onlyJob = flag.String("job", "", "")

	// Print version and exit.
	showVersion = flag.Bool("version", false, "")

	// Display usage if true.
	showHelp = flag.Bool("help", false, "")
)

const helpMessage = `
seedseg segments scalar volumes by growing seeds with a watershed transform and,
optionally, merging the resulting regions with a split-and-merge strategy.

Usage: seedseg [options] <config.toml>

	Every [[job]] of the TOML configuration is read, segmented, and written to the
	[output] directory as <job>-<run id>.labels plus, if requested, a msgpack region
	summary <job>-<run id>.summary.

	-jobs           =number   Maximum number of jobs run concurrently (default: # cpus)
	-job            =string   Only run the job with this name
	-version        (flag)    Show version and exit
	-h, -help       (flag)    Show help message
`

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Printf(helpMessage)
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("seedseg %s\n", gitVersion)
		os.Exit(0)
	}
	if *showHelp || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.SetLogger()
	defer dvid.Shutdown()

	if err := run(cfg, *onlyJob, *numJobs); err != nil {
		dvid.Criticalf("%v\n", err)
		dvid.Shutdown()
		os.Exit(1)
	}
}

func run(cfg *config.Config, only string, limit int) error {
	compress, err := dvid.CompressionFromString(cfg.Output.Compression)
	if err != nil {
		return err
	}
	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return fmt.Errorf("unable to create output directory: %v", err)
		}
	}
	runID := volio.NewRunID()
	dvid.Infof("Starting seedseg %s run %s with %d jobs\n", gitVersion, runID, len(cfg.Job))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	var ran int
	for _, job := range cfg.Job {
		if only != "" && job.Name != only {
			continue
		}
		ran++
		job := job
		g.Go(func() error {
			r := &runner{cfg: cfg, job: job, runID: runID, compress: compress}
			if err := r.run(); err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			return nil
		})
	}
	if only != "" && ran == 0 {
		return fmt.Errorf("no job named %q", only)
	}
	return g.Wait()
}

// runner executes one job.
type runner struct {
	cfg      *config.Config
	job      config.JobConfig
	runID    string
	compress dvid.Compression
}

func (r *runner) run() error {
	timedLog := dvid.NewTimeLog()
	dims := dvid.Dims(r.job.Dims)
	calib := r.job.Calib()

	var mask *dvid.Mask
	if r.job.Mask != "" {
		var err error
		if mask, err = volio.ReadMaskFile(r.job.Mask, dims); err != nil {
			return err
		}
	}
	maps := make([]*dvid.Volume, len(r.job.Energy))
	seeds := make([][][]dvid.Point3d, len(r.job.Seeds))
	for i := range r.job.Energy {
		vol, err := volio.ReadVolumeFile(r.job.Energy[i], dims, calib)
		if err != nil {
			return err
		}
		maps[i] = vol
		if seeds[i], err = volio.ReadSeedsFile(r.job.Seeds[i]); err != nil {
			return err
		}
	}
	dvid.Debugf("Job %q: read %d scale(s) of %s voxels\n", r.job.Name, len(maps), humanize.Comma(int64(dims.NumVoxels())))

	var pop *labels.Population
	var err error
	switch {
	case len(maps) > 1:
		pop, err = r.multiScale(maps, mask, seeds)
	case r.cfg.Merge.Strategy == "":
		pop, err = r.transform(maps[0], mask, seeds[0])
	default:
		pop, err = r.splitMerge(maps[0], mask, seeds[0])
	}
	var degenerate *dvid.DegenerateResult
	if errors.As(err, &degenerate) && pop != nil {
		dvid.Warningf("Job %q: %v\n", r.job.Name, err)
	} else if err != nil {
		return err
	}
	if err := r.write(pop); err != nil {
		return err
	}
	timedLog.Infof("Job %q produced %d regions", r.job.Name, pop.NumRegions())
	return nil
}

func (r *runner) transform(energy *dvid.Volume, mask *dvid.Mask, seeds [][]dvid.Point3d) (*labels.Population, error) {
	wcfg, err := r.cfg.Watershed.Config()
	if err != nil {
		return nil, err
	}
	t, err := watershed.NewTransform(energy, mask, seeds, wcfg)
	if err != nil {
		return nil, err
	}
	if err := t.Run(); err != nil {
		return nil, err
	}
	return t.RegionPopulation(), nil
}

func (r *runner) multiScale(maps []*dvid.Volume, mask *dvid.Mask, seeds [][][]dvid.Point3d) (*labels.Population, error) {
	wcfg, err := r.cfg.Watershed.Config()
	if err != nil {
		return nil, err
	}
	ms, err := watershed.NewMultiScale(maps, mask, seeds, wcfg)
	if err != nil {
		return nil, err
	}
	if err := ms.Run(); err != nil {
		return nil, err
	}
	return ms.RegionPopulation()
}

func (r *runner) splitMerge(energy *dvid.Volume, mask *dvid.Mask, seeds [][]dvid.Point3d) (*labels.Population, error) {
	dims := dvid.Dims(r.job.Dims)
	calib := r.job.Calib()
	load := func(path string) (*dvid.Volume, error) {
		if path == "" {
			return nil, nil
		}
		return volio.ReadVolumeFile(path, dims, calib)
	}
	intensity, err := load(r.job.Intensity)
	if err != nil {
		return nil, err
	}
	edge, err := load(r.job.Edge)
	if err != nil {
		return nil, err
	}
	hessian, err := load(r.job.Hessian)
	if err != nil {
		return nil, err
	}
	strategy, err := r.cfg.Merge.NewStrategy(intensity, edge, hessian)
	if err != nil {
		return nil, err
	}
	smcfg, err := r.cfg.SplitMerge()
	if err != nil {
		return nil, err
	}
	sm := splitmerge.New(strategy, smcfg)
	pop, err := sm.Run(energy, mask, seeds)
	hits, misses := sm.Medians().Stats()
	dvid.Debugf("Job %q: median cache %d hits, %d misses\n", r.job.Name, hits, misses)
	return pop, err
}

func (r *runner) write(pop *labels.Population) error {
	base := filepath.Join(r.cfg.Output.Dir, fmt.Sprintf("%s-%s", r.job.Name, r.runID))
	if err := volio.WriteRasterFile(base+".labels", pop.Raster, r.compress); err != nil {
		return err
	}
	if !r.cfg.Output.Summaries {
		return nil
	}
	sf, err := volio.NewSummaryFile(r.runID, r.job.Name, pop)
	if err != nil {
		return err
	}
	return volio.WriteSummariesFile(base+".summary", sf)
}
