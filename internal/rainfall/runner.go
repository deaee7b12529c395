// Package rainfall runs the retrieve, load and plot pipeline with a
// synthetic fallback when the retrieval fails.
package rainfall

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/rtm0/era5rain/internal/config"
	"github.com/rtm0/era5rain/internal/era5"
	"github.com/rtm0/era5rain/internal/field"
	"github.com/rtm0/era5rain/internal/logger"
	"github.com/rtm0/era5rain/internal/render"
)

// SampleTitle labels maps drawn from synthetic data.
const SampleTitle = "Sample Data"

// Data sources reported in Result.
const (
	SourceERA5   = "era5"
	SourceSample = "sample"
)

// Fetcher retrieves a dataset request into a local file.
type Fetcher interface {
	Retrieve(ctx context.Context, dataset string, request any, target string) error
}

// Result describes what a run plotted.
type Result struct {
	Source  string
	Title   string
	Field   *field.Field
	Summary field.Summary
	// Seed is the seed of the synthetic field, zero for ERA5 data.
	Seed uint64
	// Files lists every file written: charts and the sample NetCDF.
	Files []string
}

// Runner plots one day of precipitation.
type Runner struct {
	logger   *zap.SugaredLogger
	cfg      config.Config
	fetcher  Fetcher
	renderer *render.Renderer
	rng      *rand.Rand
	seed     uint64

	style  render.Style
	proj   render.Projection
	layers []render.Layer
}

// NewRunner prepares a run. fetcher may be nil when only sample data is
// plotted. GeoJSON layers named in the config are read here.
func NewRunner(logger *zap.SugaredLogger, cfg config.Config, fetcher Fetcher) (*Runner, error) {
	style, err := render.ParseStyle(cfg.Map.Style)
	if err != nil {
		return nil, err
	}
	proj, err := render.ParseProjection(cfg.Map.Projection)
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	r := &Runner{
		logger:   logger,
		cfg:      cfg,
		fetcher:  fetcher,
		renderer: render.NewRenderer(logger, cfg.OutputDir),
		rng:      field.NewRand(seed),
		seed:     seed,
		style:    style,
		proj:     proj,
	}
	for _, fc := range cfg.Map.Features {
		l, err := render.LoadLayer(fc.Name, fc.Path)
		if err != nil {
			return nil, err
		}
		logger.Debugw("Map layer loaded", "layer", l.Name, "geometries", len(l.Geoms))
		r.layers = append(r.layers, l)
	}
	return r, nil
}

// Run retrieves and plots the configured day. If retrieving or reading the
// dataset fails, it logs the cause and plots synthetic data instead.
// Cancellation and plotting errors are returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.cfg.Sample || (r.fetcher == nil && !r.cfg.Reuse) {
		return r.plotSample(SampleTitle)
	}

	day, err := r.cfg.Day()
	if err != nil {
		return Result{}, err
	}
	totals, err := r.retrieve(ctx, day)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		r.logger.Warnw("Could not get ERA5 data, plotting sample data instead", "err", err)
		return r.plotSample(SampleTitle)
	}
	return r.plotERA5(day.Format(config.DateLayout), totals)
}

func (r *Runner) retrieve(ctx context.Context, day time.Time) (era5.Totals, error) {
	if !r.cfg.Reuse {
		q, err := era5.NewQuery(r.cfg.Region, r.cfg.Margin, day)
		if err != nil {
			return era5.Totals{}, err
		}
		if r.cfg.CDS.Dataset != "" {
			q.Dataset = r.cfg.CDS.Dataset
		}
		r.logger.Infow("Retrieving ERA5 data", append(q.Summary(), "file", r.cfg.DataFile)...)
		start := time.Now()
		if err := r.fetcher.Retrieve(ctx, q.Dataset, q, r.cfg.DataFile); err != nil {
			return era5.Totals{}, fmt.Errorf("retrieve: %w", err)
		}
		r.logger.Infow("ERA5 data downloaded", "file", r.cfg.DataFile, "in", logger.Since(start))
	}

	s, err := era5.NewScanner(r.cfg.DataFile)
	if err != nil {
		return era5.Totals{}, fmt.Errorf("load: %w", err)
	}
	defer s.Close()
	r.logger.Infow("ERA5 summary", s.Summary()...)

	totals, err := s.Accumulate()
	if err != nil {
		return era5.Totals{}, fmt.Errorf("load %s: %w", r.cfg.DataFile, err)
	}
	r.logger.Infow("ERA5 data loaded", "file", r.cfg.DataFile, "hours", totals.Hourly.Len())
	return totals, nil
}

func (r *Runner) plotERA5(title string, totals era5.Totals) (Result, error) {
	res, err := r.plotField(SourceERA5, title, totals.Daily)
	if err != nil {
		return res, err
	}
	if totals.Hourly.Len() < 2 {
		r.logger.Infow("Skipping time series", "hours", totals.Hourly.Len())
		return res, nil
	}
	_, path, err := r.renderer.HourlySeries(totals.Hourly, render.SeriesOptions{
		Width:  inches(r.cfg.Map.Width, 12),
		Height: inches(r.cfg.Map.Width, 12) / 2,
		DPI:    r.cfg.Map.DPI,
	}, r.cfg.Save)
	if err != nil {
		return res, fmt.Errorf("time series: %w", err)
	}
	res.addFile(path)
	return res, nil
}

func (r *Runner) plotSample(title string) (Result, error) {
	synth := field.DefaultSynthesizer()
	synth.Resolution = r.cfg.Resolution
	synth.Margin = r.cfg.Margin
	f, err := synth.Generate(r.cfg.Region, r.rng)
	if err != nil {
		return Result{}, err
	}
	r.logger.Infow("Sample data generated", "resolution", synth.Resolution, "seed", r.seed)

	res, err := r.plotField(SourceSample, title, f)
	res.Seed = r.seed
	if err != nil {
		return res, err
	}
	if r.cfg.SampleFile != "" {
		if err := era5.WriteSample(r.cfg.SampleFile, f); err != nil {
			return res, fmt.Errorf("sample file: %w", err)
		}
		r.logger.Infow("Sample data saved", "file", r.cfg.SampleFile)
		res.addFile(r.cfg.SampleFile)
	}
	return res, nil
}

func (r *Runner) plotField(source, title string, f *field.Field) (Result, error) {
	res := Result{Source: source, Title: title, Field: f}

	if sum, err := field.Summarize(f); err == nil {
		res.Summary = sum
		r.logger.Infow("Precipitation summary", append([]any{"source", source, "units", f.Units}, sum.KeyVals()...)...)
	}

	_, path, err := r.renderer.SpatialMap(f, r.mapOptions(title), r.cfg.Save)
	if err != nil {
		return res, fmt.Errorf("map: %w", err)
	}
	res.addFile(path)
	return res, nil
}

func (r *Runner) mapOptions(title string) render.MapOptions {
	margin := 0.1
	if r.style == render.Plain {
		margin = 0.05
	}
	return render.MapOptions{
		Title:      title,
		Style:      r.style,
		Projection: r.proj,
		Extent:     r.cfg.Region.Expand(margin),
		Cities:     r.cfg.CityMarkers(),
		Layers:     r.layers,
		Width:      inches(r.cfg.Map.Width, 12),
		Height:     inches(r.cfg.Map.Height, 10),
		DPI:        r.cfg.Map.DPI,
	}
}

// inches converts v to a vg length, falling back to def when unset.
func inches(v, def float64) vg.Length {
	if v <= 0 {
		v = def
	}
	return vg.Length(v) * vg.Inch
}

func (res *Result) addFile(path string) {
	if path != "" {
		res.Files = append(res.Files, path)
	}
}
