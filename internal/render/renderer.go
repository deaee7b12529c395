package render

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rtm0/era5rain/internal/field"
)

// Renderer builds figures and, when asked, persists them under OutputDir.
type Renderer struct {
	logger    *zap.SugaredLogger
	outputDir string
}

// NewRenderer creates a renderer writing into outputDir.
func NewRenderer(logger *zap.SugaredLogger, outputDir string) *Renderer {
	if outputDir == "" {
		outputDir = "."
	}
	return &Renderer{logger: logger, outputDir: outputDir}
}

// SpatialMap renders f and, if save is set, writes it to a file named after
// the title. The returned path is empty when nothing was written.
func (r *Renderer) SpatialMap(f *field.Field, opts MapOptions, save bool) (*Figure, string, error) {
	fig, err := Map(f, opts)
	if err != nil {
		return nil, "", err
	}
	if !save {
		return fig, "", nil
	}
	prefix := MapPrefix
	if opts.Style == Plain {
		prefix = PlainMapPrefix
	}
	path, err := r.save(fig, OutputName(prefix, opts.Title))
	return fig, path, err
}

// HourlySeries renders s and, if save is set, writes it to the fixed time
// series file.
func (r *Renderer) HourlySeries(s field.Series, opts SeriesOptions, save bool) (*Figure, string, error) {
	fig, err := TimeSeries(s, opts)
	if err != nil {
		return nil, "", err
	}
	if !save {
		return fig, "", nil
	}
	path, err := r.save(fig, TimeSeriesFile)
	return fig, path, err
}

func (r *Renderer) save(fig *Figure, name string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	path := filepath.Join(r.outputDir, name)
	if err := fig.Save(path); err != nil {
		return "", err
	}
	r.logger.Infow("Plot saved", "file", path)
	return path, nil
}
