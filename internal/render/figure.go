// Package render draws precipitation maps and time series as PNG images.
package render

import (
	"fmt"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default figure geometry, in the proportions of a 12x10 inch map.
const (
	DefaultWidth  = 12 * vg.Inch
	DefaultHeight = 10 * vg.Inch
	DefaultDPI    = 150
)

// colorBarFraction is the share of the figure height given to the color bar.
const colorBarFraction = 0.12

// Figure is an explicit drawing surface: a main plot and an optional color
// bar laid out beneath it.
type Figure struct {
	Main   *plot.Plot
	Bar    *plot.Plot
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// Draw renders the figure onto c.
func (f *Figure) Draw(c draw.Canvas) {
	if f.Bar == nil {
		f.Main.Draw(c)
		return
	}
	h := c.Max.Y - c.Min.Y
	w := c.Max.X - c.Min.X
	barH := h * colorBarFraction
	f.Main.Draw(draw.Crop(c, 0, 0, barH, 0))
	f.Bar.Draw(draw.Crop(c, w*0.1, -w*0.1, 0, barH-h))
}

func (f *Figure) size() (vg.Length, vg.Length, int) {
	w, h, dpi := f.Width, f.Height, f.DPI
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return w, h, dpi
}

// WriteTo encodes the figure as PNG.
func (f *Figure) WriteTo(w io.Writer) (int64, error) {
	width, height, dpi := f.size()
	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
	f.Draw(draw.New(img))
	return vgimg.PngCanvas{Canvas: img}.WriteTo(w)
}

// Save writes the figure as a PNG file.
func (f *Figure) Save(path string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("render: %w", cerr)
		}
	}()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("render: encode %s: %w", path, err)
	}
	return nil
}
