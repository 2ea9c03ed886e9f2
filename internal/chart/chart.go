// Package chart renders observed history and forecasts as PNG charts.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

// Threshold is a dashed horizontal reference line.
type Threshold struct {
	Value float64
	Label string
	Color color.Color
}

// TemperatureThresholds are the Paris Agreement warming levels.
var TemperatureThresholds = []Threshold{
	{Value: 1.5, Label: "1.5°C limit", Color: color.RGBA{R: 255, G: 165, A: 255}},
	{Value: 2.0, Label: "2.0°C warning", Color: color.RGBA{R: 139, G: 69, B: 19, A: 255}},
}

func Temperature(observed []models.TemperatureRecord, forecast []models.Prediction) (*plot.Plot, error) {
	pts := make(plotter.XYs, 0, len(observed))
	for _, r := range observed {
		pts = append(pts, plotter.XY{X: float64(r.Year), Y: r.ObservedC})
	}
	return build(
		fmt.Sprintf("Predicted Global Warming (%s)", span(forecast)),
		"Global Temperature (°C)",
		pts, forecast, TemperatureThresholds,
	)
}

func SeaLevel(observed []models.SeaLevelRecord, forecast []models.Prediction) (*plot.Plot, error) {
	pts := make(plotter.XYs, 0, len(observed))
	for _, r := range observed {
		pts = append(pts, plotter.XY{X: float64(r.Year), Y: r.GMSL})
	}
	return build(
		fmt.Sprintf("Predicted Sea Level Rise (%s)", span(forecast)),
		"Global Mean Sea Level (mm)",
		pts, forecast, nil,
	)
}

func span(forecast []models.Prediction) string {
	if len(forecast) == 0 {
		return "no forecast"
	}
	return fmt.Sprintf("%d-%d Projection", forecast[0].Year, forecast[len(forecast)-1].Year)
}

func build(title, yLabel string, observed plotter.XYs, forecast []models.Prediction, thresholds []Threshold) (*plot.Plot, error) {
	if len(forecast) == 0 {
		return nil, fmt.Errorf("%w: no forecast to plot", models.ErrDataIntegrity)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Year"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Legend.Left = true

	grid := plotter.NewGrid()
	grid.Vertical.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	grid.Horizontal.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(grid)

	// Missing observations are gaps, not zeros.
	finite := make(plotter.XYs, 0, len(observed))
	for _, pt := range observed {
		if !math.IsNaN(pt.Y) && !math.IsInf(pt.Y, 0) {
			finite = append(finite, pt)
		}
	}
	if len(finite) > 0 {
		sc, err := plotter.NewScatter(finite)
		if err != nil {
			return nil, fmt.Errorf("observed scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 180}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("Observed", sc)
	}

	fc := make(plotter.XYs, len(forecast))
	for i, f := range forecast {
		fc[i] = plotter.XY{X: float64(f.Year), Y: f.Value}
	}
	line, err := plotter.NewLine(fc)
	if err != nil {
		return nil, fmt.Errorf("forecast line: %w", err)
	}
	line.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("Future Projection", line)

	for _, t := range thresholds {
		v := t.Value
		fn := plotter.NewFunction(func(float64) float64 { return v })
		fn.Color = t.Color
		fn.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(fn)
		p.Legend.Add(t.Label, fn)
		p.Y.Min = math.Min(p.Y.Min, v)
		p.Y.Max = math.Max(p.Y.Max, v)
	}
	return p, nil
}

// Save writes p to path, creating parent directories. The format follows the
// file extension.
func Save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

func WritePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
