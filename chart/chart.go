// Package chart renders the per-episode reward history of a training run as
// a log-scale convergence chart, both as a PNG image and as an interactive
// HTML page.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("chart: empty reward history")

// floor replaces non-positive rewards, which a log axis cannot show.
const floor = 1e-3

const (
	xLabel = "Epoch"
	yLabel = "Sum of Rewards in Epoch"
)

// BaseName returns the file name stem used for a run of the given length.
func BaseName(episodes int) string {
	return fmt.Sprintf("convergence_%d_epoch", episodes)
}

// Write renders both charts into dir, creating it if needed, and returns
// the paths written.
func Write(dir string, rewards []float64, episodes int) ([]string, error) {
	if len(rewards) == 0 {
		return nil, ErrNoData
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	base := filepath.Join(dir, BaseName(episodes))

	pngPath := base + ".png"
	if err := RenderPNG(pngPath, rewards); err != nil {
		return nil, err
	}

	htmlPath := base + ".html"
	f, err := os.Create(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	if err := RenderHTML(f, rewards); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	return []string{pngPath, htmlPath}, nil
}

// RenderPNG saves a 12x5 inch line plot with a logarithmic reward axis.
func RenderPNG(path string, rewards []float64) error {
	if len(rewards) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Convergence"
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	pts := make(plotter.XYs, len(rewards))
	for i, r := range rewards {
		pts[i].X = float64(i + 1)
		pts[i].Y = positive(r)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("chart: line: %w", err)
	}
	line.Color = color.RGBA{B: 255, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("chart: save %s: %w", path, err)
	}
	return nil
}

// RenderHTML writes a go-echarts page holding the same chart.
func RenderHTML(w io.Writer, rewards []float64) error {
	if len(rewards) == 0 {
		return ErrNoData
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Convergence",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: xLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: yLabel, Type: "log"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	episodes := make([]string, 0, len(rewards))
	items := make([]opts.LineData, 0, len(rewards))
	for i, r := range rewards {
		episodes = append(episodes, fmt.Sprintf("%d", i+1))
		items = append(items, opts.LineData{Value: positive(r)})
	}
	line.SetXAxis(episodes).AddSeries("reward", items)

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("chart: render html: %w", err)
	}
	return nil
}

func positive(r float64) float64 {
	if r < floor {
		return floor
	}
	return r
}

// Serve exposes dir over HTTP until the server fails.
func Serve(dir, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("serving charts", "dir", dir, "url", "http://"+addr)
	return http.ListenAndServe(addr, http.FileServer(http.Dir(dir)))
}
