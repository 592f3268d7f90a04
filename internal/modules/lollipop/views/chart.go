package views

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"lollipop-server/internal/modules/lollipop/geometry"
	"lollipop-server/internal/modules/lollipop/types"
)

const (
	lineWidth      = 4.0
	markerRadius   = 5.6
	smoothingSteps = 8

	// overlayPadding leaves room above the plot for the annotation box.
	overlayPadding = 64
	boxTop         = 4
	boxHeight      = 52
)

var (
	pressureColor = drawing.ColorFromHex("8e44ad")
	windColor     = drawing.ColorFromHex("16a085")
	guideColor    = drawing.ColorFromHex("95a5a6")
	textColor     = drawing.ColorFromHex("2c3e50")
	boxColor      = drawing.ColorFromHex("ffffff")
)

var ErrNoSamples = errors.New("no samples to chart")

type ChartOptions struct {
	Width, Height int
	RightToLeft   bool
	// Minimal draws the two series only: no axes and no selection overlay.
	Minimal bool
}

// Chart is a rendered SVG chart and the plot area inside it, in SVG units.
// Pointer positions are measured against Plot.
type Chart struct {
	SVG  []byte
	Plot geometry.Frame
}

// RenderChart draws samples as wind speed and remapped pressure lines. When
// selected is set the lollipop overlay is drawn over it.
func RenderChart(samples []types.Sample, selected *types.Sample, opts ChartOptions) (Chart, error) {
	domain, ok := geometry.HourDomain(samples)
	if !ok {
		return Chart{}, ErrNoSamples
	}

	var plot geometry.Frame
	overlay := func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		plot = frameOf(box)
		if selected == nil || opts.Minimal {
			return
		}
		p := geometry.NewProjection(plot, domain, opts.RightToLeft)
		drawLollipop(r, geometry.Layout(p, *selected, float64(opts.Width)), defaults)
	}

	pressure := smoothSeries("Pressure", samples, func(s types.Sample) float64 {
		return geometry.DisplayPressure(s.Pressure)
	}, pressureColor)
	wind := smoothSeries("Wind speed", samples, func(s types.Sample) float64 {
		return s.WindSpeed
	}, windColor)
	// go-chart draws the secondary axis on the left of the plot.
	pressure.YAxis = chart.YAxisSecondary

	left, right := valueTicks()
	ch := chart.Chart{
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: overlayPadding, Left: 8, Right: 8, Bottom: 8}},
		XAxis: chart.XAxis{
			Style: chart.Style{FontSize: 9},
			Range: &chart.ContinuousRange{
				Min:        chart.TimeToFloat64(domain.Start),
				Max:        chart.TimeToFloat64(domain.End),
				Descending: opts.RightToLeft,
			},
			Ticks: timeTicks(domain),
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: 9},
			Range: valueRange(),
			Ticks: right,
		},
		YAxisSecondary: chart.YAxis{
			Style: chart.Style{FontSize: 9},
			Range: valueRange(),
			Ticks: left,
		},
		Series:   []chart.Series{pressure, wind},
		Elements: []chart.Renderable{overlay},
	}
	if opts.Minimal {
		ch.Background.Padding = chart.Box{Top: 8, Left: 8, Right: 8, Bottom: 8}
		ch.XAxis.Style = chart.Style{Hidden: true}
		ch.YAxis.Style = chart.Style{Hidden: true}
		ch.YAxisSecondary.Style = chart.Style{Hidden: true}
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return Chart{}, fmt.Errorf("render chart: %w", err)
	}
	return Chart{SVG: buf.Bytes(), Plot: plot}, nil
}

func frameOf(box chart.Box) geometry.Frame {
	return geometry.Frame{
		X:      float64(box.Left),
		Y:      float64(box.Top),
		Width:  float64(box.Width()),
		Height: float64(box.Height()),
	}
}

func valueRange() *chart.ContinuousRange {
	return &chart.ContinuousRange{Min: 0, Max: geometry.YAxisMax}
}

// valueTicks returns the pressure labels for the left axis and the wind
// labels for the right axis, at the same positions.
func valueTicks() (left, right []chart.Tick) {
	for _, tk := range geometry.YTicks() {
		left = append(left, chart.Tick{Value: tk.Value, Label: tk.Left})
		right = append(right, chart.Tick{Value: tk.Value, Label: tk.Right})
	}
	return left, right
}

func timeTicks(d geometry.Domain) []chart.Tick {
	var ticks []chart.Tick
	for _, t := range geometry.XTicks(d) {
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: geometry.HourLabel(t)})
	}
	return ticks
}

// smoothSeries interpolates the samples with a Catmull-Rom spline so the
// line passes through every sample.
func smoothSeries(name string, samples []types.Sample, value func(types.Sample) float64, color drawing.Color) chart.ContinuousSeries {
	pts := make([]geometry.Point, len(samples))
	for i, s := range samples {
		pts[i] = geometry.Point{X: chart.TimeToFloat64(s.Time), Y: value(s)}
	}
	curve := geometry.CatmullRom(pts, smoothingSteps)

	xs := make([]float64, len(curve))
	ys := make([]float64, len(curve))
	for i, p := range curve {
		xs[i], ys[i] = p.X, p.Y
	}
	return chart.ContinuousSeries{
		Name: name,
		Style: chart.Style{
			StrokeColor: color,
			StrokeWidth: lineWidth,
		},
		XValues: xs,
		YValues: ys,
	}
}

func drawLollipop(r chart.Renderer, l geometry.Lollipop, defaults chart.Style) {
	x := px(l.GuideX)

	// The SVG renderer fills with the font color when one is set, and the
	// axes leave theirs behind.
	r.SetFontColor(drawing.Color{})
	r.SetStrokeColor(guideColor)
	r.SetStrokeWidth(1.5)
	r.MoveTo(x, px(l.GuideTop))
	r.LineTo(x, px(l.GuideBottom))
	r.Stroke()

	drawMarker(r, l.PressurePoint, pressureColor)
	drawMarker(r, l.WindPoint, windColor)

	left, right := px(l.BoxX), px(l.BoxX+l.BoxWidth)
	r.SetFillColor(boxColor)
	r.SetStrokeColor(guideColor)
	r.SetStrokeWidth(1)
	r.MoveTo(left, boxTop)
	r.LineTo(right, boxTop)
	r.LineTo(right, boxTop+boxHeight)
	r.LineTo(left, boxTop+boxHeight)
	r.Close()
	r.FillStroke()

	if defaults.Font != nil {
		r.SetFont(defaults.Font)
	}
	r.SetFontColor(textColor)
	r.SetFontSize(11)
	r.Text(l.Title, left+8, boxTop+16)
	r.SetFontSize(10)
	for i, line := range l.Lines {
		r.Text(line, left+8, boxTop+31+i*13)
	}
}

func drawMarker(r chart.Renderer, p geometry.Point, color drawing.Color) {
	r.SetFillColor(color)
	r.SetStrokeColor(boxColor)
	r.SetStrokeWidth(2)
	r.Circle(markerRadius, px(p.X), px(p.Y))
	r.FillStroke()
}

func px(v float64) int { return int(math.Round(v)) }
