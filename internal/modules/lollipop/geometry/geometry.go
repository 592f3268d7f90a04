// Package geometry maps samples to plot coordinates and back.
//
// Everything here is pure: a Projection is a plot frame plus the time and
// value domains drawn into it. Renderers and input handlers share the same
// Projection so that what is drawn and what a pointer hits agree.
package geometry

import (
	"math"
	"strconv"
	"time"

	"lollipop-server/internal/modules/lollipop/types"
)

const (
	// PressureOffset and PressureScale remap pressure onto the wind speed axis.
	PressureOffset = 1014.0
	PressureScale  = 4.0

	// YTickStride is the distance between value-axis ticks in display units.
	YTickStride = 4
	// YAxisMax is the top of the shared value axis.
	YAxisMax = 24

	// XTickStride is the distance between time-axis ticks.
	XTickStride = 2 * time.Hour

	AnnotationWidth = 150.0
)

// DisplayPressure maps a pressure reading onto the wind speed axis.
func DisplayPressure(pressure float64) float64 {
	return (pressure - PressureOffset) * PressureScale
}

type Point struct {
	X, Y float64
}

// Frame is the plot area inside a canvas, in canvas coordinates.
type Frame struct {
	X, Y          float64
	Width, Height float64
}

func (f Frame) Right() float64  { return f.X + f.Width }
func (f Frame) Bottom() float64 { return f.Y + f.Height }

// Domain is the closed time interval spanned by the horizontal axis.
type Domain struct {
	Start, End time.Time
}

func (d Domain) Span() time.Duration { return d.End.Sub(d.Start) }

func (d Domain) Contains(t time.Time) bool {
	return !t.Before(d.Start) && !t.After(d.End)
}

// HourStart truncates t to the start of its hour in t's own location.
func HourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// HourDomain covers whole hours: from the start of the first sample's hour to
// the end of the last sample's hour. samples must be time-ascending.
func HourDomain(samples []types.Sample) (Domain, bool) {
	if len(samples) == 0 {
		return Domain{}, false
	}
	start := HourStart(samples[0].Time)
	end := HourStart(samples[len(samples)-1].Time).Add(time.Hour)
	return Domain{Start: start, End: end}, true
}

// Projection places a time domain on the horizontal axis and the range
// [YMin, YMax] on the vertical axis of Frame. With RightToLeft the time axis
// runs from the right edge of the frame to the left.
type Projection struct {
	Frame       Frame
	Domain      Domain
	YMin, YMax  float64
	RightToLeft bool
}

// NewProjection uses the shared value axis [0, YAxisMax].
func NewProjection(frame Frame, domain Domain, rtl bool) Projection {
	return Projection{Frame: frame, Domain: domain, YMin: 0, YMax: YAxisMax, RightToLeft: rtl}
}

// PositionToTime converts a plot-local x (0 at the frame's left edge) to an
// instant. It reports false outside [0, Frame.Width] or for a degenerate frame.
func (p Projection) PositionToTime(x float64) (time.Time, bool) {
	w := p.Frame.Width
	span := p.Domain.Span()
	if w <= 0 || span <= 0 || math.IsNaN(x) || x < 0 || x > w {
		return time.Time{}, false
	}
	frac := x / w
	if p.RightToLeft {
		frac = 1 - frac
	}
	offset := time.Duration(math.Round(frac * float64(span)))
	return p.Domain.Start.Add(offset), true
}

// LocalX is the plot-local x of t. Instants outside the domain extrapolate.
func (p Projection) LocalX(t time.Time) float64 {
	span := p.Domain.Span()
	if span <= 0 {
		return 0
	}
	frac := float64(t.Sub(p.Domain.Start)) / float64(span)
	if p.RightToLeft {
		frac = 1 - frac
	}
	return frac * p.Frame.Width
}

// X is the canvas x of t.
func (p Projection) X(t time.Time) float64 {
	return p.Frame.X + p.LocalX(t)
}

// Y is the canvas y of value v; larger values are drawn higher.
func (p Projection) Y(v float64) float64 {
	r := p.YMax - p.YMin
	if r == 0 {
		return p.Frame.Bottom()
	}
	return p.Frame.Bottom() - (v-p.YMin)/r*p.Frame.Height
}

func (p Projection) Point(t time.Time, v float64) Point {
	return Point{X: p.X(t), Y: p.Y(v)}
}

// WindPoint and PressurePoint are where a sample's markers are drawn.
func (p Projection) WindPoint(s types.Sample) Point {
	return p.Point(s.Time, s.WindSpeed)
}

func (p Projection) PressurePoint(s types.Sample) Point {
	return p.Point(s.Time, DisplayPressure(s.Pressure))
}

// YTick is one value-axis tick with its left (pressure) and right (wind) labels.
type YTick struct {
	Value float64
	Left  string
	Right string
}

// YTicks returns the ticks 0, 4, ... 24 of the shared value axis. The left
// axis reads 1014 + index and the right axis reads index * 4.
func YTicks() []YTick {
	ticks := make([]YTick, 0, YAxisMax/YTickStride+1)
	for i, v := 0, 0; v <= YAxisMax; i, v = i+1, v+YTickStride {
		ticks = append(ticks, YTick{
			Value: float64(v),
			Left:  strconv.Itoa(int(PressureOffset) + i),
			Right: strconv.Itoa(i * YTickStride),
		})
	}
	return ticks
}

// XTicks returns instants every XTickStride from the domain start up to and
// including its end.
func XTicks(d Domain) []time.Time {
	if d.Span() <= 0 {
		return nil
	}
	var ticks []time.Time
	for t := d.Start; !t.After(d.End); t = t.Add(XTickStride) {
		ticks = append(ticks, t)
	}
	return ticks
}

// HourLabel formats t as its hour, e.g. "3 PM".
func HourLabel(t time.Time) string {
	return t.Format("3 PM")
}

// FormatNumber prints v with as few digits as needed.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AnnotationOffset clamps a box of boxWidth centred on lineX so that it stays
// within [0, containerWidth].
func AnnotationOffset(containerWidth, lineX, boxWidth float64) float64 {
	return math.Max(0, math.Min(containerWidth-boxWidth, lineX-boxWidth/2))
}

// Lollipop is the overlay geometry for one selected sample.
type Lollipop struct {
	Sample        types.Sample
	GuideX        float64
	GuideTop      float64
	GuideBottom   float64
	PressurePoint Point
	WindPoint     Point
	BoxX          float64
	BoxWidth      float64
	Title         string
	Lines         []string
}

// Layout computes the overlay for s. The guide line sits in the middle of the
// sample's hour; containerWidth bounds the annotation box.
func Layout(p Projection, s types.Sample, containerWidth float64) Lollipop {
	start := HourStart(s.Time)
	mid := (p.X(start) + p.X(start.Add(time.Hour))) / 2
	return Lollipop{
		Sample:        s,
		GuideX:        mid,
		GuideTop:      0,
		GuideBottom:   p.Frame.Bottom(),
		PressurePoint: p.PressurePoint(s),
		WindPoint:     p.WindPoint(s),
		BoxX:          AnnotationOffset(containerWidth, mid, AnnotationWidth),
		BoxWidth:      AnnotationWidth,
		Title:         HourLabel(s.Time),
		Lines:         AnnotationLines(s),
	}
}

// AnnotationLines is the body of the annotation box.
func AnnotationLines(s types.Sample) []string {
	return []string{
		FormatNumber(s.WindSpeed) + "km/h",
		FormatNumber(s.Pressure) + "kpa",
	}
}

// CatmullRom returns a uniform Catmull-Rom spline through pts with steps
// segments between each pair of consecutive points. The end points are
// duplicated so the curve starts at pts[0] and ends at pts[len(pts)-1].
func CatmullRom(pts []Point, steps int) []Point {
	if len(pts) < 3 || steps < 1 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}
	out := make([]Point, 0, (len(pts)-1)*steps+1)
	for i := 0; i < len(pts)-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, len(pts)-1)]
		for s := 0; s < steps; s++ {
			t := float64(s) / float64(steps)
			out = append(out, catmullRomPoint(p0, p1, p2, p3, t))
		}
	}
	return append(out, pts[len(pts)-1])
}

func catmullRomPoint(p0, p1, p2, p3 Point, t float64) Point {
	t2 := t * t
	t3 := t2 * t
	f := func(a, b, c, d float64) float64 {
		return 0.5 * (2*b + (-a+c)*t + (2*a-5*b+4*c-d)*t2 + (-a+3*b-3*c+d)*t3)
	}
	return Point{X: f(p0.X, p1.X, p2.X, p3.X), Y: f(p0.Y, p1.Y, p2.Y, p3.Y)}
}
