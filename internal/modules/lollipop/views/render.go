package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strconv"

	"lollipop-server/internal/modules/lollipop/geometry"
)

// Title is the chart heading shown while nothing is selected.
const Title = "Windspeed and Pressure"

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// ChartData is the view model for the chart partial.
type ChartData struct {
	SessionID string
	Title     string
	// Subtitle is the date and time of the first sample.
	Subtitle    string
	Selected    bool
	SVG         template.HTML
	Plot        geometry.Frame
	Width       int
	Height      int
	RightToLeft bool
}

// NewChartData wraps a rendered chart for the partial template.
func NewChartData(sessionID, subtitle string, selected bool, c Chart, opts ChartOptions) *ChartData {
	return &ChartData{
		SessionID: sessionID,
		Title:     Title,
		Subtitle:  subtitle,
		Selected:  selected,
		// go-chart output is generated from numbers and fixed labels only.
		SVG:         template.HTML(c.SVG),
		Plot:        c.Plot,
		Width:       opts.Width,
		Height:      opts.Height,
		RightToLeft: opts.RightToLeft,
	}
}

// RefreshURL fetches this partial again with the same session, size and
// direction.
func (d *ChartData) RefreshURL() string {
	q := url.Values{}
	q.Set("session_id", d.SessionID)
	q.Set("width", strconv.Itoa(d.Width))
	q.Set("height", strconv.Itoa(d.Height))
	q.Set("rtl", strconv.FormatBool(d.RightToLeft))
	return "/partials/chart?" + q.Encode()
}

type DashboardData struct {
	Chart *ChartData
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderChartPartial executes only the chart partial into w.
// Use for HTMX fragment refresh after a gesture.
func RenderChartPartial(w io.Writer, data *ChartData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/chart.html", data)
}
