package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"lollipop-server/internal/modules/lollipop/service"
	"lollipop-server/internal/modules/lollipop/types"
	"lollipop-server/internal/utils"
)

const subtitleLayout = "Mon Jan 2, 3:04 PM"

// pointerRequest is the body of a tap or drag. X is required so that 0 is
// distinguishable from a missing field.
type pointerRequest struct {
	X         *float64 `json:"x" validate:"required"`
	PlotWidth float64  `json:"plotWidth" validate:"gt=0"`
	RTL       bool     `json:"rtl"`
}

func (p pointerRequest) pointer() service.Pointer {
	return service.Pointer{X: *p.X, PlotWidth: p.PlotWidth, RightToLeft: p.RTL}
}

type chartQuery struct {
	Width  int `validate:"min=64,max=4096"`
	Height int `validate:"min=64,max=4096"`
	RTL    bool
}

func (c *lollipopControllerImpl) parseChartQuery(r *http.Request) (chartQuery, error) {
	q := r.URL.Query()
	out := chartQuery{Width: c.size.Width, Height: c.size.Height}
	if s := q.Get("width"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return chartQuery{}, errors.New("invalid 'width' (expected integer)")
		}
		out.Width = n
	}
	if s := q.Get("height"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return chartQuery{}, errors.New("invalid 'height' (expected integer)")
		}
		out.Height = n
	}
	if s := q.Get("rtl"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return chartQuery{}, errors.New("invalid 'rtl' (expected boolean)")
		}
		out.RTL = b
	}
	if err := utils.Validate(out); err != nil {
		return chartQuery{}, err
	}
	return out, nil
}

func parseLocateQuery(r *http.Request) (time.Time, error) {
	s := r.URL.Query().Get("t")
	if s == "" {
		return time.Time{}, errors.New("missing 't'")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("invalid 't' (expected RFC3339)")
	}
	return t, nil
}

// subtitle is the chart sub-heading: the date and time of the first sample.
func subtitle(samples []types.Sample) string {
	if len(samples) == 0 {
		return ""
	}
	return samples[0].Time.Format(subtitleLayout)
}
