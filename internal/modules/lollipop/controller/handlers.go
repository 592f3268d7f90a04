package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"lollipop-server/internal/modules/lollipop/service"
	"lollipop-server/internal/modules/lollipop/types"
	"lollipop-server/internal/modules/lollipop/views"
	"lollipop-server/internal/utils"
)

func (c *lollipopControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	q, err := c.parseChartQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	st := c.service.CreateSession()
	chartData, err := c.chartData(st, q)
	if err != nil {
		slog.Error("dashboard: render chart failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, &views.DashboardData{Chart: chartData}); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("dashboard: write response failed", "error", err)
	}
}

func (c *lollipopControllerImpl) handleChartPartial(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing 'session_id'")
		return
	}
	q, err := c.parseChartQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := c.session(w, id)
	if !ok {
		return
	}

	chartData, err := c.chartData(st, q)
	if err != nil {
		slog.Error("chart partial: render chart failed", "session_id", id, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	if chartData == nil {
		utils.WriteError(w, http.StatusNotFound, "no samples")
		return
	}

	var buf bytes.Buffer
	if err := views.RenderChartPartial(&buf, chartData); err != nil {
		slog.Error("chart partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("chart partial: write response failed", "error", err)
	}
}

func (c *lollipopControllerImpl) handleSamples(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.Samples())
}

func (c *lollipopControllerImpl) handleLocate(w http.ResponseWriter, r *http.Request) {
	t, err := parseLocateQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sample, ok := c.service.Locate(t)
	if !ok {
		utils.WriteError(w, http.StatusNotFound, "no match")
		return
	}
	utils.WriteJSON(w, http.StatusOK, sample)
}

func (c *lollipopControllerImpl) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	st := c.service.CreateSession()
	w.Header().Set("Location", "/api/v1/sessions/"+st.ID)
	utils.WriteJSON(w, http.StatusCreated, st)
}

func (c *lollipopControllerImpl) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, ok := c.session(w, r.PathValue("id"))
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, st)
}

func (c *lollipopControllerImpl) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	err := c.service.DeleteSession(r.PathValue("id"))
	if errors.Is(err, service.ErrSessionNotFound) {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *lollipopControllerImpl) handleTap(w http.ResponseWriter, r *http.Request) {
	c.handleGesture(w, r, types.GestureTap)
}

func (c *lollipopControllerImpl) handleDrag(w http.ResponseWriter, r *http.Request) {
	c.handleGesture(w, r, types.GestureDrag)
}

func (c *lollipopControllerImpl) handleGesture(w http.ResponseWriter, r *http.Request, g types.Gesture) {
	var body pointerRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	apply := c.service.Drag
	if g == types.GestureTap {
		apply = c.service.Tap
	}
	st, err := apply(r.Context(), r.PathValue("id"), body.pointer())
	if errors.Is(err, service.ErrSessionNotFound) {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, st)
}

func (c *lollipopControllerImpl) handleSessionChart(w http.ResponseWriter, r *http.Request) {
	q, err := c.parseChartQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := c.session(w, r.PathValue("id"))
	if !ok {
		return
	}
	c.writeChart(w, st.Sample, views.ChartOptions{Width: q.Width, Height: q.Height, RightToLeft: q.RTL})
}

func (c *lollipopControllerImpl) handleMinimalChart(w http.ResponseWriter, r *http.Request) {
	q, err := c.parseChartQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.writeChart(w, nil, views.ChartOptions{Width: q.Width, Height: q.Height, RightToLeft: q.RTL, Minimal: true})
}

func (c *lollipopControllerImpl) writeChart(w http.ResponseWriter, selected *types.Sample, opts views.ChartOptions) {
	chart, err := views.RenderChart(c.service.Samples(), selected, opts)
	if errors.Is(err, views.ErrNoSamples) {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		slog.Error("chart render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := w.Write(chart.SVG); err != nil {
		slog.Error("chart: write response failed", "error", err)
	}
}

// session looks up id and writes the 404 itself when it is unknown.
func (c *lollipopControllerImpl) session(w http.ResponseWriter, id string) (service.SessionState, bool) {
	st, err := c.service.Session(id)
	if errors.Is(err, service.ErrSessionNotFound) {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return service.SessionState{}, false
	}
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return service.SessionState{}, false
	}
	return st, true
}

// chartData renders the chart for st. It returns nil without error when
// there is nothing to chart.
func (c *lollipopControllerImpl) chartData(st service.SessionState, q chartQuery) (*views.ChartData, error) {
	samples := c.service.Samples()
	opts := views.ChartOptions{Width: q.Width, Height: q.Height, RightToLeft: q.RTL}
	chart, err := views.RenderChart(samples, st.Sample, opts)
	if errors.Is(err, views.ErrNoSamples) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return views.NewChartData(st.ID, subtitle(samples), st.Selected, chart, opts), nil
}
