package controller

import (
	"context"
	"net/http"
	"time"

	"lollipop-server/internal/modules/lollipop/service"
	"lollipop-server/internal/modules/lollipop/types"
)

// LollipopService is what the HTTP layer needs from the service.
type LollipopService interface {
	Samples() []types.Sample
	Locate(t time.Time) (types.Sample, bool)
	CreateSession() service.SessionState
	Session(id string) (service.SessionState, error)
	DeleteSession(id string) error
	Tap(ctx context.Context, id string, p service.Pointer) (service.SessionState, error)
	Drag(ctx context.Context, id string, p service.Pointer) (service.SessionState, error)
}

type LollipopController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// ChartSize is the default SVG size when a request does not name one.
type ChartSize struct {
	Width, Height int
}

type lollipopControllerImpl struct {
	service LollipopService
	size    ChartSize
}

func NewLollipopController(svc LollipopService, size ChartSize) LollipopController {
	return &lollipopControllerImpl{service: svc, size: size}
}

func (c *lollipopControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /partials/chart", c.handleChartPartial)

	mux.HandleFunc("GET /api/v1/samples", c.handleSamples)
	mux.HandleFunc("GET /api/v1/locate", c.handleLocate)
	mux.HandleFunc("GET /api/v1/chart.svg", c.handleMinimalChart)

	mux.HandleFunc("POST /api/v1/sessions", c.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", c.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", c.handleDeleteSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/tap", c.handleTap)
	mux.HandleFunc("POST /api/v1/sessions/{id}/drag", c.handleDrag)
	mux.HandleFunc("GET /api/v1/sessions/{id}/chart.svg", c.handleSessionChart)
}
