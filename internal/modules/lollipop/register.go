package lollipop

import (
	"net/http"

	"lollipop-server/internal/config"
	"lollipop-server/internal/modules/lollipop/controller"
	"lollipop-server/internal/modules/lollipop/service"
)

func RegisterFeature(mux *http.ServeMux, svc *service.Service, cfg config.Config) {
	lollipopController := controller.NewLollipopController(svc, controller.ChartSize{
		Width:  cfg.ChartWidth,
		Height: cfg.ChartHeight,
	})
	lollipopController.RegisterRoutes(mux)
}
