package routes

import (
	"errors"
	"net/http"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/service"
	"ppda-seguimiento-backend/middleware"
	"ppda-seguimiento-backend/utils"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) SetupDashboardRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	dash := r.Group(apiPrefix + "/dashboard")
	dash.Use(auth)
	{
		dash.GET("/sma", middleware.RequireRoles(model.RolSuperadmin, model.RolAdminSMA), h.SMA)
		dash.GET("/organismo", middleware.RequireRoles(model.RolOrganismo), h.Organismo)
	}
}

func (h *DashboardHandler) SMA(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	d, err := h.dashboardService.SMA(ctx.Request.Context(), actor)
	if err != nil {
		responderDashboardError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Dashboard SMA", d))
}

func (h *DashboardHandler) Organismo(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	d, err := h.dashboardService.Organismo(ctx.Request.Context(), actor)
	if err != nil {
		responderDashboardError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Dashboard del organismo", d))
}

func responderDashboardError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSinPermiso), errors.Is(err, service.ErrSinOrganismo):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrOrganismoNoEncontrado):
		status = http.StatusNotFound
	}
	ctx.JSON(status, utils.BuildResponseFailed("No se pudo cargar el dashboard", err.Error(), nil))
}
