package routes

import (
	"errors"
	"fmt"
	"net/http"

	"ppda-seguimiento-backend/app/service"
	"ppda-seguimiento-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReporteHandler expone tipos de reporte, generación, listados y descarga.
type ReporteHandler struct {
	reporteService service.ReporteService
}

func NewReporteHandler(reporteService service.ReporteService) *ReporteHandler {
	return &ReporteHandler{reporteService: reporteService}
}

func (h *ReporteHandler) SetupReporteRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	api := r.Group(apiPrefix)
	api.Use(auth)
	{
		api.GET("/tipos-reporte", h.TiposDisponibles)

		api.POST("/reportes/generar", h.Generar)
		api.GET("/reportes", h.Listar)
		api.GET("/reportes/mios", h.MisReportes)
		api.GET("/reportes/:id", h.Detalle)
		api.GET("/reportes/:id/descargar", h.Descargar)
	}
}

const (
	flashArchivoNoDisponible = "El archivo no está disponible."
	flashSinPermisoReporte   = "No tiene permiso para ver este reporte."
)

// statusGeneracion traduce el motivo de la falla a un código HTTP.
func statusGeneracion(err error) int {
	switch {
	case errors.Is(err, service.ErrSinPermiso), errors.Is(err, service.ErrSinOrganismo):
		return http.StatusForbidden
	case errors.Is(err, service.ErrTipoReporteNoEncontrado),
		errors.Is(err, service.ErrOrganismoNoEncontrado),
		errors.Is(err, service.ErrComponenteNoEncontrado):
		return http.StatusNotFound
	case errors.Is(err, service.ErrOrganismoRequerido),
		errors.Is(err, service.ErrComponenteRequerido),
		errors.Is(err, service.ErrCategoriaDesconocida):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *ReporteHandler) TiposDisponibles(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	tipos, err := h.reporteService.TiposDisponibles(ctx.Request.Context(), actor.Rol)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError,
			utils.BuildResponseFailed("No se pudieron obtener los tipos de reporte", err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Tipos de reporte disponibles", tipos))
}

// Generar responde 201 con el registro, o {"error": ...} con el código del motivo.
func (h *ReporteHandler) Generar(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	var input struct {
		TipoReporteID string         `json:"tipo_reporte_id" binding:"required"`
		OrganismoID   string         `json:"organismo_id"`
		ComponenteID  string         `json:"componente_id"`
		FechaInicio   string         `json:"fecha_inicio"`
		FechaFin      string         `json:"fecha_fin"`
		Titulo        string         `json:"titulo" binding:"max=200"`
		Parametros    map[string]any `json:"parametros"`
	}
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := service.SolicitudReporte{Titulo: input.Titulo, Extra: input.Parametros}
	var err error
	if req.TipoReporteID, err = uuid.Parse(input.TipoReporteID); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "tipo_reporte_id inválido"})
		return
	}
	if req.OrganismoID, err = optUUID(input.OrganismoID); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "organismo_id inválido"})
		return
	}
	if req.ComponenteID, err = optUUID(input.ComponenteID); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "componente_id inválido"})
		return
	}
	if req.FechaInicio, err = optFecha(input.FechaInicio); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "fecha_inicio debe tener formato AAAA-MM-DD"})
		return
	}
	if req.FechaFin, err = optFecha(input.FechaFin); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "fecha_fin debe tener formato AAAA-MM-DD"})
		return
	}

	rep, err := h.reporteService.Generar(ctx.Request.Context(), actor.UsuarioID, req)
	if err != nil {
		ctx.JSON(statusGeneracion(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, utils.BuildResponseSuccess("Reporte generado correctamente", rep))
}

func (h *ReporteHandler) Listar(ctx *gin.Context) {
	h.listar(ctx, false)
}

func (h *ReporteHandler) MisReportes(ctx *gin.Context) {
	h.listar(ctx, true)
}

func (h *ReporteHandler) listar(ctx *gin.Context, soloPropios bool) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	p := paginaFromQuery(ctx)
	reps, total, err := h.reporteService.Listar(ctx.Request.Context(), actor, soloPropios, p)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError,
			utils.BuildResponseFailed("No se pudieron listar los reportes", err.Error(), nil))
		return
	}
	msg := utils.PopFlash(ctx)
	if msg == "" {
		msg = "Reportes generados"
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess(msg, listado{Items: reps, Total: total, Pagina: p.Numero}))
}

func (h *ReporteHandler) Detalle(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	rep, err := h.reporteService.Detalle(ctx.Request.Context(), actor, id)
	if err != nil {
		h.fallaConsulta(ctx, err)
		return
	}
	msg := utils.PopFlash(ctx)
	if msg == "" {
		msg = "Detalle del reporte"
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess(msg, rep))
}

// Descargar entrega el PDF. Reporte ajeno: vuelve a "mis reportes"; archivo
// ausente: vuelve al detalle. En ambos casos con un mensaje flash.
func (h *ReporteHandler) Descargar(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	rep, rc, err := h.reporteService.Abrir(ctx.Request.Context(), actor, id)
	switch {
	case errors.Is(err, service.ErrSinPermiso):
		utils.SetFlash(ctx, flashSinPermisoReporte)
		ctx.Redirect(http.StatusFound, apiPrefix+"/reportes/mios")
		return
	case errors.Is(err, service.ErrArchivoNoDisponible):
		utils.SetFlash(ctx, flashArchivoNoDisponible)
		ctx.Redirect(http.StatusFound, fmt.Sprintf("%s/reportes/%s", apiPrefix, id))
		return
	case err != nil:
		h.fallaConsulta(ctx, err)
		return
	}
	defer rc.Close()

	categoria := "reporte"
	if rep.TipoReporte != nil {
		categoria = string(rep.TipoReporte.Categoria)
	}
	nombre := fmt.Sprintf("reporte_%s_%s.pdf", categoria, rep.ID)
	ctx.DataFromReader(http.StatusOK, -1, "application/pdf", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, nombre),
	})
}

func (h *ReporteHandler) fallaConsulta(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReporteNoEncontrado):
		ctx.JSON(http.StatusNotFound, utils.BuildResponseFailed("Reporte no encontrado", err.Error(), nil))
	case errors.Is(err, service.ErrSinPermiso):
		ctx.JSON(http.StatusForbidden, utils.BuildResponseFailed(flashSinPermisoReporte, err.Error(), nil))
	default:
		ctx.JSON(http.StatusInternalServerError, utils.BuildResponseFailed("Error al consultar el reporte", err.Error(), nil))
	}
}
