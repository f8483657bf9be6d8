package routes

import (
	"errors"
	"net/http"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/service"
	"ppda-seguimiento-backend/middleware"
	"ppda-seguimiento-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NotificacionHandler expone la bandeja de notificaciones del usuario.
type NotificacionHandler struct {
	notificacionService service.NotificacionService
}

func NewNotificacionHandler(notificacionService service.NotificacionService) *NotificacionHandler {
	return &NotificacionHandler{notificacionService: notificacionService}
}

func (h *NotificacionHandler) SetupNotificacionRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	notif := r.Group(apiPrefix + "/notificaciones")
	notif.Use(auth)
	{
		notif.GET("", h.Listar)
		notif.GET("/no-leidas", h.ContarNoLeidas)
		notif.GET("/pendientes", h.Pendientes)
		notif.POST("/leer-todas", h.MarcarTodasLeidas)
		notif.POST("/enviar", middleware.RequireRoles(model.RolSuperadmin, model.RolAdminSMA), h.Enviar)
		notif.GET("/:id", h.Detalle)
		notif.POST("/:id/leer", h.MarcarLeida)
	}
}

// Listar retorna una página de notificaciones, el total de no leídas y el flash pendiente.
func (h *NotificacionHandler) Listar(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	p := paginaFromQuery(ctx)
	c := ctx.Request.Context()

	items, total, err := h.notificacionService.Listar(c, actor.UsuarioID, p)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError,
			utils.BuildResponseFailed("No se pudieron listar las notificaciones", err.Error(), nil))
		return
	}
	noLeidas, err := h.notificacionService.ContarNoLeidas(c, actor.UsuarioID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError,
			utils.BuildResponseFailed("No se pudieron contar las notificaciones", err.Error(), nil))
		return
	}

	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Notificaciones", gin.H{
		"items":     items,
		"total":     total,
		"pagina":    p.Numero,
		"no_leidas": noLeidas,
		"flash":     utils.PopFlash(ctx),
	}))
}

// ContarNoLeidas responde {"cantidad": n}; ante error 500 con cantidad 0.
func (h *NotificacionHandler) ContarNoLeidas(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	n, err := h.notificacionService.ContarNoLeidas(ctx.Request.Context(), actor.UsuarioID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"cantidad": 0, "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cantidad": n})
}

func (h *NotificacionHandler) Pendientes(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	items, err := h.notificacionService.ListarNoLeidas(ctx.Request.Context(), actor.UsuarioID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError,
			utils.BuildResponseFailed("No se pudieron listar las notificaciones pendientes", err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Notificaciones pendientes", items))
}

func (h *NotificacionHandler) Detalle(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	n, err := h.notificacionService.Detalle(ctx.Request.Context(), actor.UsuarioID, id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNotificacionNoEncontrada) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, utils.BuildResponseFailed("No se pudo obtener la notificación", err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Detalle de la notificación", n))
}

// MarcarLeida responde {"success", "message", "pending_count"}.
func (h *NotificacionHandler) MarcarLeida(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "ID inválido"})
		return
	}

	pendientes, err := h.notificacionService.MarcarLeida(ctx.Request.Context(), actor.UsuarioID, id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNotificacionNoEncontrada) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Notificación marcada como leída.",
		"pending_count": pendientes,
	})
}

// MarcarTodasLeidas redirige a la bandeja con el resultado como flash.
func (h *NotificacionHandler) MarcarTodasLeidas(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	n, err := h.notificacionService.MarcarTodasLeidas(ctx.Request.Context(), actor.UsuarioID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError,
			utils.BuildResponseFailed("No se pudieron marcar las notificaciones", err.Error(), nil))
		return
	}
	utils.SetFlash(ctx, service.MensajeMarcadoMasivo(n))
	ctx.Redirect(http.StatusFound, apiPrefix+"/notificaciones")
}

func (h *NotificacionHandler) Enviar(ctx *gin.Context) {
	var input struct {
		UsuarioID   string `json:"usuario_id" binding:"required"`
		Tipo        string `json:"tipo"`
		Titulo      string `json:"titulo" binding:"required"`
		Mensaje     string `json:"mensaje" binding:"required"`
		Enlace      string `json:"enlace"`
		Prioridad   string `json:"prioridad"`
		EnviarEmail bool   `json:"enviar_email"`
	}
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest,
			utils.BuildResponseFailed("Datos de entrada inválidos", err.Error(), nil))
		return
	}
	usuarioID, err := uuid.Parse(input.UsuarioID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest,
			utils.BuildResponseFailed("usuario_id inválido", err.Error(), nil))
		return
	}

	n, err := h.notificacionService.Enviar(ctx.Request.Context(), service.SolicitudNotificacion{
		UsuarioID:   usuarioID,
		Tipo:        input.Tipo,
		Titulo:      input.Titulo,
		Mensaje:     input.Mensaje,
		Enlace:      input.Enlace,
		Prioridad:   model.Prioridad(input.Prioridad),
		EnviarEmail: input.EnviarEmail,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUsuarioNoEncontrado) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, utils.BuildResponseFailed("No se pudo enviar la notificación", err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusCreated, utils.BuildResponseSuccess("Notificación enviada", n))
}
