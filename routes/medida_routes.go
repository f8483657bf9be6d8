package routes

import (
	"errors"
	"net/http"
	"strings"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/service"
	"ppda-seguimiento-backend/middleware"
	"ppda-seguimiento-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MedidaHandler expone el detalle de medidas y el registro de avances.
type MedidaHandler struct {
	avanceService service.AvanceService
}

func NewMedidaHandler(avanceService service.AvanceService) *MedidaHandler {
	return &MedidaHandler{avanceService: avanceService}
}

func (h *MedidaHandler) SetupMedidaRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	medidas := r.Group(apiPrefix + "/medidas")
	medidas.Use(auth)
	{
		medidas.GET("/:id", h.Detalle)
		medidas.POST("/:id/avances", middleware.RequireRoles(model.RolOrganismo), h.RegistrarAvance)
	}
}

func (h *MedidaHandler) Detalle(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	d, err := h.avanceService.DetalleMedida(ctx.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrMedidaNoEncontrada) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, utils.BuildResponseFailed("No se pudo obtener la medida", err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Detalle de la medida", d))
}

// RegistrarAvance acepta JSON o multipart/form-data (con archivo "evidencia").
func (h *MedidaHandler) RegistrarAvance(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}
	medidaID, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	var input struct {
		PorcentajeAvance decimal.Decimal `json:"porcentaje_avance" form:"porcentaje_avance"`
		Descripcion      string          `json:"descripcion" form:"descripcion" binding:"required"`
		FechaRegistro    string          `json:"fecha_registro" form:"fecha_registro"`
	}
	req := service.SolicitudAvance{MedidaID: medidaID}

	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		porcentaje, err := decimal.NewFromString(ctx.PostForm("porcentaje_avance"))
		if err != nil {
			ctx.JSON(http.StatusBadRequest,
				utils.BuildResponseFailed("porcentaje_avance inválido", err.Error(), nil))
			return
		}
		input.PorcentajeAvance = porcentaje
		input.Descripcion = ctx.PostForm("descripcion")
		input.FechaRegistro = ctx.PostForm("fecha_registro")

		if fh, err := ctx.FormFile("evidencia"); err == nil {
			f, err := fh.Open()
			if err != nil {
				ctx.JSON(http.StatusBadRequest,
					utils.BuildResponseFailed("No se pudo leer la evidencia", err.Error(), nil))
				return
			}
			defer f.Close()
			req.Evidencia = &service.Evidencia{
				Nombre:      fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Contenido:   f,
			}
		}
	} else if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest,
			utils.BuildResponseFailed("Datos de entrada inválidos", err.Error(), nil))
		return
	}

	fecha, err := optFecha(input.FechaRegistro)
	if err != nil {
		ctx.JSON(http.StatusBadRequest,
			utils.BuildResponseFailed("fecha_registro debe tener formato AAAA-MM-DD", err.Error(), nil))
		return
	}
	if fecha != nil {
		req.FechaRegistro = *fecha
	}
	req.Porcentaje = input.PorcentajeAvance
	req.Descripcion = input.Descripcion

	reg, err := h.avanceService.Registrar(ctx.Request.Context(), actor.UsuarioID, req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrSinPermiso),
			errors.Is(err, service.ErrSinOrganismo),
			errors.Is(err, service.ErrMedidaNoAsignada):
			status = http.StatusForbidden
		case errors.Is(err, service.ErrMedidaNoEncontrada):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrPorcentajeInvalido):
			status = http.StatusBadRequest
		}
		ctx.JSON(status, utils.BuildResponseFailed("No se pudo registrar el avance", err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusCreated, utils.BuildResponseSuccess("Avance registrado correctamente", reg))
}
