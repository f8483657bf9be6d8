package service

import (
	"errors"

	"github.com/google/uuid"

	"ppda-seguimiento-backend/app/model"
)

// Motivos por los que un reporte no se genera. Generar siempre envuelve uno de estos.
var (
	ErrTipoReporteNoEncontrado = errors.New("tipo de reporte no encontrado")
	ErrSinPermiso              = errors.New("sin permiso")
	ErrSinOrganismo            = errors.New("el usuario no tiene organismo asociado")
	ErrOrganismoRequerido      = errors.New("debe indicar un organismo")
	ErrOrganismoNoEncontrado   = errors.New("organismo no encontrado")
	ErrComponenteRequerido     = errors.New("debe indicar un componente")
	ErrComponenteNoEncontrado  = errors.New("componente no encontrado")
	ErrCategoriaDesconocida    = errors.New("categoría de reporte desconocida")
	ErrRenderizado             = errors.New("error al renderizar el documento")
	ErrAlmacenamiento          = errors.New("error al guardar el reporte")
)

var (
	ErrReporteNoEncontrado = errors.New("reporte no encontrado")
	ErrArchivoNoDisponible = errors.New("archivo no disponible")

	ErrMedidaNoEncontrada = errors.New("medida no encontrada")
	ErrMedidaNoAsignada   = errors.New("la medida no está asignada a su organismo")
	ErrPorcentajeInvalido = errors.New("el porcentaje de avance debe estar entre 0 y 100")

	ErrNotificacionNoEncontrada = errors.New("notificación no encontrada")
	ErrUsuarioNoEncontrado      = errors.New("usuario no encontrado")
	ErrCredenciales             = errors.New("usuario o contraseña incorrectos")
	ErrUsuarioInactivo          = errors.New("la cuenta está desactivada")
)

// Actor es quien ejecuta la operación, tal como viene en el token.
type Actor struct {
	UsuarioID   uuid.UUID
	Rol         model.Rol
	OrganismoID *uuid.UUID
}
