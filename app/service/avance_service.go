package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Evidencia es el archivo opcional adjunto a un registro de avance.
type Evidencia struct {
	Nombre      string
	ContentType string
	Contenido   io.Reader
}

type SolicitudAvance struct {
	MedidaID      uuid.UUID
	Porcentaje    decimal.Decimal
	Descripcion   string
	FechaRegistro time.Time // cero = hoy
	Evidencia     *Evidencia
}

// DetalleMedida es la medida con su historial de avances.
type DetalleMedida struct {
	Medida    *model.Medida          `json:"medida"`
	Registros []model.RegistroAvance `json:"registros"`
}

// AvanceService implementa el flujo de registro de avances de los organismos.
type AvanceService interface {
	Registrar(ctx context.Context, usuarioID uuid.UUID, req SolicitudAvance) (*model.RegistroAvance, error)
	DetalleMedida(ctx context.Context, medidaID uuid.UUID) (*DetalleMedida, error)
}

type avanceService struct {
	usuarios   repository.UsuarioRepository
	organismos repository.OrganismoRepository
	medidas    repository.MedidaRepository
	archivos   repository.ArchivoStore
	log        zerolog.Logger
	ahora      func() time.Time
}

func NewAvanceService(
	usuarios repository.UsuarioRepository,
	organismos repository.OrganismoRepository,
	medidas repository.MedidaRepository,
	archivos repository.ArchivoStore,
	log zerolog.Logger,
) AvanceService {
	return &avanceService{
		usuarios:   usuarios,
		organismos: organismos,
		medidas:    medidas,
		archivos:   archivos,
		log:        log.With().Str("servicio", "avances").Logger(),
		ahora:      time.Now,
	}
}

var (
	cero = decimal.Zero
	cien = decimal.NewFromInt(100)
)

const carpetaEvidencias = "evidencias"

// Registrar valida que el usuario sea un organismo asignado a la medida, y
// entonces inserta el registro y sobrescribe el avance de la medida.
func (s *avanceService) Registrar(ctx context.Context, usuarioID uuid.UUID, req SolicitudAvance) (*model.RegistroAvance, error) {
	usuario, err := s.usuarios.FindByID(ctx, usuarioID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinPermiso, err)
	}
	if usuario.Rol != model.RolOrganismo {
		return nil, ErrSinPermiso
	}
	if usuario.OrganismoID == nil {
		return nil, ErrSinOrganismo
	}
	if req.Porcentaje.LessThan(cero) || req.Porcentaje.GreaterThan(cien) {
		return nil, ErrPorcentajeInvalido
	}

	if _, err := s.medidas.FindByID(ctx, req.MedidaID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMedidaNoEncontrada
		}
		return nil, err
	}
	asignada, err := s.organismos.EstaAsignado(ctx, req.MedidaID, *usuario.OrganismoID)
	if err != nil {
		return nil, err
	}
	if !asignada {
		return nil, ErrMedidaNoAsignada
	}

	fecha := req.FechaRegistro
	if fecha.IsZero() {
		fecha = s.ahora()
	}
	reg := &model.RegistroAvance{
		MedidaID:         req.MedidaID,
		OrganismoID:      *usuario.OrganismoID,
		FechaRegistro:    repository.Dia(fecha),
		PorcentajeAvance: req.Porcentaje,
		Descripcion:      req.Descripcion,
		CreatedByID:      usuario.ID,
	}

	if ev := req.Evidencia; ev != nil {
		clave, err := s.archivos.Guardar(ctx, carpetaEvidencias, ev.Nombre, ev.ContentType, ev.Contenido)
		if err != nil {
			return nil, fmt.Errorf("guardar evidencia: %w", err)
		}
		reg.Evidencia = clave
	}

	if err := s.medidas.RegistrarAvance(ctx, reg); err != nil {
		if reg.Evidencia != "" {
			if delErr := s.archivos.Eliminar(ctx, reg.Evidencia); delErr != nil {
				s.log.Warn().Err(delErr).Str("archivo", reg.Evidencia).Msg("no se pudo eliminar la evidencia huérfana")
			}
		}
		return nil, err
	}

	s.log.Info().
		Str("medida_id", reg.MedidaID.String()).
		Str("organismo_id", reg.OrganismoID.String()).
		Str("porcentaje", reg.PorcentajeAvance.String()).
		Msg("avance registrado")
	return reg, nil
}

func (s *avanceService) DetalleMedida(ctx context.Context, medidaID uuid.UUID) (*DetalleMedida, error) {
	m, err := s.medidas.FindDetalle(ctx, medidaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMedidaNoEncontrada
		}
		return nil, err
	}
	regs, err := s.medidas.ListRegistros(ctx, medidaID)
	if err != nil {
		return nil, err
	}
	return &DetalleMedida{Medida: m, Registros: regs}, nil
}
