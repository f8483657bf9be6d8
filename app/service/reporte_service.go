package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ppda-seguimiento-backend/app/documento"
	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SolicitudReporte son los datos de entrada para generar un reporte.
type SolicitudReporte struct {
	TipoReporteID uuid.UUID
	OrganismoID   *uuid.UUID
	ComponenteID  *uuid.UUID
	FechaInicio   *time.Time
	FechaFin      *time.Time
	Titulo        string
	Extra         map[string]any
}

// ReporteService genera, lista y entrega reportes PDF.
type ReporteService interface {
	// TiposDisponibles retorna los tipos de reporte que el rol puede generar.
	TiposDisponibles(ctx context.Context, rol model.Rol) ([]model.TipoReporte, error)

	// Generar retorna el registro creado, o nil y un error que envuelve el motivo
	// (ErrSinPermiso, ErrOrganismoNoEncontrado, ...). Si falla no queda registro ni archivo.
	Generar(ctx context.Context, usuarioID uuid.UUID, req SolicitudReporte) (*model.ReporteGenerado, error)

	// Listar: los roles privilegiados ven todo salvo que pidan soloPropios.
	Listar(ctx context.Context, actor Actor, soloPropios bool, p repository.Pagina) ([]model.ReporteGenerado, int64, error)
	Detalle(ctx context.Context, actor Actor, id uuid.UUID) (*model.ReporteGenerado, error)

	// Abrir retorna el reporte y el contenido de su archivo. El llamador cierra el reader.
	Abrir(ctx context.Context, actor Actor, id uuid.UUID) (*model.ReporteGenerado, io.ReadCloser, error)
}

type reporteService struct {
	usuarios     repository.UsuarioRepository
	reportes     repository.ReporteRepository
	organismos   repository.OrganismoRepository
	medidas      repository.MedidaRepository
	estadisticas repository.EstadisticaRepository
	archivos     repository.ArchivoStore
	render       documento.Renderizador
	log          zerolog.Logger
	ahora        func() time.Time
}

// ReporteDeps agrupa las dependencias de NewReporteService.
type ReporteDeps struct {
	Usuarios     repository.UsuarioRepository
	Reportes     repository.ReporteRepository
	Organismos   repository.OrganismoRepository
	Medidas      repository.MedidaRepository
	Estadisticas repository.EstadisticaRepository
	Archivos     repository.ArchivoStore
	Render       documento.Renderizador
	Log          zerolog.Logger
	Ahora        func() time.Time
}

func NewReporteService(d ReporteDeps) ReporteService {
	if d.Render == nil {
		d.Render = documento.NewPDF()
	}
	if d.Ahora == nil {
		d.Ahora = time.Now
	}
	return &reporteService{
		usuarios:     d.Usuarios,
		reportes:     d.Reportes,
		organismos:   d.Organismos,
		medidas:      d.Medidas,
		estadisticas: d.Estadisticas,
		archivos:     d.Archivos,
		render:       d.Render,
		log:          d.Log.With().Str("servicio", "reportes").Logger(),
		ahora:        d.Ahora,
	}
}

const carpetaReportes = "reportes"

func (s *reporteService) TiposDisponibles(ctx context.Context, rol model.Rol) ([]model.TipoReporte, error) {
	return s.reportes.ListTiposParaRol(ctx, rol)
}

// ==================================================================
// GENERAR
// ==================================================================

func (s *reporteService) Generar(ctx context.Context, usuarioID uuid.UUID, req SolicitudReporte) (*model.ReporteGenerado, error) {
	rep, err := s.generar(ctx, usuarioID, req)
	if err != nil {
		s.log.Error().Err(err).
			Str("usuario_id", usuarioID.String()).
			Str("tipo_reporte_id", req.TipoReporteID.String()).
			Msg("no se generó el reporte")
		return nil, err
	}
	s.log.Info().
		Str("reporte_id", rep.ID.String()).
		Str("archivo", rep.Archivo).
		Msg("reporte generado")
	return rep, nil
}

func (s *reporteService) generar(ctx context.Context, usuarioID uuid.UUID, req SolicitudReporte) (*model.ReporteGenerado, error) {
	usuario, err := s.usuarios.FindByID(ctx, usuarioID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinPermiso, err)
	}

	tipo, err := s.reportes.FindTipo(ctx, req.TipoReporteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTipoReporteNoEncontrado
		}
		return nil, err
	}

	if !tipo.PermiteRol(usuario.Rol) {
		return nil, fmt.Errorf("%w: rol %s no puede generar %q", ErrSinPermiso, usuario.Rol, tipo.Nombre)
	}

	// un organismo sólo reporta sobre sí mismo
	organismoID := req.OrganismoID
	if usuario.Rol == model.RolOrganismo {
		if usuario.OrganismoID == nil {
			return nil, ErrSinOrganismo
		}
		organismoID = usuario.OrganismoID
	}

	ahora := s.ahora()
	titulo := req.Titulo
	if titulo == "" {
		titulo = fmt.Sprintf("%s - %s", tipo.Nombre, ahora.Format(formatoFecha))
	}

	doc, err := s.construir(ctx, tipo.Categoria, cabecera{Titulo: titulo, Generado: ahora, Autor: usuario.NombreCompleto()}, organismoID, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.render.Renderizar(doc, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderizado, err)
	}

	nombre := fmt.Sprintf("reporte_%s_%s.pdf", tipo.Categoria, ahora.Format("20060102_150405"))
	clave, err := s.archivos.Guardar(ctx, carpetaReportes, nombre, "application/pdf", &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlmacenamiento, err)
	}

	rep := &model.ReporteGenerado{
		TipoReporteID:   tipo.ID,
		UsuarioID:       usuario.ID,
		Titulo:          titulo,
		FechaGeneracion: ahora,
		Archivo:         clave,
		OrganismoID:     organismoID,
		ComponenteID:    req.ComponenteID,
		Parametros: model.ParametrosReporte{
			OrganismoID:  organismoID,
			ComponenteID: req.ComponenteID,
			FechaInicio:  req.FechaInicio,
			FechaFin:     req.FechaFin,
			Extra:        req.Extra,
		}.ToJSONMap(),
	}
	if err := s.reportes.Create(ctx, rep); err != nil {
		if delErr := s.archivos.Eliminar(ctx, clave); delErr != nil {
			s.log.Warn().Err(delErr).Str("archivo", clave).Msg("no se pudo eliminar el archivo huérfano")
		}
		return nil, fmt.Errorf("%w: %v", ErrAlmacenamiento, err)
	}
	rep.TipoReporte = tipo
	return rep, nil
}

// construir reúne los datos de la categoría y arma el documento.
func (s *reporteService) construir(ctx context.Context, cat model.CategoriaReporte, cab cabecera, organismoID *uuid.UUID, req SolicitudReporte) (*documento.Documento, error) {
	ahora := cab.Generado
	switch cat {
	case model.CategoriaGeneral:
		var d datosGeneral
		todas := repository.FiltroMedidas{}
		resumen, err := s.estadisticas.Resumen(ctx, todas, ahora)
		if err != nil {
			return nil, err
		}
		d.Resumen = *resumen
		if d.Distribucion, err = s.estadisticas.DistribucionPorEstado(ctx, todas); err != nil {
			return nil, err
		}
		if d.Componentes, err = s.estadisticas.AvancePorComponente(ctx, todas); err != nil {
			return nil, err
		}
		return construirReporteGeneral(cab, d), nil

	case model.CategoriaOrganismo:
		if organismoID == nil {
			return nil, ErrOrganismoRequerido
		}
		org, err := s.organismos.FindOrganismo(ctx, *organismoID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrOrganismoNoEncontrado
			}
			return nil, err
		}

		d := datosOrganismo{Organismo: *org}
		resumen, err := s.estadisticas.Resumen(ctx, repository.FiltroMedidas{OrganismoID: &org.ID}, ahora)
		if err != nil {
			return nil, err
		}
		d.Resumen = *resumen
		if d.Medidas, err = s.medidas.ListByOrganismo(ctx, org.ID); err != nil {
			return nil, err
		}
		d.Avances, err = s.estadisticas.UltimosAvances(ctx, repository.FiltroAvances{
			OrganismoID: &org.ID,
			Desde:       req.FechaInicio,
			Hasta:       req.FechaFin,
			Limite:      10,
		})
		if err != nil {
			return nil, err
		}
		return construirReporteOrganismo(cab, d), nil

	case model.CategoriaComponente:
		if req.ComponenteID == nil {
			return nil, ErrComponenteRequerido
		}
		comp, err := s.organismos.FindComponente(ctx, *req.ComponenteID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrComponenteNoEncontrado
			}
			return nil, err
		}
		return construirReporteComponente(cab, *comp), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrCategoriaDesconocida, cat)
}

// ==================================================================
// CONSULTA Y DESCARGA
// ==================================================================

func (s *reporteService) Listar(ctx context.Context, actor Actor, soloPropios bool, p repository.Pagina) ([]model.ReporteGenerado, int64, error) {
	var filtro *uuid.UUID
	if soloPropios || !actor.Rol.EsPrivilegiado() {
		filtro = &actor.UsuarioID
	}
	return s.reportes.List(ctx, filtro, p)
}

func (s *reporteService) Detalle(ctx context.Context, actor Actor, id uuid.UUID) (*model.ReporteGenerado, error) {
	rep, err := s.reportes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReporteNoEncontrado
		}
		return nil, err
	}
	if !actor.Rol.EsPrivilegiado() && rep.UsuarioID != actor.UsuarioID {
		return nil, ErrSinPermiso
	}
	return rep, nil
}

func (s *reporteService) Abrir(ctx context.Context, actor Actor, id uuid.UUID) (*model.ReporteGenerado, io.ReadCloser, error) {
	rep, err := s.Detalle(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if rep.Archivo == "" {
		return rep, nil, ErrArchivoNoDisponible
	}
	rc, err := s.archivos.Abrir(ctx, rep.Archivo)
	if err != nil {
		if errors.Is(err, repository.ErrArchivoNoEncontrado) {
			return rep, nil, ErrArchivoNoDisponible
		}
		return rep, nil, err
	}
	return rep, rc, nil
}
