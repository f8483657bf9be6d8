package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ppda-seguimiento-backend/app/client"
	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EmailSender publica un correo. Lo implementa client.EmailPublisher.
type EmailSender interface {
	Publish(ctx context.Context, ev client.EmailEvent) error
}

type SolicitudNotificacion struct {
	UsuarioID   uuid.UUID
	Tipo        string // nombre del TipoNotificacion; vacío o desconocido = "General"
	Titulo      string
	Mensaje     string
	Enlace      string
	Prioridad   model.Prioridad // vacío = media
	EnviarEmail bool
}

// NotificacionService crea notificaciones y maneja su estado de lectura.
type NotificacionService interface {
	// Enviar crea la notificación. Si se pide correo y el usuario tiene email,
	// publica el evento; una falla al publicar sólo se registra en el log.
	Enviar(ctx context.Context, req SolicitudNotificacion) (*model.Notificacion, error)

	ContarNoLeidas(ctx context.Context, usuarioID uuid.UUID) (int64, error)
	ListarNoLeidas(ctx context.Context, usuarioID uuid.UUID) ([]model.Notificacion, error)
	Listar(ctx context.Context, usuarioID uuid.UUID, p repository.Pagina) ([]model.Notificacion, int64, error)

	// Detalle retorna la notificación del usuario y la marca como leída.
	Detalle(ctx context.Context, usuarioID, id uuid.UUID) (*model.Notificacion, error)

	// MarcarLeida retorna cuántas quedan pendientes después de marcar.
	MarcarLeida(ctx context.Context, usuarioID, id uuid.UUID) (int64, error)
	// MarcarTodasLeidas retorna cuántas pasaron de no leídas a leídas.
	MarcarTodasLeidas(ctx context.Context, usuarioID uuid.UUID) (int64, error)
}

type notificacionService struct {
	repo     repository.NotificacionRepository
	usuarios repository.UsuarioRepository
	email    EmailSender
	log      zerolog.Logger
	ahora    func() time.Time
}

// NewNotificacionService: email puede ser nil (sin envío de correos).
func NewNotificacionService(
	repo repository.NotificacionRepository,
	usuarios repository.UsuarioRepository,
	email EmailSender,
	log zerolog.Logger,
) NotificacionService {
	return &notificacionService{
		repo:     repo,
		usuarios: usuarios,
		email:    email,
		log:      log.With().Str("servicio", "notificaciones").Logger(),
		ahora:    time.Now,
	}
}

// MensajeMarcadoMasivo es el texto que ve el usuario tras "marcar todas".
func MensajeMarcadoMasivo(n int64) string {
	if n == 0 {
		return "No hay notificaciones pendientes por leer."
	}
	return fmt.Sprintf("%d notificaciones marcadas como leídas.", n)
}

func (s *notificacionService) Enviar(ctx context.Context, req SolicitudNotificacion) (*model.Notificacion, error) {
	usuario, err := s.usuarios.FindByID(ctx, req.UsuarioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUsuarioNoEncontrado
		}
		return nil, err
	}

	tipo, err := s.resolverTipo(ctx, req.Tipo)
	if err != nil {
		return nil, err
	}

	prioridad := req.Prioridad
	if !prioridad.Valida() {
		prioridad = model.PrioridadMedia
	}

	n := &model.Notificacion{
		TipoID:     tipo.ID,
		UsuarioID:  usuario.ID,
		Titulo:     req.Titulo,
		Mensaje:    req.Mensaje,
		Enlace:     req.Enlace,
		Prioridad:  prioridad,
		FechaEnvio: s.ahora(),
		Leida:      false,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	n.Tipo = tipo

	if req.EnviarEmail && usuario.Email != "" && s.email != nil {
		ev := client.EmailEvent{
			Para:       usuario.Email,
			Asunto:     n.Titulo,
			Cuerpo:     n.Mensaje,
			Enlace:     n.Enlace,
			Prioridad:  string(n.Prioridad),
			Referencia: n.ID.String(),
			EmitidoEn:  n.FechaEnvio,
		}
		if err := s.email.Publish(ctx, ev); err != nil {
			s.log.Warn().Err(err).
				Str("notificacion_id", n.ID.String()).
				Msg("no se pudo publicar el correo (se mantiene la notificación)")
		}
	}
	return n, nil
}

// resolverTipo busca el tipo por nombre, cae a "General" y lo crea si tampoco existe.
func (s *notificacionService) resolverTipo(ctx context.Context, nombre string) (*model.TipoNotificacion, error) {
	if nombre != "" && nombre != model.TipoNotificacionGeneral {
		t, err := s.repo.FindTipoByNombre(ctx, nombre)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	t, err := s.repo.FindTipoByNombre(ctx, model.TipoNotificacionGeneral)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	t = &model.TipoNotificacion{
		Nombre:      model.TipoNotificacionGeneral,
		Descripcion: "Notificaciones generales del sistema",
	}
	if err := s.repo.CreateTipo(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *notificacionService) ContarNoLeidas(ctx context.Context, usuarioID uuid.UUID) (int64, error) {
	return s.repo.ContarNoLeidas(ctx, usuarioID)
}

func (s *notificacionService) ListarNoLeidas(ctx context.Context, usuarioID uuid.UUID) ([]model.Notificacion, error) {
	return s.repo.ListNoLeidas(ctx, usuarioID)
}

func (s *notificacionService) Listar(ctx context.Context, usuarioID uuid.UUID, p repository.Pagina) ([]model.Notificacion, int64, error) {
	return s.repo.List(ctx, usuarioID, p)
}

func (s *notificacionService) Detalle(ctx context.Context, usuarioID, id uuid.UUID) (*model.Notificacion, error) {
	n, err := s.buscar(ctx, usuarioID, id)
	if err != nil {
		return nil, err
	}
	if !n.Leida {
		ahora := s.ahora()
		if _, err := s.repo.MarcarLeida(ctx, id, usuarioID, ahora); err != nil {
			return nil, err
		}
		n.Leida = true
		n.FechaLectura = &ahora
	}
	return n, nil
}

func (s *notificacionService) MarcarLeida(ctx context.Context, usuarioID, id uuid.UUID) (int64, error) {
	if _, err := s.buscar(ctx, usuarioID, id); err != nil {
		return 0, err
	}
	if _, err := s.repo.MarcarLeida(ctx, id, usuarioID, s.ahora()); err != nil {
		return 0, err
	}
	return s.repo.ContarNoLeidas(ctx, usuarioID)
}

func (s *notificacionService) MarcarTodasLeidas(ctx context.Context, usuarioID uuid.UUID) (int64, error) {
	n, err := s.repo.MarcarTodasLeidas(ctx, usuarioID, s.ahora())
	if err != nil {
		return 0, err
	}
	s.log.Debug().Str("usuario_id", usuarioID.String()).Int64("marcadas", n).Msg("notificaciones marcadas como leídas")
	return n, nil
}

func (s *notificacionService) buscar(ctx context.Context, usuarioID, id uuid.UUID) (*model.Notificacion, error) {
	n, err := s.repo.FindDeUsuario(ctx, id, usuarioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotificacionNoEncontrada
		}
		return nil, err
	}
	return n, nil
}
