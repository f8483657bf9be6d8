package repository

import (
	"context"
	"time"

	"ppda-seguimiento-backend/app/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificacionRepository maneja notificaciones y sus tipos.
type NotificacionRepository interface {
	FindTipoByNombre(ctx context.Context, nombre string) (*model.TipoNotificacion, error)
	CreateTipo(ctx context.Context, t *model.TipoNotificacion) error

	Create(ctx context.Context, n *model.Notificacion) error
	FindDeUsuario(ctx context.Context, id, usuarioID uuid.UUID) (*model.Notificacion, error)
	List(ctx context.Context, usuarioID uuid.UUID, p Pagina) ([]model.Notificacion, int64, error)

	ContarNoLeidas(ctx context.Context, usuarioID uuid.UUID) (int64, error)
	ListNoLeidas(ctx context.Context, usuarioID uuid.UUID) ([]model.Notificacion, error)

	// MarcarLeida marca una notificación del usuario. Retorna false si ya estaba leída.
	MarcarLeida(ctx context.Context, id, usuarioID uuid.UUID, ahora time.Time) (bool, error)
	// MarcarTodasLeidas retorna cuántas notificaciones pasaron a leídas.
	MarcarTodasLeidas(ctx context.Context, usuarioID uuid.UUID, ahora time.Time) (int64, error)
}

type notificacionRepository struct {
	db *gorm.DB
}

func NewNotificacionRepository(db *gorm.DB) NotificacionRepository {
	return &notificacionRepository{db: db}
}

// noLeidas es el único predicado de "pendiente": lo usan el conteo, el listado y
// el marcado masivo.
func noLeidas(usuarioID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("usuario_id = ? AND leida = ?", usuarioID, false)
	}
}

func (r *notificacionRepository) FindTipoByNombre(ctx context.Context, nombre string) (*model.TipoNotificacion, error) {
	var t model.TipoNotificacion
	if err := r.db.WithContext(ctx).Where("nombre = ?", nombre).First(&t).Error; err != nil {
		return nil, wrap("buscar tipo de notificación", err)
	}
	return &t, nil
}

func (r *notificacionRepository) CreateTipo(ctx context.Context, t *model.TipoNotificacion) error {
	return wrap("crear tipo de notificación", r.db.WithContext(ctx).Create(t).Error)
}

func (r *notificacionRepository) Create(ctx context.Context, n *model.Notificacion) error {
	return wrap("crear notificación", r.db.WithContext(ctx).Create(n).Error)
}

func (r *notificacionRepository) FindDeUsuario(ctx context.Context, id, usuarioID uuid.UUID) (*model.Notificacion, error) {
	var n model.Notificacion
	err := r.db.WithContext(ctx).
		Preload("Tipo").
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		First(&n).Error
	if err != nil {
		return nil, wrap("buscar notificación", err)
	}
	return &n, nil
}

func (r *notificacionRepository) List(ctx context.Context, usuarioID uuid.UUID, p Pagina) ([]model.Notificacion, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Notificacion{}).
		Where("usuario_id = ?", usuarioID).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap("contar notificaciones", err)
	}

	var ns []model.Notificacion
	err := q.Preload("Tipo").
		Scopes(p.scope).
		Order("fecha_envio DESC").
		Find(&ns).Error
	if err != nil {
		return nil, 0, wrap("listar notificaciones", err)
	}
	return ns, total, nil
}

func (r *notificacionRepository) ContarNoLeidas(ctx context.Context, usuarioID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notificacion{}).
		Scopes(noLeidas(usuarioID)).
		Count(&count).Error
	if err != nil {
		return 0, wrap("contar no leídas", err)
	}
	return count, nil
}

// ListNoLeidas ordena por prioridad real (alta primero) y luego por fecha_envio.
func (r *notificacionRepository) ListNoLeidas(ctx context.Context, usuarioID uuid.UUID) ([]model.Notificacion, error) {
	var ns []model.Notificacion
	err := r.db.WithContext(ctx).
		Preload("Tipo").
		Scopes(noLeidas(usuarioID)).
		Order(model.OrdenPrioridadSQL).
		Order("fecha_envio DESC").
		Find(&ns).Error
	if err != nil {
		return nil, wrap("listar no leídas", err)
	}
	return ns, nil
}

func (r *notificacionRepository) MarcarLeida(ctx context.Context, id, usuarioID uuid.UUID, ahora time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notificacion{}).
		Scopes(noLeidas(usuarioID)).
		Where("id = ?", id).
		Updates(map[string]any{"leida": true, "fecha_lectura": ahora})
	if res.Error != nil {
		return false, wrap("marcar leída", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *notificacionRepository) MarcarTodasLeidas(ctx context.Context, usuarioID uuid.UUID, ahora time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notificacion{}).
		Scopes(noLeidas(usuarioID)).
		Updates(map[string]any{"leida": true, "fecha_lectura": ahora})
	if res.Error != nil {
		return 0, wrap("marcar todas leídas", res.Error)
	}
	return res.RowsAffected, nil
}
