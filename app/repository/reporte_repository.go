package repository

import (
	"context"

	"ppda-seguimiento-backend/app/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReporteRepository maneja tipos de reporte y reportes generados.
type ReporteRepository interface {
	FindTipo(ctx context.Context, id uuid.UUID) (*model.TipoReporte, error)
	ListTiposParaRol(ctx context.Context, rol model.Rol) ([]model.TipoReporte, error)

	Create(ctx context.Context, r *model.ReporteGenerado) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReporteGenerado, error)

	// List retorna reportes por fecha_generacion descendente. usuarioID nil lista todos.
	List(ctx context.Context, usuarioID *uuid.UUID, p Pagina) ([]model.ReporteGenerado, int64, error)
}

type reporteRepository struct {
	db *gorm.DB
}

func NewReporteRepository(db *gorm.DB) ReporteRepository {
	return &reporteRepository{db: db}
}

func (r *reporteRepository) FindTipo(ctx context.Context, id uuid.UUID) (*model.TipoReporte, error) {
	var t model.TipoReporte
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, wrap("buscar tipo de reporte", err)
	}
	return &t, nil
}

// ListTiposParaRol filtra por la columna de acceso del rol. Un rol sin columna
// (ciudadano) no ve ningún tipo.
func (r *reporteRepository) ListTiposParaRol(ctx context.Context, rol model.Rol) ([]model.TipoReporte, error) {
	col := rol.ColumnaAcceso()
	if col == "" {
		return []model.TipoReporte{}, nil
	}

	var tipos []model.TipoReporte
	err := r.db.WithContext(ctx).
		Where(col+" = ?", true).
		Order("nombre").
		Find(&tipos).Error
	if err != nil {
		return nil, wrap("listar tipos de reporte", err)
	}
	return tipos, nil
}

func (r *reporteRepository) Create(ctx context.Context, rep *model.ReporteGenerado) error {
	return wrap("crear reporte", r.db.WithContext(ctx).Create(rep).Error)
}

func (r *reporteRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ReporteGenerado, error) {
	var rep model.ReporteGenerado
	err := r.db.WithContext(ctx).
		Preload("TipoReporte").
		Preload("Usuario").
		Preload("Organismo").
		Preload("Componente").
		First(&rep, "id = ?", id).Error
	if err != nil {
		return nil, wrap("buscar reporte", err)
	}
	return &rep, nil
}

func (r *reporteRepository) List(ctx context.Context, usuarioID *uuid.UUID, p Pagina) ([]model.ReporteGenerado, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ReporteGenerado{})
	if usuarioID != nil {
		q = q.Where("usuario_id = ?", *usuarioID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap("contar reportes", err)
	}

	var reps []model.ReporteGenerado
	err := q.Preload("TipoReporte").
		Preload("Usuario").
		Scopes(p.scope).
		Order("fecha_generacion DESC").
		Find(&reps).Error
	if err != nil {
		return nil, 0, wrap("listar reportes", err)
	}
	return reps, total, nil
}
