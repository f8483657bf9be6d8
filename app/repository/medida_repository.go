package repository

import (
	"context"

	"ppda-seguimiento-backend/app/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MedidaRepository maneja medidas y sus registros de avance.
type MedidaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Medida, error)
	FindDetalle(ctx context.Context, id uuid.UUID) (*model.Medida, error)
	ListByOrganismo(ctx context.Context, organismoID uuid.UUID) ([]model.Medida, error)

	// RegistrarAvance inserta el registro y sobrescribe porcentaje_avance de la
	// medida en una sola transacción.
	RegistrarAvance(ctx context.Context, reg *model.RegistroAvance) error
	ListRegistros(ctx context.Context, medidaID uuid.UUID) ([]model.RegistroAvance, error)
}

type medidaRepository struct {
	db *gorm.DB
}

func NewMedidaRepository(db *gorm.DB) MedidaRepository {
	return &medidaRepository{db: db}
}

func (r *medidaRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Medida, error) {
	var m model.Medida
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, wrap("buscar medida", err)
	}
	return &m, nil
}

// FindDetalle precarga componente y asignaciones con su organismo.
func (r *medidaRepository) FindDetalle(ctx context.Context, id uuid.UUID) (*model.Medida, error) {
	var m model.Medida
	err := r.db.WithContext(ctx).
		Preload("Componente").
		Preload("Asignaciones.Organismo").
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, wrap("buscar medida", err)
	}
	return &m, nil
}

// ListByOrganismo retorna las medidas asignadas al organismo, por código.
func (r *medidaRepository) ListByOrganismo(ctx context.Context, organismoID uuid.UUID) ([]model.Medida, error) {
	var medidas []model.Medida
	err := r.db.WithContext(ctx).
		Preload("Componente").
		Where("id IN (?)", r.db.Model(&model.AsignacionMedida{}).
			Select("medida_id").
			Where("organismo_id = ?", organismoID)).
		Order("codigo").
		Find(&medidas).Error
	if err != nil {
		return nil, wrap("listar medidas del organismo", err)
	}
	return medidas, nil
}

// RegistrarAvance no compara con el porcentaje anterior: gana la última escritura.
func (r *medidaRepository) RegistrarAvance(ctx context.Context, reg *model.RegistroAvance) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reg).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Medida{}).
			Where("id = ?", reg.MedidaID).
			Update("porcentaje_avance", reg.PorcentajeAvance)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return wrap("registrar avance", err)
}

// ListRegistros retorna el historial de la medida, más reciente primero.
func (r *medidaRepository) ListRegistros(ctx context.Context, medidaID uuid.UUID) ([]model.RegistroAvance, error) {
	var regs []model.RegistroAvance
	err := r.db.WithContext(ctx).
		Preload("Organismo").
		Preload("CreatedBy").
		Where("medida_id = ?", medidaID).
		Order("fecha_registro DESC").
		Order("created_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, wrap("listar registros", err)
	}
	return regs, nil
}
