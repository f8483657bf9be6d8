package repository

import (
	"context"

	"ppda-seguimiento-backend/app/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganismoRepository cubre organismos, componentes y la relación de asignación.
type OrganismoRepository interface {
	FindOrganismo(ctx context.Context, id uuid.UUID) (*model.Organismo, error)
	FindComponente(ctx context.Context, id uuid.UUID) (*model.Componente, error)

	// EstaAsignado indica si el organismo tiene una AsignacionMedida sobre la medida.
	EstaAsignado(ctx context.Context, medidaID, organismoID uuid.UUID) (bool, error)
}

type organismoRepository struct {
	db *gorm.DB
}

func NewOrganismoRepository(db *gorm.DB) OrganismoRepository {
	return &organismoRepository{db: db}
}

func (r *organismoRepository) FindOrganismo(ctx context.Context, id uuid.UUID) (*model.Organismo, error) {
	var o model.Organismo
	if err := r.db.WithContext(ctx).Preload("Tipo").First(&o, "id = ?", id).Error; err != nil {
		return nil, wrap("buscar organismo", err)
	}
	return &o, nil
}

func (r *organismoRepository) FindComponente(ctx context.Context, id uuid.UUID) (*model.Componente, error) {
	var c model.Componente
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, wrap("buscar componente", err)
	}
	return &c, nil
}

// EstaAsignado: existe una fila con medida_id y organismo_id dados.
func (r *organismoRepository) EstaAsignado(ctx context.Context, medidaID, organismoID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AsignacionMedida{}).
		Where("medida_id = ? AND organismo_id = ?", medidaID, organismoID).
		Count(&count).Error
	if err != nil {
		return false, wrap("verificar asignación", err)
	}
	return count > 0, nil
}
