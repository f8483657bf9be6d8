package repository

import (
	"context"

	"ppda-seguimiento-backend/app/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsuarioRepository define las operaciones sobre la tabla usuarios.
type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByUsername(ctx context.Context, username string) (*model.Usuario, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
}

type usuarioRepository struct {
	db *gorm.DB
}

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository {
	return &usuarioRepository{db: db}
}

func (r *usuarioRepository) Create(ctx context.Context, u *model.Usuario) error {
	return wrap("crear usuario", r.db.WithContext(ctx).Create(u).Error)
}

// FindByUsername se usa en el login.
func (r *usuarioRepository) FindByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).
		Preload("Organismo").
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		return nil, wrap("buscar usuario", err)
	}
	return &u, nil
}

// FindByID retorna el usuario con su organismo precargado.
func (r *usuarioRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).
		Preload("Organismo").
		First(&u, "id = ?", id).Error
	if err != nil {
		return nil, wrap("buscar usuario", err)
	}
	return &u, nil
}
