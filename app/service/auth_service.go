package service

import (
	"context"
	"errors"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/repository"

	"golang.org/x/crypto/bcrypt"
)

// AuthService valida credenciales. El token lo emite el handler.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*model.Usuario, error)
}

type authService struct {
	usuarios repository.UsuarioRepository
}

func NewAuthService(usuarios repository.UsuarioRepository) AuthService {
	return &authService{usuarios: usuarios}
}

// Login compara la contraseña con el hash bcrypt y exige cuenta activa.
// Usuario inexistente y contraseña incorrecta retornan el mismo error.
func (s *authService) Login(ctx context.Context, username, password string) (*model.Usuario, error) {
	u, err := s.usuarios.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCredenciales
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrCredenciales
	}

	if !u.IsActive {
		return nil, ErrUsuarioInactivo
	}
	return u, nil
}

// HashPassword genera el hash bcrypt que se guarda en Usuario.PasswordHash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
