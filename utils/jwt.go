package utils

import (
	"errors"
	"time"

	"ppda-seguimiento-backend/app/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

/*
 JWTCustomClaims

 El token lleva lo necesario para autorizar sin ir a la base:
 - UserID      (uuid)  : identidad del usuario
 - Rol         (string): superadmin / admin_sma / organismo / ciudadano
 - OrganismoID (uuid)  : organismo del usuario, nil si no tiene
*/
type JWTCustomClaims struct {
	UserID      uuid.UUID  `json:"userId"`
	Rol         model.Rol  `json:"rol"`
	OrganismoID *uuid.UUID `json:"organismoId,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager firma y valida tokens con un secreto HMAC fijo.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager crea un TokenManager. ttl <= 0 usa 24 horas.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken crea el access token de un usuario.
func (m *TokenManager) GenerateToken(u *model.Usuario) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("JWT_SECRET no configurado")
	}

	now := time.Now()
	claims := JWTCustomClaims{
		UserID:      u.ID,
		Rol:         u.Rol,
		OrganismoID: u.OrganismoID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   u.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken valida firma, expiración y rol, y retorna los claims.
func (m *TokenManager) ValidateToken(tokenString string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTCustomClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("token inválido")
	}
	if _, err := model.ParseRol(string(claims.Rol)); err != nil {
		return nil, err
	}
	return claims, nil
}
