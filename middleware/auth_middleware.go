package middleware

import (
	"net/http"
	"strings"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Claves del gin.Context que llena AuthMiddleware.
const (
	CtxUserID      = "userID"
	CtxRol         = "rol"
	CtxOrganismoID = "organismoID"
)

// AuthMiddleware valida el JWT del header Authorization (Bearer) y deja en el
// contexto el usuario, su rol y su organismo.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.BuildResponseFailed("Se requiere token de autorización", "missing_or_invalid_authorization_header", nil))
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.BuildResponseFailed("Se requiere token de autorización", "empty_token", nil))
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.BuildResponseFailed("Token inválido o expirado", err.Error(), nil))
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRol, claims.Rol)
		if claims.OrganismoID != nil {
			c.Set(CtxOrganismoID, *claims.OrganismoID)
		}
		c.Next()
	}
}

// RequireRoles corta con 403 si el rol del token no está en la lista.
func RequireRoles(roles ...model.Rol) gin.HandlerFunc {
	return func(c *gin.Context) {
		rol := RolFromContext(c)
		for _, r := range roles {
			if rol == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden,
			utils.BuildResponseFailed("No tiene permisos para esta acción", "forbidden_role", nil))
	}
}

// RolFromContext retorna el rol que dejó AuthMiddleware, o "" si no hay.
func RolFromContext(c *gin.Context) model.Rol {
	if v, ok := c.Get(CtxRol); ok {
		if r, ok := v.(model.Rol); ok {
			return r
		}
	}
	return ""
}

// UserIDFromContext retorna el id del usuario autenticado.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	if v, ok := c.Get(CtxUserID); ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// OrganismoIDFromContext retorna el organismo del token, nil si el usuario no tiene.
func OrganismoIDFromContext(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get(CtxOrganismoID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}
