package routes

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"ppda-seguimiento-backend/app/repository"
	"ppda-seguimiento-backend/app/service"
	"ppda-seguimiento-backend/middleware"
	"ppda-seguimiento-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const apiPrefix = "/api/v1"

// actorFromContext arma el Actor desde lo que dejó AuthMiddleware.
// Si no hay usuario responde 401 y retorna false.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	id, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized,
			utils.BuildResponseFailed("Autenticación inválida", "no_user_id", nil))
		return service.Actor{}, false
	}
	return service.Actor{
		UsuarioID:   id,
		Rol:         middleware.RolFromContext(c),
		OrganismoID: middleware.OrganismoIDFromContext(c),
	}, true
}

// uuidParam lee un parámetro de ruta UUID; responde 400 si es inválido.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest,
			utils.BuildResponseFailed("ID inválido", err.Error(), nil))
		return uuid.Nil, false
	}
	return id, true
}

func paginaFromQuery(c *gin.Context) repository.Pagina {
	n, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	return repository.Pagina{Numero: n, PorPagina: repository.PorPaginaDefecto}
}

// optUUID: "" => nil.
func optUUID(s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// optFecha parsea YYYY-MM-DD; "" => nil.
func optFecha(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type listado struct {
	Items  any   `json:"items"`
	Total  int64 `json:"total"`
	Pagina int   `json:"pagina"`
}
