package routes

import (
	"errors"
	"net/http"

	"ppda-seguimiento-backend/app/service"
	"ppda-seguimiento-backend/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler maneja el login y la emisión del JWT.
type AuthHandler struct {
	authService service.AuthService
	tokens      *utils.TokenManager
}

func NewAuthHandler(authService service.AuthService, tokens *utils.TokenManager) *AuthHandler {
	return &AuthHandler{authService: authService, tokens: tokens}
}

func (h *AuthHandler) SetupAuthRoutes(r *gin.Engine) {
	authGroup := r.Group(apiPrefix + "/auth")
	{
		authGroup.POST("/login", h.Login)
	}
}

// ==================================================================
// HANDLERS
// ==================================================================

func (h *AuthHandler) Login(ctx *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest,
			utils.BuildResponseFailed("Datos de entrada inválidos", err.Error(), nil))
		return
	}

	user, err := h.authService.Login(ctx.Request.Context(), input.Username, input.Password)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrCredenciales) || errors.Is(err, service.ErrUsuarioInactivo) {
			status = http.StatusUnauthorized
		}
		ctx.JSON(status, utils.BuildResponseFailed("Login fallido", err.Error(), nil))
		return
	}

	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError,
			utils.BuildResponseFailed("No se pudo generar el token", err.Error(), nil))
		return
	}

	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Login exitoso", gin.H{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"nombre":       user.NombreCompleto(),
			"rol":          user.Rol,
			"organismo_id": user.OrganismoID,
		},
	}))
}
