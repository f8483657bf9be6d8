package routes

import (
	"net/http"
	"time"

	"ppda-seguimiento-backend/app/service"
	"ppda-seguimiento-backend/middleware"
	"ppda-seguimiento-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Services agrupa lo que necesitan los handlers.
type Services struct {
	Auth           service.AuthService
	Reportes       service.ReporteService
	Notificaciones service.NotificacionService
	Avances        service.AvanceService
	Dashboards     service.DashboardService
}

// NewRouter arma el engine con CORS, log por request y todas las rutas.
func NewRouter(s Services, tokens *utils.TokenManager, corsOrigins []string, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET(apiPrefix+"/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(tokens)

	NewAuthHandler(s.Auth, tokens).SetupAuthRoutes(r)
	NewReporteHandler(s.Reportes).SetupReporteRoutes(r, auth)
	NewNotificacionHandler(s.Notificaciones).SetupNotificacionRoutes(r, auth)
	NewMedidaHandler(s.Avances).SetupMedidaRoutes(r, auth)
	NewDashboardHandler(s.Dashboards).SetupDashboardRoutes(r, auth)

	return r
}
