package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ppda-seguimiento-backend/app/client"
	"ppda-seguimiento-backend/app/repository"
	"ppda-seguimiento-backend/app/service"
	"ppda-seguimiento-backend/config"
	"ppda-seguimiento-backend/database"
	"ppda-seguimiento-backend/routes"
	"ppda-seguimiento-backend/utils"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "ppda",
		Short:         "Backend de seguimiento de medidas del PPDA",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var migrar bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrar)
		},
	}
	serve.Flags().BoolVar(&migrar, "migrate", false, "ejecuta AutoMigrate antes de levantar la API")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Crea o actualiza el esquema de la base de datos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), false)
		},
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Migra y carga los datos base (tipos, organismos, medidas, usuarios)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), true)
		},
	}

	root.AddCommand(serve, migrate, seed)
	root.RunE = serve.RunE

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// =================================================================
// SETUP
// =================================================================

func setup(ctx context.Context) (*config.Config, zerolog.Logger, *database.Database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := database.InitDB(ctx, cfg, log)
	if err != nil {
		return nil, log, nil, err
	}
	return cfg, log, db, nil
}

func runMigrate(ctx context.Context, seed bool) error {
	_, log, db, err := setup(ctx)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if err := database.Migrate(db.SQL); err != nil {
		return err
	}
	log.Info().Msg("migración completada")

	if seed {
		return database.RunSeeders(db.SQL, log)
	}
	return nil
}

func runServe(ctx context.Context, migrar bool) error {
	cfg, log, db, err := setup(ctx)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if migrar {
		if err := database.Migrate(db.SQL); err != nil {
			return err
		}
	}

	// =================================================================
	// ARCHIVOS + CORREO
	// =================================================================
	var archivos repository.ArchivoStore
	switch cfg.StorageDriver {
	case "gridfs":
		if archivos, err = repository.NewGridFSStore(db.Mongo, cfg.GridFSBucket); err != nil {
			return err
		}
	default:
		archivos = repository.NewDiskStore(cfg.StorageDir)
	}

	nc, err := client.ConnectNATS(cfg.NATSURL, log)
	if err != nil {
		// sin NATS la API funciona igual; sólo no salen correos
		log.Warn().Err(err).Msg("no se pudo conectar a NATS")
	}
	defer client.CerrarNATS(nc, log)
	var email service.EmailSender
	if nc != nil {
		email = client.NewEmailPublisher(nc, cfg.NATSEmailSubject, log)
	}

	// =================================================================
	// REPOSITORIES
	// =================================================================
	usuarioRepo := repository.NewUsuarioRepository(db.SQL)
	organismoRepo := repository.NewOrganismoRepository(db.SQL)
	medidaRepo := repository.NewMedidaRepository(db.SQL)
	estadisticaRepo := repository.NewEstadisticaRepository(db.SQL)
	reporteRepo := repository.NewReporteRepository(db.SQL)
	notificacionRepo := repository.NewNotificacionRepository(db.SQL)

	// =================================================================
	// SERVICES
	// =================================================================
	services := routes.Services{
		Auth: service.NewAuthService(usuarioRepo),
		Reportes: service.NewReporteService(service.ReporteDeps{
			Usuarios:     usuarioRepo,
			Reportes:     reporteRepo,
			Organismos:   organismoRepo,
			Medidas:      medidaRepo,
			Estadisticas: estadisticaRepo,
			Archivos:     archivos,
			Log:          log,
		}),
		Notificaciones: service.NewNotificacionService(notificacionRepo, usuarioRepo, email, log),
		Avances:        service.NewAvanceService(usuarioRepo, organismoRepo, medidaRepo, archivos, log),
		Dashboards:     service.NewDashboardService(estadisticaRepo, organismoRepo, medidaRepo),
	}

	// =================================================================
	// ROUTER + SERVER
	// =================================================================
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	router := routes.NewRouter(services, tokens, cfg.CORSOrigins, log)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.AppPort).Msg("API escuchando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("falló el servidor HTTP")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("apagando servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown del servidor HTTP")
	}
	log.Info().Msg("servidor detenido")
	return nil
}
