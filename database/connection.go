package database

import (
	"context"
	"fmt"
	"time"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/config"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database agrupa las conexiones del backend. Mongo es nil cuando el storage
// de archivos no usa GridFS.
type Database struct {
	SQL         *gorm.DB
	Mongo       *mongo.Database
	mongoClient *mongo.Client
}

// InitDB abre la base relacional según DB_DRIVER y, si STORAGE_DRIVER=gridfs,
// la conexión a MongoDB.
func InitDB(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Database, error) {
	sqlDB, err := OpenSQL(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("conectado a la base relacional")

	db := &Database{SQL: sqlDB}
	if cfg.StorageDriver != "gridfs" {
		return db, nil
	}

	client, err := ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db.mongoClient = client
	db.Mongo = client.Database(cfg.MongoDBName)
	log.Info().Str("db", cfg.MongoDBName).Msg("conectado a MongoDB")
	return db, nil
}

// OpenSQL abre gorm sobre postgres o sqlite.
func OpenSQL(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("driver no soportado: %s", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("conexión a %s: %w", cfg.DBDriver, err)
	}

	if cfg.DBDriver == "sqlite" {
		// sqlite admite un solo escritor
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	return db, nil
}

// Migrate crea o actualiza el esquema de todas las entidades.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("migración: %w", err)
	}
	return nil
}

// ConnectMongo conecta y hace ping a MongoDB.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("conexión a mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping a mongo: %w", err)
	}
	return client, nil
}

// Close cierra todas las conexiones abiertas.
func (d *Database) Close(ctx context.Context) error {
	if d.mongoClient != nil {
		if err := d.mongoClient.Disconnect(ctx); err != nil {
			return err
		}
	}
	sqlDB, err := d.SQL.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
