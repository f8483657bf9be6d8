package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa toda la configuración del backend. Se llena desde variables
// de entorno (y .env si existe).
type Config struct {
	AppPort string

	DBDriver   string // postgres | sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBTimeZone string
	SQLitePath string

	MongoURI    string
	MongoDBName string

	StorageDriver string // disk | gridfs
	StorageDir    string
	GridFSBucket  string

	NATSURL          string
	NATSEmailSubject string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string

	LogLevel  string
	LogFormat string // console | json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "ppda")
	v.SetDefault("DB_TIMEZONE", "America/Santiago")
	v.SetDefault("SQLITE_PATH", "ppda.db")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "ppda")
	v.SetDefault("STORAGE_DRIVER", "disk")
	v.SetDefault("STORAGE_DIR", "media")
	v.SetDefault("GRIDFS_BUCKET", "archivos")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_EMAIL_SUBJECT", "notificaciones.email")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// Load carga .env (si existe) y lee la configuración desde el entorno.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper lee la configuración usando la instancia entregada.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	ttl, err := time.ParseDuration(v.GetString("JWT_TTL"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL inválido: %w", err)
	}

	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		DBDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:           v.GetString("DB_HOST"),
		DBPort:           v.GetString("DB_PORT"),
		DBUser:           v.GetString("DB_USER"),
		DBPassword:       v.GetString("DB_PASSWORD"),
		DBName:           v.GetString("DB_NAME"),
		DBTimeZone:       v.GetString("DB_TIMEZONE"),
		SQLitePath:       v.GetString("SQLITE_PATH"),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDBName:      v.GetString("MONGO_DB_NAME"),
		StorageDriver:    strings.ToLower(v.GetString("STORAGE_DRIVER")),
		StorageDir:       v.GetString("STORAGE_DIR"),
		GridFSBucket:     v.GetString("GRIDFS_BUCKET"),
		NATSURL:          v.GetString("NATS_URL"),
		NATSEmailSubject: v.GetString("NATS_EMAIL_SUBJECT"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           ttl,
		CORSOrigins:      splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER no soportado: %q", c.DBDriver)
	}
	switch c.StorageDriver {
	case "disk", "gridfs":
	default:
		return fmt.Errorf("STORAGE_DRIVER no soportado: %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET no configurado")
	}
	return nil
}

// PostgresDSN arma el DSN de postgres a partir de las partes configuradas.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimeZone)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
