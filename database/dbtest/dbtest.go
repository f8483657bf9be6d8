// Package dbtest arma bases sqlite en memoria con el esquema completo y
// fixtures para los tests de repositorios, servicios y handlers.
package dbtest

import (
	"testing"
	"time"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open crea una base en memoria migrada. Una sola conexión: cada conexión a
// ":memory:" sería una base distinta.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Hoy es la fecha fija que usan los fixtures.
var Hoy = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

// Fixtures crea filas mínimas válidas.
type Fixtures struct {
	T  testing.TB
	DB *gorm.DB
}

func New(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{T: t, DB: db}
}

func (f *Fixtures) create(v any) {
	f.T.Helper()
	require.NoError(f.T, f.DB.Create(v).Error)
}

func (f *Fixtures) Organismo(nombre string) *model.Organismo {
	o := &model.Organismo{Nombre: nombre, Direccion: "Calle 123", EmailContacto: "contacto@org.cl"}
	f.create(o)
	return o
}

func (f *Fixtures) Componente(nombre string) *model.Componente {
	c := &model.Componente{Nombre: nombre}
	f.create(c)
	return c
}

// MedidaOpt ajusta una medida antes de insertarla.
type MedidaOpt func(*model.Medida)

func Termino(t time.Time) MedidaOpt { return func(m *model.Medida) { m.FechaTermino = t } }
func Inactiva() MedidaOpt           { return func(m *model.Medida) { m.Activo = false } }

func (f *Fixtures) Medida(codigo string, comp *model.Componente, estado model.EstadoMedida, avance int64, opts ...MedidaOpt) *model.Medida {
	m := &model.Medida{
		Codigo:           codigo,
		Nombre:           "Medida " + codigo,
		ComponenteID:     comp.ID,
		FechaInicio:      Hoy.AddDate(-1, 0, 0),
		FechaTermino:     Hoy.AddDate(1, 0, 0),
		Estado:           estado,
		Prioridad:        model.PrioridadMedia,
		PorcentajeAvance: decimal.NewFromInt(avance),
		Activo:           true,
	}
	for _, o := range opts {
		o(m)
	}
	f.create(m)
	return m
}

func (f *Fixtures) Asignar(m *model.Medida, o *model.Organismo) {
	f.create(&model.AsignacionMedida{MedidaID: m.ID, OrganismoID: o.ID, FechaAsignacion: Hoy})
}

func (f *Fixtures) Usuario(username string, rol model.Rol, org *model.Organismo) *model.Usuario {
	u := &model.Usuario{
		Username:     username,
		Email:        username + "@ppda.cl",
		PasswordHash: "x",
		Rol:          rol,
		IsActive:     true,
	}
	if org != nil {
		u.OrganismoID = &org.ID
	}
	f.create(u)
	return u
}

// Flags de acceso en orden superadmin, admin_sma, organismos.
func (f *Fixtures) TipoReporte(cat model.CategoriaReporte, superadmin, adminSMA, organismos bool) *model.TipoReporte {
	t := &model.TipoReporte{
		Nombre:           "Reporte " + string(cat),
		Categoria:        cat,
		AccesoSuperadmin: superadmin,
		AccesoAdminSMA:   adminSMA,
		AccesoOrganismos: organismos,
	}
	f.create(t)
	return t
}

func (f *Fixtures) Avance(m *model.Medida, o *model.Organismo, u *model.Usuario, fecha time.Time, pct int64, desc string) *model.RegistroAvance {
	r := &model.RegistroAvance{
		MedidaID:         m.ID,
		OrganismoID:      o.ID,
		FechaRegistro:    fecha,
		PorcentajeAvance: decimal.NewFromInt(pct),
		Descripcion:      desc,
		CreatedByID:      u.ID,
	}
	f.create(r)
	return r
}

func (f *Fixtures) Notificacion(u *model.Usuario, prioridad model.Prioridad, enviada time.Time) *model.Notificacion {
	tipo := &model.TipoNotificacion{}
	if err := f.DB.Where("nombre = ?", model.TipoNotificacionGeneral).First(tipo).Error; err != nil {
		tipo = &model.TipoNotificacion{Nombre: model.TipoNotificacionGeneral}
		f.create(tipo)
	}
	n := &model.Notificacion{
		TipoID:     tipo.ID,
		UsuarioID:  u.ID,
		Titulo:     "Aviso " + string(prioridad),
		Prioridad:  prioridad,
		FechaEnvio: enviada,
	}
	f.create(n)
	return n
}

// ID aleatorio que no existe en la base.
func ID() uuid.UUID { return uuid.New() }
