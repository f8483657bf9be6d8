package database

import (
	"fmt"
	"time"

	"ppda-seguimiento-backend/app/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RunSeeders carga los datos base. Cada seeder se salta si su tabla ya tiene filas.
func RunSeeders(db *gorm.DB, log zerolog.Logger) error {
	seeders := []struct {
		nombre string
		fn     func(*gorm.DB) (bool, error)
	}{
		{"tipos de reporte", SeedTiposReporte},
		{"tipos de notificacion", SeedTiposNotificacion},
		{"organismos", SeedOrganismos},
		{"componentes y medidas", SeedMedidas},
		{"usuarios", SeedUsuarios},
	}

	for _, s := range seeders {
		creado, err := s.fn(db)
		if err != nil {
			return fmt.Errorf("seed %s: %w", s.nombre, err)
		}
		if creado {
			log.Info().Str("seeder", s.nombre).Msg("datos base cargados")
		} else {
			log.Debug().Str("seeder", s.nombre).Msg("ya existen datos, se omite")
		}
	}
	return nil
}

func tablaVacia(db *gorm.DB, m any) (bool, error) {
	var count int64
	if err := db.Model(m).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// ===============================
//  SEED TIPOS DE REPORTE
// ===============================

func SeedTiposReporte(db *gorm.DB) (bool, error) {
	vacia, err := tablaVacia(db, &model.TipoReporte{})
	if err != nil || !vacia {
		return false, err
	}

	tipos := []model.TipoReporte{
		{
			Nombre:           "Reporte General del PPDA",
			Descripcion:      "Resumen del avance global, distribución por estado y avance por componente.",
			Categoria:        model.CategoriaGeneral,
			AccesoSuperadmin: true,
			AccesoAdminSMA:   true,
		},
		{
			Nombre:           "Reporte por Organismo",
			Descripcion:      "Medidas asignadas y últimos avances de un organismo.",
			Categoria:        model.CategoriaOrganismo,
			AccesoSuperadmin: true,
			AccesoAdminSMA:   true,
			AccesoOrganismos: true,
		},
		{
			Nombre:           "Reporte por Componente",
			Descripcion:      "Medidas de un componente del plan.",
			Categoria:        model.CategoriaComponente,
			AccesoSuperadmin: true,
			AccesoAdminSMA:   true,
		},
	}
	return true, db.Create(&tipos).Error
}

// ===============================
//  SEED TIPOS DE NOTIFICACION
// ===============================

func SeedTiposNotificacion(db *gorm.DB) (bool, error) {
	vacia, err := tablaVacia(db, &model.TipoNotificacion{})
	if err != nil || !vacia {
		return false, err
	}

	tipos := []model.TipoNotificacion{
		{Nombre: model.TipoNotificacionGeneral, Descripcion: "Avisos generales", Icono: "bell", Color: "secondary"},
		{Nombre: "Avance", Descripcion: "Nuevos registros de avance", Icono: "chart-line", Color: "success"},
		{Nombre: "Vencimiento", Descripcion: "Medidas próximas a vencer o vencidas", Icono: "clock", Color: "danger"},
		{Nombre: "Reporte", Descripcion: "Reportes generados", Icono: "file-pdf", Color: "info"},
	}
	return true, db.Create(&tipos).Error
}

// ===============================
//  SEED ORGANISMOS
// ===============================

func SeedOrganismos(db *gorm.DB) (bool, error) {
	vacia, err := tablaVacia(db, &model.Organismo{})
	if err != nil || !vacia {
		return false, err
	}

	return true, db.Transaction(func(tx *gorm.DB) error {
		municipal := model.TipoOrganismo{Nombre: "Municipal"}
		sectorial := model.TipoOrganismo{Nombre: "Servicio Público"}
		if err := tx.Create(&municipal).Error; err != nil {
			return err
		}
		if err := tx.Create(&sectorial).Error; err != nil {
			return err
		}

		organismos := []model.Organismo{
			{Nombre: "Municipalidad de Temuco", TipoID: &municipal.ID, Direccion: "Arturo Prat 650", Comuna: "Temuco", Region: "Araucanía", EmailContacto: "medioambiente@temuco.cl"},
			{Nombre: "Municipalidad de Padre Las Casas", TipoID: &municipal.ID, Direccion: "Maquehue 1441", Comuna: "Padre Las Casas", Region: "Araucanía", EmailContacto: "ambiente@padrelascasas.cl"},
			{Nombre: "SEREMI de Medio Ambiente", TipoID: &sectorial.ID, Direccion: "Vicuña Mackenna 224", Comuna: "Temuco", Region: "Araucanía", EmailContacto: "seremi09@mma.gob.cl"},
		}
		return tx.Create(&organismos).Error
	})
}

// ===============================
//  SEED COMPONENTES Y MEDIDAS
// ===============================

func SeedMedidas(db *gorm.DB) (bool, error) {
	vacia, err := tablaVacia(db, &model.Medida{})
	if err != nil || !vacia {
		return false, err
	}

	return true, db.Transaction(func(tx *gorm.DB) error {
		componentes := []model.Componente{
			{Nombre: "Calefacción Domiciliaria", Descripcion: "Recambio de calefactores y calidad de la leña", Color: "#e67e22"},
			{Nombre: "Educación Ambiental", Descripcion: "Difusión y participación ciudadana", Color: "#27ae60"},
			{Nombre: "Fiscalización", Descripcion: "Control de emisiones y episodios críticos", Color: "#2980b9"},
		}
		if err := tx.Create(&componentes).Error; err != nil {
			return err
		}

		var organismos []model.Organismo
		if err := tx.Order("nombre").Find(&organismos).Error; err != nil {
			return err
		}

		hoy := time.Now().UTC().Truncate(24 * time.Hour)
		medidas := []model.Medida{
			{Codigo: "CAL-01", Nombre: "Recambio de calefactores", ComponenteID: componentes[0].ID, FechaInicio: hoy.AddDate(-1, 0, 0), FechaTermino: hoy.AddDate(1, 0, 0), Estado: model.EstadoEnProceso, Prioridad: model.PrioridadAlta, PorcentajeAvance: decimal.NewFromInt(40), Activo: true},
			{Codigo: "CAL-02", Nombre: "Certificación de leña seca", ComponenteID: componentes[0].ID, FechaInicio: hoy.AddDate(-1, 0, 0), FechaTermino: hoy.AddDate(0, 0, 20), Estado: model.EstadoPendiente, Prioridad: model.PrioridadMedia, PorcentajeAvance: decimal.Zero, Activo: true},
			{Codigo: "EDU-01", Nombre: "Campaña de invierno", ComponenteID: componentes[1].ID, FechaInicio: hoy.AddDate(0, -6, 0), FechaTermino: hoy.AddDate(0, -1, 0), Estado: model.EstadoCompletada, Prioridad: model.PrioridadBaja, PorcentajeAvance: decimal.NewFromInt(100), Activo: true},
			{Codigo: "FIS-01", Nombre: "Fiscalización en episodios críticos", ComponenteID: componentes[2].ID, FechaInicio: hoy.AddDate(0, -8, 0), FechaTermino: hoy.AddDate(0, 0, -10), Estado: model.EstadoRetrasada, Prioridad: model.PrioridadAlta, PorcentajeAvance: decimal.NewFromInt(65), Activo: true},
		}
		if err := tx.Create(&medidas).Error; err != nil {
			return err
		}

		if len(organismos) == 0 {
			return nil
		}
		var asignaciones []model.AsignacionMedida
		for i, m := range medidas {
			asignaciones = append(asignaciones, model.AsignacionMedida{
				MedidaID:        m.ID,
				OrganismoID:     organismos[i%len(organismos)].ID,
				EsCoordinador:   true,
				FechaAsignacion: hoy,
			})
		}
		return tx.Create(&asignaciones).Error
	})
}

// ===============================
//  SEED USUARIOS
// ===============================

// SeedUsuarios crea un usuario por rol. La clave por defecto es "ppda1234".
func SeedUsuarios(db *gorm.DB) (bool, error) {
	vacia, err := tablaVacia(db, &model.Usuario{})
	if err != nil || !vacia {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("ppda1234"), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	var temuco model.Organismo
	if err := db.Where("nombre = ?", "Municipalidad de Temuco").First(&temuco).Error; err != nil {
		return false, fmt.Errorf("organismo base no encontrado: %w", err)
	}

	usuarios := []model.Usuario{
		{Username: "superadmin", Email: "superadmin@ppda.cl", Nombre: "Super", Apellido: "Admin", Rol: model.RolSuperadmin},
		{Username: "sma", Email: "fiscalizacion@sma.gob.cl", Nombre: "Analista", Apellido: "SMA", Rol: model.RolAdminSMA},
		{Username: "temuco", Email: "medioambiente@temuco.cl", Nombre: "Encargada", Apellido: "Ambiental", Rol: model.RolOrganismo, OrganismoID: &temuco.ID},
		{Username: "vecino", Email: "vecino@correo.cl", Nombre: "Vecino", Apellido: "Temuco", Rol: model.RolCiudadano},
	}
	for i := range usuarios {
		usuarios[i].PasswordHash = string(hash)
		usuarios[i].IsActive = true
	}
	return true, db.Create(&usuarios).Error
}
