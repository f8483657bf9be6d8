package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base agrupa las columnas comunes a todas las tablas.
// El ID se genera en la aplicación (BeforeCreate) y no depende de gen_random_uuid().
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate asigna un ID si aún no existe.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Usuario representa a un usuario del sistema (superadmin, admin SMA, organismo, ciudadano).
type Usuario struct {
	Base
	Username     string     `gorm:"unique;not null" json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Nombre       string     `json:"nombre"`
	Apellido     string     `json:"apellido"`
	Rol          Rol        `gorm:"type:varchar(20);not null" json:"rol"`
	OrganismoID  *uuid.UUID `gorm:"type:uuid;index" json:"organismo_id,omitempty"`
	Organismo    *Organismo `gorm:"foreignKey:OrganismoID" json:"organismo,omitempty"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
}

// NombreCompleto retorna "nombre apellido", o el username si ambos están vacíos.
func (u Usuario) NombreCompleto() string {
	full := strings.TrimSpace(u.Nombre + " " + u.Apellido)
	if full == "" {
		return u.Username
	}
	return full
}

type TipoOrganismo struct {
	Base
	Nombre string `gorm:"not null" json:"nombre"`
}

// Organismo es la institución responsable de una o más medidas.
type Organismo struct {
	Base
	Nombre        string         `gorm:"not null" json:"nombre"`
	TipoID        *uuid.UUID     `gorm:"type:uuid" json:"tipo_id,omitempty"`
	Tipo          *TipoOrganismo `gorm:"foreignKey:TipoID" json:"tipo,omitempty"`
	RUT           string         `gorm:"column:rut" json:"rut"`
	Direccion     string         `json:"direccion"`
	Comuna        string         `json:"comuna"`
	Region        string         `json:"region"`
	Telefono      string         `json:"telefono"`
	EmailContacto string         `json:"email_contacto"`
}

// Componente agrupa medidas por eje temático del plan.
type Componente struct {
	Base
	Nombre      string `gorm:"not null" json:"nombre"`
	Descripcion string `gorm:"type:text" json:"descripcion"`
	Color       string `gorm:"type:varchar(20)" json:"color"`
}

// Medida es una acción regulatoria cuyo avance se monitorea.
// No se valida FechaTermino >= FechaInicio.
type Medida struct {
	Base
	Codigo           string             `gorm:"uniqueIndex;not null" json:"codigo"`
	Nombre           string             `gorm:"not null" json:"nombre"`
	Descripcion      string             `gorm:"type:text" json:"descripcion"`
	ComponenteID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"componente_id"`
	Componente       *Componente        `gorm:"foreignKey:ComponenteID" json:"componente,omitempty"`
	FechaInicio      time.Time          `gorm:"type:date" json:"fecha_inicio"`
	FechaTermino     time.Time          `gorm:"type:date" json:"fecha_termino"`
	Estado           EstadoMedida       `gorm:"type:varchar(20);not null;index" json:"estado"`
	Prioridad        Prioridad          `gorm:"type:varchar(10);not null" json:"prioridad"`
	PorcentajeAvance decimal.Decimal    `gorm:"type:decimal(5,2);not null" json:"porcentaje_avance"`
	Activo           bool               `gorm:"not null" json:"activo"`
	Asignaciones     []AsignacionMedida `gorm:"foreignKey:MedidaID" json:"asignaciones,omitempty"`
}

// AsignacionMedida registra qué organismo es responsable de una medida.
type AsignacionMedida struct {
	Base
	MedidaID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_asignacion_medida_organismo" json:"medida_id"`
	OrganismoID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_asignacion_medida_organismo" json:"organismo_id"`
	Organismo       *Organismo `gorm:"foreignKey:OrganismoID" json:"organismo,omitempty"`
	EsCoordinador   bool       `gorm:"not null" json:"es_coordinador"`
	Responsabilidad string     `gorm:"type:text" json:"responsabilidad"`
	FechaAsignacion time.Time  `json:"fecha_asignacion"`
}

// RegistroAvance es un reporte de avance enviado por un organismo sobre una medida.
type RegistroAvance struct {
	Base
	MedidaID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"medida_id"`
	Medida           *Medida         `gorm:"foreignKey:MedidaID" json:"medida,omitempty"`
	OrganismoID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"organismo_id"`
	Organismo        *Organismo      `gorm:"foreignKey:OrganismoID" json:"organismo,omitempty"`
	FechaRegistro    time.Time       `gorm:"type:date;not null;index" json:"fecha_registro"`
	PorcentajeAvance decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"porcentaje_avance"`
	Descripcion      string          `gorm:"type:text" json:"descripcion"`
	Evidencia        string          `json:"evidencia,omitempty"` // clave del archivo en el storage
	CreatedByID      uuid.UUID       `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedBy        *Usuario        `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

type TipoNotificacion struct {
	Base
	Nombre      string `gorm:"not null;index" json:"nombre"`
	Descripcion string `gorm:"type:text" json:"descripcion"`
	Icono       string `json:"icono"`
	Color       string `json:"color"`
}

// Notificacion es un aviso dirigido a un usuario, con estado leída/no leída.
type Notificacion struct {
	Base
	TipoID       uuid.UUID         `gorm:"type:uuid;not null" json:"tipo_id"`
	Tipo         *TipoNotificacion `gorm:"foreignKey:TipoID" json:"tipo,omitempty"`
	UsuarioID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Titulo       string            `gorm:"not null" json:"titulo"`
	Mensaje      string            `gorm:"type:text" json:"mensaje"`
	Enlace       string            `json:"enlace"`
	Prioridad    Prioridad         `gorm:"type:varchar(10);not null" json:"prioridad"`
	FechaEnvio   time.Time         `gorm:"not null;index" json:"fecha_envio"`
	FechaLectura *time.Time        `json:"fecha_lectura,omitempty"`
	Leida        bool              `gorm:"not null;index" json:"leida"`
}

// TipoReporte define una plantilla de reporte y sus flags de acceso por rol.
// Sin default en los tags: un false debe persistirse tal cual.
type TipoReporte struct {
	Base
	Nombre           string           `gorm:"not null" json:"nombre"`
	Descripcion      string           `gorm:"type:text" json:"descripcion"`
	Categoria        CategoriaReporte `gorm:"column:tipo;type:varchar(20);not null" json:"tipo"`
	AccesoSuperadmin bool             `gorm:"not null" json:"acceso_superadmin"`
	AccesoAdminSMA   bool             `gorm:"column:acceso_admin_sma;not null" json:"acceso_admin_sma"`
	AccesoOrganismos bool             `gorm:"not null" json:"acceso_organismos"`
}

// ReporteGenerado guarda la metadata de un PDF ya generado.
type ReporteGenerado struct {
	Base
	TipoReporteID   uuid.UUID         `gorm:"type:uuid;not null" json:"tipo_reporte_id"`
	TipoReporte     *TipoReporte      `gorm:"foreignKey:TipoReporteID" json:"tipo_reporte,omitempty"`
	UsuarioID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Usuario         *Usuario          `gorm:"foreignKey:UsuarioID" json:"usuario,omitempty"`
	Titulo          string            `gorm:"type:varchar(200);not null" json:"titulo"`
	FechaGeneracion time.Time         `gorm:"not null;index" json:"fecha_generacion"`
	Parametros      datatypes.JSONMap `gorm:"type:jsonb" json:"parametros"`
	Archivo         string            `json:"archivo"`
	OrganismoID     *uuid.UUID        `gorm:"type:uuid" json:"organismo_id,omitempty"`
	Organismo       *Organismo        `gorm:"foreignKey:OrganismoID" json:"organismo,omitempty"`
	ComponenteID    *uuid.UUID        `gorm:"type:uuid" json:"componente_id,omitempty"`
	Componente      *Componente       `gorm:"foreignKey:ComponenteID" json:"componente,omitempty"`
}

// All retorna todos los modelos para AutoMigrate.
func All() []any {
	return []any{
		&TipoOrganismo{},
		&Organismo{},
		&Usuario{},
		&Componente{},
		&Medida{},
		&AsignacionMedida{},
		&RegistroAvance{},
		&TipoNotificacion{},
		&Notificacion{},
		&TipoReporte{},
		&ReporteGenerado{},
	}
}
