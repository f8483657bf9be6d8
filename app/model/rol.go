package model

import "fmt"

// Rol es el perfil de un usuario. Es un conjunto cerrado: cualquier capacidad
// se resuelve con un switch exhaustivo sobre estas constantes.
type Rol string

const (
	RolSuperadmin Rol = "superadmin"
	RolAdminSMA   Rol = "admin_sma"
	RolOrganismo  Rol = "organismo"
	RolCiudadano  Rol = "ciudadano"
)

// Roles lista todos los roles válidos.
var Roles = []Rol{RolSuperadmin, RolAdminSMA, RolOrganismo, RolCiudadano}

// ParseRol convierte un string en Rol y falla ante valores desconocidos.
func ParseRol(s string) (Rol, error) {
	switch r := Rol(s); r {
	case RolSuperadmin, RolAdminSMA, RolOrganismo, RolCiudadano:
		return r, nil
	}
	return "", fmt.Errorf("rol desconocido: %q", s)
}

// EsPrivilegiado indica si el rol puede ver los reportes de todos los usuarios.
func (r Rol) EsPrivilegiado() bool {
	switch r {
	case RolSuperadmin, RolAdminSMA:
		return true
	case RolOrganismo, RolCiudadano:
		return false
	}
	return false
}

// PermiteRol indica si el rol tiene acceso a este tipo de reporte según sus flags.
func (t TipoReporte) PermiteRol(r Rol) bool {
	switch r {
	case RolSuperadmin:
		return t.AccesoSuperadmin
	case RolAdminSMA:
		return t.AccesoAdminSMA
	case RolOrganismo:
		return t.AccesoOrganismos
	case RolCiudadano:
		return false
	}
	return false
}

// ColumnaAcceso retorna la columna de flag que habilita el rol, o "" si ninguna.
func (r Rol) ColumnaAcceso() string {
	switch r {
	case RolSuperadmin:
		return "acceso_superadmin"
	case RolAdminSMA:
		return "acceso_admin_sma"
	case RolOrganismo:
		return "acceso_organismos"
	case RolCiudadano:
		return ""
	}
	return ""
}
