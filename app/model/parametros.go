package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VersionParametros es la versión del esquema de ParametrosReporte.
const VersionParametros = 1

const formatoFechaISO = "2006-01-02"

// ParametrosReporte es el esquema explícito de los parámetros con que se generó
// un reporte. Se persiste como un mapa JSON abierto (ver ToJSONMap).
type ParametrosReporte struct {
	OrganismoID  *uuid.UUID
	ComponenteID *uuid.UUID
	FechaInicio  *time.Time
	FechaFin     *time.Time
	Extra        map[string]any
}

var clavesReservadas = map[string]bool{
	"version":       true,
	"organismo_id":  true,
	"componente_id": true,
	"fecha_inicio":  true,
	"fecha_fin":     true,
}

// ToJSONMap arma el snapshot: claves fijas (null cuando no aplica) más las
// claves extra, que nunca pisan a las reservadas.
func (p ParametrosReporte) ToJSONMap() datatypes.JSONMap {
	m := datatypes.JSONMap{
		"version":       VersionParametros,
		"organismo_id":  uuidOrNil(p.OrganismoID),
		"componente_id": uuidOrNil(p.ComponenteID),
		"fecha_inicio":  fechaOrNil(p.FechaInicio),
		"fecha_fin":     fechaOrNil(p.FechaFin),
	}
	for k, v := range p.Extra {
		if clavesReservadas[k] {
			continue
		}
		m[k] = v
	}
	return m
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func fechaOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(formatoFechaISO)
}
