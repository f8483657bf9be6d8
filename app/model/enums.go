package model

// EstadoMedida es el estado de avance de una medida.
type EstadoMedida string

const (
	EstadoPendiente  EstadoMedida = "pendiente"
	EstadoEnProceso  EstadoMedida = "en_proceso"
	EstadoCompletada EstadoMedida = "completada"
	EstadoRetrasada  EstadoMedida = "retrasada"
	EstadoSuspendida EstadoMedida = "suspendida"
)

// EstadosMedida en el orden en que se muestran en reportes y dashboards.
var EstadosMedida = []EstadoMedida{
	EstadoPendiente,
	EstadoEnProceso,
	EstadoCompletada,
	EstadoRetrasada,
	EstadoSuspendida,
}

// Etiqueta retorna el nombre legible del estado.
func (e EstadoMedida) Etiqueta() string {
	switch e {
	case EstadoPendiente:
		return "Pendiente"
	case EstadoEnProceso:
		return "En Proceso"
	case EstadoCompletada:
		return "Completada"
	case EstadoRetrasada:
		return "Retrasada"
	case EstadoSuspendida:
		return "Suspendida"
	}
	return string(e)
}

// Prioridad aplica tanto a medidas como a notificaciones.
type Prioridad string

const (
	PrioridadAlta  Prioridad = "alta"
	PrioridadMedia Prioridad = "media"
	PrioridadBaja  Prioridad = "baja"
)

// Valida indica si la prioridad pertenece al conjunto conocido.
func (p Prioridad) Valida() bool {
	switch p {
	case PrioridadAlta, PrioridadMedia, PrioridadBaja:
		return true
	}
	return false
}

// OrdenPrioridadSQL ordena alta > media > baja. Comparar el texto directamente
// dejaría "media" por sobre "alta".
const OrdenPrioridadSQL = "CASE prioridad WHEN 'alta' THEN 3 WHEN 'media' THEN 2 ELSE 1 END DESC"

// CategoriaReporte selecciona el camino de agregación de un TipoReporte.
type CategoriaReporte string

const (
	CategoriaGeneral    CategoriaReporte = "general"
	CategoriaOrganismo  CategoriaReporte = "organismo"
	CategoriaComponente CategoriaReporte = "componente"
)

// TipoNotificacionGeneral es el tipo de respaldo cuando no se encuentra el solicitado.
const TipoNotificacionGeneral = "General"
