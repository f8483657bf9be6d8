package service

import (
	"fmt"
	"strings"
	"time"

	"ppda-seguimiento-backend/app/documento"
	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/repository"
)

const (
	formatoFecha     = "02/01/2006"
	formatoFechaHora = "02/01/2006 15:04"
	largoDescripcion = 50
)

var coloresEstado = map[model.EstadoMedida]documento.Color{
	model.EstadoPendiente:  documento.ColorLavender,
	model.EstadoEnProceso:  documento.ColorLightBlue,
	model.EstadoCompletada: documento.ColorLightGreen,
	model.EstadoRetrasada:  documento.ColorPink,
	model.EstadoSuspendida: documento.ColorLightGrey,
}

// porcentaje = parte/total*100, 0 si total es 0.
func porcentaje(parte, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(parte) / float64(total) * 100
}

// FilaEstado es una fila de la tabla de distribución por estado.
type FilaEstado struct {
	Estado     model.EstadoMedida `json:"estado"`
	Cantidad   int64              `json:"cantidad"`
	Porcentaje float64            `json:"porcentaje"`
}

// distribucionEstados completa los cinco estados en orden, con 0 para los ausentes.
func distribucionEstados(conteos []repository.ConteoEstado) []FilaEstado {
	por := make(map[model.EstadoMedida]int64, len(conteos))
	var total int64
	for _, c := range conteos {
		por[c.Estado] += c.Cantidad
		total += c.Cantidad
	}

	filas := make([]FilaEstado, 0, len(model.EstadosMedida))
	for _, e := range model.EstadosMedida {
		filas = append(filas, FilaEstado{
			Estado:     e,
			Cantidad:   por[e],
			Porcentaje: porcentaje(por[e], total),
		})
	}
	return filas
}

func fmtPct(v float64) string { return fmt.Sprintf("%.2f%%", v) }

// cabecera son los datos comunes bajo el título fijo de cada reporte.
type cabecera struct {
	Titulo   string
	Generado time.Time
	Autor    string
}

// nuevoDocumento abre el documento con el encabezado fijo, el título pedido
// como subtítulo, la fecha y quién lo generó.
func (c cabecera) nuevoDocumento(encabezado string) *documento.Documento {
	return documento.Nuevo(encabezado).Agregar(
		documento.Titulo{Texto: c.Titulo, Nivel: 2},
		documento.Parrafo{Texto: "Fecha de generación: " + c.Generado.Format(formatoFechaHora)},
		documento.Parrafo{Texto: "Generado por: " + c.Autor},
	)
}

// =========================
// Reporte general
// =========================

type datosGeneral struct {
	Resumen      repository.ResumenMedidas
	Distribucion []repository.ConteoEstado
	Componentes  []repository.AvanceAgrupado
}

func construirReporteGeneral(c cabecera, d datosGeneral) *documento.Documento {
	doc := c.nuevoDocumento("REPORTE GENERAL DEL PLAN DE DESCONTAMINACIÓN")

	doc.Agregar(
		documento.Titulo{Texto: "Resumen General", Nivel: 2},
		documento.Tabla{
			Encabezado: []string{"Métrica", "Valor"},
			Filas: [][]string{
				{"Total de Medidas", fmt.Sprint(d.Resumen.Total)},
				{"Medidas Completadas", fmt.Sprint(d.Resumen.Completadas)},
				{"Porcentaje de Avance Global", fmtPct(d.Resumen.AvancePromedio)},
			},
		},
	)

	filas := distribucionEstados(d.Distribucion)
	tabla := documento.Tabla{Encabezado: []string{"Estado", "Cantidad", "Porcentaje"}}
	var torta documento.Torta
	for _, f := range filas {
		tabla.Filas = append(tabla.Filas, []string{f.Estado.Etiqueta(), fmt.Sprint(f.Cantidad), fmtPct(f.Porcentaje)})
		if f.Cantidad > 0 {
			torta.Porciones = append(torta.Porciones, documento.Porcion{
				Etiqueta: f.Estado.Etiqueta(),
				Valor:    float64(f.Cantidad),
				Color:    coloresEstado[f.Estado],
			})
		}
	}
	doc.Agregar(documento.Titulo{Texto: "Distribución por Estado", Nivel: 2}, tabla, torta)

	comp := documento.Tabla{
		Encabezado: []string{"Componente", "Medidas", "Avance Promedio"},
		Anchos:     []float64{3, 1, 1.5},
	}
	var barras documento.Barras
	for _, c := range d.Componentes {
		comp.Filas = append(comp.Filas, []string{c.Nombre, fmt.Sprint(c.TotalMedidas), fmtPct(c.AvancePromedio)})
		barras.Barras = append(barras.Barras, documento.Barra{Etiqueta: c.Nombre, Valor: c.AvancePromedio})
	}
	doc.Agregar(documento.Titulo{Texto: "Avance por Componente", Nivel: 2}, comp, barras)
	return doc
}

// =========================
// Reporte por organismo
// =========================

type datosOrganismo struct {
	Organismo model.Organismo
	Resumen   repository.ResumenMedidas
	Medidas   []model.Medida
	Avances   []model.RegistroAvance
}

func construirReporteOrganismo(c cabecera, d datosOrganismo) *documento.Documento {
	doc := c.nuevoDocumento("REPORTE DEL ORGANISMO: " + strings.ToUpper(d.Organismo.Nombre))

	tipo := "No especificado"
	if d.Organismo.Tipo != nil && d.Organismo.Tipo.Nombre != "" {
		tipo = d.Organismo.Tipo.Nombre
	}
	doc.Agregar(
		documento.Titulo{Texto: "Información del Organismo", Nivel: 2},
		documento.Tabla{
			Encabezado: []string{"Campo", "Valor"},
			Filas: [][]string{
				{"Nombre", d.Organismo.Nombre},
				{"Tipo", tipo},
				{"Dirección", d.Organismo.Direccion},
				{"Email de contacto", d.Organismo.EmailContacto},
			},
			Anchos: []float64{1, 2},
		},
	)

	doc.Agregar(documento.Titulo{Texto: "Medidas Asignadas", Nivel: 2})
	if d.Resumen.Total == 0 {
		doc.Agregar(documento.Parrafo{Texto: "No hay medidas asignadas a este organismo."})
	} else {
		doc.Agregar(documento.Tabla{
			Encabezado: []string{"Métrica", "Valor"},
			Filas: [][]string{
				{"Total de Medidas Asignadas", fmt.Sprint(d.Resumen.Total)},
				{"Medidas Completadas", fmt.Sprint(d.Resumen.Completadas)},
				{"Porcentaje de Avance", fmtPct(d.Resumen.AvancePromedio)},
			},
		})

		detalle := documento.Tabla{
			Encabezado: []string{"Código", "Nombre", "Estado", "Avance"},
			Anchos:     []float64{1, 3, 1.2, 1},
		}
		for _, m := range d.Medidas {
			detalle.Filas = append(detalle.Filas, []string{
				m.Codigo, m.Nombre, m.Estado.Etiqueta(), m.PorcentajeAvance.StringFixed(2) + "%",
			})
		}
		doc.Agregar(detalle)
	}

	doc.Agregar(documento.Titulo{Texto: "Últimos Avances Registrados", Nivel: 2})
	if len(d.Avances) == 0 {
		doc.Agregar(documento.Parrafo{Texto: "No hay registros de avance para este organismo."})
		return doc
	}
	avances := documento.Tabla{
		Encabezado: []string{"Fecha", "Medida", "Avance", "Descripción"},
		Anchos:     []float64{1, 1, 0.8, 3.2},
	}
	for _, a := range d.Avances {
		codigo := ""
		if a.Medida != nil {
			codigo = a.Medida.Codigo
		}
		avances.Filas = append(avances.Filas, []string{
			a.FechaRegistro.Format(formatoFecha),
			codigo,
			a.PorcentajeAvance.StringFixed(2) + "%",
			truncar(a.Descripcion, largoDescripcion),
		})
	}
	return doc.Agregar(avances)
}

// truncar corta a n runas y agrega "..." si el texto era más largo.
func truncar(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// =========================
// Reporte por componente
// =========================

// construirReporteComponente sólo arma el encabezado.
// TODO: agregar tabla de medidas del componente y sus organismos responsables.
func construirReporteComponente(c cabecera, comp model.Componente) *documento.Documento {
	return c.nuevoDocumento("REPORTE DEL COMPONENTE: " + strings.ToUpper(comp.Nombre))
}
