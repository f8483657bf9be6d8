package documento

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDF_Renderizar(t *testing.T) {
	doc := Nuevo("Reporte General - 15/10/2026")
	doc.Agregar(
		Titulo{Texto: "Resumen", Nivel: 2},
		Tabla{
			Encabezado: []string{"Métrica", "Valor"},
			Filas: [][]string{
				{"Total de Medidas", "3"},
				{"Porcentaje de Avance Global", "46.67%"},
			},
		},
		Torta{Porciones: []Porcion{
			{Etiqueta: "Pendiente", Valor: 2, Color: ColorLavender},
			{Etiqueta: "Completada", Valor: 1, Color: ColorLightGreen},
		}},
		Barras{Barras: []Barra{{Etiqueta: "Calefacción", Valor: 70}}},
		Parrafo{Texto: "Texto con acentos: año, región, fiscalización."},
	)

	var buf bytes.Buffer
	require.NoError(t, NewPDF().Renderizar(doc, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestPDF_TortaVaciaNoFalla(t *testing.T) {
	doc := Nuevo("Sin datos").Agregar(Torta{})

	var buf bytes.Buffer
	require.NoError(t, NewPDF().Renderizar(doc, &buf))
	assert.NotZero(t, buf.Len())
}

func TestDocumento_TablasYTextos(t *testing.T) {
	doc := Nuevo("Título").Agregar(
		Parrafo{Texto: "uno"},
		Tabla{Encabezado: []string{"a"}},
		Tabla{Encabezado: []string{"b"}},
	)

	assert.Equal(t, []string{"Título", "uno"}, doc.Textos())
	require.Len(t, doc.Tablas(), 2)
	assert.Equal(t, []string{"b"}, doc.Tablas()[1].Encabezado)
}

func TestRecortar_ConservaAcentos(t *testing.T) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 9)
	l := &lienzo{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	largo := strings.Repeat("Calefacción eficiente ", 10)
	out := l.recortar(largo, 40)

	assert.LessOrEqual(t, pdf.GetStringWidth(out), 40.0)
	assert.True(t, strings.HasSuffix(out, "..."), out)
	assert.NotContains(t, out, string(utf8.RuneError))
	assert.NotContains(t, out, "\xef\xbf\xbd")
	// cp1252: "ó" es el byte 0xF3
	assert.True(t, strings.HasPrefix(out, "Calefacci\xf3n"), "%q", out)

	corto := l.recortar("Región", 40)
	assert.Equal(t, "Regi\xf3n", corto)
}

func TestPDF_TablaConDescripcionLarga(t *testing.T) {
	desc := strings.Repeat("Fiscalización de leña húmeda en la región ", 4)
	doc := Nuevo("Avances").Agregar(
		Tabla{
			Encabezado: []string{"Fecha", "Descripción"},
			Filas:      [][]string{{"01/10/2026", desc}},
			Anchos:     []float64{1, 2},
		},
		Barras{Barras: []Barra{{Etiqueta: desc, Valor: 50}}},
	)

	var buf bytes.Buffer
	require.NoError(t, NewPDF().Renderizar(doc, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
