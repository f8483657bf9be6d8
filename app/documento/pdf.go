package documento

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
)

// Renderizador convierte un Documento a bytes en w.
type Renderizador interface {
	Renderizar(doc *Documento, w io.Writer) error
}

// PDF renderiza en tamaño carta con márgenes de una pulgada.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

const (
	margen    = 25.4
	altoFila  = 7.0
	radioTort = 30.0
)

type lienzo struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	ancho float64 // ancho útil
}

func (PDF) Renderizar(doc *Documento, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(margen, margen, margen)
	pdf.SetAutoPageBreak(true, margen)
	pdf.SetTitle(doc.Titulo, true)
	pdf.SetCreator("ppda-seguimiento", true)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	l := &lienzo{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		ancho: pageW - 2*margen,
	}

	for _, b := range doc.Bloques {
		switch v := b.(type) {
		case Titulo:
			l.titulo(v)
		case Parrafo:
			l.parrafo(v)
		case Tabla:
			l.tabla(v)
		case Torta:
			l.torta(v)
		case Barras:
			l.barras(v)
		case Espacio:
			pdf.Ln(v.Alto)
		default:
			return fmt.Errorf("bloque no soportado: %T", b)
		}
		if err := pdf.Error(); err != nil {
			return err
		}
	}
	return pdf.Output(w)
}

func (l *lienzo) titulo(t Titulo) {
	size := 16.0
	align := "C"
	if t.Nivel > 1 {
		size = 13
		align = "L"
		l.pdf.Ln(4)
	}
	l.pdf.SetFont("Helvetica", "B", size)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.MultiCell(l.ancho, size*0.5, l.tr(t.Texto), "", align, false)
	l.pdf.Ln(2)
}

func (l *lienzo) parrafo(p Parrafo) {
	l.pdf.SetFont("Helvetica", "", 10)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.MultiCell(l.ancho, 5, l.tr(p.Texto), "", "L", false)
	l.pdf.Ln(2)
}

func (l *lienzo) anchos(t Tabla) []float64 {
	n := len(t.Encabezado)
	if n == 0 && len(t.Filas) > 0 {
		n = len(t.Filas[0])
	}
	out := make([]float64, n)
	if len(t.Anchos) == n {
		var total float64
		for _, a := range t.Anchos {
			total += a
		}
		if total > 0 {
			for i, a := range t.Anchos {
				out[i] = l.ancho * a / total
			}
			return out
		}
	}
	for i := range out {
		out[i] = l.ancho / float64(n)
	}
	return out
}

func (l *lienzo) tabla(t Tabla) {
	anchos := l.anchos(t)
	l.pdf.SetDrawColor(ColorNegro.R, ColorNegro.G, ColorNegro.B)

	if len(t.Encabezado) > 0 {
		l.pdf.SetFont("Helvetica", "B", 10)
		l.pdf.SetFillColor(ColorLightBlue.R, ColorLightBlue.G, ColorLightBlue.B)
		l.pdf.SetTextColor(ColorWhiteSmoke.R, ColorWhiteSmoke.G, ColorWhiteSmoke.B)
		for i, h := range t.Encabezado {
			l.pdf.CellFormat(anchos[i], altoFila, l.tr(h), "1", 0, "C", true, 0, "")
		}
		l.pdf.Ln(-1)
	}

	l.pdf.SetFont("Helvetica", "", 9)
	l.pdf.SetFillColor(ColorBeige.R, ColorBeige.G, ColorBeige.B)
	l.pdf.SetTextColor(0, 0, 0)
	for _, fila := range t.Filas {
		for i := range anchos {
			var txt string
			if i < len(fila) {
				txt = fila[i]
			}
			l.pdf.CellFormat(anchos[i], altoFila, l.recortar(txt, anchos[i]-2), "1", 0, "C", true, 0, "")
		}
		l.pdf.Ln(-1)
	}
	l.pdf.Ln(4)
}

// recortar acorta el texto UTF-8 hasta que quepa en el ancho de la celda y lo
// retorna ya traducido a la codificación de la fuente. El corte se hace sobre
// runas antes de traducir.
func (l *lienzo) recortar(s string, ancho float64) string {
	if out := l.tr(s); l.pdf.GetStringWidth(out) <= ancho {
		return out
	}
	r := []rune(s)
	for len(r) > 0 && l.pdf.GetStringWidth(l.tr(string(r)+"...")) > ancho {
		r = r[:len(r)-1]
	}
	return l.tr(string(r) + "...")
}

func (l *lienzo) torta(t Torta) {
	var total float64
	for _, p := range t.Porciones {
		total += p.Valor
	}
	if total <= 0 {
		return
	}

	alto := 2*radioTort + 8
	if l.pdf.GetY()+alto > l.altoPagina()-margen {
		l.pdf.AddPage()
	}
	cx := margen + radioTort + 10
	cy := l.pdf.GetY() + radioTort + 4

	l.pdf.SetDrawColor(255, 255, 255)
	inicio := -math.Pi / 2
	for _, p := range t.Porciones {
		barrido := 2 * math.Pi * p.Valor / total
		pts := []fpdf.PointType{{X: cx, Y: cy}}
		pasos := int(math.Ceil(barrido/(math.Pi/90))) + 1
		for i := 0; i <= pasos; i++ {
			a := inicio + barrido*float64(i)/float64(pasos)
			pts = append(pts, fpdf.PointType{X: cx + radioTort*math.Cos(a), Y: cy + radioTort*math.Sin(a)})
		}
		l.pdf.SetFillColor(p.Color.R, p.Color.G, p.Color.B)
		l.pdf.Polygon(pts, "FD")
		inicio += barrido
	}

	// leyenda a la derecha
	l.pdf.SetFont("Helvetica", "", 9)
	l.pdf.SetTextColor(0, 0, 0)
	lx := cx + radioTort + 15
	ly := cy - radioTort + 4
	for _, p := range t.Porciones {
		l.pdf.SetFillColor(p.Color.R, p.Color.G, p.Color.B)
		l.pdf.Rect(lx, ly, 4, 4, "F")
		l.pdf.SetXY(lx+6, ly)
		l.pdf.CellFormat(60, 4, l.tr(fmt.Sprintf("%s (%.1f%%)", p.Etiqueta, p.Valor/total*100)), "", 0, "L", false, 0, "")
		ly += 6
	}
	l.pdf.SetDrawColor(ColorNegro.R, ColorNegro.G, ColorNegro.B)
	l.pdf.SetXY(margen, cy+radioTort+6)
}

func (l *lienzo) barras(b Barras) {
	maximo := b.Maximo
	if maximo <= 0 {
		maximo = 100
	}
	etiqueta := l.ancho * 0.35
	largo := l.ancho - etiqueta - 20

	l.pdf.SetFont("Helvetica", "", 9)
	l.pdf.SetTextColor(0, 0, 0)
	for _, barra := range b.Barras {
		if l.pdf.GetY()+altoFila > l.altoPagina()-margen {
			l.pdf.AddPage()
		}
		y := l.pdf.GetY()
		l.pdf.CellFormat(etiqueta, altoFila, l.recortar(barra.Etiqueta, etiqueta-2), "", 0, "L", false, 0, "")
		w := largo * math.Max(0, math.Min(barra.Valor, maximo)) / maximo
		l.pdf.SetFillColor(ColorLightBlue.R, ColorLightBlue.G, ColorLightBlue.B)
		if w > 0 {
			l.pdf.Rect(margen+etiqueta, y+1.5, w, altoFila-3, "F")
		}
		l.pdf.SetXY(margen+etiqueta+largo+2, y)
		l.pdf.CellFormat(18, altoFila, fmt.Sprintf("%.1f%%", barra.Valor), "", 1, "R", false, 0, "")
		l.pdf.SetX(margen)
	}
	l.pdf.Ln(4)
}

func (l *lienzo) altoPagina() float64 {
	_, h := l.pdf.GetPageSize()
	return h
}
