// Package documento describe el contenido de un reporte independiente del
// formato de salida, y lo renderiza a PDF.
package documento

// Color RGB 0-255.
type Color struct{ R, G, B int }

var (
	ColorLightBlue  = Color{173, 216, 230}
	ColorWhiteSmoke = Color{245, 245, 245}
	ColorBeige      = Color{245, 245, 220}
	ColorLavender   = Color{230, 230, 250}
	ColorLightGreen = Color{144, 238, 144}
	ColorPink       = Color{255, 192, 203}
	ColorLightGrey  = Color{211, 211, 211}
	ColorNegro      = Color{0, 0, 0}
)

// Bloque es un elemento del documento. Sólo los tipos de este paquete lo implementan.
type Bloque interface {
	bloque()
}

// Titulo. Nivel 1 es el título del documento, 2 una sección.
type Titulo struct {
	Texto string
	Nivel int
}

type Parrafo struct {
	Texto string
}

// Tabla con encabezado destacado y filas de cuerpo.
type Tabla struct {
	Encabezado []string
	Filas      [][]string
	Anchos     []float64 // proporciones relativas; nil reparte en partes iguales
}

// Porcion es una tajada de un gráfico de torta.
type Porcion struct {
	Etiqueta string
	Valor    float64
	Color    Color
}

// Torta es un gráfico de torta proporcional a Valor.
type Torta struct {
	Porciones []Porcion
}

// Barra es una fila de un gráfico de barras horizontal, Valor en 0..Maximo.
type Barra struct {
	Etiqueta string
	Valor    float64
}

type Barras struct {
	Barras []Barra
	Maximo float64
}

// Espacio vertical en milímetros.
type Espacio struct {
	Alto float64
}

func (Titulo) bloque()  {}
func (Parrafo) bloque() {}
func (Tabla) bloque()   {}
func (Torta) bloque()   {}
func (Barras) bloque()  {}
func (Espacio) bloque() {}

// Documento es una secuencia ordenada de bloques.
type Documento struct {
	Titulo  string
	Bloques []Bloque
}

// Nuevo crea un documento con el título como primer bloque.
func Nuevo(titulo string) *Documento {
	d := &Documento{Titulo: titulo}
	d.Agregar(Titulo{Texto: titulo, Nivel: 1}, Espacio{Alto: 6})
	return d
}

// Agregar añade bloques al final.
func (d *Documento) Agregar(b ...Bloque) *Documento {
	d.Bloques = append(d.Bloques, b...)
	return d
}

// Tablas retorna las tablas del documento en orden.
func (d *Documento) Tablas() []Tabla {
	var out []Tabla
	for _, b := range d.Bloques {
		if t, ok := b.(Tabla); ok {
			out = append(out, t)
		}
	}
	return out
}

// Textos retorna el texto de títulos y párrafos en orden.
func (d *Documento) Textos() []string {
	var out []string
	for _, b := range d.Bloques {
		switch v := b.(type) {
		case Titulo:
			out = append(out, v.Texto)
		case Parrafo:
			out = append(out, v.Texto)
		}
	}
	return out
}
