package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound se retorna cuando la fila buscada no existe.
var ErrNotFound = errors.New("registro no encontrado")

// wrap traduce gorm.ErrRecordNotFound a ErrNotFound y agrega contexto al resto.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Pagina describe una página 1-based de resultados.
type Pagina struct {
	Numero    int
	PorPagina int
}

// PorPaginaDefecto es el tamaño de página de los listados.
const PorPaginaDefecto = 10

func (p Pagina) normalizar() Pagina {
	if p.Numero < 1 {
		p.Numero = 1
	}
	if p.PorPagina < 1 {
		p.PorPagina = PorPaginaDefecto
	}
	return p
}

func (p Pagina) scope(db *gorm.DB) *gorm.DB {
	p = p.normalizar()
	return db.Offset((p.Numero - 1) * p.PorPagina).Limit(p.PorPagina)
}
