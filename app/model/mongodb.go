package model

import "time"

// ArchivoMetadata es el documento que acompaña a cada archivo en GridFS
// (campo metadata de la colección <bucket>.files).
type ArchivoMetadata struct {
	Nombre      string    `bson:"nombre"`      // nombre lógico, ej. reporte_general_20250101_120000.pdf
	Carpeta     string    `bson:"carpeta"`     // reportes | evidencias
	ContentType string    `bson:"contentType"` // application/pdf, image/png, ...
	SubidoEn    time.Time `bson:"subidoEn"`
}
