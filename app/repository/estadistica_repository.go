package repository

import (
	"context"
	"time"

	"ppda-seguimiento-backend/app/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FiltroMedidas define el alcance de las agregaciones:
// - OrganismoID nil => todas las medidas
// - OrganismoID     => sólo medidas asignadas a ese organismo
// - SoloActivas     => excluye medidas dadas de baja (activo=false)
type FiltroMedidas struct {
	OrganismoID *uuid.UUID
	SoloActivas bool
}

// ResumenMedidas son los totales de cabecera de reportes y dashboards.
type ResumenMedidas struct {
	Total          int64   `json:"total"`
	Completadas    int64   `json:"completadas"`
	EnProceso      int64   `json:"en_proceso"`
	Vencidas       int64   `json:"vencidas"`
	AvancePromedio float64 `json:"avance_promedio"`
}

type ConteoEstado struct {
	Estado   model.EstadoMedida `json:"estado"`
	Cantidad int64              `json:"cantidad"`
}

// AvanceAgrupado es una fila agregada por componente u organismo.
type AvanceAgrupado struct {
	ID             uuid.UUID `json:"id"`
	Nombre         string    `json:"nombre"`
	TotalMedidas   int64     `json:"total_medidas"`
	Completadas    int64     `json:"completadas"`
	AvancePromedio float64   `json:"avance_promedio"`
}

// FiltroAvances acota los registros de avance listados.
type FiltroAvances struct {
	OrganismoID *uuid.UUID
	Desde       *time.Time
	Hasta       *time.Time
	Limite      int
}

// EstadisticaRepository concentra las consultas de agregación sobre medidas.
type EstadisticaRepository interface {
	Resumen(ctx context.Context, f FiltroMedidas, hoy time.Time) (*ResumenMedidas, error)
	DistribucionPorEstado(ctx context.Context, f FiltroMedidas) ([]ConteoEstado, error)
	AvancePorComponente(ctx context.Context, f FiltroMedidas) ([]AvanceAgrupado, error)

	// DesempenoOrganismos retorna los n mejores y n peores organismos por avance
	// promedio. Sólo considera organismos con al menos una medida asignada.
	DesempenoOrganismos(ctx context.Context, n int) (mejores, peores []AvanceAgrupado, err error)

	MedidasProximasAVencer(ctx context.Context, hoy time.Time, dias, limite int) ([]model.Medida, error)
	MedidasVencidas(ctx context.Context, hoy time.Time, limite int) ([]model.Medida, error)
	UltimosAvances(ctx context.Context, f FiltroAvances) ([]model.RegistroAvance, error)
}

type estadisticaRepository struct {
	db *gorm.DB
}

func NewEstadisticaRepository(db *gorm.DB) EstadisticaRepository {
	return &estadisticaRepository{db: db}
}

// Dia trunca t a la medianoche UTC; todas las comparaciones de fechas usan esta forma.
func Dia(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// medidas arma la consulta base sobre medidas según el filtro.
func (r *estadisticaRepository) medidas(ctx context.Context, f FiltroMedidas) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Medida{})
	if f.SoloActivas {
		q = q.Where("activo = ?", true)
	}
	if f.OrganismoID != nil {
		q = q.Where("id IN (?)", r.db.Model(&model.AsignacionMedida{}).
			Select("medida_id").
			Where("organismo_id = ?", *f.OrganismoID))
	}
	return q
}

// =========================
// Resumen
// =========================

func (r *estadisticaRepository) Resumen(ctx context.Context, f FiltroMedidas, hoy time.Time) (*ResumenMedidas, error) {
	var row ResumenMedidas
	err := r.medidas(ctx, f).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN estado = ? THEN 1 ELSE 0 END), 0) AS completadas,
			COALESCE(SUM(CASE WHEN estado = ? THEN 1 ELSE 0 END), 0) AS en_proceso,
			COALESCE(SUM(CASE WHEN fecha_termino < ? AND estado IN ? THEN 1 ELSE 0 END), 0) AS vencidas,
			COALESCE(AVG(porcentaje_avance), 0) AS avance_promedio`,
			model.EstadoCompletada,
			model.EstadoEnProceso,
			Dia(hoy),
			estadosAbiertos(),
		).
		Scan(&row).Error
	if err != nil {
		return nil, wrap("resumen de medidas", err)
	}
	return &row, nil
}

func estadosAbiertos() []model.EstadoMedida {
	return []model.EstadoMedida{model.EstadoPendiente, model.EstadoEnProceso, model.EstadoRetrasada}
}

// =========================
// Distribución por estado
// =========================

func (r *estadisticaRepository) DistribucionPorEstado(ctx context.Context, f FiltroMedidas) ([]ConteoEstado, error) {
	var rows []ConteoEstado
	err := r.medidas(ctx, f).
		Select("estado, COUNT(*) AS cantidad").
		Group("estado").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("distribución por estado", err)
	}
	return rows, nil
}

// =========================
// Avance por componente
// =========================

func (r *estadisticaRepository) AvancePorComponente(ctx context.Context, f FiltroMedidas) ([]AvanceAgrupado, error) {
	join := "LEFT JOIN medidas m ON m.componente_id = c.id"
	var args []any
	if f.SoloActivas {
		join += " AND m.activo = ?"
		args = append(args, true)
	}
	if f.OrganismoID != nil {
		join += " AND m.id IN (SELECT medida_id FROM asignacion_medidas WHERE organismo_id = ?)"
		args = append(args, *f.OrganismoID)
	}

	var rows []AvanceAgrupado
	err := r.db.WithContext(ctx).
		Table("componentes c").
		Select(`c.id AS id, c.nombre AS nombre,
			COUNT(m.id) AS total_medidas,
			COALESCE(SUM(CASE WHEN m.estado = ? THEN 1 ELSE 0 END), 0) AS completadas,
			COALESCE(AVG(m.porcentaje_avance), 0) AS avance_promedio`, model.EstadoCompletada).
		Joins(join, args...).
		Group("c.id, c.nombre").
		Order("avance_promedio DESC").
		Order("c.nombre").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("avance por componente", err)
	}
	return rows, nil
}

// =========================
// Desempeño de organismos
// =========================

func (r *estadisticaRepository) DesempenoOrganismos(ctx context.Context, n int) ([]AvanceAgrupado, []AvanceAgrupado, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Table("organismos o").
			Select(`o.id AS id, o.nombre AS nombre,
				COUNT(m.id) AS total_medidas,
				COALESCE(SUM(CASE WHEN m.estado = ? THEN 1 ELSE 0 END), 0) AS completadas,
				COALESCE(AVG(m.porcentaje_avance), 0) AS avance_promedio`, model.EstadoCompletada).
			Joins("JOIN asignacion_medidas a ON a.organismo_id = o.id").
			Joins("JOIN medidas m ON m.id = a.medida_id AND m.activo = ?", true).
			Group("o.id, o.nombre").
			Having("COUNT(m.id) > 0").
			Limit(n)
	}

	var mejores, peores []AvanceAgrupado
	if err := base().Order("avance_promedio DESC").Order("o.nombre").Scan(&mejores).Error; err != nil {
		return nil, nil, wrap("mejores organismos", err)
	}
	if err := base().Order("avance_promedio ASC").Order("o.nombre").Scan(&peores).Error; err != nil {
		return nil, nil, wrap("peores organismos", err)
	}
	return mejores, peores, nil
}

// =========================
// Plazos
// =========================

// MedidasProximasAVencer: pendientes o en proceso que terminan dentro de los próximos dias.
func (r *estadisticaRepository) MedidasProximasAVencer(ctx context.Context, hoy time.Time, dias, limite int) ([]model.Medida, error) {
	desde := Dia(hoy)
	var medidas []model.Medida
	err := r.db.WithContext(ctx).
		Preload("Componente").
		Where("activo = ?", true).
		Where("estado IN ?", []model.EstadoMedida{model.EstadoPendiente, model.EstadoEnProceso}).
		Where("fecha_termino >= ? AND fecha_termino <= ?", desde, desde.AddDate(0, 0, dias)).
		Order("fecha_termino ASC").
		Limit(limite).
		Find(&medidas).Error
	if err != nil {
		return nil, wrap("medidas próximas a vencer", err)
	}
	return medidas, nil
}

// MedidasVencidas: abiertas con fecha_termino pasada, la más atrasada primero.
func (r *estadisticaRepository) MedidasVencidas(ctx context.Context, hoy time.Time, limite int) ([]model.Medida, error) {
	var medidas []model.Medida
	err := r.db.WithContext(ctx).
		Preload("Componente").
		Where("activo = ?", true).
		Where("estado IN ?", estadosAbiertos()).
		Where("fecha_termino < ?", Dia(hoy)).
		Order("fecha_termino ASC").
		Limit(limite).
		Find(&medidas).Error
	if err != nil {
		return nil, wrap("medidas vencidas", err)
	}
	return medidas, nil
}

// =========================
// Últimos avances
// =========================

func (r *estadisticaRepository) UltimosAvances(ctx context.Context, f FiltroAvances) ([]model.RegistroAvance, error) {
	if f.Limite <= 0 {
		f.Limite = 10
	}

	q := r.db.WithContext(ctx).
		Preload("Medida").
		Preload("Organismo")
	if f.OrganismoID != nil {
		q = q.Where("organismo_id = ?", *f.OrganismoID)
	}
	if f.Desde != nil {
		q = q.Where("fecha_registro >= ?", Dia(*f.Desde))
	}
	if f.Hasta != nil {
		q = q.Where("fecha_registro <= ?", Dia(*f.Hasta))
	}

	var regs []model.RegistroAvance
	err := q.Order("fecha_registro DESC").
		Order("created_at DESC").
		Limit(f.Limite).
		Find(&regs).Error
	if err != nil {
		return nil, wrap("últimos avances", err)
	}
	return regs, nil
}
