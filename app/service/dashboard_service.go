package service

import (
	"context"
	"errors"
	"time"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/repository"
)

const (
	diasProximoVencimiento = 30
	limiteListados         = 10
	topOrganismos          = 5
)

type DashboardSMA struct {
	Resumen           repository.ResumenMedidas   `json:"resumen"`
	Distribucion      []FilaEstado                `json:"distribucion"`
	Componentes       []repository.AvanceAgrupado `json:"componentes"`
	MejoresOrganismos []repository.AvanceAgrupado `json:"mejores_organismos"`
	PeoresOrganismos  []repository.AvanceAgrupado `json:"peores_organismos"`
	ProximasAVencer   []model.Medida              `json:"proximas_a_vencer"`
	Vencidas          []model.Medida              `json:"vencidas"`
	UltimosAvances    []model.RegistroAvance      `json:"ultimos_avances"`
}

type DashboardOrganismo struct {
	Organismo      *model.Organismo          `json:"organismo"`
	Resumen        repository.ResumenMedidas `json:"resumen"`
	Medidas        []model.Medida            `json:"medidas"`
	UltimosAvances []model.RegistroAvance    `json:"ultimos_avances"`
}

// DashboardService arma los tableros de la SMA y de cada organismo.
// Sólo consideran medidas activas.
type DashboardService interface {
	SMA(ctx context.Context, actor Actor) (*DashboardSMA, error)
	Organismo(ctx context.Context, actor Actor) (*DashboardOrganismo, error)
}

type dashboardService struct {
	estadisticas repository.EstadisticaRepository
	organismos   repository.OrganismoRepository
	medidas      repository.MedidaRepository
	ahora        func() time.Time
}

func NewDashboardService(
	estadisticas repository.EstadisticaRepository,
	organismos repository.OrganismoRepository,
	medidas repository.MedidaRepository,
) DashboardService {
	return &dashboardService{
		estadisticas: estadisticas,
		organismos:   organismos,
		medidas:      medidas,
		ahora:        time.Now,
	}
}

func (s *dashboardService) SMA(ctx context.Context, actor Actor) (*DashboardSMA, error) {
	if !actor.Rol.EsPrivilegiado() {
		return nil, ErrSinPermiso
	}

	hoy := s.ahora()
	activas := repository.FiltroMedidas{SoloActivas: true}
	d := &DashboardSMA{}

	resumen, err := s.estadisticas.Resumen(ctx, activas, hoy)
	if err != nil {
		return nil, err
	}
	d.Resumen = *resumen

	conteos, err := s.estadisticas.DistribucionPorEstado(ctx, activas)
	if err != nil {
		return nil, err
	}
	d.Distribucion = distribucionEstados(conteos)

	if d.Componentes, err = s.estadisticas.AvancePorComponente(ctx, activas); err != nil {
		return nil, err
	}
	if d.MejoresOrganismos, d.PeoresOrganismos, err = s.estadisticas.DesempenoOrganismos(ctx, topOrganismos); err != nil {
		return nil, err
	}
	if d.ProximasAVencer, err = s.estadisticas.MedidasProximasAVencer(ctx, hoy, diasProximoVencimiento, limiteListados); err != nil {
		return nil, err
	}
	if d.Vencidas, err = s.estadisticas.MedidasVencidas(ctx, hoy, limiteListados); err != nil {
		return nil, err
	}
	if d.UltimosAvances, err = s.estadisticas.UltimosAvances(ctx, repository.FiltroAvances{Limite: limiteListados}); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *dashboardService) Organismo(ctx context.Context, actor Actor) (*DashboardOrganismo, error) {
	if actor.Rol != model.RolOrganismo {
		return nil, ErrSinPermiso
	}
	if actor.OrganismoID == nil {
		return nil, ErrSinOrganismo
	}

	org, err := s.organismos.FindOrganismo(ctx, *actor.OrganismoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrganismoNoEncontrado
		}
		return nil, err
	}

	d := &DashboardOrganismo{Organismo: org}
	resumen, err := s.estadisticas.Resumen(ctx, repository.FiltroMedidas{OrganismoID: &org.ID, SoloActivas: true}, s.ahora())
	if err != nil {
		return nil, err
	}
	d.Resumen = *resumen

	if d.Medidas, err = s.medidas.ListByOrganismo(ctx, org.ID); err != nil {
		return nil, err
	}
	d.UltimosAvances, err = s.estadisticas.UltimosAvances(ctx, repository.FiltroAvances{OrganismoID: &org.ID, Limite: limiteListados})
	if err != nil {
		return nil, err
	}
	return d, nil
}
