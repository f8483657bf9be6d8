package service

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ppda-seguimiento-backend/app/documento"
	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/repository"
	"ppda-seguimiento-backend/database/dbtest"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ahoraFijo = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

// renderGrabador guarda el último documento y escribe un PDF mínimo.
type renderGrabador struct {
	doc *documento.Documento
	err error
}

func (r *renderGrabador) Renderizar(doc *documento.Documento, w io.Writer) error {
	r.doc = doc
	if r.err != nil {
		return r.err
	}
	_, err := io.WriteString(w, "%PDF-1.3 test")
	return err
}

// reportesQueFallan falla al insertar el registro.
type reportesQueFallan struct {
	repository.ReporteRepository
}

func (reportesQueFallan) Create(context.Context, *model.ReporteGenerado) error {
	return errors.New("disco lleno")
}

type entornoReportes struct {
	db     *gorm.DB
	f      *dbtest.Fixtures
	dir    string
	render *renderGrabador
	svc    ReporteService
}

func nuevoEntornoReportes(t *testing.T, reportes func(repository.ReporteRepository) repository.ReporteRepository) *entornoReportes {
	t.Helper()
	db := dbtest.Open(t)
	e := &entornoReportes{
		db:     db,
		f:      dbtest.New(t, db),
		dir:    t.TempDir(),
		render: &renderGrabador{},
	}
	repo := repository.NewReporteRepository(db)
	if reportes != nil {
		repo = reportes(repo)
	}
	e.svc = NewReporteService(ReporteDeps{
		Usuarios:     repository.NewUsuarioRepository(db),
		Reportes:     repo,
		Organismos:   repository.NewOrganismoRepository(db),
		Medidas:      repository.NewMedidaRepository(db),
		Estadisticas: repository.NewEstadisticaRepository(db),
		Archivos:     repository.NewDiskStore(e.dir),
		Render:       e.render,
		Log:          zerolog.Nop(),
		Ahora:        func() time.Time { return ahoraFijo },
	})
	return e
}

func (e *entornoReportes) contarReportes(t *testing.T) int64 {
	var n int64
	require.NoError(t, e.db.Model(&model.ReporteGenerado{}).Count(&n).Error)
	return n
}

func (e *entornoReportes) archivos(t *testing.T) []string {
	var out []string
	err := filepath.WalkDir(e.dir, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			out = append(out, p)
		}
		return err
	})
	require.NoError(t, err)
	return out
}

func TestGenerar_TodosLosFlagsFalsosNoGeneranParaNingunRol(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	org := e.f.Organismo("Municipalidad")
	tipo := e.f.TipoReporte(model.CategoriaGeneral, false, false, false)

	usuarios := []*model.Usuario{
		e.f.Usuario("super", model.RolSuperadmin, nil),
		e.f.Usuario("sma", model.RolAdminSMA, nil),
		e.f.Usuario("muni", model.RolOrganismo, org),
		e.f.Usuario("vecino", model.RolCiudadano, nil),
	}
	for _, u := range usuarios {
		t.Run(string(u.Rol), func(t *testing.T) {
			rep, err := e.svc.Generar(context.Background(), u.ID, SolicitudReporte{TipoReporteID: tipo.ID})
			assert.Nil(t, rep)
			assert.ErrorIs(t, err, ErrSinPermiso)
		})
	}
	assert.Zero(t, e.contarReportes(t))
	assert.Empty(t, e.archivos(t))
}

func TestGenerar_OrganismoReportaSobreSuPropioOrganismo(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	propio := e.f.Organismo("Propio")
	ajeno := e.f.Organismo("Ajeno")
	u := e.f.Usuario("muni", model.RolOrganismo, propio)
	tipo := e.f.TipoReporte(model.CategoriaOrganismo, true, true, true)

	rep, err := e.svc.Generar(context.Background(), u.ID, SolicitudReporte{
		TipoReporteID: tipo.ID,
		OrganismoID:   &ajeno.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, rep.OrganismoID)
	assert.Equal(t, propio.ID, *rep.OrganismoID)
	assert.Equal(t, propio.ID.String(), rep.Parametros["organismo_id"])

	var guardado model.ReporteGenerado
	require.NoError(t, e.db.First(&guardado, "id = ?", rep.ID).Error)
	require.NotNil(t, guardado.OrganismoID)
	assert.Equal(t, propio.ID, *guardado.OrganismoID)

	require.NotNil(t, e.render.doc)
	assert.Equal(t, "Propio", e.render.doc.Tablas()[0].Filas[0][1])
	textos := e.render.doc.Textos()
	assert.Equal(t, "REPORTE DEL ORGANISMO: PROPIO", textos[0])
	assert.Contains(t, textos, "Generado por: muni")
}

func TestGenerar_OrganismoSinOrganismoAsociado(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	u := e.f.Usuario("huerfano", model.RolOrganismo, nil)
	tipo := e.f.TipoReporte(model.CategoriaOrganismo, true, true, true)

	rep, err := e.svc.Generar(context.Background(), u.ID, SolicitudReporte{TipoReporteID: tipo.ID})
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, ErrSinOrganismo)
	assert.Zero(t, e.contarReportes(t))
}

func TestGenerar_ReferenciasFaltantes(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	admin := e.f.Usuario("sma", model.RolAdminSMA, nil)
	porOrganismo := e.f.TipoReporte(model.CategoriaOrganismo, true, true, false)
	porComponente := e.f.TipoReporte(model.CategoriaComponente, true, true, false)
	inexistente := dbtest.ID()

	cases := []struct {
		name string
		req  SolicitudReporte
		want error
	}{
		{"tipo inexistente", SolicitudReporte{TipoReporteID: dbtest.ID()}, ErrTipoReporteNoEncontrado},
		{"organismo sin indicar", SolicitudReporte{TipoReporteID: porOrganismo.ID}, ErrOrganismoRequerido},
		{"organismo inexistente", SolicitudReporte{TipoReporteID: porOrganismo.ID, OrganismoID: &inexistente}, ErrOrganismoNoEncontrado},
		{"componente sin indicar", SolicitudReporte{TipoReporteID: porComponente.ID}, ErrComponenteRequerido},
		{"componente inexistente", SolicitudReporte{TipoReporteID: porComponente.ID, ComponenteID: &inexistente}, ErrComponenteNoEncontrado},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep, err := e.svc.Generar(context.Background(), admin.ID, tc.req)
			assert.Nil(t, rep)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, e.contarReportes(t))
	assert.Empty(t, e.archivos(t))
}

func TestGenerar_General(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	admin := e.f.Usuario("super", model.RolSuperadmin, nil)
	tipo := e.f.TipoReporte(model.CategoriaGeneral, true, false, false)
	comp := e.f.Componente("Calefacción")
	e.f.Medida("G-1", comp, model.EstadoCompletada, 100)
	e.f.Medida("G-2", comp, model.EstadoEnProceso, 40)
	e.f.Medida("G-3", comp, model.EstadoPendiente, 0)

	inicio := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rep, err := e.svc.Generar(context.Background(), admin.ID, SolicitudReporte{
		TipoReporteID: tipo.ID,
		FechaInicio:   &inicio,
		Extra:         map[string]any{"formato": "pdf", "version": 99},
	})
	require.NoError(t, err)

	assert.Equal(t, "Reporte general - 15/10/2026", rep.Titulo)
	assert.True(t, strings.HasPrefix(rep.Archivo, "reportes/"), rep.Archivo)
	assert.True(t, strings.HasSuffix(rep.Archivo, "/reporte_general_20261015_093000.pdf"), rep.Archivo)
	assert.Equal(t, admin.ID, rep.UsuarioID)
	assert.Equal(t, "2026-01-01", rep.Parametros["fecha_inicio"])
	assert.Nil(t, rep.Parametros["fecha_fin"])
	assert.Equal(t, "pdf", rep.Parametros["formato"])
	assert.Equal(t, model.VersionParametros, rep.Parametros["version"])
	assert.Len(t, e.archivos(t), 1)
	assert.Equal(t, int64(1), e.contarReportes(t))

	resumen := e.render.doc.Tablas()[0]
	assert.Equal(t, [][]string{
		{"Total de Medidas", "3"},
		{"Medidas Completadas", "1"},
		{"Porcentaje de Avance Global", "46.67%"},
	}, resumen.Filas)

	dist := e.render.doc.Tablas()[1]
	require.Len(t, dist.Filas, 5)
	assert.Equal(t, []string{"Pendiente", "1", "33.33%"}, dist.Filas[0])
	assert.Equal(t, []string{"Retrasada", "0", "0.00%"}, dist.Filas[3])

	assert.Equal(t, []string{
		"REPORTE GENERAL DEL PLAN DE DESCONTAMINACIÓN",
		"Reporte general - 15/10/2026",
		"Fecha de generación: 15/10/2026 09:30",
		"Generado por: super",
	}, e.render.doc.Textos()[:4])
}

func TestGenerar_GeneralSinMedidas(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	admin := e.f.Usuario("super", model.RolSuperadmin, nil)
	tipo := e.f.TipoReporte(model.CategoriaGeneral, true, false, false)

	_, err := e.svc.Generar(context.Background(), admin.ID, SolicitudReporte{TipoReporteID: tipo.ID})
	require.NoError(t, err)

	dist := e.render.doc.Tablas()[1]
	require.Len(t, dist.Filas, len(model.EstadosMedida))
	for _, fila := range dist.Filas {
		assert.Equal(t, []string{"0", "0.00%"}, fila[1:], fila[0])
	}
}

func TestGenerar_MismoSegundoNoColisiona(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	admin := e.f.Usuario("super", model.RolSuperadmin, nil)
	tipo := e.f.TipoReporte(model.CategoriaGeneral, true, false, false)
	ctx := context.Background()

	primero, err := e.svc.Generar(ctx, admin.ID, SolicitudReporte{TipoReporteID: tipo.ID})
	require.NoError(t, err)
	segundo, err := e.svc.Generar(ctx, admin.ID, SolicitudReporte{TipoReporteID: tipo.ID})
	require.NoError(t, err)

	assert.NotEqual(t, primero.Archivo, segundo.Archivo)
	assert.True(t, strings.HasSuffix(segundo.Archivo, ".pdf"), segundo.Archivo)
	assert.Len(t, e.archivos(t), 2)
	assert.Equal(t, int64(2), e.contarReportes(t))
}

func TestGenerar_FallaDeRenderizadoNoDejaRastros(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	e.render.err = errors.New("fuente no disponible")
	admin := e.f.Usuario("super", model.RolSuperadmin, nil)
	tipo := e.f.TipoReporte(model.CategoriaGeneral, true, true, false)

	rep, err := e.svc.Generar(context.Background(), admin.ID, SolicitudReporte{TipoReporteID: tipo.ID})
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, ErrRenderizado)
	assert.Zero(t, e.contarReportes(t))
	assert.Empty(t, e.archivos(t))
}

func TestGenerar_FallaAlGuardarRegistroEliminaArchivo(t *testing.T) {
	e := nuevoEntornoReportes(t, func(r repository.ReporteRepository) repository.ReporteRepository {
		return reportesQueFallan{r}
	})
	admin := e.f.Usuario("super", model.RolSuperadmin, nil)
	tipo := e.f.TipoReporte(model.CategoriaGeneral, true, true, false)

	rep, err := e.svc.Generar(context.Background(), admin.ID, SolicitudReporte{TipoReporteID: tipo.ID})
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, ErrAlmacenamiento)
	assert.Empty(t, e.archivos(t))
}

func TestGenerar_Componente(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	admin := e.f.Usuario("sma", model.RolAdminSMA, nil)
	tipo := e.f.TipoReporte(model.CategoriaComponente, false, true, false)
	comp := e.f.Componente("Educación Ambiental")

	rep, err := e.svc.Generar(context.Background(), admin.ID, SolicitudReporte{
		TipoReporteID: tipo.ID,
		ComponenteID:  &comp.ID,
		Titulo:        "Mi reporte",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mi reporte", rep.Titulo)
	require.NotNil(t, rep.ComponenteID)
	assert.Equal(t, comp.ID, *rep.ComponenteID)
	assert.Equal(t, []string{
		"REPORTE DEL COMPONENTE: EDUCACIÓN AMBIENTAL",
		"Mi reporte",
		"Fecha de generación: 15/10/2026 09:30",
		"Generado por: sma",
	}, e.render.doc.Textos())
}

func TestReportes_ConsultaSegunRol(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	org := e.f.Organismo("Org")
	admin := e.f.Usuario("super", model.RolSuperadmin, nil)
	muni := e.f.Usuario("muni", model.RolOrganismo, org)
	tipo := e.f.TipoReporte(model.CategoriaGeneral, true, true, true)
	ctx := context.Background()

	delAdmin, err := e.svc.Generar(ctx, admin.ID, SolicitudReporte{TipoReporteID: tipo.ID, Titulo: "admin"})
	require.NoError(t, err)
	require.NoError(t, e.db.Create(&model.ReporteGenerado{
		TipoReporteID: tipo.ID, UsuarioID: muni.ID, Titulo: "muni", FechaGeneracion: ahoraFijo,
	}).Error)

	actorAdmin := Actor{UsuarioID: admin.ID, Rol: model.RolSuperadmin}
	actorMuni := Actor{UsuarioID: muni.ID, Rol: model.RolOrganismo, OrganismoID: &org.ID}

	_, total, err := e.svc.Listar(ctx, actorAdmin, false, repository.Pagina{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = e.svc.Listar(ctx, actorAdmin, true, repository.Pagina{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	propios, total, err := e.svc.Listar(ctx, actorMuni, false, repository.Pagina{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "muni", propios[0].Titulo)

	_, err = e.svc.Detalle(ctx, actorMuni, delAdmin.ID)
	assert.ErrorIs(t, err, ErrSinPermiso)
	_, _, err = e.svc.Abrir(ctx, actorMuni, delAdmin.ID)
	assert.ErrorIs(t, err, ErrSinPermiso)

	_, rc, err := e.svc.Abrir(ctx, actorAdmin, delAdmin.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.3 test", string(data))

	// el reporte del organismo no tiene archivo
	propio := propios[0]
	_, _, err = e.svc.Abrir(ctx, actorMuni, propio.ID)
	assert.ErrorIs(t, err, ErrArchivoNoDisponible)

	_, err = e.svc.Detalle(ctx, actorAdmin, uuid.New())
	assert.ErrorIs(t, err, ErrReporteNoEncontrado)
}

func TestTiposDisponibles(t *testing.T) {
	e := nuevoEntornoReportes(t, nil)
	e.f.TipoReporte(model.CategoriaGeneral, true, true, false)
	e.f.TipoReporte(model.CategoriaOrganismo, true, true, true)
	e.f.TipoReporte(model.CategoriaComponente, true, false, false)

	cuantos := map[model.Rol]int{
		model.RolSuperadmin: 3,
		model.RolAdminSMA:   2,
		model.RolOrganismo:  1,
		model.RolCiudadano:  0,
	}
	for rol, want := range cuantos {
		tipos, err := e.svc.TiposDisponibles(context.Background(), rol)
		require.NoError(t, err)
		assert.Len(t, tipos, want, string(rol))
	}
}
