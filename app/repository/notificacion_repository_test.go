package repository

import (
	"context"
	"testing"
	"time"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificacion_NoLeidasOrdenYConteo(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.New(t, db)
	repo := NewNotificacionRepository(db)
	ctx := context.Background()

	u := f.Usuario("ana", model.RolAdminSMA, nil)
	otro := f.Usuario("beto", model.RolAdminSMA, nil)

	base := dbtest.Hoy.Add(9 * time.Hour)
	baja := f.Notificacion(u, model.PrioridadBaja, base.Add(3*time.Hour))
	altaVieja := f.Notificacion(u, model.PrioridadAlta, base)
	media := f.Notificacion(u, model.PrioridadMedia, base.Add(2*time.Hour))
	altaNueva := f.Notificacion(u, model.PrioridadAlta, base.Add(time.Hour))
	f.Notificacion(otro, model.PrioridadAlta, base)

	lista, err := repo.ListNoLeidas(ctx, u.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(lista))
	for _, n := range lista {
		ids = append(ids, n.ID.String())
	}
	assert.Equal(t, []string{
		altaNueva.ID.String(), altaVieja.ID.String(), media.ID.String(), baja.ID.String(),
	}, ids)

	count, err := repo.ContarNoLeidas(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(lista)), count)

	ok, err := repo.MarcarLeida(ctx, media.ID, u.ID, base)
	require.NoError(t, err)
	assert.True(t, ok)

	lista, err = repo.ListNoLeidas(ctx, u.ID)
	require.NoError(t, err)
	count, err = repo.ContarNoLeidas(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(lista)), count)
	assert.Equal(t, int64(3), count)
}

func TestNotificacion_MarcarLeidaAjena(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.New(t, db)
	repo := NewNotificacionRepository(db)

	dueno := f.Usuario("dueno", model.RolOrganismo, nil)
	intruso := f.Usuario("intruso", model.RolOrganismo, nil)
	n := f.Notificacion(dueno, model.PrioridadMedia, dbtest.Hoy)

	ok, err := repo.MarcarLeida(context.Background(), n.ID, intruso.ID, dbtest.Hoy)
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := repo.ContarNoLeidas(context.Background(), dueno.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificacion_MarcarTodasLeidas(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.New(t, db)
	repo := NewNotificacionRepository(db)
	ctx := context.Background()

	u := f.Usuario("carla", model.RolCiudadano, nil)
	f.Notificacion(u, model.PrioridadAlta, dbtest.Hoy)
	f.Notificacion(u, model.PrioridadBaja, dbtest.Hoy)

	ahora := dbtest.Hoy.Add(10 * time.Hour)
	n, err := repo.MarcarTodasLeidas(ctx, u.ID, ahora)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.MarcarTodasLeidas(ctx, u.ID, ahora)
	require.NoError(t, err)
	assert.Zero(t, n)

	todas, total, err := repo.List(ctx, u.ID, Pagina{Numero: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, notif := range todas {
		assert.True(t, notif.Leida)
		require.NotNil(t, notif.FechaLectura)
		assert.True(t, notif.FechaLectura.Equal(ahora))
	}
}

func TestNotificacion_ListPaginado(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.New(t, db)
	repo := NewNotificacionRepository(db)

	u := f.Usuario("dani", model.RolCiudadano, nil)
	for i := 0; i < 12; i++ {
		f.Notificacion(u, model.PrioridadMedia, dbtest.Hoy.Add(time.Duration(i)*time.Minute))
	}

	pag1, total, err := repo.List(context.Background(), u.ID, Pagina{Numero: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Len(t, pag1, PorPaginaDefecto)
	assert.True(t, pag1[0].FechaEnvio.After(pag1[1].FechaEnvio))

	pag2, _, err := repo.List(context.Background(), u.ID, Pagina{Numero: 2})
	require.NoError(t, err)
	assert.Len(t, pag2, 2)
}
