package database_test

import (
	"testing"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/database"
	"ppda-seguimiento-backend/database/dbtest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRunSeeders_Idempotente(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, database.RunSeeders(db, zerolog.Nop()))
	require.NoError(t, database.RunSeeders(db, zerolog.Nop()))

	contar := func(m any) int64 {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(3), contar(&model.TipoReporte{}))
	assert.Equal(t, int64(4), contar(&model.Usuario{}))

	var temuco model.Usuario
	require.NoError(t, db.Where("username = ?", "temuco").First(&temuco).Error)
	assert.Equal(t, model.RolOrganismo, temuco.Rol)
	assert.NotNil(t, temuco.OrganismoID)
	assert.True(t, temuco.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(temuco.PasswordHash), []byte("ppda1234")))

	// los flags en falso se persisten como false
	var tipos []model.TipoReporte
	require.NoError(t, db.Find(&tipos).Error)
	for _, tr := range tipos {
		assert.False(t, tr.PermiteRol(model.RolCiudadano))
	}
}
