package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ppda-seguimiento-backend/app/model"
	"ppda-seguimiento-backend/app/repository"
	"ppda-seguimiento-backend/app/service"
	"ppda-seguimiento-backend/database/dbtest"
	"ppda-seguimiento-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type servidor struct {
	t      *testing.T
	db     *gorm.DB
	f      *dbtest.Fixtures
	tokens *utils.TokenManager
	router *gin.Engine
}

func nuevoServidor(t *testing.T) *servidor {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	log := zerolog.Nop()
	archivos := repository.NewDiskStore(t.TempDir())
	usuarios := repository.NewUsuarioRepository(db)
	organismos := repository.NewOrganismoRepository(db)
	medidas := repository.NewMedidaRepository(db)
	estadisticas := repository.NewEstadisticaRepository(db)

	tokens := utils.NewTokenManager("secreto-de-prueba", time.Hour)
	s := Services{
		Auth: service.NewAuthService(usuarios),
		Reportes: service.NewReporteService(service.ReporteDeps{
			Usuarios:     usuarios,
			Reportes:     repository.NewReporteRepository(db),
			Organismos:   organismos,
			Medidas:      medidas,
			Estadisticas: estadisticas,
			Archivos:     archivos,
			Log:          log,
		}),
		Notificaciones: service.NewNotificacionService(repository.NewNotificacionRepository(db), usuarios, nil, log),
		Avances:        service.NewAvanceService(usuarios, organismos, medidas, archivos, log),
		Dashboards:     service.NewDashboardService(estadisticas, organismos, medidas),
	}
	return &servidor{
		t:      t,
		db:     db,
		f:      dbtest.New(t, db),
		tokens: tokens,
		router: NewRouter(s, tokens, nil, log),
	}
}

// hacer ejecuta la petición con el token del usuario (nil = sin token).
func (s *servidor) hacer(method, path string, u *model.Usuario, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	s.autorizar(r, u)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	return w
}

func (s *servidor) autorizar(r *http.Request, u *model.Usuario) {
	s.t.Helper()
	if u == nil {
		return
	}
	tok, err := s.tokens.GenerateToken(u)
	require.NoError(s.t, err)
	r.Header.Set("Authorization", "Bearer "+tok)
}

func flash(t *testing.T, w *httptest.ResponseRecorder) (*http.Cookie, string) {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == utils.FlashCookie {
			msg, err := url.QueryUnescape(c.Value)
			require.NoError(t, err)
			return c, msg
		}
	}
	t.Fatalf("la respuesta no trae cookie %s", utils.FlashCookie)
	return nil, ""
}

func decodificar(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthYAutenticacion(t *testing.T) {
	s := nuevoServidor(t)

	w := s.hacer(http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.hacer(http.MethodGet, "/api/v1/notificaciones/no-leidas", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/notificaciones/no-leidas", nil)
	r.Header.Set("Authorization", "Bearer no-es-un-jwt")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin(t *testing.T) {
	s := nuevoServidor(t)
	u := s.f.Usuario("sma", model.RolAdminSMA, nil)
	hash, err := service.HashPassword("ppda1234")
	require.NoError(t, err)
	require.NoError(t, s.db.Model(u).Update("password_hash", hash).Error)

	w := s.hacer(http.MethodPost, "/api/v1/auth/login", nil, gin.H{"username": "sma", "password": "ppda1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodificar(t, w)["data"].(map[string]any)
	claims, err := s.tokens.ValidateToken(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, model.RolAdminSMA, claims.Rol)

	w = s.hacer(http.MethodPost, "/api/v1/auth/login", nil, gin.H{"username": "sma", "password": "mala"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificaciones(t *testing.T) {
	s := nuevoServidor(t)
	u := s.f.Usuario("vecino", model.RolCiudadano, nil)
	base := time.Now().Add(-time.Hour)
	primera := s.f.Notificacion(u, model.PrioridadBaja, base)
	s.f.Notificacion(u, model.PrioridadAlta, base)
	s.f.Notificacion(u, model.PrioridadMedia, base)

	w := s.hacer(http.MethodGet, "/api/v1/notificaciones/no-leidas", u, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cantidad":3}`, w.Body.String())

	w = s.hacer(http.MethodPost, "/api/v1/notificaciones/"+primera.ID.String()+"/leer", u, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Notificación marcada como leída.","pending_count":2}`, w.Body.String())

	w = s.hacer(http.MethodGet, "/api/v1/notificaciones/pendientes", u, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pendientes := decodificar(t, w)["data"].([]any)
	require.Len(t, pendientes, 2)
	assert.Equal(t, "alta", pendientes[0].(map[string]any)["prioridad"])

	w = s.hacer(http.MethodPost, "/api/v1/notificaciones/leer-todas", u, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v1/notificaciones", w.Header().Get("Location"))
	cookie, msg := flash(t, w)
	assert.Equal(t, "2 notificaciones marcadas como leídas.", msg)

	w = s.hacer(http.MethodGet, "/api/v1/notificaciones", u, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodificar(t, w)["data"].(map[string]any)
	assert.Equal(t, "2 notificaciones marcadas como leídas.", data["flash"])
	assert.EqualValues(t, 0, data["no_leidas"])
	assert.EqualValues(t, 3, data["total"])

	w = s.hacer(http.MethodPost, "/api/v1/notificaciones/leer-todas", u, nil)
	_, msg = flash(t, w)
	assert.Equal(t, "No hay notificaciones pendientes por leer.", msg)
}

func TestEnviarNotificacion_SoloAdministradores(t *testing.T) {
	s := nuevoServidor(t)
	vecino := s.f.Usuario("vecino", model.RolCiudadano, nil)
	admin := s.f.Usuario("sma", model.RolAdminSMA, nil)
	body := gin.H{"usuario_id": vecino.ID.String(), "titulo": "Aviso", "mensaje": "Episodio crítico"}

	w := s.hacer(http.MethodPost, "/api/v1/notificaciones/enviar", vecino, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.hacer(http.MethodPost, "/api/v1/notificaciones/enviar", admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.hacer(http.MethodGet, "/api/v1/notificaciones/no-leidas", vecino, nil)
	assert.JSONEq(t, `{"cantidad":1}`, w.Body.String())
}

func TestGenerarReporte_Codigos(t *testing.T) {
	s := nuevoServidor(t)
	admin := s.f.Usuario("super", model.RolSuperadmin, nil)
	cerrado := s.f.TipoReporte(model.CategoriaGeneral, false, false, false)
	porOrganismo := s.f.TipoReporte(model.CategoriaOrganismo, true, true, true)
	general := s.f.TipoReporte(model.CategoriaGeneral, true, true, false)
	s.f.Medida("R-1", s.f.Componente("Calefacción"), model.EstadoCompletada, 100)

	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"sin tipo", gin.H{}, http.StatusBadRequest},
		{"fecha mal formada", gin.H{"tipo_reporte_id": general.ID.String(), "fecha_inicio": "15/10/2026"}, http.StatusBadRequest},
		{"tipo inexistente", gin.H{"tipo_reporte_id": dbtest.ID().String()}, http.StatusNotFound},
		{"flags en falso", gin.H{"tipo_reporte_id": cerrado.ID.String()}, http.StatusForbidden},
		{"organismo requerido", gin.H{"tipo_reporte_id": porOrganismo.ID.String()}, http.StatusBadRequest},
		{"general", gin.H{"tipo_reporte_id": general.ID.String(), "fecha_inicio": "2026-01-01"}, http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.hacer(http.MethodPost, "/api/v1/reportes/generar", admin, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			if tc.want != http.StatusCreated {
				assert.Contains(t, decodificar(t, w), "error")
			}
		})
	}
}

func TestDescargarReporte(t *testing.T) {
	s := nuevoServidor(t)
	org := s.f.Organismo("Temuco")
	muni := s.f.Usuario("muni", model.RolOrganismo, org)
	vecino := s.f.Usuario("vecino", model.RolCiudadano, nil)
	tipo := s.f.TipoReporte(model.CategoriaOrganismo, true, true, true)

	w := s.hacer(http.MethodPost, "/api/v1/reportes/generar", muni, gin.H{"tipo_reporte_id": tipo.ID.String()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodificar(t, w)["data"].(map[string]any)["id"].(string)

	t.Run("dueño recibe el PDF", func(t *testing.T) {
		w := s.hacer(http.MethodGet, "/api/v1/reportes/"+id+"/descargar", muni, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="reporte_organismo_`+id+`.pdf"`, w.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	})

	t.Run("reporte ajeno redirige a mis reportes", func(t *testing.T) {
		w := s.hacer(http.MethodGet, "/api/v1/reportes/"+id+"/descargar", vecino, nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/api/v1/reportes/mios", w.Header().Get("Location"))
		cookie, msg := flash(t, w)
		assert.Equal(t, "No tiene permiso para ver este reporte.", msg)

		w = s.hacer(http.MethodGet, "/api/v1/reportes/mios", vecino, nil, cookie)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "No tiene permiso para ver este reporte.", decodificar(t, w)["message"])
	})

	t.Run("archivo ausente redirige al detalle", func(t *testing.T) {
		sinArchivo := &model.ReporteGenerado{
			TipoReporteID: tipo.ID, UsuarioID: muni.ID, Titulo: "sin archivo", FechaGeneracion: time.Now(),
		}
		require.NoError(t, s.db.Create(sinArchivo).Error)

		w := s.hacer(http.MethodGet, "/api/v1/reportes/"+sinArchivo.ID.String()+"/descargar", muni, nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/api/v1/reportes/"+sinArchivo.ID.String(), w.Header().Get("Location"))
		_, msg := flash(t, w)
		assert.Equal(t, "El archivo no está disponible.", msg)
	})
}

func TestRegistrarAvance(t *testing.T) {
	s := nuevoServidor(t)
	org := s.f.Organismo("Temuco")
	muni := s.f.Usuario("muni", model.RolOrganismo, org)
	admin := s.f.Usuario("sma", model.RolAdminSMA, nil)
	m := s.f.Medida("A-1", s.f.Componente("Calefacción"), model.EstadoEnProceso, 10)
	s.f.Asignar(m, org)
	path := "/api/v1/medidas/" + m.ID.String() + "/avances"

	w := s.hacer(http.MethodPost, path, admin, gin.H{"porcentaje_avance": 50, "descripcion": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.hacer(http.MethodPost, path, muni, gin.H{"porcentaje_avance": 150, "descripcion": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.hacer(http.MethodPost, path, muni, gin.H{"porcentaje_avance": "62.5", "descripcion": "Recambio de calefactores", "fecha_registro": "2026-10-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// multipart con evidencia
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("porcentaje_avance", "70"))
	require.NoError(t, mw.WriteField("descripcion", "Con acta"))
	fw, err := mw.CreateFormFile("evidencia", "acta.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 acta"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, path, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	s.autorizar(r, muni)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decodificar(t, w)["data"].(map[string]any)
	assert.True(t, strings.HasPrefix(reg["evidencia"].(string), "evidencias/"))

	w = s.hacer(http.MethodGet, "/api/v1/medidas/"+m.ID.String(), muni, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodificar(t, w)["data"].(map[string]any)
	assert.Len(t, data["registros"], 2)
	assert.Equal(t, "70", data["medida"].(map[string]any)["porcentaje_avance"])
}

func TestDashboards(t *testing.T) {
	s := nuevoServidor(t)
	org := s.f.Organismo("Temuco")
	muni := s.f.Usuario("muni", model.RolOrganismo, org)
	admin := s.f.Usuario("sma", model.RolAdminSMA, nil)

	assert.Equal(t, http.StatusOK, s.hacer(http.MethodGet, "/api/v1/dashboard/sma", admin, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.hacer(http.MethodGet, "/api/v1/dashboard/sma", muni, nil).Code)
	assert.Equal(t, http.StatusOK, s.hacer(http.MethodGet, "/api/v1/dashboard/organismo", muni, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.hacer(http.MethodGet, "/api/v1/dashboard/organismo", admin, nil).Code)
}
