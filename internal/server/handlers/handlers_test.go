package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/config"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/catalog"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/ledger"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/xlsx"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/server/handlers"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/server/router"
	scansvc "github.com/Rodrigocheo/Logistica-Inversa/internal/service/scan"
)

var catalogColumns = []string{"Codigo", "Descripcion", "Precio", "Centro"}

type testApp struct {
	cfg    config.Store
	store  *xlsx.Store
	engine *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	dir := t.TempDir()
	cfg := config.Store{
		DataDir:      dir,
		CatalogPath:  filepath.Join(dir, "Base_SKU2.xlsx"),
		LedgerPath:   filepath.Join(dir, "Registro_Escaneos.xlsx"),
		CatalogSheet: "Hoja2",
		LedgerSheet:  "Escaneos",
		Columns: config.Columns{
			Code:        "Codigo",
			Description: "Descripcion",
			Price:       "Precio",
			CostCenter:  "Centro",
		},
	}

	store := xlsx.NewStore(nil)
	catalogRepo := catalog.NewRepository(store, cfg, nil)
	ledgerRepo := ledger.NewRepository(store, cfg, nil)
	svc := scansvc.NewService(catalogRepo, ledgerRepo, time.UTC, nil, nil)

	scanHandler := handlers.NewScanHandler(svc, cfg.DataDir, time.UTC, nil)
	adminHandler := handlers.NewAdminHandler(catalogRepo, ledgerRepo, nil)
	engine := router.New(scanHandler, adminHandler, []string{"*"}, nil)

	return &testApp{cfg: cfg, store: store, engine: engine}
}

func (a *testApp) writeCatalog(t *testing.T, records []xlsx.Record) {
	t.Helper()
	require.NoError(t, a.store.Write(a.cfg.CatalogPath, a.cfg.CatalogSheet, catalogColumns, records))
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) postJSON(t *testing.T, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func xlsxBytes(t *testing.T, store *xlsx.Store, sheet string, columns []string, records []xlsx.Record) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, store.Write(path, sheet, columns, records))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func multipartUpload(t *testing.T, fileBytes []byte, sheet string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "maestro.xlsx")
	require.NoError(t, err)
	_, err = part.Write(fileBytes)
	require.NoError(t, err)
	if sheet != "" {
		require.NoError(t, w.WriteField("sheet", sheet))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, app.cfg.DataDir, body["data_dir"])
	assert.NotEmpty(t, body["time"])
}

func TestScan_KnownCode(t *testing.T) {
	app := newTestApp(t)
	app.writeCatalog(t, []xlsx.Record{
		{"Codigo": "A1", "Descripcion": "Widget", "Precio": 10.5, "Centro": "C1"},
	})

	w := app.postJSON(t, "/scan", `{"codigo":"A1","cantidad":3}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		OK    bool `json:"ok"`
		Saved struct {
			Codigo      string   `json:"Codigo"`
			Descripcion string   `json:"Descripcion"`
			Cantidad    int      `json:"Cantidad"`
			Valorizado  *float64 `json:"Valorizado"`
			Centro      *string  `json:"Centro"`
			Usuario     *string  `json:"Usuario"`
		} `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, "A1", body.Saved.Codigo)
	assert.Equal(t, "Widget", body.Saved.Descripcion)
	assert.Equal(t, 3, body.Saved.Cantidad)
	require.NotNil(t, body.Saved.Valorizado)
	assert.InDelta(t, 31.5, *body.Saved.Valorizado, 1e-9)
	require.NotNil(t, body.Saved.Centro)
	assert.Equal(t, "C1", *body.Saved.Centro)
	assert.Nil(t, body.Saved.Usuario)
}

func TestScan_UnknownCode(t *testing.T) {
	app := newTestApp(t)
	app.writeCatalog(t, []xlsx.Record{
		{"Codigo": "A1", "Descripcion": "Widget", "Precio": 10.5, "Centro": "C1"},
	})

	w := app.postJSON(t, "/scan", `{"codigo":"Z9","cantidad":1,"centro":"C2"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	saved, ok := body["saved"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN", saved["Descripcion"])
	assert.Nil(t, saved["Valorizado"])
	assert.Equal(t, "C2", saved["Centro"])
}

func TestScan_ValidationErrors(t *testing.T) {
	app := newTestApp(t)
	app.writeCatalog(t, []xlsx.Record{
		{"Codigo": "A1", "Descripcion": "Widget", "Precio": 10.5, "Centro": "C1"},
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing codigo", body: `{"cantidad":1}`},
		{name: "empty codigo", body: `{"codigo":"","cantidad":1}`},
		{name: "missing cantidad", body: `{"codigo":"A1"}`},
		{name: "zero cantidad", body: `{"codigo":"A1","cantidad":0}`},
		{name: "negative cantidad", body: `{"codigo":"A1","cantidad":-1}`},
		{name: "not json", body: `cantidad=3`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.postJSON(t, "/scan", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestScan_MissingCatalog(t *testing.T) {
	app := newTestApp(t)

	w := app.postJSON(t, "/scan", `{"codigo":"A1","cantidad":1}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
}

func TestUploadMaestro_Success(t *testing.T) {
	app := newTestApp(t)

	data := xlsxBytes(t, app.store, app.cfg.CatalogSheet, catalogColumns, []xlsx.Record{
		{"Codigo": "A1", "Descripcion": "Widget", "Precio": 10.5, "Centro": "C1"},
	})
	buf, contentType := multipartUpload(t, data, "")

	req := httptest.NewRequest(http.MethodPost, "/admin/upload-maestro", buf)
	req.Header.Set("Content-Type", contentType)
	w := app.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, app.cfg.CatalogPath, body["maestro"])

	// Scans now resolve against the uploaded catalog.
	scanW := app.postJSON(t, "/scan", `{"codigo":"A1","cantidad":2}`)
	assert.Equal(t, http.StatusOK, scanW.Code)
}

func TestUploadMaestro_MissingColumn(t *testing.T) {
	app := newTestApp(t)

	data := xlsxBytes(t, app.store, app.cfg.CatalogSheet, []string{"Codigo", "Descripcion", "Centro"}, []xlsx.Record{
		{"Codigo": "A1", "Descripcion": "Widget", "Centro": "C1"},
	})
	buf, contentType := multipartUpload(t, data, "")

	req := httptest.NewRequest(http.MethodPost, "/admin/upload-maestro", buf)
	req.Header.Set("Content-Type", contentType)
	w := app.do(req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["error"], "Precio")
}

func TestUploadMaestro_NoFile(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/upload-maestro", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := app.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerHistorico(t *testing.T) {
	app := newTestApp(t)
	app.writeCatalog(t, []xlsx.Record{
		{"Codigo": "A1", "Descripcion": "Widget", "Precio": 10.5, "Centro": "C1"},
	})
	require.Equal(t, http.StatusOK, app.postJSON(t, "/scan", `{"codigo":"A1","cantidad":3}`).Code)

	w := app.do(httptest.NewRequest(http.MethodGet, "/admin/ver-historico", nil))

	require.Equal(t, http.StatusOK, w.Code)
	html := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, html, "<th>Codigo</th>")
	assert.Contains(t, html, "<td>A1</td>")
	assert.Contains(t, html, "<td>Widget</td>")
	assert.Contains(t, html, "/admin/historico.csv")
	assert.Contains(t, html, "/admin/descargar-historico")
}

func TestVerHistorico_EmptyLedger(t *testing.T) {
	app := newTestApp(t)

	w := app.do(httptest.NewRequest(http.MethodGet, "/admin/ver-historico", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sin escaneos todavia.")
}

func TestHistoricoCSV(t *testing.T) {
	app := newTestApp(t)
	app.writeCatalog(t, []xlsx.Record{
		{"Codigo": "A1", "Descripcion": "Widget", "Precio": 10.5, "Centro": "C1"},
	})
	require.Equal(t, http.StatusOK, app.postJSON(t, "/scan", `{"codigo":"A1","cantidad":3}`).Code)

	w := app.do(httptest.NewRequest(http.MethodGet, "/admin/historico.csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Codigo,Descripcion,Cantidad,Valorizado,Centro,Usuario,Fecha,Hora", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A1,Widget,3,31.5,C1,"))
}

func TestHistoricoCSV_AbsentLedgerIsPlaceholder(t *testing.T) {
	app := newTestApp(t)

	w := app.do(httptest.NewRequest(http.MethodGet, "/admin/historico.csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sin escaneos todavia.", w.Body.String())
}

func TestDescargarHistorico(t *testing.T) {
	app := newTestApp(t)
	app.writeCatalog(t, []xlsx.Record{
		{"Codigo": "A1", "Descripcion": "Widget", "Precio": 10.5, "Centro": "C1"},
	})
	require.Equal(t, http.StatusOK, app.postJSON(t, "/scan", `{"codigo":"A1","cantidad":3}`).Code)

	w := app.do(httptest.NewRequest(http.MethodGet, "/admin/descargar-historico", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), handlers.DownloadFilename)

	// The served bytes are the ledger file as-is.
	onDisk, err := os.ReadFile(app.cfg.LedgerPath)
	require.NoError(t, err)
	assert.Equal(t, onDisk, w.Body.Bytes())
}

func TestDescargarHistorico_AbsentLedgerIs404(t *testing.T) {
	app := newTestApp(t)

	w := app.do(httptest.NewRequest(http.MethodGet, "/admin/descargar-historico", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
