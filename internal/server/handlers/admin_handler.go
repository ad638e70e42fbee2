package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/catalog"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/ledger"
)

// DownloadFilename is the suggested name for the raw ledger download.
const DownloadFilename = "Registro_Escaneos.xlsx"

const historicoHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Historico de escaneos</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 4px 10px; }
th { background: #eee; }
</style>
</head>
<body>
<h1>Historico de escaneos</h1>
<p>
<a href="/admin/historico.csv">CSV</a> |
<a href="/admin/descargar-historico">Descargar xlsx</a>
</p>
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
{{if not .Rows}}<p>Sin escaneos todavia.</p>{{end}}
</body>
</html>
`

// HistoricoTemplate returns the HTML view template; the router installs it
// on the gin engine.
func HistoricoTemplate() *template.Template {
	return template.Must(template.New("historico").Parse(historicoHTML))
}

// AdminHandler serves the catalog replacement and the ledger projections.
type AdminHandler struct {
	catalog *catalog.Repository
	ledger  *ledger.Repository
	logger  *zap.Logger
}

// NewAdminHandler constructs the admin HTTP handler adapter.
func NewAdminHandler(catalogRepo *catalog.Repository, ledgerRepo *ledger.Repository, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{catalog: catalogRepo, ledger: ledgerRepo, logger: logger}
}

// UploadMaestro swaps in a new master catalog from a multipart upload.
func (h *AdminHandler) UploadMaestro(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "archivo requerido"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed opening upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no se pudo leer el archivo"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed reading upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no se pudo leer el archivo"})
		return
	}

	if err := h.catalog.Replace(data, c.PostForm("sheet")); err != nil {
		if errors.Is(err, catalog.ErrInvalidCatalog) {
			h.logger.Warn("maestro upload rejected", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		h.logger.Error("failed replacing maestro", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no se pudo reemplazar el maestro"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "maestro": h.catalog.Path()})
}

// VerHistorico renders the whole ledger as an HTML table. An absent ledger
// renders an empty table, not an error.
func (h *AdminHandler) VerHistorico(c *gin.Context) {
	records, err := h.ledger.Rows()
	if err != nil {
		h.logger.Error("failed loading historico", zap.Error(err))
		c.String(http.StatusInternalServerError, "no se pudo leer el historico")
		return
	}

	columns := h.ledger.Columns()
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			row = append(row, cellText(record[column]))
		}
		rows = append(rows, row)
	}

	c.HTML(http.StatusOK, "historico", gin.H{"Columns": columns, "Rows": rows})
}

// DescargarHistorico serves the raw ledger file as an attachment.
func (h *AdminHandler) DescargarHistorico(c *gin.Context) {
	if !h.ledger.Exists() {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no hay historico todavia"})
		return
	}
	c.FileAttachment(h.ledger.Path(), DownloadFilename)
}

// HistoricoCSV re-encodes the ledger as CSV text, or a plain placeholder when
// no scan has been saved yet.
func (h *AdminHandler) HistoricoCSV(c *gin.Context) {
	if !h.ledger.Exists() {
		c.String(http.StatusOK, "Sin escaneos todavia.")
		return
	}

	records, err := h.ledger.Rows()
	if err != nil {
		h.logger.Error("failed loading historico", zap.Error(err))
		c.String(http.StatusInternalServerError, "no se pudo leer el historico")
		return
	}

	columns := h.ledger.Columns()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(columns)
	for _, record := range records {
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			row = append(row, cellText(record[column]))
		}
		_ = w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.logger.Error("failed encoding csv", zap.Error(err))
		c.String(http.StatusInternalServerError, "no se pudo generar el csv")
		return
	}

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func cellText(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
