package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/domain/models"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/catalog"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/service/scan"
)

// ScanHandler exposes the scan endpoint and the health probe.
type ScanHandler struct {
	svc     *scan.Service
	dataDir string
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewScanHandler constructs the HTTP handler adapter.
func NewScanHandler(svc *scan.Service, dataDir string, loc *time.Location, logger *zap.Logger) *ScanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &ScanHandler{svc: svc, dataDir: dataDir, loc: loc, logger: logger, now: time.Now}
}

// Health reports liveness plus the current time in the configured timezone.
func (h *ScanHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"time":     h.now().In(h.loc).Format("2006-01-02 15:04:05"),
		"data_dir": h.dataDir,
	})
}

// Scan validates the request, records the scan and returns the saved row.
func (h *ScanHandler) Scan(c *gin.Context) {
	var req models.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid scan payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	result, err := h.svc.RecordScan(c.Request.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, scan.ErrInvalidScan):
		h.logger.Warn("scan rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	case errors.Is(err, catalog.ErrCatalogMissing):
		h.logger.Error("maestro missing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	default:
		h.logger.Error("failed recording scan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no se pudo guardar el escaneo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "saved": result.Row})
}
