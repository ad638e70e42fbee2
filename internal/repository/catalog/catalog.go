package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/config"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/domain/models"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/xlsx"
)

// ErrCatalogMissing indicates the master file is absent. Callers must surface
// it as a request failure, never as an unknown product.
var ErrCatalogMissing = errors.New("maestro no encontrado")

// ErrInvalidCatalog marks a rejected catalog upload.
var ErrInvalidCatalog = errors.New("maestro invalido")

// Repository resolves product codes against the master spreadsheet and swaps
// in replacement files. The catalog is re-read on every lookup; there is no
// in-memory cache to invalidate.
type Repository struct {
	store  *xlsx.Store
	cfg    config.Store
	logger *zap.Logger
}

// NewRepository builds a catalog repository over the configured master file.
func NewRepository(store *xlsx.Store, cfg config.Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: store, cfg: cfg, logger: logger}
}

// Path returns the live catalog file path.
func (r *Repository) Path() string { return r.cfg.CatalogPath }

// Resolve returns the first catalog entry whose trimmed code equals the
// trimmed input exactly. found is false when no row matches.
func (r *Repository) Resolve(code string) (models.Product, bool, error) {
	records, _, err := r.store.Read(r.cfg.CatalogPath, r.cfg.CatalogSheet)
	if err != nil {
		if errors.Is(err, xlsx.ErrNotFound) {
			return models.Product{}, false, fmt.Errorf("%w: %s", ErrCatalogMissing, r.cfg.CatalogPath)
		}
		return models.Product{}, false, err
	}

	needle := strings.TrimSpace(code)
	cols := r.cfg.Columns
	for _, record := range records {
		if strings.TrimSpace(cell(record, cols.Code)) != needle {
			continue
		}
		return models.Product{
			Code:        needle,
			Description: cell(record, cols.Description),
			Price:       cell(record, cols.Price),
			CostCenter:  cell(record, cols.CostCenter),
		}, true, nil
	}

	r.logger.Debug("code not in catalog", zap.String("code", needle))
	return models.Product{}, false, nil
}

// Replace validates the uploaded bytes as a catalog file and, only on
// success, renames it over the live master. sheet falls back to the
// configured catalog sheet. A failed validation leaves the live file
// untouched.
func (r *Repository) Replace(data []byte, sheet string) error {
	if sheet == "" {
		sheet = r.cfg.CatalogSheet
	}

	tmp := filepath.Join(r.cfg.DataDir, "tmp_upload.xlsx")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}

	_, headers, err := r.store.Read(tmp, sheet)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	cols := r.cfg.Columns
	for _, required := range []string{cols.Code, cols.Description, cols.Price, cols.CostCenter} {
		if !containsColumn(headers, required) {
			_ = os.Remove(tmp)
			return fmt.Errorf("%w: falta columna %s en la hoja %s", ErrInvalidCatalog, required, sheet)
		}
	}

	if err := os.Rename(tmp, r.cfg.CatalogPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace maestro: %w", err)
	}

	r.logger.Info("maestro replaced", zap.String("path", r.cfg.CatalogPath), zap.String("sheet", sheet))
	return nil
}

func containsColumn(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}

func cell(record xlsx.Record, column string) string {
	value, ok := record[column]
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
