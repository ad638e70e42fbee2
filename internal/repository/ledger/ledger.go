package ledger

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/config"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/domain/models"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/xlsx"
)

// Repository owns the running scan history file. Every append is a full
// read-modify-rewrite of the file, serialized behind mu so concurrent scans
// cannot drop each other's rows.
type Repository struct {
	mu      sync.Mutex
	store   *xlsx.Store
	cfg     config.Store
	columns []string
	logger  *zap.Logger
}

// NewRepository builds a ledger repository over the configured history file.
func NewRepository(store *xlsx.Store, cfg config.Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		store:   store,
		cfg:     cfg,
		columns: cfg.LedgerColumns(),
		logger:  logger,
	}
}

// Path returns the ledger file path.
func (r *Repository) Path() string { return r.cfg.LedgerPath }

// Columns returns the fixed ledger column order.
func (r *Repository) Columns() []string { return r.columns }

// Exists reports whether the ledger file has been created yet.
func (r *Repository) Exists() bool {
	_, err := os.Stat(r.cfg.LedgerPath)
	return err == nil
}

// Append loads the existing history (empty when the file is absent), appends
// the row and rewrites the whole file in the fixed column order.
func (r *Repository) Append(row models.LedgerRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, _, err := r.store.Read(r.cfg.LedgerPath, r.cfg.LedgerSheet)
	if err != nil {
		if !errors.Is(err, xlsx.ErrNotFound) {
			return fmt.Errorf("load historico: %w", err)
		}
		records = nil
	}

	records = append(records, r.toRecord(row))
	if err := r.store.Write(r.cfg.LedgerPath, r.cfg.LedgerSheet, r.columns, records); err != nil {
		return fmt.Errorf("rewrite historico: %w", err)
	}

	r.logger.Info("scan appended", zap.String("codigo", row.Codigo), zap.Int("cantidad", row.Cantidad), zap.Int("rows", len(records)))
	return nil
}

// Rows returns every persisted row in file order. An absent ledger yields an
// empty sequence, not an error; the read-only views rely on that.
func (r *Repository) Rows() ([]xlsx.Record, error) {
	records, _, err := r.store.Read(r.cfg.LedgerPath, r.cfg.LedgerSheet)
	if err != nil {
		if errors.Is(err, xlsx.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

func (r *Repository) toRecord(row models.LedgerRow) xlsx.Record {
	record := xlsx.Record{
		r.columns[0]: row.Codigo,
		r.columns[1]: row.Descripcion,
		"Cantidad":   row.Cantidad,
		"Usuario":    nil,
		"Valorizado": nil,
		r.columns[4]: nil,
		"Fecha":      row.Fecha,
		"Hora":       row.Hora,
	}
	if row.Valorizado != nil {
		record["Valorizado"] = *row.Valorizado
	}
	if row.Centro != nil {
		record[r.columns[4]] = *row.Centro
	}
	if row.Usuario != nil {
		record["Usuario"] = *row.Usuario
	}
	return record
}
