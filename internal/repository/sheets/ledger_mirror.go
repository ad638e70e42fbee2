package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/config"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/domain/models"
)

// LedgerMirror appends every saved scan to a Google Sheets spreadsheet so the
// history can be watched outside the container. It is a best-effort sink; the
// local xlsx file stays the source of truth.
type LedgerMirror struct {
	service       *sheetsapi.Service
	spreadsheetID string
	writeRange    string
	logger        *zap.Logger
}

// NewLedgerMirror builds a Google Sheets backed mirror instance.
func NewLedgerMirror(ctx context.Context, cfg config.Mirror, sheet string, logger *zap.Logger) (*LedgerMirror, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.SheetsCredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &LedgerMirror{
		service:       service,
		spreadsheetID: cfg.SheetsSpreadsheetID,
		writeRange:    fmt.Sprintf("%s!A:H", sheet),
		logger:        logger,
	}, nil
}

// Publish appends the row values to the mirror spreadsheet.
func (m *LedgerMirror) Publish(ctx context.Context, row models.LedgerRow) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{rowValues(row)}}

	call := m.service.Spreadsheets.Values.Append(m.spreadsheetID, m.writeRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", m.writeRange, err)
	}

	m.logger.Debug("row mirrored to sheet", zap.String("range", m.writeRange), zap.String("codigo", row.Codigo))
	return nil
}

func rowValues(row models.LedgerRow) []interface{} {
	optional := func(s *string) interface{} {
		if s == nil {
			return ""
		}
		return *s
	}

	var valorizado interface{} = ""
	if row.Valorizado != nil {
		valorizado = *row.Valorizado
	}

	return []interface{}{
		row.Codigo,
		row.Descripcion,
		row.Cantidad,
		valorizado,
		optional(row.Centro),
		optional(row.Usuario),
		row.Fecha,
		row.Hora,
	}
}
