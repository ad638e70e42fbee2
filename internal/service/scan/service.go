package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/domain/models"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/catalog"
	"github.com/Rodrigocheo/Logistica-Inversa/internal/repository/ledger"
)

// ErrInvalidScan indicates the request failed shape validation before any
// file was touched.
var ErrInvalidScan = errors.New("invalid scan request")

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"

	sinkTimeout = 10 * time.Second
)

// Sink receives every successfully persisted row. Sinks are best-effort:
// a failing sink is logged and never fails the scan.
type Sink interface {
	Publish(ctx context.Context, row models.LedgerRow) error
}

// Service is the scan-and-append core: it validates a request, resolves the
// product against the master catalog, values the scan and appends one row to
// the history ledger.
type Service struct {
	catalog *catalog.Repository
	ledger  *ledger.Repository
	sinks   []Sink
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires the scan service.
func NewService(catalogRepo *catalog.Repository, ledgerRepo *ledger.Repository, loc *time.Location, sinks []Sink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		catalog: catalogRepo,
		ledger:  ledgerRepo,
		sinks:   sinks,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

// RecordScan performs one scan end to end and returns the persisted row.
// Nothing is written unless every field of the row could be computed; a
// missing catalog aborts the request, an unknown code does not.
func (s *Service) RecordScan(ctx context.Context, req models.ScanRequest) (models.ScanResult, error) {
	code := strings.TrimSpace(req.Codigo)
	if code == "" {
		return models.ScanResult{}, fmt.Errorf("%w: codigo vacio", ErrInvalidScan)
	}
	if req.Cantidad < 1 {
		return models.ScanResult{}, fmt.Errorf("%w: cantidad debe ser >= 1", ErrInvalidScan)
	}

	product, found, err := s.catalog.Resolve(code)
	if err != nil {
		return models.ScanResult{}, err
	}

	description := models.UnknownDescription
	rawPrice := ""
	centro := req.Centro
	if found {
		description = product.Description
		rawPrice = product.Price
		if centro == nil && product.CostCenter != "" {
			cc := product.CostCenter
			centro = &cc
		}
	}

	valuation := models.Valuate(rawPrice, req.Cantidad)

	now := s.now().In(s.loc)
	row := models.LedgerRow{
		Codigo:      code,
		Descripcion: description,
		Cantidad:    req.Cantidad,
		Valorizado:  valuation.Amount,
		Centro:      centro,
		Usuario:     req.Usuario,
		Fecha:       now.Format(dateLayout),
		Hora:        now.Format(timeLayout),
	}

	if err := s.ledger.Append(row); err != nil {
		return models.ScanResult{}, err
	}

	if !valuation.Valued() {
		s.logger.Debug("scan saved without valuation",
			zap.String("codigo", code),
			zap.String("reason", valuation.Reason))
	}

	s.publish(row)

	return models.ScanResult{Row: row, Valuation: valuation}, nil
}

// publish fans the saved row out to the configured sinks off the request
// path.
func (s *Service) publish(row models.LedgerRow) {
	for _, sink := range s.sinks {
		go func(sink Sink) {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			defer cancel()

			if err := sink.Publish(ctx, row); err != nil {
				s.logger.Warn("mirror sink failed", zap.String("codigo", row.Codigo), zap.Error(err))
			}
		}(sink)
	}
}
