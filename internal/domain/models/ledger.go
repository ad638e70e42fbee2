package models

import (
	"strconv"
	"strings"
)

// UnknownDescription is recorded when a scanned code has no catalog entry.
const UnknownDescription = "UNKNOWN"

// Reasons a scan could not be valued.
const (
	UnvaluedNoPrice  = "price_missing"
	UnvaluedBadPrice = "price_not_numeric"
)

// LedgerRow is one persisted scan. Valorizado, Centro and Usuario are
// nullable; the JSON keys match the spreadsheet column names.
type LedgerRow struct {
	Codigo      string   `json:"Codigo" bson:"codigo"`
	Descripcion string   `json:"Descripcion" bson:"descripcion"`
	Cantidad    int      `json:"Cantidad" bson:"cantidad"`
	Valorizado  *float64 `json:"Valorizado" bson:"valorizado,omitempty"`
	Centro      *string  `json:"Centro" bson:"centro,omitempty"`
	Usuario     *string  `json:"Usuario" bson:"usuario,omitempty"`
	Fecha       string   `json:"Fecha" bson:"fecha"`
	Hora        string   `json:"Hora" bson:"hora"`
}

// Valuation is the tagged outcome of pricing a scan. Amount is nil when the
// scan could not be valued, and Reason says why.
type Valuation struct {
	Amount *float64
	Reason string
}

// Valued reports whether an amount was computed.
func (v Valuation) Valued() bool { return v.Amount != nil }

// Valuate multiplies the raw catalog price by the scanned quantity. A missing
// or non-numeric price degrades to an unvalued outcome, never an error.
func Valuate(rawPrice string, quantity int) Valuation {
	price := strings.TrimSpace(rawPrice)
	if price == "" {
		return Valuation{Reason: UnvaluedNoPrice}
	}

	parsed, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return Valuation{Reason: UnvaluedBadPrice}
	}

	amount := parsed * float64(quantity)
	return Valuation{Amount: &amount}
}
