package models

// ScanRequest is the inbound payload of a scan. Field names follow the
// warehouse scanners' JSON contract.
type ScanRequest struct {
	Codigo   string  `json:"codigo" binding:"required,min=1"`
	Cantidad int     `json:"cantidad" binding:"required,min=1"`
	Usuario  *string `json:"usuario"`
	Centro   *string `json:"centro"`
}

// ScanResult pairs the persisted ledger row with its valuation outcome.
type ScanResult struct {
	Row       LedgerRow
	Valuation Valuation
}
