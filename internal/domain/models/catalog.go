package models

// Product is one catalog entry resolved by code. Price stays as the raw cell
// text so coercion happens (and can fail gracefully) at valuation time.
type Product struct {
	Code        string
	Description string
	Price       string
	CostCenter  string
}
