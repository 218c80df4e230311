package services

import "github.com/shopspring/decimal"

func round2(v float64) float64 { return decimal.NewFromFloat(v).Round(2).InexactFloat64() }

// sum adds values exactly so that rounded segment figures do not pick up binary drift.
func sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}
