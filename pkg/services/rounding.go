package services

import (
	"math"

	"github.com/shopspring/decimal"
)

// roundTo rounds half away from zero to places decimals. NaN and Inf become 0.
func roundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
