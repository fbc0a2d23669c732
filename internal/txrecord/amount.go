package txrecord

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of the currency unit.
const Decimals = 6

// FormatAmount renders an amount in the smallest unit as a fixed-point
// decimal string, e.g. 5000000 becomes "5.000000".
func FormatAmount(amount uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -Decimals).StringFixed(Decimals)
}
