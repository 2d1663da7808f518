package model

import "math"

// Prices are stored as integer cents.  API payloads accept and return
// decimal amounts alongside the cent values; conversion rounds half away
// from zero to the nearest cent.

// CentsFromAmount converts a decimal amount (e.g. 25.5) to cents (2550).
func CentsFromAmount(amount float64) int64 {
    return int64(math.Round(amount * 100))
}

// AmountFromCents converts cents back to a decimal amount for display.
func AmountFromCents(cents int64) float64 {
    return float64(cents) / 100.0
}
