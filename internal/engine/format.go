package engine

import (
	"math"
	"strconv"
)

// FormatInt formats n with comma thousands separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	out := s[:head]
	for i := head; i < len(s); i += 3 {
		out += "," + s[i:i+3]
	}
	return out
}

// FormatUSD renders an amount rounded to whole dollars, e.g. "$110,000".
func FormatUSD(amount float64) string {
	rounded := int(math.Round(amount))
	if rounded < 0 {
		return "-$" + FormatInt(-rounded)
	}
	return "$" + FormatInt(rounded)
}
