// Package normalize turns locale-ambiguous cells from broker exports into
// numbers and UTC instants. Parsers never fail: an unusable cell yields NaN
// (numbers) or ok=false (times) and the caller decides what that means.
package normalize

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// leadingNumber matches the numeric prefix a lenient float parse would accept.
var leadingNumber = regexp.MustCompile(`^-?(\d+(\.\d+)?|\.\d+)`)

// ParseCurrency parses an amount such as "1,234.56", "1.234,56", "$ 40" or
// "(40.00)" and returns NaN when no number can be recovered.
//
// Whichever of comma and dot occurs last is the decimal separator; the other
// is a thousands separator. A lone comma therefore reads as a decimal comma:
// "1,234" is 1.234.
func ParseCurrency(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}

	parenthetical := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if parenthetical {
		s = s[1 : len(s)-1]
	}

	s = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		i := strings.LastIndex(s, ",")
		s = strings.ReplaceAll(s[:i], ",", "") + "." + s[i+1:]
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	num := leadingNumber.FindString(s)
	if num == "" {
		return math.NaN()
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return math.NaN()
	}

	v := d.InexactFloat64()
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	if parenthetical && v > 0 {
		v = -v
	}
	return v
}
