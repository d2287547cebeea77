package symbol

import (
	"strings"
)

type Format string

const (
	FormatInternal Format = "internal"
	FormatOanda    Format = "oanda"
)

// Converter maps internal "EUR/USD" pairs to a broker's instrument names.
type Converter interface {
	ToBroker(internal string) string

	FromBroker(raw string) string

	Format() Format
}

type Symbol struct {
	Base  string
	Quote string
}

func (s Symbol) Internal() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "/" + s.Quote
}

func (s Symbol) Oanda() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "_" + s.Quote
}

// Parse accepts "EUR/USD", "EUR_USD", "eur-usd" or "EURUSD".
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}
	for _, sep := range []string{"/", "_", "-"} {
		if parts := strings.SplitN(s, sep, 2); len(parts) == 2 {
			base, quote := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			if len(base) == 3 && len(quote) == 3 {
				return Symbol{Base: base, Quote: quote}
			}
			return Symbol{}
		}
	}
	if len(s) == 6 {
		return Symbol{Base: s[:3], Quote: s[3:]}
	}
	return Symbol{}
}

func Normalize(s string) string {
	return Parse(s).Internal()
}

// NormalizeList normalizes and de-duplicates, dropping unparsable entries.
func NormalizeList(symbols []string) []string {
	if len(symbols) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		norm := Normalize(s)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

func IsValid(s string) bool {
	sym := Parse(s)
	return sym.Base != "" && sym.Quote != ""
}
