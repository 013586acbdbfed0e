package domain

import "strings"

// NormalizeSymbol trims and upper-cases a ticker as typed by a user.
// The proxies never call it; it is for user input such as import files,
// command arguments and request bodies.
func NormalizeSymbol(sym string) string {
	return strings.ToUpper(strings.TrimSpace(sym))
}

// NormalizeSymbols normalizes every symbol, dropping blanks and duplicates
func NormalizeSymbols(symbols []string) []string {
	set := NewSymbolSet()
	for _, sym := range symbols {
		if sym = NormalizeSymbol(sym); sym != "" {
			set.Add(sym)
		}
	}
	return set.Slice()
}
