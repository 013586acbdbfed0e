package domain

import (
	"iter"
	"strings"

	"github.com/shopspring/decimal"
)

// WatchlistItem is one entry of a remote watchlist
type WatchlistItem struct {
	Symbol    string          `json:"symbol"`
	CostBasis decimal.Decimal `json:"cost_basis"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Watchlist is the remote state of a single named watchlist
type Watchlist struct {
	Name  string          `json:"name"`
	Items []WatchlistItem `json:"items"`
}

// Symbols returns the item symbols in server order, without duplicates
func (w *Watchlist) Symbols() []string {
	set := NewSymbolSet()
	for _, item := range w.Items {
		set.Add(item.Symbol)
	}
	return set.Slice()
}

// ValidateWatchlistName rejects names that cannot be addressed remotely.
// Everything else is left to the broker.
func ValidateWatchlistName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidWatchlistName
	}
	return nil
}

// SymbolSet is an insertion-ordered set of ticker symbols
type SymbolSet struct {
	order []string
	index map[string]struct{}
}

// NewSymbolSet creates a set holding symbols, dropping duplicates
func NewSymbolSet(symbols ...string) *SymbolSet {
	s := &SymbolSet{
		order: make([]string, 0, len(symbols)),
		index: make(map[string]struct{}, len(symbols)),
	}
	for _, sym := range symbols {
		s.Add(sym)
	}
	return s
}

// Add inserts sym and reports whether it was new
func (s *SymbolSet) Add(sym string) bool {
	if _, ok := s.index[sym]; ok {
		return false
	}
	s.index[sym] = struct{}{}
	s.order = append(s.order, sym)
	return true
}

// Contains reports whether sym is in the set
func (s *SymbolSet) Contains(sym string) bool {
	_, ok := s.index[sym]
	return ok
}

// Missing returns the symbols of syms not in the set, deduplicated
func (s *SymbolSet) Missing(syms []string) []string {
	var missing []string
	seen := make(map[string]struct{}, len(syms))
	for _, sym := range syms {
		if s.Contains(sym) {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		missing = append(missing, sym)
	}
	return missing
}

// Len returns the number of symbols
func (s *SymbolSet) Len() int {
	return len(s.order)
}

// Slice returns a copy of the symbols in insertion order
func (s *SymbolSet) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// All iterates the symbols in insertion order
func (s *SymbolSet) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, sym := range s.order {
			if !yield(sym) {
				return
			}
		}
	}
}

// Diff returns what next has that s lacks, and what s has that next lacks
func (s *SymbolSet) Diff(next *SymbolSet) (added, removed []string) {
	for _, sym := range next.order {
		if !s.Contains(sym) {
			added = append(added, sym)
		}
	}
	for _, sym := range s.order {
		if !next.Contains(sym) {
			removed = append(removed, sym)
		}
	}
	return added, removed
}

// Equal reports whether both sets hold the same symbols, ignoring order
func (s *SymbolSet) Equal(other *SymbolSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, sym := range s.order {
		if !other.Contains(sym) {
			return false
		}
	}
	return true
}

func (s *SymbolSet) String() string {
	return "{" + strings.Join(s.order, ", ") + "}"
}
