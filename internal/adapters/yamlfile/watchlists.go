// Package yamlfile reads and writes watchlist definitions as YAML:
//
//	watchlists:
//	  - name: tech
//	    symbols: [AAPL, GOOGL]
package yamlfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
)

// Entry is one watchlist of a file
type Entry struct {
	Name    string   `yaml:"name"`
	Symbols []string `yaml:"symbols"`
}

type file struct {
	Watchlists []Entry `yaml:"watchlists"`
}

// Load reads the watchlists defined in path
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Decode parses watchlist definitions. Symbols are normalized; names must be
// non-empty and unique.
func Decode(r io.Reader) ([]Entry, error) {
	var wf file
	if err := yaml.NewDecoder(r).Decode(&wf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse watchlists: %w", err)
	}

	seen := make(map[string]struct{}, len(wf.Watchlists))
	entries := make([]Entry, 0, len(wf.Watchlists))
	for i, e := range wf.Watchlists {
		name := strings.TrimSpace(e.Name)
		if err := domain.ValidateWatchlistName(name); err != nil {
			return nil, fmt.Errorf("watchlist %d: %w", i+1, err)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("watchlist %q defined twice", name)
		}
		seen[name] = struct{}{}

		entries = append(entries, Entry{
			Name:    name,
			Symbols: domain.NormalizeSymbols(e.Symbols),
		})
	}
	return entries, nil
}

// Encode writes watchlists in the format Decode reads
func Encode(w io.Writer, lists []*domain.Watchlist) error {
	wf := file{Watchlists: make([]Entry, 0, len(lists))}
	for _, wl := range lists {
		wf.Watchlists = append(wf.Watchlists, Entry{Name: wl.Name, Symbols: wl.Symbols()})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(wf); err != nil {
		return err
	}
	return enc.Close()
}
