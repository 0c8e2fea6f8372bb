// Package quote holds the core decision logic of the dashboard: choosing
// the fundamentals source for a symbol (ADR hybrid resolution) and
// assembling the normalized quote record from raw provider data.
package quote

import (
	"maps"
	"strings"
)

// Resolution is the fundamentals-source decision for a requested symbol.
type Resolution struct {
	// Source is the symbol whose fundamentals should be fetched.
	Source string
	// CrossListed is true when Source is a foreign cross-listing rather
	// than the requested symbol itself.
	CrossListed bool
	// FundamentalsCurrency is "USD" for cross-listed symbols. Empty means
	// "use the local instrument's price currency"; the normalizer fills
	// it in from the local snapshot.
	FundamentalsCurrency string
}

// Resolver decides, per symbol, where fundamentals come from. The mapping
// is loaded once and never mutated.
type Resolver struct {
	adr map[string]string
}

func NewResolver(adrMap map[string]string) *Resolver {
	m := make(map[string]string, len(adrMap))
	maps.Copy(m, adrMap)
	return &Resolver{adr: m}
}

// Resolve is a pure, total lookup: a mapped local symbol resolves to its
// foreign cross-listing (fundamentals in USD); anything else resolves to
// itself.
func (r *Resolver) Resolve(symbol string) Resolution {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if foreign, ok := r.adr[symbol]; ok {
		return Resolution{Source: foreign, CrossListed: true, FundamentalsCurrency: "USD"}
	}
	return Resolution{Source: symbol}
}
