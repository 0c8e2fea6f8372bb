// Package aggregate computes batch statistics over a multi-symbol price
// panel: top/bottom movers for a market and multi-horizon sector returns.
// The panel comes from a single batched provider call; symbols missing
// from it (failed or unknown upstream) are silently excluded so one bad
// symbol never sinks the batch.
package aggregate

import (
	"sort"

	"mercadash/internal/config"
	"mercadash/internal/marketdata"
)

const topN = 5

// Mover is one ranked instrument.
type Mover struct {
	Symbol        string  `json:"symbol"`
	ChangePercent float64 `json:"changePercent"`
	Price         float64 `json:"price"`
}

// MoversResult splits the ranked panel into gainers and losers.
type MoversResult struct {
	Gainers []Mover `json:"gainers"`
	Losers  []Mover `json:"losers"`
}

// periodOffsets maps a lookback label to trading-period offsets from the
// end of a series. Unknown labels fall back to one day.
var periodOffsets = map[string]int{
	"1d":  1,
	"5d":  5,
	"1mo": 21,
	"1y":  250,
}

// PeriodOffset returns the index offset for a lookback label.
func PeriodOffset(period string) int {
	if off, ok := periodOffsets[period]; ok {
		return off
	}
	return 1
}

// Movers ranks the symbols of panel by percentage change over the period
// window. Symbols whose series is too short for the window are excluded.
// Gainers are the top five by descending change; losers are the bottom
// five re-sorted ascending so the worst performer comes first. With fewer
// than ten surviving symbols the two sets may overlap; that is accepted
// rather than deduplicated.
func Movers(symbols []string, panel map[string]marketdata.PriceSeries, period string) MoversResult {
	offset := PeriodOffset(period)

	ranked := make([]Mover, 0, len(symbols))
	for _, sym := range symbols {
		series, ok := panel[sym]
		if !ok || len(series) <= offset {
			continue
		}
		last, _ := series.Last()
		ranked = append(ranked, Mover{
			Symbol:        sym,
			ChangePercent: series.ChangePercent(offset),
			Price:         last,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ChangePercent > ranked[j].ChangePercent
	})

	result := MoversResult{Gainers: []Mover{}, Losers: []Mover{}}
	result.Gainers = append(result.Gainers, ranked[:min(topN, len(ranked))]...)

	losers := ranked[max(0, len(ranked)-topN):]
	result.Losers = append(result.Losers, losers...)
	sort.SliceStable(result.Losers, func(i, j int) bool {
		return result.Losers[i].ChangePercent < result.Losers[j].ChangePercent
	})
	return result
}

// SectorRecord is the multi-horizon performance of one sector instrument.
type SectorRecord struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Day    float64 `json:"day"`
	Week   float64 `json:"week"`
	Month  float64 `json:"month"`
	Year   float64 `json:"year"`
}

// SectorPerformance computes day/week/month/year returns for each sector
// instrument present in panel, sorted by day return descending. A series
// too short for a horizon reports 0 for that horizon.
func SectorPerformance(sectors []config.Sector, panel map[string]marketdata.PriceSeries) []SectorRecord {
	out := make([]SectorRecord, 0, len(sectors))
	for _, sec := range sectors {
		series, ok := panel[sec.Symbol]
		if !ok || len(series) == 0 {
			continue
		}
		out = append(out, SectorRecord{
			Symbol: sec.Symbol,
			Name:   sec.Name,
			Day:    series.ChangePercent(periodOffsets["1d"]),
			Week:   series.ChangePercent(periodOffsets["5d"]),
			Month:  series.ChangePercent(periodOffsets["1mo"]),
			Year:   series.ChangePercent(periodOffsets["1y"]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	return out
}
