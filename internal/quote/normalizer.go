package quote

import (
	"time"

	"github.com/guregu/null/v6"

	"mercadash/internal/marketdata"
)

// Lookback offsets, in trading periods counted back from the latest close.
const (
	offsetDay   = 1
	offsetWeek  = 5
	offsetMonth = 21
	offsetYear  = 250
)

// NormalizedQuote is the stable output contract of the quote endpoint.
// Every percentage field is in percent units (3.0 means 3%). Metrics the
// instrument does not publish are null, never zero, with dividend yield
// the one deliberate exception.
type NormalizedQuote struct {
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	Type          string      `json:"type"`
	Price         float64     `json:"price"`
	PriceCurrency string      `json:"priceCurrency"`
	Performance   Performance `json:"performance"`
	Valuation     Valuation   `json:"valuation"`
	Dividends     Dividends   `json:"dividends"`
	Quotes        TopOfBook   `json:"quotes"`
}

type Performance struct {
	Day   float64 `json:"day"`
	Week  float64 `json:"week"`
	Month float64 `json:"month"`
	Year  float64 `json:"year"`
}

type Valuation struct {
	PE               null.Float `json:"pe"`
	ForwardPE        null.Float `json:"forwardPe"`
	PEG              null.Float `json:"peg"`
	Beta             null.Float `json:"beta"`
	MarketCapDisplay string     `json:"marketCapDisplay"`
}

type Dividends struct {
	YieldPercent float64     `json:"yieldPercent"`
	ExDate       null.String `json:"exDate"`
	Currency     string      `json:"currency"`
}

type TopOfBook struct {
	Bid null.Float `json:"bid"`
	Ask null.Float `json:"ask"`
}

// Build assembles the normalized quote for symbol. series is the local
// instrument's price history; local is its fundamentals snapshot; foreign
// is the cross-listing's snapshot and may be nil: a missing foreign
// snapshot degrades to local fundamentals, it never fails the quote.
func Build(symbol string, series marketdata.PriceSeries, local, foreign *marketdata.Fundamentals, res Resolution) (NormalizedQuote, error) {
	price, ok := series.Last()
	if !ok {
		return NormalizedQuote{}, marketdata.ErrNoData
	}
	if local == nil {
		local = &marketdata.Fundamentals{}
	}

	// Valuation and dividend metrics come from the cross-listing when one
	// is available; everything tied to the tradable instrument (price,
	// name, type, bid/ask) stays local.
	fund := local
	if res.CrossListed && foreign != nil {
		fund = foreign
	}

	priceCurrency := local.Currency
	if priceCurrency == "" {
		priceCurrency = "USD"
	}
	dividendCurrency := res.FundamentalsCurrency
	if dividendCurrency == "" {
		dividendCurrency = priceCurrency
	}

	return NormalizedQuote{
		Symbol:        symbol,
		Name:          displayName(local, symbol),
		Type:          local.QuoteType,
		Price:         price,
		PriceCurrency: priceCurrency,
		Performance: Performance{
			Day:   series.ChangePercent(offsetDay),
			Week:  series.ChangePercent(offsetWeek),
			Month: series.ChangePercent(offsetMonth),
			Year:  series.ChangePercent(offsetYear),
		},
		Valuation: Valuation{
			PE:               null.FloatFromPtr(fund.TrailingPE),
			ForwardPE:        null.FloatFromPtr(fund.ForwardPE),
			PEG:              null.FloatFromPtr(fund.PEGRatio),
			Beta:             null.FloatFromPtr(fund.Beta),
			MarketCapDisplay: FormatMarketCap(fund.MarketCap),
		},
		Dividends: Dividends{
			YieldPercent: NormalizeYield(fund.DividendYield),
			ExDate:       exDate(fund.ExDividendDate),
			Currency:     dividendCurrency,
		},
		Quotes: TopOfBook{
			Bid: null.FloatFromPtr(local.Bid),
			Ask: null.FloatFromPtr(local.Ask),
		},
	}, nil
}

// NormalizeYield converts a raw dividend yield into percent units.
// Upstream sources inconsistently report yield as a fraction (0.03) or
// already scaled (3.0); values below 1 are treated as fractions. Absent
// yield is 0, not null.
func NormalizeYield(raw *float64) float64 {
	if raw == nil || *raw == 0 {
		return 0
	}
	if *raw < 1 {
		return *raw * 100
	}
	return *raw
}

func displayName(f *marketdata.Fundamentals, symbol string) string {
	if f.LongName != "" {
		return f.LongName
	}
	if f.ShortName != "" {
		return f.ShortName
	}
	return symbol
}

func exDate(epoch *int64) null.String {
	if epoch == nil {
		return null.String{}
	}
	return null.StringFrom(time.Unix(*epoch, 0).UTC().Format("02/01/2006"))
}
