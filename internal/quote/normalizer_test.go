package quote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mercadash/internal/marketdata"
)

func fp(v float64) *float64 { return &v }

func series(closes ...float64) marketdata.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := make(marketdata.PriceSeries, 0, len(closes))
	for i, c := range closes {
		s = append(s, marketdata.Bar{Date: start.AddDate(0, 0, i), Close: c})
	}
	return s
}

// flatSeries returns n bars at value v with the last bar at last.
func flatSeries(n int, v, last float64) marketdata.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = v
	}
	closes[n-1] = last
	return series(closes...)
}

func TestBuild_EmptySeriesIsNoData(t *testing.T) {
	_, err := Build("AAPL", nil, &marketdata.Fundamentals{}, nil, Resolution{Source: "AAPL"})
	require.ErrorIs(t, err, marketdata.ErrNoData)
}

func TestBuild_SingleBarHasZeroDayChange(t *testing.T) {
	// with no previous close the day change degrades to 0, never divides
	// by zero
	q, err := Build("AAPL", series(100), &marketdata.Fundamentals{}, nil, Resolution{Source: "AAPL"})
	require.NoError(t, err)
	require.Equal(t, 100.0, q.Price)
	require.Zero(t, q.Performance.Day)
}

func TestBuild_Performance(t *testing.T) {
	// 252 bars at 100, last at 110: every horizon has enough history
	q, err := Build("AAPL", flatSeries(252, 100, 110), &marketdata.Fundamentals{}, nil, Resolution{Source: "AAPL"})
	require.NoError(t, err)
	require.InDelta(t, 10.0, q.Performance.Day, 1e-9)
	require.InDelta(t, 10.0, q.Performance.Week, 1e-9)
	require.InDelta(t, 10.0, q.Performance.Month, 1e-9)
	require.InDelta(t, 10.0, q.Performance.Year, 1e-9)
}

func TestBuild_InsufficientHistoryReportsZero(t *testing.T) {
	// 10 bars: day and week resolve, month and year report exactly 0
	q, err := Build("IPO", flatSeries(10, 100, 110), &marketdata.Fundamentals{}, nil, Resolution{Source: "IPO"})
	require.NoError(t, err)
	require.InDelta(t, 10.0, q.Performance.Day, 1e-9)
	require.InDelta(t, 10.0, q.Performance.Week, 1e-9)
	require.Zero(t, q.Performance.Month)
	require.Zero(t, q.Performance.Year)
}

func TestNormalizeYield(t *testing.T) {
	cases := []struct {
		name string
		raw  *float64
		want float64
	}{
		{"fraction scales to percent", fp(0.03), 3.0},
		{"already percent passes through", fp(3.0), 3.0},
		{"boundary value one passes through", fp(1.0), 1.0},
		{"just below one scales", fp(0.99), 99.0},
		{"zero stays zero", fp(0), 0},
		{"absent is zero", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, NormalizeYield(tc.raw), 1e-9)
		})
	}
}

func TestFormatMarketCap(t *testing.T) {
	require.Equal(t, "1.50T", FormatMarketCap(fp(1_500_000_000_000)))
	require.Equal(t, "2.30B", FormatMarketCap(fp(2_300_000_000)))
	require.Equal(t, "12.00M", FormatMarketCap(fp(12_000_000)))
	require.Equal(t, "450,000", FormatMarketCap(fp(450_000)))
	require.Equal(t, "-", FormatMarketCap(fp(0)))
	require.Equal(t, "-", FormatMarketCap(nil))
}

func TestBuild_CrossListedUsesForeignFundamentals(t *testing.T) {
	local := &marketdata.Fundamentals{
		LongName:  "Grupo Financiero Galicia S.A.",
		QuoteType: "EQUITY",
		Currency:  "ARS",
		Bid:       fp(5000),
		Ask:       fp(5010),
		Beta:      fp(0.9),
	}
	foreign := &marketdata.Fundamentals{
		TrailingPE:     fp(8.2),
		MarketCap:      fp(4_300_000_000),
		Beta:           fp(1.4),
		DividendYield:  fp(0.021),
		ExDividendDate: func() *int64 { v := int64(1733097600); return &v }(), // 2024-12-02
		Bid:            fp(60.1),
		Ask:            fp(60.4),
	}
	res := Resolution{Source: "GGAL", CrossListed: true, FundamentalsCurrency: "USD"}

	q, err := Build("GGAL.BA", series(4900, 5000), local, foreign, res)
	require.NoError(t, err)

	// valuation and dividends come from the cross-listing
	require.InDelta(t, 8.2, q.Valuation.PE.Float64, 1e-9)
	require.Equal(t, "4.30B", q.Valuation.MarketCapDisplay)
	require.InDelta(t, 1.4, q.Valuation.Beta.Float64, 1e-9)
	require.InDelta(t, 2.1, q.Dividends.YieldPercent, 1e-9)
	require.Equal(t, "02/12/2024", q.Dividends.ExDate.String)
	require.Equal(t, "USD", q.Dividends.Currency)

	// but price, name and bid/ask stay with the tradable local instrument
	require.Equal(t, "Grupo Financiero Galicia S.A.", q.Name)
	require.Equal(t, "ARS", q.PriceCurrency)
	require.InDelta(t, 5000.0, q.Quotes.Bid.Float64, 1e-9)
	require.InDelta(t, 5010.0, q.Quotes.Ask.Float64, 1e-9)
}

func TestBuild_ForeignUnavailableFallsBackToLocal(t *testing.T) {
	local := &marketdata.Fundamentals{
		ShortName:     "Galicia",
		Currency:      "ARS",
		TrailingPE:    fp(12.5),
		DividendYield: fp(0.015),
	}
	res := Resolution{Source: "GGAL", CrossListed: true, FundamentalsCurrency: "USD"}

	// the speculative foreign fetch failed; the quote is still complete
	q, err := Build("GGAL.BA", series(100, 101), local, nil, res)
	require.NoError(t, err)
	require.InDelta(t, 12.5, q.Valuation.PE.Float64, 1e-9)
	require.InDelta(t, 1.5, q.Dividends.YieldPercent, 1e-9)
	require.Equal(t, "Galicia", q.Name)
	require.Equal(t, "USD", q.Dividends.Currency)
}

func TestBuild_AbsentMetricsAreNull(t *testing.T) {
	q, err := Build("BTC-USD", series(60000, 61000), &marketdata.Fundamentals{Currency: "USD"}, nil, Resolution{Source: "BTC-USD"})
	require.NoError(t, err)
	require.False(t, q.Valuation.PE.Valid)
	require.False(t, q.Valuation.ForwardPE.Valid)
	require.False(t, q.Valuation.Beta.Valid)
	require.False(t, q.Dividends.ExDate.Valid)
	require.False(t, q.Quotes.Bid.Valid)
	require.Equal(t, "-", q.Valuation.MarketCapDisplay)
	require.Zero(t, q.Dividends.YieldPercent)
}

func TestBuild_NameFallsBackToSymbol(t *testing.T) {
	q, err := Build("XYZ", series(1, 2), &marketdata.Fundamentals{}, nil, Resolution{Source: "XYZ"})
	require.NoError(t, err)
	require.Equal(t, "XYZ", q.Name)
}
