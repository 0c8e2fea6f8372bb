package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"mercadash/internal/marketdata"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// History retrieves the daily close series for symbol over rng (a Yahoo
// range token such as "1mo" or "1y"). A symbol unknown upstream, or one
// whose series contains no usable closes, is reported as ErrNoData.
func (c *Client) History(ctx context.Context, symbol, rng string) (marketdata.PriceSeries, error) {
	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol))
	query := url.Values{}
	query.Set("range", rng)
	query.Set("interval", "1d")

	var resp chartResponse
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil || len(resp.Chart.Result) == 0 {
		return nil, marketdata.ErrNoData
	}
	series := buildSeries(resp.Chart.Result[0])
	if len(series) == 0 {
		return nil, marketdata.ErrNoData
	}
	return series, nil
}

// buildSeries converts a chart result into an ascending PriceSeries.
// Null closes (halted sessions, pre-listing padding) are skipped, and a
// repeated calendar date keeps the later observation.
func buildSeries(r chartResult) marketdata.PriceSeries {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	closes := r.Indicators.Quote[0].Close
	series := make(marketdata.PriceSeries, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		date := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		if n := len(series); n > 0 && series[n-1].Date.Equal(date) {
			series[n-1].Close = *closes[i]
			continue
		}
		series = append(series, marketdata.Bar{Date: date, Close: *closes[i]})
	}
	return series
}
