package yahoo

import (
	"context"
	"fmt"
	"net/url"

	"mercadash/internal/marketdata"
)

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} value wrapper. Absent
// metrics arrive as {} or are missing entirely, leaving Raw nil.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) ptr() *float64 { return v.Raw }

func (v rawValue) epoch() *int64 {
	if v.Raw == nil {
		return nil
	}
	e := int64(*v.Raw)
	return &e
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *apiError            `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	Price struct {
		Symbol    string `json:"symbol"`
		LongName  string `json:"longName"`
		ShortName string `json:"shortName"`
		QuoteType string `json:"quoteType"`
		Currency  string `json:"currency"`
	} `json:"price"`
	SummaryDetail struct {
		TrailingPE     rawValue `json:"trailingPE"`
		ForwardPE      rawValue `json:"forwardPE"`
		Beta           rawValue `json:"beta"`
		DividendYield  rawValue `json:"dividendYield"`
		ExDividendDate rawValue `json:"exDividendDate"`
		MarketCap      rawValue `json:"marketCap"`
		Bid            rawValue `json:"bid"`
		Ask            rawValue `json:"ask"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics struct {
		PegRatio  rawValue `json:"pegRatio"`
		ForwardPE rawValue `json:"forwardPE"`
	} `json:"defaultKeyStatistics"`
}

// Fundamentals retrieves the valuation/dividend snapshot for symbol. An
// empty upstream result is ErrNoData; metrics the instrument does not
// publish stay nil on the snapshot.
func (c *Client) Fundamentals(ctx context.Context, symbol string) (*marketdata.Fundamentals, error) {
	path := fmt.Sprintf("/v10/finance/quoteSummary/%s", url.PathEscape(symbol))
	query := url.Values{}
	query.Set("modules", "price,summaryDetail,defaultKeyStatistics")

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil || len(resp.QuoteSummary.Result) == 0 {
		return nil, marketdata.ErrNoData
	}
	r := resp.QuoteSummary.Result[0]

	forwardPE := r.SummaryDetail.ForwardPE.ptr()
	if forwardPE == nil {
		forwardPE = r.DefaultKeyStatistics.ForwardPE.ptr()
	}

	return &marketdata.Fundamentals{
		Symbol:         symbol,
		LongName:       r.Price.LongName,
		ShortName:      r.Price.ShortName,
		QuoteType:      r.Price.QuoteType,
		Currency:       r.Price.Currency,
		TrailingPE:     r.SummaryDetail.TrailingPE.ptr(),
		ForwardPE:      forwardPE,
		PEGRatio:       r.DefaultKeyStatistics.PegRatio.ptr(),
		MarketCap:      r.SummaryDetail.MarketCap.ptr(),
		Beta:           r.SummaryDetail.Beta.ptr(),
		DividendYield:  r.SummaryDetail.DividendYield.ptr(),
		ExDividendDate: r.SummaryDetail.ExDividendDate.epoch(),
		Bid:            r.SummaryDetail.Bid.ptr(),
		Ask:            r.SummaryDetail.Ask.ptr(),
	}, nil
}
