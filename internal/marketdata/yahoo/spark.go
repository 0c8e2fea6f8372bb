package yahoo

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"mercadash/internal/marketdata"
)

type sparkResponse struct {
	Spark struct {
		Result []sparkResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"spark"`
}

type sparkResult struct {
	Symbol   string        `json:"symbol"`
	Response []chartResult `json:"response"`
}

// BatchHistory retrieves close series for all symbols, grouped by symbol,
// using the spark endpoint: one batched request per chunk instead of one
// request per symbol, which is what keeps the movers/groups/crypto
// endpoints inside the upstream rate limits. Symbols the upstream cannot
// resolve are simply absent from the returned panel.
func (c *Client) BatchHistory(ctx context.Context, symbols []string, rng string) (map[string]marketdata.PriceSeries, error) {
	uniq := dedupe(symbols)
	if len(uniq) == 0 {
		return map[string]marketdata.PriceSeries{}, nil
	}

	panel := make(map[string]marketdata.PriceSeries, len(uniq))
	var mu sync.Mutex
	var firstErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, chunk := range chunkStrings(uniq, c.maxSymbolsPerRequest) {
		g.Go(func() error {
			part, err := c.spark(gctx, chunk, rng)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One failed chunk must not sink the batch; remember the
				// error in case every chunk fails.
				if firstErr == nil {
					firstErr = err
				}
				c.logger.Warn().Err(err).Int("symbols", len(chunk)).Msg("spark chunk failed")
				return nil
			}
			for sym, series := range part {
				panel[sym] = series
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(panel) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return panel, nil
}

func (c *Client) spark(ctx context.Context, symbols []string, rng string) (map[string]marketdata.PriceSeries, error) {
	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))
	query.Set("range", rng)
	query.Set("interval", "1d")

	var resp sparkResponse
	if err := c.getJSON(ctx, "/v8/finance/spark", query, &resp); err != nil {
		return nil, err
	}
	if resp.Spark.Error != nil {
		return nil, marketdata.ErrNoData
	}
	out := make(map[string]marketdata.PriceSeries, len(resp.Spark.Result))
	for _, r := range resp.Spark.Result {
		if len(r.Response) == 0 {
			continue
		}
		series := buildSeries(r.Response[0])
		if len(series) == 0 {
			continue
		}
		out[r.Symbol] = series
	}
	return out, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func chunkStrings(in []string, size int) [][]string {
	if size <= 0 || len(in) <= size {
		return [][]string{in}
	}
	out := make([][]string, 0, (len(in)+size-1)/size)
	for i := 0; i < len(in); i += size {
		j := min(i+size, len(in))
		out = append(out, in[i:j])
	}
	return out
}
