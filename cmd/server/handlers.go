package main

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"mercadash/internal/aggregate"
	"mercadash/internal/cache"
	"mercadash/internal/config"
	"mercadash/internal/fx/dolarapi"
	"mercadash/internal/marketdata"
	"mercadash/internal/news/googlenews"
	"mercadash/internal/quote"
)

// fxProvider and newsProvider are the slices of the upstream clients the
// handlers need; tests substitute fakes.
type fxProvider interface {
	Rates(ctx context.Context) ([]dolarapi.Rate, error)
}

type newsProvider interface {
	Search(ctx context.Context, query string) ([]googlenews.Article, error)
}

// app is the composition root: every handler consults the cache, calls
// the providers/core, fills the cache and writes JSON.
type app struct {
	cfg      config.Config
	cache    *cache.Store
	market   marketdata.Provider
	fx       fxProvider
	news     newsProvider
	resolver *quote.Resolver
	logger   zerolog.Logger
}

func (a *app) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/global", a.handleGlobal)
	mux.HandleFunc("GET /api/quote/{ticker}", a.handleQuote)
	mux.HandleFunc("GET /api/movers/{market}/{period}", a.handleMovers)
	mux.HandleFunc("GET /api/groups", a.handleGroups)
	mux.HandleFunc("GET /api/crypto", a.handleCrypto)
	mux.HandleFunc("GET /api/dividend-hub", a.handleDividendHub)
	mux.HandleFunc("GET /api/news/{query}", a.handleNews)
}

func (a *app) timeout() time.Duration {
	return time.Duration(a.cfg.Server.RequestTimeoutSec) * time.Second
}

func (a *app) ttl(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// point is one chart sample of a history payload.
type point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

func historyPoints(series marketdata.PriceSeries) []point {
	pts := make([]point, 0, len(series))
	for _, bar := range series {
		pts = append(pts, point{X: bar.Date.Format("2006-01-02"), Y: round2(bar.Close)})
	}
	return pts
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// --- /api/global ---

type indexSnapshot struct {
	Precio    float64 `json:"precio"`
	Variacion float64 `json:"variacion"`
	History   []point `json:"history"`
	Moneda    string  `json:"moneda"`
}

type globalResponse struct {
	Indices map[string]*indexSnapshot `json:"indices"`
	Dolares map[string]dolarapi.Rate  `json:"dolares"`
}

func (a *app) handleGlobal(w http.ResponseWriter, r *http.Request) {
	const key = "global"
	if v, ok := a.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	resp := globalResponse{
		Indices: make(map[string]*indexSnapshot, len(a.cfg.Indices)),
		Dolares: map[string]dolarapi.Rate{},
	}

	// Each index and the FX fetch run concurrently under independent
	// timeouts: one slow provider must not hold up the others, and one
	// failing index yields null for that key only.
	var g errgroup.Group
	var mu sync.Mutex
	for _, idx := range a.cfg.Indices {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), a.timeout())
			defer cancel()
			series, err := a.market.History(ctx, idx.Symbol, "1mo")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Warn().Err(err).Str("index", idx.Key).Msg("index fetch failed")
				resp.Indices[idx.Key] = nil
				return nil
			}
			last, _ := series.Last()
			resp.Indices[idx.Key] = &indexSnapshot{
				Precio:    last,
				Variacion: series.ChangePercent(1),
				History:   historyPoints(series),
				Moneda:    idx.Currency,
			}
			return nil
		})
	}
	g.Go(func() error {
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(a.cfg.DolarAPI.TimeoutSec)*time.Second)
		defer cancel()
		rates, err := a.fx.Rates(ctx)
		if err != nil {
			a.logger.Warn().Err(err).Msg("fx fetch failed")
			return nil
		}
		wanted := make(map[string]struct{}, len(a.cfg.DolarAPI.Houses))
		for _, h := range a.cfg.DolarAPI.Houses {
			wanted[h] = struct{}{}
		}
		mu.Lock()
		defer mu.Unlock()
		for _, rate := range rates {
			if _, ok := wanted[rate.Casa]; ok {
				resp.Dolares[rate.Casa] = rate
			}
		}
		return nil
	})
	_ = g.Wait()

	a.cache.Set(key, resp, a.ttl(a.cfg.CacheTTL.GlobalSec))
	writeJSON(w, http.StatusOK, resp)
}

// --- /api/quote/{ticker} ---

func (a *app) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))
	key := "quote:" + ticker
	if v, ok := a.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	res := a.resolver.Resolve(ticker)

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout())
	defer cancel()

	// The cross-listing fetch is speculative: it starts alongside the
	// local fetches but its result is only consumed when the local side
	// succeeded, and its failure is discarded.
	foreignCh := make(chan *marketdata.Fundamentals, 1)
	if res.CrossListed {
		go func() {
			f, err := a.market.Fundamentals(ctx, res.Source)
			if err != nil {
				a.logger.Warn().Err(err).Str("ticker", ticker).Str("adr", res.Source).
					Msg("cross-listing fundamentals unavailable, using local")
				f = nil
			}
			foreignCh <- f
		}()
	} else {
		foreignCh <- nil
	}

	var series marketdata.PriceSeries
	var local *marketdata.Fundamentals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		series, err = a.market.History(gctx, ticker, "1y")
		return err
	})
	g.Go(func() error {
		f, err := a.market.Fundamentals(gctx, ticker)
		if errors.Is(err, marketdata.ErrNoData) {
			// a chartable symbol without a summary page still renders
			a.logger.Warn().Err(err).Str("ticker", ticker).Msg("no fundamentals published")
			return nil
		}
		if err != nil {
			return err
		}
		local = f
		return nil
	})
	if err := g.Wait(); err != nil {
		a.writeQuoteError(w, ticker, err)
		return
	}

	q, err := quote.Build(ticker, series, local, <-foreignCh, res)
	if err != nil {
		a.writeQuoteError(w, ticker, err)
		return
	}

	a.cache.Set(key, q, a.ttl(a.cfg.CacheTTL.QuoteSec))
	writeJSON(w, http.StatusOK, q)
}

func (a *app) writeQuoteError(w http.ResponseWriter, ticker string, err error) {
	if errors.Is(err, marketdata.ErrNoData) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no data for " + ticker})
		return
	}
	a.logger.Error().Err(err).Str("ticker", ticker).Msg("quote fetch failed")
	writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
}

// --- /api/movers/{market}/{period} ---

// sparkRanges picks a history range wide enough for each lookback window.
var sparkRanges = map[string]string{
	"1d":  "1mo",
	"5d":  "1mo",
	"1mo": "3mo",
	"1y":  "2y",
}

func sparkRange(period string) string {
	if rng, ok := sparkRanges[period]; ok {
		return rng
	}
	return "1mo"
}

func (a *app) handleMovers(w http.ResponseWriter, r *http.Request) {
	market := r.PathValue("market")
	period := r.PathValue("period")
	key := "movers:" + market + ":" + period
	if v, ok := a.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	symbols := a.cfg.MarketSymbols(market)

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout())
	defer cancel()
	panel, err := a.market.BatchHistory(ctx, symbols, sparkRange(period))
	if err != nil {
		// degraded but renderable: the dashboard prefers empty lists over
		// a hard failure
		a.logger.Warn().Err(err).Str("market", market).Msg("movers batch failed")
		panel = nil
	}

	result := aggregate.Movers(symbols, panel, period)
	a.cache.Set(key, result, a.ttl(a.cfg.CacheTTL.MoversSec))
	writeJSON(w, http.StatusOK, result)
}

// --- /api/groups ---

func (a *app) handleGroups(w http.ResponseWriter, r *http.Request) {
	const key = "groups"
	if v, ok := a.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	symbols := make([]string, 0, len(a.cfg.Sectors))
	for _, sec := range a.cfg.Sectors {
		symbols = append(symbols, sec.Symbol)
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout())
	defer cancel()
	panel, err := a.market.BatchHistory(ctx, symbols, "2y")
	if err != nil {
		a.logger.Warn().Err(err).Msg("groups batch failed")
		panel = nil
	}

	records := aggregate.SectorPerformance(a.cfg.Sectors, panel)
	a.cache.Set(key, records, a.ttl(a.cfg.CacheTTL.GroupsSec))
	writeJSON(w, http.StatusOK, records)
}

// --- /api/crypto ---

type cryptoEntry struct {
	Symbol  string  `json:"symbol"`
	Price   float64 `json:"price"`
	Change  float64 `json:"change"`
	History []point `json:"history"`
}

func (a *app) handleCrypto(w http.ResponseWriter, r *http.Request) {
	const key = "crypto"
	if v, ok := a.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout())
	defer cancel()
	panel, err := a.market.BatchHistory(ctx, a.cfg.CryptoSymbols, "1mo")
	if err != nil {
		a.logger.Warn().Err(err).Msg("crypto batch failed")
		panel = nil
	}

	entries := make([]cryptoEntry, 0, len(a.cfg.CryptoSymbols))
	for _, sym := range a.cfg.CryptoSymbols {
		series, ok := panel[sym]
		if !ok || len(series) == 0 {
			continue
		}
		last, _ := series.Last()
		entries = append(entries, cryptoEntry{
			Symbol:  strings.TrimSuffix(sym, "-USD"),
			Price:   last,
			Change:  series.ChangePercent(1),
			History: historyPoints(series),
		})
	}

	a.cache.Set(key, entries, a.ttl(a.cfg.CacheTTL.CryptoSec))
	writeJSON(w, http.StatusOK, entries)
}

// --- /api/dividend-hub ---

type dividendEntry struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Yield    float64 `json:"yield"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

type dividendHubResponse struct {
	Data     []dividendEntry `json:"data"`
	HasMore  bool            `json:"has_more"`
	NextSkip int             `json:"next_skip"`
}

func (a *app) handleDividendHub(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 5)
	if limit < 1 || limit > 20 {
		limit = 5
	}
	if skip < 0 {
		skip = 0
	}

	key := "dividend-hub:" + strconv.Itoa(skip) + ":" + strconv.Itoa(limit)
	if v, ok := a.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	universe := a.cfg.DividendSymbols
	if skip >= len(universe) {
		writeJSON(w, http.StatusOK, dividendHubResponse{Data: []dividendEntry{}, HasMore: false, NextSkip: skip})
		return
	}
	page := universe[skip:min(skip+limit, len(universe))]

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout())
	defer cancel()

	// one batched call for current prices, then fundamentals for the
	// small page, each symbol's failure tolerated individually
	panel, err := a.market.BatchHistory(ctx, page, "5d")
	if err != nil {
		a.logger.Warn().Err(err).Msg("dividend hub price batch failed")
		panel = nil
	}

	entries := make([]dividendEntry, 0, len(page))
	for _, sym := range page {
		res := a.resolver.Resolve(sym)
		f, err := a.market.Fundamentals(ctx, res.Source)
		if err != nil {
			a.logger.Warn().Err(err).Str("symbol", sym).Msg("dividend fundamentals failed")
			continue
		}
		yield := quote.NormalizeYield(f.DividendYield)
		if yield <= 0 {
			continue
		}
		var price float64
		if series, ok := panel[sym]; ok {
			price, _ = series.Last()
		}
		currency := res.FundamentalsCurrency
		if currency == "" {
			currency = f.Currency
		}
		name := f.LongName
		if name == "" {
			name = f.ShortName
		}
		if name == "" {
			name = sym
		}
		entries = append(entries, dividendEntry{
			Symbol:   sym,
			Name:     name,
			Yield:    yield,
			Price:    price,
			Currency: currency,
		})
	}

	resp := dividendHubResponse{
		Data:     entries,
		HasMore:  skip+limit < len(universe),
		NextSkip: skip + limit,
	}
	a.cache.Set(key, resp, a.ttl(a.cfg.CacheTTL.DividendSec))
	writeJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// --- /api/news/{query} ---

type newsEntry struct {
	Titulo string `json:"titulo"`
	Link   string `json:"link"`
	Fuente string `json:"fuente"`
	Fecha  string `json:"fecha"`
}

func (a *app) handleNews(w http.ResponseWriter, r *http.Request) {
	query := r.PathValue("query")
	// the feed knows companies, not local tickers
	query = strings.TrimSuffix(strings.TrimSuffix(query, ".BA"), ".ba")

	key := "news:" + strings.ToLower(query)
	if v, ok := a.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(a.cfg.News.TimeoutSec)*time.Second)
	defer cancel()
	articles, err := a.news.Search(ctx, query)
	if err != nil {
		a.logger.Warn().Err(err).Str("query", query).Msg("news search failed")
		articles = nil
	}

	cutoff := time.Now().AddDate(0, 0, -a.cfg.News.MaxAgeDays)
	entries := make([]newsEntry, 0, len(articles))
	for _, art := range articles {
		if art.PublishedAt.Before(cutoff) {
			continue
		}
		entries = append(entries, newsEntry{
			Titulo: art.Title,
			Link:   art.Link,
			Fuente: art.Source,
			Fecha:  art.PublishedAt.Format("02/01/2006"),
		})
	}

	a.cache.Set(key, entries, a.ttl(a.cfg.CacheTTL.NewsSec))
	writeJSON(w, http.StatusOK, entries)
}
