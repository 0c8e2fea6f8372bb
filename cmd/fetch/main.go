package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"mercadash/internal/aggregate"
	"mercadash/internal/config"
	"mercadash/internal/httpx"
	"mercadash/internal/logging"
	"mercadash/internal/marketdata"
	"mercadash/internal/marketdata/yahoo"
	"mercadash/internal/quote"
)

// fetch is a one-shot CLI for inspecting what the server would return:
// normalized quotes for a ticker list, or the movers table for a market.
func main() {
	var tickersCSV string
	var market string
	var period string
	var timeout int
	var configPath string

	flag.StringVar(&tickersCSV, "tickers", getenv("TICKERS", ""), "comma-separated tickers to quote")
	flag.StringVar(&market, "market", getenv("MARKET", ""), "market key for movers (e.g. merval, sp500)")
	flag.StringVar(&period, "period", getenv("PERIOD", "1d"), "movers lookback: 1d, 5d, 1mo, 1y")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if timeout != 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	httpClient := httpx.New(time.Duration(cfg.Yahoo.TimeoutSec) * time.Second)
	client := yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(httpClient.HTTP),
		yahoo.WithRateLimit(cfg.Yahoo.RateLimitPerSec),
		yahoo.WithMaxSymbolsPerRequest(cfg.Yahoo.MaxSymbolsPerRequest),
		yahoo.WithLogger(logging.New(cfg.Server.LogLevel)),
	)
	resolver := quote.NewResolver(cfg.ADRMap)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	switch {
	case tickersCSV != "":
		tickers := splitCSV(tickersCSV)
		quotes := make([]quote.NormalizedQuote, 0, len(tickers))
		for _, ticker := range tickers {
			ticker = strings.ToUpper(ticker)
			res := resolver.Resolve(ticker)

			series, err := client.History(ctx, ticker, "1y")
			if err != nil {
				log.Printf("%s: %v", ticker, err)
				continue
			}
			local, err := client.Fundamentals(ctx, ticker)
			if err != nil {
				log.Printf("%s fundamentals: %v", ticker, err)
			}
			var foreign *marketdata.Fundamentals
			if res.CrossListed {
				foreign, err = client.Fundamentals(ctx, res.Source)
				if err != nil {
					log.Printf("%s cross-listing %s: %v", ticker, res.Source, err)
					foreign = nil
				}
			}

			q, err := quote.Build(ticker, series, local, foreign, res)
			if err != nil {
				log.Printf("%s: %v", ticker, err)
				continue
			}
			quotes = append(quotes, q)
		}
		if len(quotes) == 0 {
			log.Fatal("no quotes received")
		}
		printJSON(struct {
			Quotes []quote.NormalizedQuote `json:"quotes"`
		}{Quotes: quotes})

	case market != "":
		symbols := cfg.MarketSymbols(market)
		panel, err := client.BatchHistory(ctx, symbols, "2y")
		if err != nil {
			log.Fatalf("batch: %v", err)
		}
		printJSON(aggregate.Movers(symbols, panel, period))

	default:
		log.Fatal("pass -tickers or -market")
	}
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			return x
		}
	}
	return def
}
