package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	LogLevel          string `json:"log_level"`
}

type Yahoo struct {
	BaseURL              string `json:"base_url"`
	RateLimitPerSec      int    `json:"rate_limit_per_sec"`
	MaxSymbolsPerRequest int    `json:"max_symbols_per_request"`
	TimeoutSec           int    `json:"timeout_sec"`
}

type DolarAPI struct {
	URL        string   `json:"url"`
	Houses     []string `json:"houses"`
	TimeoutSec int      `json:"timeout_sec"`
}

type News struct {
	BaseURL    string `json:"base_url"`
	TimeoutSec int    `json:"timeout_sec"`
	MaxAgeDays int    `json:"max_age_days"`
}

// CacheTTL holds per-endpoint cache lifetimes in seconds.
type CacheTTL struct {
	GlobalSec   int `json:"global_sec"`
	QuoteSec    int `json:"quote_sec"`
	MoversSec   int `json:"movers_sec"`
	GroupsSec   int `json:"groups_sec"`
	CryptoSec   int `json:"crypto_sec"`
	DividendSec int `json:"dividend_sec"`
	NewsSec     int `json:"news_sec"`
}

// Index is one entry of the global snapshot.
type Index struct {
	Key      string `json:"key"`
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// Sector is one sector-tracking instrument of the groups endpoint.
type Sector struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Config is the full server configuration. The symbol tables are data, not
// code: a market or cross-listing can be added without touching logic.
type Config struct {
	Server   Server   `json:"server"`
	Yahoo    Yahoo    `json:"yahoo"`
	DolarAPI DolarAPI `json:"dolarapi"`
	News     News     `json:"news"`
	CacheTTL CacheTTL `json:"cache_ttl"`

	// ADRMap maps a local-market symbol to its US cross-listing used as
	// the richer fundamentals source. One local symbol maps to at most
	// one foreign symbol.
	ADRMap map[string]string `json:"adr_map"`

	// Markets lists the symbols scanned per movers market.
	Markets       map[string][]string `json:"markets"`
	DefaultMarket string              `json:"default_market"`

	Indices         []Index  `json:"indices"`
	Sectors         []Sector `json:"sectors"`
	CryptoSymbols   []string `json:"crypto_symbols"`
	DividendSymbols []string `json:"dividend_symbols"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 8, LogLevel: "info"},
		Yahoo: Yahoo{
			BaseURL:              "https://query1.finance.yahoo.com",
			RateLimitPerSec:      5,
			MaxSymbolsPerRequest: 20,
			TimeoutSec:           8,
		},
		DolarAPI: DolarAPI{
			URL:        "https://dolarapi.com/v1/dolares",
			Houses:     []string{"oficial", "blue", "bolsa", "contadoconliqui"},
			TimeoutSec: 5,
		},
		News: News{
			BaseURL:    "https://news.google.com/rss/search",
			TimeoutSec: 5,
			MaxAgeDays: 7,
		},
		CacheTTL: CacheTTL{
			GlobalSec:   300,
			QuoteSec:    120,
			MoversSec:   300,
			GroupsSec:   300,
			CryptoSec:   120,
			DividendSec: 900,
			NewsSec:     600,
		},
		ADRMap: map[string]string{
			"GGAL.BA":  "GGAL",
			"YPFD.BA":  "YPF",
			"PAMP.BA":  "PAM",
			"BMA.BA":   "BMA",
			"SUPV.BA":  "SUPV",
			"CEPU.BA":  "CEPU",
			"CRES.BA":  "CRESY",
			"EDN.BA":   "EDN",
			"LOMA.BA":  "LOMA",
			"TECO2.BA": "TEO",
			"BBAR.BA":  "BBAR",
			"TGS.BA":   "TGS",
			"IRS.BA":   "IRS",
			"TXAR.BA":  "TX",
		},
		Markets: map[string][]string{
			"merval": {"GGAL.BA", "YPFD.BA", "PAMP.BA", "TXAR.BA", "ALUA.BA", "BMA.BA"},
			"sp500":  {"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META"},
			"nasdaq": {"MSFT", "AAPL", "NVDA", "AMZN", "META", "GOOGL", "AVGO"},
		},
		DefaultMarket: "sp500",
		Indices: []Index{
			{Key: "merval", Symbol: "^MERV", Currency: "ARS"},
			{Key: "sp500", Symbol: "^GSPC", Currency: "USD"},
			{Key: "dow", Symbol: "^DJI", Currency: "USD"},
		},
		Sectors: []Sector{
			{Symbol: "XLK", Name: "Tecnología"},
			{Symbol: "XLF", Name: "Financiero"},
			{Symbol: "XLE", Name: "Energía"},
			{Symbol: "XLV", Name: "Salud"},
			{Symbol: "XLI", Name: "Industrial"},
			{Symbol: "XLP", Name: "Consumo básico"},
			{Symbol: "XLY", Name: "Consumo discrecional"},
			{Symbol: "XLU", Name: "Servicios públicos"},
			{Symbol: "XLB", Name: "Materiales"},
			{Symbol: "XLC", Name: "Comunicaciones"},
		},
		CryptoSymbols: []string{"BTC-USD", "ETH-USD", "SOL-USD", "BNB-USD", "XRP-USD", "ADA-USD"},
		DividendSymbols: []string{
			"KO", "JNJ", "PG", "PEP", "XOM", "CVX", "T", "VZ", "MCD", "O",
			"PAMP.BA", "CEPU.BA", "TGS.BA", "YPFD.BA", "GGAL.BA",
		},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := envInt("REQUEST_TIMEOUT_SEC"); v > 0 {
		cfg.Server.RequestTimeoutSec = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Yahoo.BaseURL = v
	}
	if v := envInt("YAHOO_RATE_LIMIT_PER_SEC"); v > 0 {
		cfg.Yahoo.RateLimitPerSec = v
	}
	if v := envInt("YAHOO_MAX_SYMBOLS_PER_REQUEST"); v > 0 {
		cfg.Yahoo.MaxSymbolsPerRequest = v
	}
	if v := envInt("YAHOO_TIMEOUT_SEC"); v > 0 {
		cfg.Yahoo.TimeoutSec = v
	}
	if v := os.Getenv("DOLARAPI_URL"); v != "" {
		cfg.DolarAPI.URL = v
	}
	if v := os.Getenv("DOLARAPI_HOUSES"); v != "" {
		cfg.DolarAPI.Houses = splitCSV(v)
	}
	if v := os.Getenv("NEWS_BASE_URL"); v != "" {
		cfg.News.BaseURL = v
	}
	if v := envInt("NEWS_MAX_AGE_DAYS"); v > 0 {
		cfg.News.MaxAgeDays = v
	}
	if v := envInt("CACHE_GLOBAL_TTL_SEC"); v > 0 {
		cfg.CacheTTL.GlobalSec = v
	}
	if v := envInt("CACHE_QUOTE_TTL_SEC"); v > 0 {
		cfg.CacheTTL.QuoteSec = v
	}
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	var x int
	_, _ = fmt.Sscanf(v, "%d", &x)
	return x
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

// MarketSymbols returns the symbol list for market, falling back to the
// default market when unknown.
func (c Config) MarketSymbols(market string) []string {
	if syms, ok := c.Markets[market]; ok {
		return syms
	}
	return c.Markets[c.DefaultMarket]
}
