// Package dolarapi fetches ARS exchange-rate quotes ("dólares") from a
// DolarAPI-compatible endpoint.
package dolarapi

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"mercadash/internal/httpx"
)

// Rate is one named rate quote, passed through to the dashboard as-is.
type Rate struct {
	Casa               string  `json:"casa"`
	Nombre             string  `json:"nombre"`
	Compra             float64 `json:"compra"`
	Venta              float64 `json:"venta"`
	FechaActualizacion string  `json:"fechaActualizacion"`
}

type Client struct {
	url    string
	client *httpx.Client
	logger zerolog.Logger
}

func New(url string, hc *httpx.Client, logger zerolog.Logger) *Client {
	return &Client{url: url, client: hc, logger: logger}
}

// Rates returns the current named rate quotes.
func (c *Client) Rates(ctx context.Context) ([]Rate, error) {
	var rates []Rate
	if err := c.client.GetJSON(ctx, c.url, &rates); err != nil {
		return nil, fmt.Errorf("dolarapi: %w", err)
	}
	return rates, nil
}
