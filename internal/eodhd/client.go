// Package eodhd is a minimal client for the EOD Historical Data REST API:
// the exchange symbol list, the earnings calendar and end-of-day prices.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
	"github.com/Protagonist888/schwab-earnings-batch/internal/metrics"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

// Endpoint labels used in errors and metrics
const (
	EndpointSymbols  = "symbols"
	EndpointEarnings = "earnings"
	EndpointEOD      = "eod"
)

// StatusError is returned for any response status other than 200 or 404
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d", e.Endpoint, e.StatusCode)
}

// Client handles communication with the EODHD API
type Client struct {
	apiKey     string
	baseURL    string
	exchange   string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a new Client. Every request is bounded by
// cfg.RequestTimeout.
func NewClient(cfg config.ProviderConfig, m *metrics.Metrics) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		exchange:   cfg.Exchange,
		timeout:    cfg.RequestTimeout,
		httpClient: &http.Client{},
		metrics:    m,
	}
}

type symbolResponse struct {
	Code     string `json:"Code"`
	Name     string `json:"Name"`
	Exchange string `json:"Exchange"`
	Type     string `json:"Type"`
}

type earningsCalendarResponse struct {
	Earnings []struct {
		Code       string `json:"code"`
		Date       string `json:"date"`
		ReportDate string `json:"report_date"`
	} `json:"earnings"`
}

type eodResponse struct {
	Date          string          `json:"date"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	AdjustedClose decimal.Decimal `json:"adjusted_close"`
	Volume        int64           `json:"volume"`
}

// GetSymbols returns the ticker codes listed on exchange. A 404 yields an
// empty universe.
func (c *Client) GetSymbols(ctx context.Context, exchange string) ([]string, error) {
	if exchange == "" {
		exchange = c.exchange
	}

	var resp []symbolResponse
	found, err := c.get(ctx, EndpointSymbols, "/exchange-symbol-list/"+url.PathEscape(exchange), nil, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	seen := make(map[string]bool, len(resp))
	symbols := make([]string, 0, len(resp))
	for _, s := range resp {
		code := strings.TrimSpace(s.Code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		symbols = append(symbols, code)
	}
	return symbols, nil
}

// GetEarnings returns the earnings announcements for symbol between from and
// to inclusive. A 404 is treated as no events.
func (c *Client) GetEarnings(ctx context.Context, symbol string, from, to time.Time) ([]models.EarningsEvent, error) {
	params := url.Values{}
	params.Set("symbols", c.qualify(symbol))
	params.Set("from", from.Format(models.DateLayout))
	params.Set("to", to.Format(models.DateLayout))

	var resp earningsCalendarResponse
	found, err := c.get(ctx, EndpointEarnings, "/calendar/earnings", params, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	events := make([]models.EarningsEvent, 0, len(resp.Earnings))
	for _, e := range resp.Earnings {
		date, err := models.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid earnings date %q for %s: %w", e.Date, symbol, err)
		}
		events = append(events, models.EarningsEvent{Symbol: symbol, Date: date})
	}
	return events, nil
}

// GetPrices returns daily closes for symbol between from and to inclusive.
// A 404 is treated as no history.
func (c *Client) GetPrices(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	params := url.Values{}
	params.Set("from", from.Format(models.DateLayout))
	params.Set("to", to.Format(models.DateLayout))
	params.Set("period", "d")

	var resp []eodResponse
	found, err := c.get(ctx, EndpointEOD, "/eod/"+url.PathEscape(c.qualify(symbol)), params, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	prices := make([]models.PricePoint, 0, len(resp))
	for _, r := range resp {
		date, err := models.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid price date %q for %s: %w", r.Date, symbol, err)
		}
		prices = append(prices, models.PricePoint{Date: date, Close: r.Close})
	}
	return prices, nil
}

// qualify appends the exchange suffix the per-symbol endpoints expect
func (c *Client) qualify(symbol string) string {
	if c.exchange == "" {
		return symbol
	}
	return symbol + "." + c.exchange
}

// get performs one bounded GET and decodes a 200 body into out. It reports
// found=false for a 404.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) (bool, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordProviderRequest(endpoint, "error", time.Since(start))
		return false, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.RecordProviderRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordProviderRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
		return false, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	c.metrics.RecordProviderRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return false, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return true, nil
}
