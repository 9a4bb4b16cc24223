package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"liq_bot/internal/models"
)

// GetLastPrice — последняя цена по линейному перпетуалу.
func (c *Client) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/v5/market/tickers?category=linear&symbol="+url.QueryEscape(symbol),
		nil,
	)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var payload TickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if payload.RetCode != 0 {
		return 0, fmt.Errorf("bybit error %d: %s", payload.RetCode, payload.RetMsg)
	}
	if len(payload.Result.List) == 0 {
		return 0, models.ErrPriceUnavailable
	}

	px, err := strconv.ParseFloat(payload.Result.List[0].LastPrice, 64)
	if err != nil || px <= 0 {
		return 0, models.ErrPriceUnavailable
	}
	return px, nil
}

// GetMarkPrice — марк-цена; ей считаем exitPrice при закрытии.
func (c *Client) GetMarkPrice(ctx context.Context, symbol string) (float64, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/v5/market/tickers?category=linear&symbol="+url.QueryEscape(symbol),
		nil,
	)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var payload TickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if payload.RetCode != 0 {
		return 0, fmt.Errorf("bybit error %d: %s", payload.RetCode, payload.RetMsg)
	}
	if len(payload.Result.List) == 0 {
		return 0, models.ErrPriceUnavailable
	}

	px, _ := strconv.ParseFloat(payload.Result.List[0].MarkPrice, 64)
	if px <= 0 {
		// у некоторых тикеров markPrice пустой — откатываемся на last
		px, _ = strconv.ParseFloat(payload.Result.List[0].LastPrice, 64)
	}
	if px <= 0 {
		return 0, models.ErrPriceUnavailable
	}
	return px, nil
}
