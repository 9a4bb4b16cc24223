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

// GetPosition — открытая позиция по символу и стороне. В хедж-режиме
// /v5/position/list отдаёт до двух строк (Buy и Sell), берём только
// запрошенную сторону. Size == 0, если позиции нет.
func (c *Client) GetPosition(ctx context.Context, symbol string, side models.Side) (models.RemotePosition, error) {
	query := "category=linear&symbol=" + url.QueryEscape(symbol)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/v5/position/list?"+query,
		nil,
	)
	if err != nil {
		return models.RemotePosition{}, fmt.Errorf("build request: %w", err)
	}
	c.setAuthHeaders(req, query)

	resp, err := c.http.Do(req)
	if err != nil {
		return models.RemotePosition{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return models.RemotePosition{}, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var payload PositionListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.RemotePosition{}, fmt.Errorf("decode: %w", err)
	}
	if payload.RetCode != 0 {
		return models.RemotePosition{}, fmt.Errorf("bybit positions error %d: %s", payload.RetCode, payload.RetMsg)
	}

	for _, p := range payload.Result.List {
		if models.Side(p.Side) != side {
			continue
		}
		size, _ := strconv.ParseFloat(p.Size, 64)
		if size <= 0 {
			continue
		}
		avg, _ := strconv.ParseFloat(p.AvgPrice, 64)
		return models.RemotePosition{
			Symbol:   p.Symbol,
			Side:     side,
			Size:     size,
			AvgPrice: avg,
		}, nil
	}

	return models.RemotePosition{Symbol: symbol, Side: side}, nil
}
