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

// GetInstrumentMeta — шаг количества, минимальный размер и тик цены.
func (c *Client) GetInstrumentMeta(ctx context.Context, symbol string) (models.InstrumentMeta, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/v5/market/instruments-info?category=linear&symbol="+url.QueryEscape(symbol),
		nil,
	)
	if err != nil {
		return models.InstrumentMeta{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.InstrumentMeta{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return models.InstrumentMeta{}, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var payload InstrumentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.InstrumentMeta{}, fmt.Errorf("decode: %w", err)
	}
	if payload.RetCode != 0 {
		return models.InstrumentMeta{}, fmt.Errorf("bybit error %d: %s", payload.RetCode, payload.RetMsg)
	}
	if len(payload.Result.List) == 0 {
		return models.InstrumentMeta{}, models.ErrInstrumentNotFound
	}

	inst := payload.Result.List[0]
	if inst.Status != "" && inst.Status != "Trading" {
		return models.InstrumentMeta{}, fmt.Errorf("instrument %s not trading: status=%s", symbol, inst.Status)
	}

	parsePos := func(name, s string) (float64, error) {
		if s == "" {
			return 0, fmt.Errorf("%s empty", name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("%s parse: %v (%q)", name, err, s)
		}
		return v, nil
	}

	qtyStep, err := parsePos("qtyStep", inst.LotSizeFilter.QtyStep)
	if err != nil {
		return models.InstrumentMeta{}, err
	}
	minQty, err := parsePos("minOrderQty", inst.LotSizeFilter.MinOrderQty)
	if err != nil {
		return models.InstrumentMeta{}, err
	}
	tickSize, err := parsePos("tickSize", inst.PriceFilter.TickSize)
	if err != nil {
		return models.InstrumentMeta{}, err
	}

	return models.InstrumentMeta{
		Symbol:   inst.Symbol,
		QtyStep:  qtyStep,
		MinQty:   minQty,
		TickSize: tickSize,
	}, nil
}
