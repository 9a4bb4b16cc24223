package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"liq_bot/internal/models"
)

// PlaceMarketWithBracket выставляет маркет-ордер с прикреплёнными TP/SL
// одним запросом (/v5/order/create поддерживает takeProfit/stopLoss).
func (c *Client) PlaceMarketWithBracket(ctx context.Context, p models.OrderParams) (string, error) {
	if !p.Side.Valid() {
		return "", fmt.Errorf("PlaceMarketWithBracket: unsupported side=%q", p.Side)
	}
	if p.Qty <= 0 {
		return "", fmt.Errorf("PlaceMarketWithBracket: qty <= 0")
	}

	body := map[string]string{
		"category":    "linear",
		"symbol":      p.Symbol,
		"side":        string(p.Side),
		"orderType":   "Market",
		"qty":         formatSize(p.Qty),
		"takeProfit":  formatPrice(p.TakeProfit),
		"stopLoss":    formatPrice(p.StopLoss),
		"tpTriggerBy": "LastPrice",
		"slTriggerBy": "LastPrice",
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("PlaceMarketWithBracket marshal: %w", err)
	}

	const requestPath = "/v5/order/create"

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+requestPath,
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", fmt.Errorf("PlaceMarketWithBracket new request: %w", err)
	}
	c.setAuthHeaders(req, string(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("PlaceMarketWithBracket do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("PlaceMarketWithBracket read body: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("PlaceMarketWithBracket http %d: %s", resp.StatusCode, string(data))
	}

	var r CreateOrderResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("PlaceMarketWithBracket decode: %w; body=%s", err, string(data))
	}

	if r.RetCode != 0 {
		return "", &models.OrderRejectedError{Code: r.RetCode, Reason: r.RetMsg}
	}
	if r.Result.OrderID == "" {
		return "", fmt.Errorf("PlaceMarketWithBracket: empty orderId RAW=%s", string(data))
	}

	return r.Result.OrderID, nil
}
