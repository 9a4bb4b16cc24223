package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"liq_bot/internal/modules/config"
)

const recvWindow = "5000"

type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	apiSecret string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		baseURL:   cfg.Bybit.RestURL,
		apiKey:    cfg.Bybit.APIKey,
		apiSecret: cfg.Bybit.APISecret,
	}
}

// sign — HMAC-SHA256(ts + apiKey + recvWindow + payload), hex.
// payload: query string для GET, тело для POST.
func (c *Client) sign(ts, payload string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(ts + c.apiKey + recvWindow + payload))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Client) setAuthHeaders(req *http.Request, payload string) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("X-BAPI-API-KEY", c.apiKey)
	req.Header.Set("X-BAPI-SIGN", c.sign(ts, payload))
	req.Header.Set("X-BAPI-TIMESTAMP", ts)
	req.Header.Set("X-BAPI-RECV-WINDOW", recvWindow)
}

func formatSize(v float64) string  { return strconv.FormatFloat(v, 'f', -1, 64) }
func formatPrice(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
