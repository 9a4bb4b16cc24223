package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatIDTelegramENV = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	bybitAPIKeyENV    = "BYBIT_API_KEY"
	bybitAPISecretENV = "BYBIT_API_SECRET"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Bybit struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		RestURL   string `yaml:"rest_url"`
		WsURL     string `yaml:"ws_url"`
	} `yaml:"bybit"`

	// Список инструментов, на которые подписываемся при старте стрима.
	Symbols []string `yaml:"symbols"`

	// Каскад-детектор
	// MinNotionalUSD — ликвидации дешевле порога не взводят таймер вообще.
	MinNotionalUSD float64 `yaml:"min_notional_usd"`
	// BigNotionalUSD — разовая крупная ликвидация: шлём инфо-уведомление,
	// стейт-машину не трогаем.
	BigNotionalUSD float64       `yaml:"big_notional_usd"`
	Quiescence     time.Duration // окно тишины после последней ликвидации
	EvictAfter     time.Duration // чистка кэша символа после простоя обеих сторон

	// Ордер
	OrderNotionalUSD float64 `yaml:"order_notional_usd"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"` // 1.0 => +1% от входа
	StopPct          float64 `yaml:"stop_pct"`        // 0.35 => -0.35% от входа

	// Трекер позиций
	PollInterval time.Duration

	// WebSocket
	ReconnectDelay time.Duration

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		MinNotionalUSD:   floatFromEnv("MIN_NOTIONAL_USD", 1000),
		BigNotionalUSD:   floatFromEnv("BIG_NOTIONAL_USD", 100000),
		Quiescence:       durationFromEnv("QUIESCENCE_WINDOW", "10s"),
		EvictAfter:       durationFromEnv("CACHE_EVICT_AFTER", "30s"),
		OrderNotionalUSD: floatFromEnv("ORDER_NOTIONAL_USD", 100),
		TakeProfitPct:    floatFromEnv("TAKE_PROFIT_PCT", 1.0),
		StopPct:          floatFromEnv("STOP_PCT", 0.35),
		PollInterval:     durationFromEnv("POLL_INTERVAL", "15s"),
		ReconnectDelay:   durationFromEnv("WS_RECONNECT_DELAY", "5s"),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv(chatIDTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if v := os.Getenv(bybitAPIKeyENV); v != "" {
		config.Bybit.APIKey = v
	}
	if v := os.Getenv(bybitAPISecretENV); v != "" {
		config.Bybit.APISecret = v
	}
	if config.Bybit.RestURL == "" {
		config.Bybit.RestURL = "https://api.bybit.com"
	}
	if config.Bybit.WsURL == "" {
		config.Bybit.WsURL = "wss://stream.bybit.com/v5/public/linear"
	}
	if config.Health.Addr == "" {
		config.Health.Addr = ":8080"
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		config.Symbols = splitCSV(v)
	}
	if len(config.Symbols) == 0 {
		return nil, fmt.Errorf("config: empty symbols list")
	}

	if config.TakeProfitPct <= 0 || config.TakeProfitPct >= 100 {
		return nil, fmt.Errorf("config: take_profit_pct out of (0,100): %.2f", config.TakeProfitPct)
	}
	if config.StopPct <= 0 || config.StopPct >= 100 {
		return nil, fmt.Errorf("config: stop_pct out of (0,100): %.2f", config.StopPct)
	}

	return &config, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
