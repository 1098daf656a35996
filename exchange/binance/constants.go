package binance

const (
	APIKeyHeader = "X-MBX-APIKEY"

	BaseURL     = "https://api.binance.us"
	CandlesPath = "/api/v3/klines"

	MaxLimit = 1000
)
