package candle

import "time"

const (
	OneMinute     = time.Minute
	FiveMinute    = 5 * time.Minute
	TenMinute     = 10 * time.Minute
	FifteenMinute = 15 * time.Minute
	OneHour       = time.Hour
)
