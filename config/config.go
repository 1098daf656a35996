package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lukehollenback/gander/constants"
	"github.com/lukehollenback/gander/exchange"
	"github.com/lukehollenback/gander/trader/alpha"
	"github.com/lukehollenback/gander/trader/indicator"
	"github.com/lukehollenback/gander/trader/market"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//
// Duration is a time.Duration that is written in YAML as a Go duration string (e.g. "10m").
//
type Duration time.Duration

func (o *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a duration string", value.Line)
	}

	d, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	*o = Duration(d)

	return nil
}

func (o Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(o).String(), nil
}

// Std returns the value as a time.Duration.
func (o Duration) Std() time.Duration {
	return time.Duration(o)
}

//
// Config is the complete configuration of a gander process.
//
type Config struct {
	Symbols  []string       `yaml:"symbols"`
	Model    ModelConfig    `yaml:"model"`
	Engine   EngineConfig   `yaml:"engine"`
	Backtest BacktestConfig `yaml:"backtest"`
	Writer   WriterConfig   `yaml:"writer"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ModelConfig struct {
	Name                string   `yaml:"name"`
	FastPeriod          int      `yaml:"fast_period"`
	SlowPeriod          int      `yaml:"slow_period"`
	SignalPeriod        int      `yaml:"signal_period"`
	MovingAverage       string   `yaml:"moving_average"`
	ConsolidationPeriod Duration `yaml:"consolidation_period"`
	Threshold           string   `yaml:"threshold"`
	ValidityPeriod      Duration `yaml:"validity_period"`
	History             int      `yaml:"history"`
}

//
// EngineConfig controls how often the model is ticked. A zero tick interval ticks the model after
// every observation.
//
type EngineConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
}

type BacktestConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Interval string `yaml:"interval"`
}

type WriterConfig struct {
	Dir string `yaml:"dir"`
}

//
// MetricsConfig holds the listen address of the Prometheus endpoint. It is disabled when empty.
//
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

//
// Default returns the configuration used when no file is provided.
//
func Default() *Config {
	model := alpha.DefaultConfig()

	return &Config{
		Symbols: []string{"BTC-USD"},
		Model: ModelConfig{
			FastPeriod:          model.FastPeriod,
			SlowPeriod:          model.SlowPeriod,
			SignalPeriod:        model.SignalPeriod,
			MovingAverage:       model.MovingAverageType.String(),
			ConsolidationPeriod: Duration(model.ConsolidationPeriod),
			Threshold:           model.Threshold.String(),
			History:             model.History,
		},
		Backtest: BacktestConfig{
			Interval: exchange.OneMinute.String(),
		},
		Writer: WriterConfig{
			Dir: ".",
		},
	}
}

//
// Load reads, decodes, and validates the YAML file at the provided path. Keys missing from the file
// keep their default values. An empty path yields the validated defaults.
//
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()

		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return Parse(data)
}

//
// Parse decodes and validates YAML configuration data on top of the defaults.
//
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

//
// Validate reports every problem with the configuration at once.
//
func (c *Config) Validate() error {
	var errs []error

	if len(c.Symbols) == 0 {
		errs = append(errs, market.NewConfigError("symbols", "at least one symbol must be configured"))
	}

	for i, symbol := range c.Symbols {
		if strings.TrimSpace(symbol) == "" {
			errs = append(errs, market.NewConfigError("symbols", "symbol %d cannot be empty", i))
		}
	}

	if _, err := c.AlphaConfig(); err != nil {
		errs = append(errs, err)
	}

	if c.Engine.TickInterval < 0 {
		errs = append(errs, market.NewConfigError("engine.tick_interval", "cannot be negative (got %s)", c.Engine.TickInterval.Std()))
	}

	if c.Backtest.Enabled {
		if _, _, err := c.BacktestWindow(); err != nil {
			errs = append(errs, err)
		}

		if _, err := c.BacktestInterval(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Writer.Dir == "" {
		errs = append(errs, market.NewConfigError("writer.dir", "cannot be empty"))
	}

	return errors.Join(errs...)
}

//
// MarketSymbols returns the configured symbols as instrument identifiers.
//
func (c *Config) MarketSymbols() []market.Symbol {
	ret := make([]market.Symbol, 0, len(c.Symbols))

	for _, symbol := range c.Symbols {
		ret = append(ret, market.Symbol(strings.ToUpper(strings.TrimSpace(symbol))))
	}

	return ret
}

//
// AlphaConfig converts the model section into an alpha.Config. Zero periods fall back to the
// defaults.
//
func (c *Config) AlphaConfig() (alpha.Config, error) {
	ret := alpha.DefaultConfig()

	kind, err := indicator.ParseMovingAverageType(c.Model.MovingAverage)
	if err != nil {
		return ret, market.NewConfigError("model.moving_average", "%s", err)
	}

	ret.Name = c.Model.Name
	ret.MovingAverageType = kind
	ret.ValidityPeriod = c.Model.ValidityPeriod.Std()
	ret.History = c.Model.History

	if c.Model.FastPeriod != 0 {
		ret.FastPeriod = c.Model.FastPeriod
	}

	if c.Model.SlowPeriod != 0 {
		ret.SlowPeriod = c.Model.SlowPeriod
	}

	if c.Model.SignalPeriod != 0 {
		ret.SignalPeriod = c.Model.SignalPeriod
	}

	if c.Model.ConsolidationPeriod != 0 {
		ret.ConsolidationPeriod = c.Model.ConsolidationPeriod.Std()
	}

	if c.Model.Threshold != "" {
		ret.Threshold, err = decimal.NewFromString(c.Model.Threshold)
		if err != nil {
			return ret, market.NewConfigError("model.threshold", "%s", err)
		}
	}

	if ret.FastPeriod < 0 || ret.SlowPeriod < 0 || ret.SignalPeriod < 0 {
		return ret, market.NewConfigError("model", "periods cannot be negative")
	}

	if ret.ConsolidationPeriod < 0 {
		return ret, market.NewConfigError("model.consolidation_period", "cannot be negative (got %s)", ret.ConsolidationPeriod)
	}

	if ret.ValidityPeriod < 0 {
		return ret, market.NewConfigError("model.validity_period", "cannot be negative (got %s)", ret.ValidityPeriod)
	}

	return ret, nil
}

//
// BacktestWindow parses the backtest start and end timestamps.
//
func (c *Config) BacktestWindow() (time.Time, time.Time, error) {
	start, err := time.Parse(constants.TimestampLayout, c.Backtest.Start)
	if err != nil {
		return start, start, market.NewConfigError("backtest.start", "could not be parsed (%s)", err)
	}

	end, err := time.Parse(constants.TimestampLayout, c.Backtest.End)
	if err != nil {
		return start, end, market.NewConfigError("backtest.end", "could not be parsed (%s)", err)
	}

	if !start.Before(end) {
		return start, end, market.NewConfigError("backtest", "start (%s) must be before end (%s)", c.Backtest.Start, c.Backtest.End)
	}

	return start, end, nil
}

//
// BacktestInterval parses the interval of the historical candles replayed during a backtest.
//
func (c *Config) BacktestInterval() (exchange.Interval, error) {
	interval, ok := exchange.ParseInterval(c.Backtest.Interval)
	if !ok {
		return interval, market.NewConfigError("backtest.interval", "unsupported interval %q", c.Backtest.Interval)
	}

	return interval, nil
}

