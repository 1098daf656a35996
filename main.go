package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/lukehollenback/gander/config"
	"github.com/lukehollenback/gander/exchange/binance"
	"github.com/lukehollenback/gander/metrics"
	"github.com/lukehollenback/gander/trader"
	"github.com/lukehollenback/gander/trader/engine"
	"github.com/lukehollenback/gander/trader/monitor"
	"github.com/lukehollenback/gander/trader/writer"
)

var (
	cfgPath          *string
	cfgBacktest      *bool
	cfgBacktestStart *string
	cfgBacktestEnd   *string
	cfgWriterDir     *string
	cfgMetricsAddr   *string
)

func init() {
	//
	// Register configuration flags. Any flag that is explicitly provided overrides the matching
	// value of the configuration file.
	//
	cfgPath = flag.String("config", "", "Path to a YAML configuration file. Built-in defaults are used if empty.")

	cfgBacktest = flag.Bool(
		"backtest",
		false,
		"Whether or not to run as a backtest over historical Binance.US candles instead of watching the live "+
			"Coinbase Pro feed.",
	)

	cfgBacktestStart = flag.String("backtest-start", "", "The desired backtest start timestamp (e.g. \"2020-08-25 00:00\").")
	cfgBacktestEnd = flag.String("backtest-end", "", "The desired backtest end timestamp (e.g. \"2020-08-26 00:00\").")
	cfgWriterDir = flag.String("writer-dir", "", "The directory that the signal CSV file is written to.")
	cfgMetricsAddr = flag.String("metrics-addr", "", "The address that Prometheus metrics are served on (e.g. \":9100\").")
}

func main() {
	flag.Parse()

	//
	// Load the configuration and apply any overrides that were provided on the command line.
	//
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load the configuration. (Error: %s)", err)
	}

	modelCfg, err := cfg.AlphaConfig()
	if err != nil {
		log.Fatalf("Failed to configure the alpha model. (Error: %s)", err)
	}

	symbols := cfg.MarketSymbols()

	//
	// Instantiate all necessary services.
	//
	writerSvc := writer.New(cfg.Writer.Dir)

	engineSvc, err := engine.New(modelCfg, cfg.Engine.TickInterval.Std())
	if err != nil {
		log.Fatalf("Failed to instantiate the engine service. (Error: %s)", err)
	}

	engineSvc.RegisterSink(writerSvc.Sink)

	monitorCfg := monitor.Config{
		Symbols: symbols,
	}

	if cfg.Backtest.Enabled {
		monitorCfg.Backtest = true
		monitorCfg.BacktestStart, monitorCfg.BacktestEnd, _ = cfg.BacktestWindow()
		monitorCfg.BacktestInterval, _ = cfg.BacktestInterval()

		client := binance.NewClient()
		client.Auth(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))

		monitorCfg.Client = client
	}

	monitorSvc, err := monitor.New(monitorCfg)
	if err != nil {
		log.Fatalf("Failed to instantiate the monitor service. (Error: %s)", err)
	}

	monitorSvc.RegisterHandler(engineSvc.Observe)

	//
	// Register a kill signal handler with the operating system so that we can gracefully shutdown if
	// necessary.
	//
	osInterrupt := make(chan os.Signal, 1)

	signal.Notify(osInterrupt, os.Interrupt)

	//
	// Start up all necessary services. The universe is populated before the monitor starts so that
	// no observation arrives for an instrument that is not being tracked yet.
	//
	var metricsSrv *http.Server

	if cfg.Metrics.Addr != "" {
		metricsSrv = metrics.Serve(cfg.Metrics.Addr)

		log.Printf("Serving metrics. (Address: %s)", cfg.Metrics.Addr)
	}

	if err := trader.StartAll(writerSvc, engineSvc); err != nil {
		log.Fatalf("Failed to start services. (Error: %s)", err)
	}

	if err := engineSvc.ChangeUniverse(symbols, nil); err != nil {
		log.Printf("Failed to add every configured symbol to the universe. (Error: %s)", err)
	}

	if err := trader.StartAll(monitorSvc); err != nil {
		log.Fatalf("Failed to start the monitor service. (Error: %s)", err)
	}

	//
	// Block until we are shut down by the operating system or run out of observations.
	//
	select {
	case <-osInterrupt:
		log.Print("An operating system interrupt has been received. Shutting down all services...")

	case <-monitorSvc.Done():
		if err := monitorSvc.Err(); err != nil {
			log.Printf("The monitor service failed. Shutting down all services... (Error: %s)", err)
		} else {
			log.Print("The monitor service has run out of observations. Shutting down all services...")
		}
	}

	//
	// Stop all running services in the reverse order that they were started in. Observations that
	// were already produced are delivered before the engine stops.
	//
	if err := trader.StopAll(monitorSvc); err != nil {
		log.Printf("Failed to stop the monitor service. (Error: %s)", err)
	}

	if err := engineSvc.Flush(); err != nil {
		log.Printf("Failed to flush the engine service. (Error: %s)", err)
	}

	if err := trader.StopAll(writerSvc, engineSvc); err != nil {
		log.Printf("Failed to stop services. (Error: %s)", err)
	}

	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = metricsSrv.Shutdown(ctx)
	}

	//
	// Wrap everything up.
	//
	log.Print("Goodbye.")
}

//
// loadConfig loads the configuration file (if any) and overrides it with every explicitly provided
// command-line flag.
//
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backtest":
			cfg.Backtest.Enabled = *cfgBacktest
		case "backtest-start":
			cfg.Backtest.Start = *cfgBacktestStart
		case "backtest-end":
			cfg.Backtest.End = *cfgBacktestEnd
		case "writer-dir":
			cfg.Writer.Dir = *cfgWriterDir
		case "metrics-addr":
			cfg.Metrics.Addr = *cfgMetricsAddr
		}
	})

	return cfg, cfg.Validate()
}
