// smcaudit runs the signal engine and the risk firewall once over a CSV
// candle file and prints the outcome as JSON. It is an operational
// inspection tool, not a trading surface.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smc-trading-core/config"
	"smc-trading-core/internal/events"
	"smc-trading-core/internal/logging"
	"smc-trading-core/internal/market"
	"smc-trading-core/internal/metrics"
	"smc-trading-core/internal/risk"
	"smc-trading-core/internal/smc"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults used when empty)")
	candlePath := flag.String("candles", "", "path to CSV candle file: timestamp,open,high,low,close,volume")
	symbol := flag.String("symbol", "UNKNOWN", "symbol the candles belong to")
	htfPath := flag.String("htf-candles", "", "optional higher-timeframe CSV candle file")
	serveMetrics := flag.Bool("serve-metrics", false, "keep running and expose /metrics")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	if *candlePath == "" {
		fmt.Fprintln(os.Stderr, "-candles is required")
		os.Exit(1)
	}
	ltf, err := readCandles(*candlePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "candles: %v\n", err)
		os.Exit(1)
	}
	var htf market.Window
	if *htfPath != "" {
		htf, err = readCandles(*htfPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "htf candles: %v\n", err)
			os.Exit(1)
		}
	}

	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.New()
	}
	bus := events.NewBus()
	bus.SubscribeAll(func(e events.Event) {
		logger.Debug().Str("event", string(e.Type)).Str("event_id", e.ID).Msg("event")
	})

	engine := smc.NewEngine(cfg.Engine, nil, logger, bus, rec)
	auditor, err := risk.NewAuditor(cfg.Risk, cfg.Capital, cfg.Sectors, logger, bus, rec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auditor: %v\n", err)
		os.Exit(1)
	}

	setup := engine.Analyze(smc.Snapshot{
		Symbol:     *symbol,
		LTF:        ltf,
		LTFLabel:   market.TF15m,
		HTF:        htf,
		HTFLabel:   market.TF4h,
		Timeframes: []market.Timeframe{market.TF15m, market.TF4h},
	})

	out := struct {
		Symbol string          `json:"symbol"`
		Setup  *smc.TradeSetup `json:"setup"`
		Audit  *risk.RiskAudit `json:"audit,omitempty"`
	}{Symbol: *symbol, Setup: setup}

	if setup != nil {
		req := requestFromSetup(*symbol, setup, cfg)
		audit := auditor.Audit(req)
		out.Audit = &audit
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}

	if *serveMetrics && cfg.Metrics.Enabled {
		http.Handle("/metrics", promhttp.Handler())
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
		if err := http.ListenAndServe(cfg.Metrics.Addr, nil); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}
}

// requestFromSetup sizes a request off the configured per-trade risk.
func requestFromSetup(symbol string, setup *smc.TradeSetup, cfg *config.Config) risk.TradeRequest {
	side := risk.SideBuy
	if setup.Direction == smc.DirectionBearish {
		side = risk.SideSell
	}

	qty := 1.0
	if riskPerShare := math.Abs(setup.EntryPrice - setup.StopLoss); riskPerShare > 0 {
		qty = math.Floor(cfg.Capital * cfg.Risk.MaxRiskPerTrade / riskPerShare)
		if qty < 1 {
			qty = 1
		}
	}

	return risk.TradeRequest{
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
		Price:    setup.EntryPrice,
		StopLoss: setup.StopLoss,
		Target:   setup.TargetPrice,
	}
}

// readCandles parses a CSV candle file with columns
// timestamp,open,high,low,close,volume. Timestamps are unix seconds or
// RFC3339. A header row is skipped.
func readCandles(path string) (market.Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var candles market.Window
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("row %d: expected 6 columns, got %d", i+1, len(row))
		}
		ts, err := parseTimestamp(row[0])
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		vals := make([]float64, 5)
		for j := 1; j < 6; j++ {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i+1, j+1, err)
			}
			vals[j-1] = v
		}
		candles = append(candles, market.Candle{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return candles, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}
