package risk

// Config holds the firewall thresholds. All percentage limits are
// fractions of capital (0.01 = 1%). Defaults follow the documented
// firm-risk policy and can be overridden at construction.
type Config struct {
	MaxRiskPerTrade      float64 `yaml:"max_risk_per_trade" default:"0.01" validate:"gt=0,lte=1"`
	MaxPositionSize      float64 `yaml:"max_position_size" default:"0.05" validate:"gt=0,lte=1"`
	DefaultStopPercent   float64 `yaml:"default_stop_percent" default:"0.02" validate:"gt=0,lt=1"`
	MaxSectorExposure    float64 `yaml:"max_sector_exposure" default:"0.25" validate:"gt=0,lte=1"`
	MaxDailyLoss         float64 `yaml:"max_daily_loss" default:"0.02" validate:"gt=0,lte=1"`
	MaxWeeklyLoss        float64 `yaml:"max_weekly_loss" default:"0.05" validate:"gt=0,lte=1"`
	MaxDailyTrades       int     `yaml:"max_daily_trades" default:"50" validate:"gt=0"`
	MaxOpenPositions     int     `yaml:"max_open_positions" default:"10" validate:"gt=0"`
	MaxMarginUtilization float64 `yaml:"max_margin_utilization" default:"0.80" validate:"gt=0,lte=1"`
	MaxDrawdown          float64 `yaml:"max_drawdown" default:"0.10" validate:"gt=0,lte=1"`
	KillSwitchThreshold  float64 `yaml:"kill_switch_threshold" default:"0.05" validate:"gt=0,lte=1"`
}

// DefaultConfig returns the documented firewall defaults.
func DefaultConfig() Config {
	return Config{
		MaxRiskPerTrade:      0.01,
		MaxPositionSize:      0.05,
		DefaultStopPercent:   0.02,
		MaxSectorExposure:    0.25,
		MaxDailyLoss:         0.02,
		MaxWeeklyLoss:        0.05,
		MaxDailyTrades:       50,
		MaxOpenPositions:     10,
		MaxMarginUtilization: 0.80,
		MaxDrawdown:          0.10,
		KillSwitchThreshold:  0.05,
	}
}
