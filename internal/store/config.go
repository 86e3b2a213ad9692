package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TierBand maps a confidence floor to a size tier. Bands are evaluated
// highest floor first; confidence below the lowest floor yields tier 0.
type TierBand struct {
	Floor float64 `yaml:"floor"`
	Tier  int     `yaml:"tier"`
}

type Timeframe struct {
	Label    string `yaml:"label"`
	Lookback int    `yaml:"lookback"`
}

type Config struct {
	Mode       string      `yaml:"mode"`        // DRY_RUN or LIVE
	DataSource string      `yaml:"data_source"` // STATIC, LIVE, STREAM
	Symbol     string      `yaml:"symbol"`
	Timeframes []Timeframe `yaml:"timeframes"`

	Scheduling struct {
		CoarseSeconds        int `yaml:"coarse_seconds"`
		FineSeconds          int `yaml:"fine_seconds"`
		FetchTimeoutSeconds  int `yaml:"fetch_timeout_seconds"`
		SignalTimeoutSeconds int `yaml:"signal_timeout_seconds"`
	} `yaml:"scheduling"`

	Session struct {
		End              string `yaml:"end"` // "23:45" wall clock, UTC
		ForceCloseBufMin int    `yaml:"force_close_buffer_minutes"`
	} `yaml:"session"`

	Risk struct {
		Leverage        float64    `yaml:"leverage"`
		TakeProfitPct   float64    `yaml:"take_profit_pct"`
		StopLossPct     float64    `yaml:"stop_loss_pct"`
		MinConfidence   float64    `yaml:"min_confidence"`
		MinAgreeing     int        `yaml:"min_agreeing_features"`
		Tiers           []TierBand `yaml:"tiers"`
		NotionalPerTier []float64  `yaml:"notional_per_tier"`
	} `yaml:"risk"`

	Indicators struct {
		MAFast        int     `yaml:"ma_fast"`
		MASlow        int     `yaml:"ma_slow"`
		EMAWindows    []int   `yaml:"ema_windows"`
		RSIPeriod     int     `yaml:"rsi_period"`
		ATRPeriod     int     `yaml:"atr_period"`
		BBWindow      int     `yaml:"bb_window"`
		BBStdDev      float64 `yaml:"bb_stddev"`
		RSIOverbought float64 `yaml:"rsi_overbought"`
		RSIOversold   float64 `yaml:"rsi_oversold"`
		VolumeWindow  int     `yaml:"volume_window"`
	} `yaml:"indicators"`

	LLM struct {
		Provider    string  `yaml:"provider"` // DEEPSEEK or empty for noop
		APIURL      string  `yaml:"api_url"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
		System      string  `yaml:"system"`
	} `yaml:"llm"`

	News struct {
		Enabled      bool `yaml:"enabled"`
		MaxHeadlines int  `yaml:"max_headlines"`
		TimeoutSec   int  `yaml:"timeout_seconds"`
	} `yaml:"news"`
}

func (c *Config) CoarseInterval() time.Duration {
	return time.Duration(c.Scheduling.CoarseSeconds) * time.Second
}
func (c *Config) FineInterval() time.Duration {
	return time.Duration(c.Scheduling.FineSeconds) * time.Second
}
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scheduling.FetchTimeoutSeconds) * time.Second
}
func (c *Config) SignalTimeout() time.Duration {
	return time.Duration(c.Scheduling.SignalTimeoutSeconds) * time.Second
}

// Notional returns the configured sizing for a tier, 0 for tier 0 or
// anything out of range.
func (c *Config) Notional(tier int) float64 {
	if tier <= 0 || tier >= len(c.Risk.NotionalPerTier) {
		return 0
	}
	return c.Risk.NotionalPerTier[tier]
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.DataSource != "STATIC" && c.DataSource != "LIVE" && c.DataSource != "STREAM" {
		return fmt.Errorf("invalid data_source '%s': must be 'STATIC', 'LIVE', or 'STREAM'", c.DataSource)
	}
	if c.Symbol == "" {
		return errors.New("symbol cannot be empty")
	}
	if len(c.Timeframes) == 0 {
		return errors.New("timeframes cannot be empty")
	}
	if c.Scheduling.FineSeconds >= c.Scheduling.CoarseSeconds {
		return fmt.Errorf("fine interval (%ds) must be shorter than coarse interval (%ds)",
			c.Scheduling.FineSeconds, c.Scheduling.CoarseSeconds)
	}
	if c.Risk.StopLossPct <= 0 || c.Risk.TakeProfitPct <= 0 {
		return errors.New("risk.stop_loss_pct and risk.take_profit_pct must be positive")
	}
	if c.Risk.MinConfidence < 0 || c.Risk.MinConfidence > 1 {
		return fmt.Errorf("risk.min_confidence must be within [0,1], got %.2f", c.Risk.MinConfidence)
	}
	if err := validateTiers(c.Risk.Tiers); err != nil {
		return err
	}
	maxTier := c.Risk.Tiers[len(c.Risk.Tiers)-1].Tier
	if len(c.Risk.NotionalPerTier) <= maxTier {
		return fmt.Errorf("risk.notional_per_tier needs %d entries to cover tier %d", maxTier+1, maxTier)
	}
	if _, err := time.Parse("15:04", c.Session.End); err != nil {
		return fmt.Errorf("session.end must be HH:MM, got '%s'", c.Session.End)
	}
	return nil
}

// validateTiers enforces the ordered-band contract: floors strictly
// increasing, tiers positive and non-decreasing.
func validateTiers(tiers []TierBand) error {
	if len(tiers) == 0 {
		return errors.New("risk.tiers cannot be empty")
	}
	prevFloor := -1.0
	prevTier := 0
	for i, b := range tiers {
		if b.Floor < 0 || b.Floor > 1 {
			return fmt.Errorf("risk.tiers[%d].floor must be within [0,1], got %.2f", i, b.Floor)
		}
		if b.Floor <= prevFloor {
			return fmt.Errorf("risk.tiers floors must be strictly increasing (index %d)", i)
		}
		if b.Tier <= 0 || b.Tier < prevTier {
			return fmt.Errorf("risk.tiers tiers must be positive and non-decreasing (index %d)", i)
		}
		prevFloor = b.Floor
		prevTier = b.Tier
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.DataSource == "" {
		c.DataSource = "STATIC"
	}
	if c.Scheduling.CoarseSeconds == 0 {
		c.Scheduling.CoarseSeconds = 900
	}
	if c.Scheduling.FineSeconds == 0 {
		c.Scheduling.FineSeconds = 60
	}
	if c.Scheduling.FetchTimeoutSeconds == 0 {
		c.Scheduling.FetchTimeoutSeconds = 10
	}
	if c.Scheduling.SignalTimeoutSeconds == 0 {
		c.Scheduling.SignalTimeoutSeconds = 15
	}
	if c.Session.End == "" {
		c.Session.End = "23:45"
	}
	if c.Session.ForceCloseBufMin == 0 {
		c.Session.ForceCloseBufMin = 15
	}
	if c.Risk.Leverage == 0 {
		c.Risk.Leverage = 5
	}
	if c.Risk.TakeProfitPct == 0 {
		c.Risk.TakeProfitPct = 6
	}
	if c.Risk.StopLossPct == 0 {
		c.Risk.StopLossPct = 3
	}
	if c.Risk.MinConfidence == 0 {
		c.Risk.MinConfidence = 0.2
	}
	if c.Risk.MinAgreeing == 0 {
		c.Risk.MinAgreeing = 2
	}
	if len(c.Risk.Tiers) == 0 {
		c.Risk.Tiers = []TierBand{
			{Floor: 0.2, Tier: 1},
			{Floor: 0.4, Tier: 2},
			{Floor: 0.6, Tier: 3},
			{Floor: 0.8, Tier: 4},
		}
	}
	if len(c.Risk.NotionalPerTier) == 0 {
		c.Risk.NotionalPerTier = []float64{0, 500, 800, 1000, 1200}
	}
	if c.Indicators.MAFast == 0 {
		c.Indicators.MAFast = 20
	}
	if c.Indicators.MASlow == 0 {
		c.Indicators.MASlow = 50
	}
	if len(c.Indicators.EMAWindows) == 0 {
		c.Indicators.EMAWindows = []int{12, 26}
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.ATRPeriod == 0 {
		c.Indicators.ATRPeriod = 14
	}
	if c.Indicators.BBWindow == 0 {
		c.Indicators.BBWindow = 20
	}
	if c.Indicators.BBStdDev == 0 {
		c.Indicators.BBStdDev = 2.0
	}
	if c.Indicators.RSIOverbought == 0 {
		c.Indicators.RSIOverbought = 70
	}
	if c.Indicators.RSIOversold == 0 {
		c.Indicators.RSIOversold = 30
	}
	if c.Indicators.VolumeWindow == 0 {
		c.Indicators.VolumeWindow = 20
	}
	for i := range c.Timeframes {
		if c.Timeframes[i].Lookback == 0 {
			c.Timeframes[i].Lookback = 200
		}
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 5
	}
	if c.News.TimeoutSec == 0 {
		c.News.TimeoutSec = 8
	}
}
