package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration derived from flags and environment
// variables.
type Config struct {
	InputPath        string
	ContractAddress  string
	NodeURL          string
	PrivateKey       string
	SubmitInterval   time.Duration
	SnapshotInterval time.Duration
	LogLevel         string
	MetricsAddr      string
	AssumeYes        bool
}

// Load parses CLI flags, merges them with environment variables via viper and
// returns a typed config. Flags win over env vars, env vars over defaults.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("payout", pflag.ContinueOnError)
	fs.StringP("input", "x", "", "path to the input table with recipients and amounts")
	fs.StringP("address", "a", "", "asset contract address on the target network")
	fs.StringP("url", "u", "", "node RPC endpoint URL")
	fs.StringP("private", "p", "", "signing key for the funding account")
	fs.StringP("tx-timer", "o", "", "interval between transfer submissions (e.g. 3s)")
	fs.StringP("timer", "t", "", "interval between progress snapshots (e.g. 1h)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("metrics-addr", "", "listen address for /metrics (empty disables)")
	fs.BoolP("yes", "y", false, "answer yes to all confirmation prompts")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	bindEnv(v, "input", "INPUT_PATH", "PAYOUT_INPUT_PATH")
	bindEnv(v, "address", "CONTRACT_ADDRESS", "PAYOUT_CONTRACT_ADDRESS")
	bindEnv(v, "url", "NODE_URL", "PAYOUT_NODE_URL")
	bindEnv(v, "private", "PRIVATE_KEY", "PAYOUT_PRIVATE_KEY")
	bindEnv(v, "tx-timer", "SUBMIT_INTERVAL", "PAYOUT_SUBMIT_INTERVAL")
	bindEnv(v, "timer", "SNAPSHOT_INTERVAL", "PAYOUT_SNAPSHOT_INTERVAL")
	bindEnv(v, "log-level", "LOG_LEVEL", "PAYOUT_LOG_LEVEL")
	bindEnv(v, "metrics-addr", "METRICS_ADDR", "PAYOUT_METRICS_ADDR")
	bindEnv(v, "yes", "ASSUME_YES", "PAYOUT_ASSUME_YES")

	v.SetDefault("url", "http://localhost:8545")
	v.SetDefault("tx-timer", "3s")
	v.SetDefault("timer", "1h")
	v.SetDefault("log-level", "info")
	v.SetDefault("metrics-addr", "")

	fs.Visit(func(f *pflag.Flag) {
		v.Set(f.Name, f.Value.String())
	})

	submitInterval, err := time.ParseDuration(v.GetString("tx-timer"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUBMIT_INTERVAL: %w", err)
	}
	snapshotInterval, err := time.ParseDuration(v.GetString("timer"))
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL: %w", err)
	}

	cfg := &Config{
		InputPath:        v.GetString("input"),
		ContractAddress:  v.GetString("address"),
		NodeURL:          v.GetString("url"),
		PrivateKey:       v.GetString("private"),
		SubmitInterval:   submitInterval,
		SnapshotInterval: snapshotInterval,
		LogLevel:         v.GetString("log-level"),
		MetricsAddr:      v.GetString("metrics-addr"),
		AssumeYes:        v.GetBool("yes"),
	}

	if strings.TrimSpace(cfg.InputPath) == "" {
		return nil, fmt.Errorf("INPUT_PATH is required")
	}
	if strings.TrimSpace(cfg.ContractAddress) == "" {
		return nil, fmt.Errorf("CONTRACT_ADDRESS is required")
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, fmt.Errorf("PRIVATE_KEY is required")
	}
	if cfg.SubmitInterval <= 0 {
		return nil, fmt.Errorf("SUBMIT_INTERVAL must be positive")
	}
	if cfg.SnapshotInterval <= 0 {
		return nil, fmt.Errorf("SNAPSHOT_INTERVAL must be positive")
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
}
