package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LedgerConfig holds the reconciliation policy knobs. The tolerance is the
// largest stored-vs-computed gap that is treated as rounding noise rather
// than a discrepancy worth correcting. Amounts are in the smallest currency
// denomination.
type LedgerConfig struct {
	ToleranceAmount int64         `mapstructure:"toleranceAmount"`
	OpeningBackdate time.Duration `mapstructure:"openingBackdate"`
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		ToleranceAmount: 1_000,
		OpeningBackdate: 24 * time.Hour,
	}
}

// LedgerConfigHolder exposes the current ledger policy and hot-reloads it
// when the config file changes on disk.
type LedgerConfigHolder struct {
	current atomic.Value // holds LedgerConfig
}

func NewLedgerConfigHolder() (*LedgerConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("ledger")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/debtbook/config")
	v.AddConfigPath("/etc/debtbook")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DEBTBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLedgerConfig()
	v.SetDefault("ledger.toleranceAmount", defaults.ToleranceAmount)
	v.SetDefault("ledger.openingBackdate", defaults.OpeningBackdate)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg LedgerConfig
	if err := v.UnmarshalKey("ledger", &cfg); err != nil {
		return nil, err
	}
	if err := validateLedgerConfig(cfg); err != nil {
		return nil, err
	}

	holder := &LedgerConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated LedgerConfig
		if err := v.UnmarshalKey("ledger", &updated); err != nil {
			log.Printf("[ledger-config] reload failed: %v", err)
			return
		}
		if err := validateLedgerConfig(updated); err != nil {
			log.Printf("[ledger-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[ledger-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticLedgerConfigHolder wraps a fixed config, for tests.
func NewStaticLedgerConfigHolder(cfg LedgerConfig) *LedgerConfigHolder {
	holder := &LedgerConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *LedgerConfigHolder) Current() LedgerConfig {
	if h == nil {
		return DefaultLedgerConfig()
	}
	if cfg, ok := h.current.Load().(LedgerConfig); ok {
		return cfg
	}
	return DefaultLedgerConfig()
}

func validateLedgerConfig(cfg LedgerConfig) error {
	if cfg.ToleranceAmount < 0 {
		return errors.New("ledger.toleranceAmount must not be negative")
	}
	if cfg.OpeningBackdate < 0 {
		return errors.New("ledger.openingBackdate must not be negative")
	}
	return nil
}
