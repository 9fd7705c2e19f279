package config

import (
	"fmt"
	"strings"
	"time"

	"mobile-money-ledger/internal/core/domain"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Ledger         LedgerConfig         `mapstructure:"ledger"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Log            LogConfig            `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// FeeRuleConfig is one fee schedule entry. Percentages are basis points,
// fixed components are minor units of the rule's currency.
type FeeRuleConfig struct {
	PercentBps    int64 `mapstructure:"percent_bps"`
	FixedMinor    int64 `mapstructure:"fixed_minor"`
	AgentSplitBps int64 `mapstructure:"agent_split_bps"`
}

// LimitConfig holds per-currency amount bounds and rolling per-user totals,
// all in minor units. Zero disables the bound.
type LimitConfig struct {
	MinAmount    int64 `mapstructure:"min_amount"`
	MaxAmount    int64 `mapstructure:"max_amount"`
	DailyLimit   int64 `mapstructure:"daily_limit"`
	WeeklyLimit  int64 `mapstructure:"weekly_limit"`
	MonthlyLimit int64 `mapstructure:"monthly_limit"`
}

// LedgerConfig holds the fee schedule and transaction limits. Fees are keyed
// by lowercase transaction kind, then currency code.
type LedgerConfig struct {
	Fees                  map[string]map[string]FeeRuleConfig `mapstructure:"fees"`
	Limits                map[string]LimitConfig              `mapstructure:"limits"`
	SettlementPlatformBps int64                               `mapstructure:"settlement_platform_bps"`
	SettlementAgentBps    int64                               `mapstructure:"settlement_agent_bps"`
	AgentCreditLimit      map[string]int64                    `mapstructure:"agent_credit_limit"`
}

// Schedule converts the raw config into the domain fee schedule.
func (c LedgerConfig) Schedule() domain.FeeSchedule {
	s := domain.FeeSchedule{
		Rules:                   make(map[domain.TransactionKind]map[domain.Currency]domain.FeeRule),
		Limits:                  make(map[domain.Currency]domain.TransactionLimits),
		SettlementPlatformBps:   c.SettlementPlatformBps,
		SettlementAgentBps:      c.SettlementAgentBps,
		DefaultAgentCreditLimit: make(map[domain.Currency]int64),
	}
	for kindKey, byCurrency := range c.Fees {
		kind := domain.TransactionKind(strings.ToUpper(kindKey))
		s.Rules[kind] = make(map[domain.Currency]domain.FeeRule)
		for curKey, rule := range byCurrency {
			s.Rules[kind][domain.Currency(strings.ToUpper(curKey))] = domain.FeeRule{
				PercentBps:    rule.PercentBps,
				FixedMinor:    rule.FixedMinor,
				AgentSplitBps: rule.AgentSplitBps,
			}
		}
	}
	for curKey, lim := range c.Limits {
		s.Limits[domain.Currency(strings.ToUpper(curKey))] = domain.TransactionLimits{
			MinAmount:    lim.MinAmount,
			MaxAmount:    lim.MaxAmount,
			DailyLimit:   lim.DailyLimit,
			WeeklyLimit:  lim.WeeklyLimit,
			MonthlyLimit: lim.MonthlyLimit,
		}
	}
	for curKey, limit := range c.AgentCreditLimit {
		s.DefaultAgentCreditLimit[domain.Currency(strings.ToUpper(curKey))] = limit
	}
	return s
}

type ReconciliationConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: MML (Mobile Money
// Ledger). Nested keys use underscore: MML_DATABASE_HOST, MML_LOG_LEVEL.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "mobile_money_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("reconciliation.interval", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Fee schedule defaults: deposit fee is platform-only, withdraw fee is
	// split 50/50 with the paying agent, transfers carry 0.5%.
	v.SetDefault("ledger.fees.deposit.usd", map[string]any{"percent_bps": 100})
	v.SetDefault("ledger.fees.deposit.syp", map[string]any{"percent_bps": 100})
	v.SetDefault("ledger.fees.withdraw.usd", map[string]any{"percent_bps": 100, "agent_split_bps": 5000})
	v.SetDefault("ledger.fees.withdraw.syp", map[string]any{"percent_bps": 100, "agent_split_bps": 5000})
	v.SetDefault("ledger.fees.transfer.usd", map[string]any{"percent_bps": 50})
	v.SetDefault("ledger.fees.transfer.syp", map[string]any{"percent_bps": 50})
	v.SetDefault("ledger.fees.qr_payment.usd", map[string]any{"percent_bps": 100})
	v.SetDefault("ledger.fees.qr_payment.syp", map[string]any{"percent_bps": 100})

	// Amount bounds and rolling per-user limits, minor units.
	v.SetDefault("ledger.limits.usd", map[string]any{
		"min_amount": 100, "max_amount": 1_000_000,
		"daily_limit": 2_000_000, "weekly_limit": 10_000_000, "monthly_limit": 30_000_000,
	})
	v.SetDefault("ledger.limits.syp", map[string]any{
		"min_amount": 1_000, "max_amount": 10_000_000,
		"daily_limit": 20_000_000, "weekly_limit": 100_000_000, "monthly_limit": 300_000_000,
	})

	v.SetDefault("ledger.settlement_platform_bps", 50)
	v.SetDefault("ledger.settlement_agent_bps", 50)
	v.SetDefault("ledger.agent_credit_limit.usd", 5_000_000)
	v.SetDefault("ledger.agent_credit_limit.syp", 50_000_000)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: MML_DATABASE_HOST -> database.host
	v.SetEnvPrefix("MML")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
