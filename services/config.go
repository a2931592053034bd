package services

import (
	"os"
	"strconv"
	"time"
)

// Config collects the tunable policy constants of the ledger core. Defaults
// match production; each can be overridden via environment variable.
type Config struct {
	// One point of balance per this many currency units withdrawn.
	PointsPerCurrencyUnit int64

	// Claim lifecycle.
	TokenPrefix     string
	ClaimTTL        time.Duration
	MinTaskDuration time.Duration // completions faster than this are automation

	// Daily quotas. VIP accounts get the higher global quota.
	DailyTaskLimit    int
	VIPDailyTaskLimit int

	// VIP purchase price and task-reward multiplier (rational, applied to
	// task rewards only).
	VIPPrice      int64
	MultiplierNum int
	MultiplierDen int

	// Referral bonus credited to the referrer at registration.
	ReferralReward int64

	// Integrity audit: tolerated excess (covers VIP rounding) and the flat
	// trust penalty per detected mismatch.
	AuditSlack   int64
	AuditPenalty int

	// Activity log retention before archival to object storage.
	LogRetention time.Duration
}

// DefaultConfig reads overrides from the environment and falls back to the
// compiled-in defaults.
func DefaultConfig() Config {
	cfg := Config{
		PointsPerCurrencyUnit: 1,
		TokenPrefix:           "NOVA-",
		ClaimTTL:              30 * time.Minute,
		MinTaskDuration:       5 * time.Second,
		DailyTaskLimit:        30,
		VIPDailyTaskLimit:     50,
		VIPPrice:              50000,
		MultiplierNum:         12,
		MultiplierDen:         10,
		ReferralReward:        1000,
		AuditSlack:            1000,
		AuditPenalty:          30,
		LogRetention:          30 * 24 * time.Hour,
	}
	cfg.PointsPerCurrencyUnit = envInt64("EXCHANGE_POINTS_PER_UNIT", cfg.PointsPerCurrencyUnit)
	cfg.ClaimTTL = envDuration("CLAIM_TTL", cfg.ClaimTTL)
	cfg.MinTaskDuration = envDuration("MIN_TASK_DURATION", cfg.MinTaskDuration)
	cfg.DailyTaskLimit = envInt("DAILY_TASK_LIMIT", cfg.DailyTaskLimit)
	cfg.VIPDailyTaskLimit = envInt("VIP_DAILY_TASK_LIMIT", cfg.VIPDailyTaskLimit)
	cfg.VIPPrice = envInt64("VIP_PRICE", cfg.VIPPrice)
	cfg.ReferralReward = envInt64("REFERRAL_REWARD", cfg.ReferralReward)
	cfg.AuditSlack = envInt64("AUDIT_SLACK", cfg.AuditSlack)
	cfg.AuditPenalty = envInt("AUDIT_PENALTY", cfg.AuditPenalty)
	cfg.LogRetention = envDuration("LOG_RETENTION", cfg.LogRetention)
	return cfg
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
