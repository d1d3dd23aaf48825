package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	stringsutil "rollcall/pkg/platform/strings"
)

// Config captures everything the server needs from the environment so main
// stays lean. All knobs have defaults suitable for local development except
// the upstream endpoints, which disable their component when unset.
type Config struct {
	Addr        string
	MetricsAddr string

	JWTSigningKey string

	// RedisURL points at the key-value location store holding class anchors.
	RedisURL string

	// LedgerBaseURL is the versioned object store endpoint. When empty the
	// server falls back to an in-process ledger, which is only useful for
	// local development.
	LedgerBaseURL string
	LedgerToken   string

	// ReputationURL is the IP reputation API. When empty every lookup is
	// skipped and classification relies on the static range tables alone.
	ReputationURL   string
	ReputationToken string

	GeofenceRadiusM float64
	CGNATRanges     []string
	VPNRangesFile   string

	// DupPolicies selects the active duplicate checks in evaluation order.
	// Known values: roll, ip, device, name-roll-day.
	DupPolicies []string
	// FlagDuplicates downgrades a duplicate match from a hard reject to a
	// flagged-but-accepted record.
	FlagDuplicates bool
	// RejectVPN turns the advisory network classification into a hard reject.
	RejectVPN bool

	// DatabaseURL enables the Postgres audit store when set.
	DatabaseURL string

	UpstreamReadTimeout  time.Duration
	UpstreamWriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                 envOr("ROLLCALL_ADDR", ":8080"),
		MetricsAddr:          envOr("ROLLCALL_METRICS_ADDR", ":9090"),
		JWTSigningKey:        envOr("ROLLCALL_JWT_SIGNING_KEY", "dev-secret-change-in-production"),
		RedisURL:             envOr("ROLLCALL_REDIS_URL", "redis://localhost:6379/0"),
		LedgerBaseURL:        os.Getenv("ROLLCALL_LEDGER_URL"),
		LedgerToken:          os.Getenv("ROLLCALL_LEDGER_TOKEN"),
		ReputationURL:        os.Getenv("ROLLCALL_REPUTATION_URL"),
		ReputationToken:      os.Getenv("ROLLCALL_REPUTATION_TOKEN"),
		GeofenceRadiusM:      envFloatOr("ROLLCALL_GEOFENCE_RADIUS_M", 250),
		CGNATRanges:          envListOr("ROLLCALL_CGNAT_RANGES", []string{"100.64.0.0/10"}),
		VPNRangesFile:        os.Getenv("ROLLCALL_VPN_RANGES_FILE"),
		DupPolicies:          envListOr("ROLLCALL_DUP_POLICIES", []string{"roll"}),
		FlagDuplicates:       os.Getenv("ROLLCALL_FLAG_DUPLICATES") == "true",
		RejectVPN:            os.Getenv("ROLLCALL_REJECT_VPN") == "true",
		DatabaseURL:          os.Getenv("ROLLCALL_DATABASE_URL"),
		UpstreamReadTimeout:  envDurationOr("ROLLCALL_UPSTREAM_READ_TIMEOUT", 3*time.Second),
		UpstreamWriteTimeout: envDurationOr("ROLLCALL_UPSTREAM_WRITE_TIMEOUT", 10*time.Second),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envListOr(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := stringsutil.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return fallback
	}
	return out
}
