package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits one route. Route is the chi route pattern and Method the HTTP
// method; Limit requests are allowed per Window with Burst capacity.
type Rule struct {
	Method string
	Route  string
	Limit  int
	Window time.Duration
	Burst  int
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	// DefaultLimit applies to routes without a rule; 0 leaves them unlimited.
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	Rules           []Rule
}

// DefaultRules limits submissions, which run the full analysis.
func DefaultRules() []Rule {
	return []Rule{
		{Method: "POST", Route: "/submit-experience", Limit: 30, Window: time.Minute, Burst: 5},
	}
}

// LoadConfig reads RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	submit := DefaultRules()[0]
	submit.Limit = getEnvInt("RATE_LIMIT_SUBMIT_LIMIT", submit.Limit)
	submit.Window = getEnvDuration("RATE_LIMIT_SUBMIT_WINDOW", submit.Window)
	submit.Burst = getEnvInt("RATE_LIMIT_SUBMIT_BURST", submit.Burst)

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 0),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         getEnvDuration("RATE_LIMIT_IDLE_TTL", time.Hour),
		Whitelist:       parseIPList(getEnvString("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(getEnvString("RATE_LIMIT_BLACKLIST", "")),
		Rules:           []Rule{submit},
	}
}

// rule returns the rule for method and route, falling back to the default.
// The boolean is false when the route is unlimited.
func (c *Config) rule(method, route string) (Rule, bool) {
	for _, r := range c.Rules {
		if r.Method == method && r.Route == route {
			return r, r.Limit > 0
		}
	}
	if c.DefaultLimit <= 0 {
		return Rule{}, false
	}
	return Rule{Method: method, Route: route, Limit: c.DefaultLimit, Window: c.DefaultWindow}, true
}

func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
