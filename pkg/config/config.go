package config

import (
	"flag"
	"fmt"
)

type Config struct {
	PerCustomerMinutes *int
	ServiceWindowSize  *int

	NotifyStatusIntervalSeconds *int
	SettingsRefreshSeconds      *int

	PingIntervalSeconds  *int
	AdminTokenTTLMinutes *int
}

var CFG = &Config{
	PerCustomerMinutes:          flag.Int("per-customer-minutes", 5, "Default minutes spent serving one customer. Used for wait estimates until overridden by the settings hash in redis."),
	ServiceWindowSize:           flag.Int("service-window-size", 20, "The size of sliding window for calculating average service time of a ticket."),
	NotifyStatusIntervalSeconds: flag.Int("notify-status-interval-seconds", 15, "Interval to push queue status to websocket clients even if nothing changed."),
	SettingsRefreshSeconds:      flag.Int("settings-refresh-seconds", 10, "Interval to reload queue settings from redis."),
	PingIntervalSeconds:         flag.Int("ping-interval-seconds", 30, "Send pings to websocket peer with this interval."),
	AdminTokenTTLMinutes:        flag.Int("admin-token-ttl-minutes", 720, "Lifetime of the admin session cookie."),
}

func ProvideConfig() (*Config, error) {
	if !flag.Parsed() {
		flag.Parse()
	}

	if err := CFG.Validate(); err != nil {
		return nil, err
	}
	return CFG, nil
}

// Validate rejects values that would stall or crash a worker, e.g. a
// ticker built from a zero interval.
func (c *Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"service-window-size", *c.ServiceWindowSize},
		{"notify-status-interval-seconds", *c.NotifyStatusIntervalSeconds},
		{"settings-refresh-seconds", *c.SettingsRefreshSeconds},
		{"ping-interval-seconds", *c.PingIntervalSeconds},
		{"admin-token-ttl-minutes", *c.AdminTokenTTLMinutes},
	}

	for _, check := range positive {
		if check.value <= 0 {
			return fmt.Errorf("invalid --%v[%v]: must be positive", check.name, check.value)
		}
	}

	if *c.PerCustomerMinutes < 0 {
		return fmt.Errorf("invalid --per-customer-minutes[%v]: must not be negative", *c.PerCustomerMinutes)
	}
	return nil
}
