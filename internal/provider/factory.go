package provider

import (
	"fmt"
	"time"

	"github.com/LeMaitre4523/quelquechose-v6/internal/config"
)

const (
	TypeGateway = "pronote-gateway"
	TypeMemory  = "memory"
)

// NewClientFromConfig creates a Client based on the configured provider
// type. "memory" builds an empty in-memory provider; "pronote-gateway"
// (default) builds a client for the REST gateway.
func NewClientFromConfig(cfg config.ProviderConfig) (Client, error) {
	switch cfg.Type {
	case TypeMemory:
		return NewMemoryClient("memory-session", schoolYearFirstDate(time.Now())), nil
	case TypeGateway, "":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("provider base URL is required for the %s provider", TypeGateway)
		}
		return NewGatewayClient(cfg.BaseURL, cfg.Token, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)", cfg.Type, TypeGateway, TypeMemory)
	}
}

// schoolYearFirstDate returns September 1st of the current school year.
func schoolYearFirstDate(now time.Time) time.Time {
	year := now.Year()
	if now.Month() < time.September {
		year--
	}
	return time.Date(year, time.September, 1, 0, 0, 0, 0, time.Local)
}
