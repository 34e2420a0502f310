package collector

import (
	"fmt"
	"os"

	"github.com/qepting91/burneddit/internal/domain"
)

const defaultUserAgent = "burneddit"

// NewCollector selects the correct implementation based on the MODE
func NewCollector() (domain.Opener, error) {
	mode := os.Getenv("COLLECTOR_MODE")
	userAgent := os.Getenv("REDDIT_USER_AGENT")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	switch mode {
	case "", "api":
		return NewAPIClient(userAgent, nil), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api' or 'mock')", mode)
	}
}
