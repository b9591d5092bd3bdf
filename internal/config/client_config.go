package config

import (
	"strconv"
	"time"
)

const (
	requestTimeoutVar = "REQUEST_TIMEOUT"
	refreshPathVar    = "REFRESH_PATH"
	featuredCountVar  = "FEATURED_COUNT"
)

type Client struct{}

var _ ClientConfig = Client{}

// GetRequestTimeout parses REQUEST_TIMEOUT as a Go duration ("30s").
// Zero leaves the transport default in place.
func (Client) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(requestTimeoutVar, "0s"))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (Client) GetRefreshPath() string {
	return GetEnv(refreshPathVar, "/api/auth/refresh")
}

func (Client) GetFeaturedCount() int {
	n, err := strconv.Atoi(GetEnv(featuredCountVar, "6"))
	if err != nil || n <= 0 {
		return 6
	}
	return n
}
