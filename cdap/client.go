package cdap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kbukum/pipestudio/component"
	"github.com/kbukum/pipestudio/config"
	"github.com/kbukum/pipestudio/httpclient"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/version"
)

// ServiceName labels errors and log lines of this client.
const ServiceName = "cdap"

// Client talks to one backend instance.
type Client struct {
	http    *httpclient.Client
	baseURL string
	log     *logger.Logger
}

// New builds a client from the backend section of the configuration.
func New(cfg config.BackendConfig) (*Client, error) {
	hc := httpclient.Config{
		Name:    ServiceName,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    httpclient.BearerAuth(cfg.Token),
		Headers: map[string]string{"User-Agent": version.UserAgent()},
	}
	if cfg.CircuitBreaker.Enabled {
		cb := httpclient.DefaultCircuitBreakerConfig(ServiceName)
		if cfg.CircuitBreaker.MaxFailures > 0 {
			cb.MaxFailures = cfg.CircuitBreaker.MaxFailures
		}
		if cfg.CircuitBreaker.Timeout > 0 {
			cb.Timeout = cfg.CircuitBreaker.Timeout
		}
		hc.CircuitBreaker = cb
	}
	c, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("cdap: create http client: %w", err)
	}
	return &Client{
		http:    c,
		baseURL: cfg.BaseURL,
		log:     logger.Get(ServiceName),
	}, nil
}

// Ping checks that the backend answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/ping"})
	if err != nil {
		return httpclient.ToAppError(err, ServiceName)
	}
	return nil
}

// Component wraps the client for the lifecycle registry. Start fails when
// the backend is unreachable.
func (c *Client) Component() component.Component {
	return &component.Func{
		ComponentName: ServiceName,
		OnStart:       c.Ping,
		Check:         c.Ping,
		Desc: component.Description{
			Name:    "CDAP backend",
			Type:    "rest",
			Details: c.baseURL + " (breaker " + c.http.BreakerState().String() + ")",
		},
	}
}

func namespacePath(ns string) string {
	return "/v3/namespaces/" + url.PathEscape(ns)
}
