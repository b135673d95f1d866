package amrsim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/proxy"
)

// ObstacleSignal is the obstacle's on/off state as seen by the simulation.
// It is the OR of a manual override and a remotely polled flag. Producers
// write their flag from any goroutine; the simulation reads Active once per
// tick.
type ObstacleSignal struct {
	manual atomic.Bool
	remote atomic.Bool
}

// SetManual sets the manual override.
func (s *ObstacleSignal) SetManual(v bool) { s.manual.Store(v) }

// SetRemote sets the polled flag.
func (s *ObstacleSignal) SetRemote(v bool) { s.remote.Store(v) }

// Active reports whether either source has the obstacle switched on.
func (s *ObstacleSignal) Active() bool {
	return s.manual.Load() || s.remote.Load()
}

// DefaultPollInterval is used when Poller.Interval is zero.
const DefaultPollInterval = time.Second

// Poller keeps the remote flag of an ObstacleSignal in sync with an HTTP
// endpoint that answers "1" while the obstacle is present.
type Poller struct {
	Endpoint string
	Interval time.Duration
	Client   *http.Client
	Logger   *slog.Logger
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context, sig *ObstacleSignal) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	p.PollOnce(ctx, sig)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.PollOnce(ctx, sig)
		}
	}
}

// PollOnce fetches the endpoint once and stores the result. Any failure
// counts as "no obstacle".
func (p *Poller) PollOnce(ctx context.Context, sig *ObstacleSignal) bool {
	active, err := p.fetch(ctx)
	if err != nil {
		p.logger().Warn("obstacle polling failed", "endpoint", p.Endpoint, "error", err)
		active = false
	}
	sig.SetRemote(active)
	return active
}

func (p *Poller) fetch(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Cache-Control", "no-store")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(body)) == "1", nil
}

func (p *Poller) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// NewHTTPClient returns a client for Poller. A non-empty proxyAddr
// such as "socks5://host:port" routes requests through that SOCKS5
// proxy. "socks" is accepted as an alias of "socks5".
func NewHTTPClient(proxyAddr string, timeout time.Duration) (*http.Client, error) {
	direct := &net.Dialer{Timeout: timeout}
	var dialer proxy.ContextDialer = direct

	if proxyAddr != "" {
		u, err := url.Parse(proxyAddr)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", proxyAddr, err)
		}
		if u.Scheme == "socks" {
			u.Scheme = "socks5"
		}
		d, err := proxy.FromURL(u, direct)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", proxyAddr, err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("proxy %q: dialer does not support contexts", proxyAddr)
		}
		dialer = cd
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: dialer.DialContext,
		},
	}, nil
}
