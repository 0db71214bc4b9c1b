package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/scrapli/scrapligo/driver/network"
	"github.com/scrapli/scrapligo/driver/options"
	"github.com/scrapli/scrapligo/platform"
	"github.com/scrapli/scrapligo/response"
	"github.com/scrapli/scrapligo/util"

	cmdutil "github.com/newtron-network/cmdref/pkg/util"
)

// ScrapliTransport drives an interactive CLI session through scrapligo.
// Unlike SSHTransport it keeps one channel open and lets the platform
// driver handle prompts and configuration mode.
type ScrapliTransport struct {
	host   string
	driver *network.Driver
	mu     sync.Mutex
}

// DialScrapli opens a scrapligo network driver for cfg.Platform.
func DialScrapli(ctx context.Context, cfg Config) (*ScrapliTransport, error) {
	if cfg.Platform == "" {
		return nil, fmt.Errorf("scrapli: platform is required: %w", cmdutil.ErrInvalidConfig)
	}

	opts := []util.Option{
		options.WithAuthNoStrictKey(),
		options.WithAuthUsername(cfg.Username),
		options.WithAuthPassword(cfg.Password),
		options.WithTimeoutOps(cfg.timeout()),
	}
	if cfg.Port != 0 {
		opts = append(opts, options.WithPort(cfg.Port))
	}

	p, err := platform.NewPlatform(cfg.Platform, cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create platform failed: %w", err)
	}
	driver, err := p.GetNetworkDriver()
	if err != nil {
		return nil, fmt.Errorf("get network driver failed: %w", err)
	}

	err = retry(ctx, cfg.Retries, "scrapli open "+cfg.Host, driver.Open)
	if err != nil {
		return nil, fmt.Errorf("open connection failed: %w", err)
	}
	cmdutil.WithDevice(cfg.Host).Debugf("scrapli connected (%s)", cfg.Platform)
	return &ScrapliTransport{host: cfg.Host, driver: driver}, nil
}

// Query sends a show command.
func (t *ScrapliTransport) Query(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.driver == nil {
		return "", cmdutil.ErrNotConnected
	}

	r, err := t.driver.SendCommand(command)
	if err != nil {
		return "", fmt.Errorf("send command failed: %w", err)
	}
	if err := responseError(r); err != nil {
		return r.Result, err
	}
	return r.Result, checkOutput(command, r.Result)
}

// Configure sends commands in configuration mode.
func (t *ScrapliTransport) Configure(ctx context.Context, commands []string) error {
	if len(commands) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.driver == nil {
		return cmdutil.ErrNotConnected
	}

	mr, err := t.driver.SendConfigs(commands)
	if err != nil {
		return fmt.Errorf("send configs failed: %w", err)
	}
	return configsError(mr)
}

// Close closes the driver.
func (t *ScrapliTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.driver == nil {
		return nil
	}
	err := t.driver.Close()
	t.driver = nil
	return err
}

func responseError(r *response.Response) error {
	if r.Failed == nil {
		return nil
	}
	return &CLIError{Command: r.Input, Output: r.Result}
}

// configsError returns the first rejected command of a configuration batch.
func configsError(mr *response.MultiResponse) error {
	for _, r := range mr.Responses {
		if err := responseError(r); err != nil {
			return err
		}
		if err := checkOutput(r.Input, r.Result); err != nil {
			return err
		}
	}
	return nil
}
