package provisioner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/EternisAI/netharvest/internal/credential"
)

// DefaultItemDelay is the pause between two consecutive items.
const DefaultItemDelay = time.Second

// ErrNoInterface aborts the whole phase before anything is applied.
var ErrNoInterface = errors.New("no wireless interface to provision against")

// NetworkConfigurator is the host network configuration tool.
type NetworkConfigurator interface {
	WirelessDevice(ctx context.Context) (string, error)
	ConnectionExists(ctx context.Context, name string) (bool, error)
	AddConnection(ctx context.Context, name, iface, ssid string) error
	SetSecurity(ctx context.Context, name, psk string) error
	EnableAutoconnect(ctx context.Context, name string) error
}

type Config struct {
	ItemDelay time.Duration `mapstructure:"item_delay"`
}

type Status string

const (
	StatusAdded    Status = "added"
	StatusUpdated  Status = "updated"
	StatusFailed   Status = "failed"
	StatusRejected Status = "rejected"
)

type ItemResult struct {
	SSID   string `json:"ssid" yaml:"ssid"`
	Status Status `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

type Result struct {
	Interface string
	Items     []ItemResult
	Succeeded credential.Set
	Added     int
	Updated   int
	Failed    int
	Rejected  int
}

func (r *Result) record(c credential.Credential, status Status, err error) {
	item := ItemResult{SSID: c.SSID, Status: status}
	if err != nil {
		item.Error = err.Error()
	}
	r.Items = append(r.Items, item)

	switch status {
	case StatusAdded:
		r.Added++
		r.Succeeded.Add(c.Canonical())
	case StatusUpdated:
		r.Updated++
		r.Succeeded.Add(c.Canonical())
	case StatusFailed:
		r.Failed++
	case StatusRejected:
		r.Rejected++
	}
}

type Provisioner struct {
	network NetworkConfigurator
	delay   time.Duration
}

func NewProvisioner(network NetworkConfigurator, config Config) *Provisioner {
	delay := config.ItemDelay
	if delay < 0 {
		delay = 0
	}
	return &Provisioner{
		network: network,
		delay:   delay,
	}
}

// Apply provisions every credential in delta, in sorted order. A failing item
// is recorded and skipped; only the wireless interface lookup can fail the
// whole pass.
func (p *Provisioner) Apply(ctx context.Context, delta credential.Set) (*Result, error) {
	iface, err := p.network.WirelessDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoInterface, err)
	}
	slog.Info("Provisioning credentials", "interface", iface, "count", delta.Len())

	result := &Result{
		Interface: iface,
		Succeeded: credential.NewSet(),
	}

	items := delta.Sorted()
	for i, canonical := range items {
		if i > 0 {
			if err := sleep(ctx, p.delay); err != nil {
				return result, err
			}
		}

		c, err := credential.ParseCanonical(canonical)
		if err == nil {
			err = c.Validate()
		}
		if err != nil {
			if c.SSID == "" {
				c.SSID, _, _ = strings.Cut(canonical, credential.Separator)
			}
			slog.Warn("Rejected credential", "ssid", c.SSID, "error", err)
			result.record(c, StatusRejected, err)
			continue
		}

		status, err := p.applyOne(ctx, iface, c)
		if err != nil {
			slog.Error("Failed to provision credential", "ssid", c.SSID, "error", err)
			result.record(c, StatusFailed, err)
			continue
		}
		slog.Info("Credential provisioned", "ssid", c.SSID, "action", status)
		result.record(c, status, nil)
	}

	return result, nil
}

func (p *Provisioner) applyOne(ctx context.Context, iface string, c credential.Credential) (Status, error) {
	exists, err := p.network.ConnectionExists(ctx, c.SSID)
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to list connections: %w", err)
	}

	status := StatusUpdated
	if !exists {
		status = StatusAdded
		if err := p.network.AddConnection(ctx, c.SSID, iface, c.SSID); err != nil {
			return StatusFailed, fmt.Errorf("failed to add connection: %w", err)
		}
	}
	if err := p.network.SetSecurity(ctx, c.SSID, c.Password); err != nil {
		return StatusFailed, fmt.Errorf("failed to set security: %w", err)
	}
	if err := p.network.EnableAutoconnect(ctx, c.SSID); err != nil {
		return StatusFailed, fmt.Errorf("failed to enable autoconnect: %w", err)
	}
	return status, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
