// Package nmcli drives NetworkManager's command line client.
package nmcli

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

const (
	defaultBinary  = "nmcli"
	defaultTimeout = 15 * time.Second

	typeWifi   = "wifi"
	keyMgmtWPA = "wpa-psk"
	sudoBinary = "sudo"
)

var ErrNoWirelessDevice = errors.New("no wireless device found")

type Config struct {
	Path           string        `mapstructure:"nmcli_path"`
	UseSudo        bool          `mapstructure:"use_sudo"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

type Client struct {
	executor CommandExecutor
	binary   string
	useSudo  bool
	timeout  time.Duration
}

func NewClient(executor CommandExecutor, config Config) *Client {
	binary := config.Path
	if binary == "" {
		binary = defaultBinary
	}
	timeout := config.CommandTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		executor: executor,
		binary:   binary,
		useSudo:  config.UseSudo,
		timeout:  timeout,
	}
}

// run invokes nmcli with its own timeout. Values in secrets are scrubbed from
// any returned error.
func (c *Client) run(ctx context.Context, secrets []string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := c.binary
	if c.useSudo {
		args = append([]string{c.binary}, args...)
		name = sudoBinary
	}

	output, err := c.executor.Execute(ctx, name, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		return output, newCommandError(name, args, output, err, secrets)
	}
	return output, nil
}

// WirelessDevice returns the first device NetworkManager reports as wifi.
func (c *Client) WirelessDevice(ctx context.Context) (string, error) {
	output, err := c.run(ctx, nil, "-t", "-f", "DEVICE,TYPE", "device", "status")
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(output), "\n") {
		fields := splitTerse(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if fields[1] == typeWifi && fields[0] != "" {
			return fields[0], nil
		}
	}
	return "", ErrNoWirelessDevice
}

// ConnectionExists reports whether a connection profile named name exists.
func (c *Client) ConnectionExists(ctx context.Context, name string) (bool, error) {
	output, err := c.run(ctx, nil, "-t", "-f", "NAME", "connection", "show")
	if err != nil {
		return false, err
	}

	for _, line := range strings.Split(string(output), "\n") {
		fields := splitTerse(strings.TrimRight(line, "\r"))
		if len(fields) > 0 && fields[0] == name {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) AddConnection(ctx context.Context, name, iface, ssid string) error {
	_, err := c.run(ctx, nil,
		"connection", "add",
		"type", typeWifi,
		"ifname", iface,
		"con-name", name,
		"ssid", ssid)
	if err == nil {
		slog.Debug("Connection added", "name", name, "ifname", iface)
	}
	return err
}

// SetSecurity and EnableAutoconnect select the profile with the id keyword so
// an SSID such as "uuid" or a UUID-shaped string is always taken as a name.
func (c *Client) SetSecurity(ctx context.Context, name, psk string) error {
	_, err := c.run(ctx, []string{psk},
		"connection", "modify", "id", name,
		"wifi-sec.key-mgmt", keyMgmtWPA,
		"wifi-sec.psk", psk)
	return err
}

func (c *Client) EnableAutoconnect(ctx context.Context, name string) error {
	_, err := c.run(ctx, nil,
		"connection", "modify", "id", name,
		"connection.autoconnect", "yes")
	return err
}

// splitTerse splits one line of nmcli terse output on unescaped colons and
// removes the backslash escapes.
func splitTerse(line string) []string {
	if line == "" {
		return nil
	}
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, cur.String())
}
