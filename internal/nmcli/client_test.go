package nmcli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeExecutor struct {
	calls   []call
	outputs map[string]string
	fail    map[string]error
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	key := strings.Join(args, " ")
	for prefix, err := range f.fail {
		if strings.HasPrefix(key, prefix) {
			return []byte("Error: boom"), err
		}
	}
	return []byte(f.outputs[key]), nil
}

func TestWirelessDevice(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"-t -f DEVICE,TYPE device status": "eth0:ethernet\nlo:loopback\nwlan0:wifi\nwlan1:wifi\n",
	}}
	c := NewClient(exec, Config{})

	dev, err := c.WirelessDevice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wlan0", dev)
	assert.Equal(t, "nmcli", exec.calls[0].name)
}

func TestWirelessDeviceNone(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"-t -f DEVICE,TYPE device status": "eth0:ethernet\n",
	}}
	c := NewClient(exec, Config{})

	_, err := c.WirelessDevice(context.Background())
	assert.ErrorIs(t, err, ErrNoWirelessDevice)
}

func TestConnectionExistsExactMatch(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"-t -f NAME connection show": "Wired connection 1\nHomeNet-5G\nlab\\:net\n",
	}}
	c := NewClient(exec, Config{})

	ok, err := c.ConnectionExists(context.Background(), "HomeNet")
	require.NoError(t, err)
	assert.False(t, ok, "substring must not match")

	ok, err = c.ConnectionExists(context.Background(), "HomeNet-5G")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ConnectionExists(context.Background(), "lab:net")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddAndSecureArgumentVectors(t *testing.T) {
	exec := &fakeExecutor{}
	c := NewClient(exec, Config{UseSudo: true, Path: "/usr/bin/nmcli"})
	ctx := context.Background()

	ssid := `cafe"; rm -rf /`
	require.NoError(t, c.AddConnection(ctx, ssid, "wlan0", ssid))
	require.NoError(t, c.SetSecurity(ctx, ssid, "pass word$1"))
	require.NoError(t, c.EnableAutoconnect(ctx, ssid))

	require.Len(t, exec.calls, 3)
	for _, cl := range exec.calls {
		assert.Equal(t, "sudo", cl.name)
		assert.Equal(t, "/usr/bin/nmcli", cl.args[0])
	}
	assert.Equal(t, []string{"/usr/bin/nmcli", "connection", "add", "type", "wifi", "ifname", "wlan0", "con-name", ssid, "ssid", ssid}, exec.calls[0].args)
	assert.Equal(t, []string{"/usr/bin/nmcli", "connection", "modify", "id", ssid, "wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", "pass word$1"}, exec.calls[1].args)
	assert.Equal(t, []string{"/usr/bin/nmcli", "connection", "modify", "id", ssid, "connection.autoconnect", "yes"}, exec.calls[2].args)
}

func TestModifyTreatsKeywordSSIDAsName(t *testing.T) {
	for _, ssid := range []string{"uuid", "path", "id", "apath", "0b5f2c4e-8d7a-4c1e-9f3b-2a6d8e1c7b90"} {
		t.Run(ssid, func(t *testing.T) {
			exec := &fakeExecutor{}
			c := NewClient(exec, Config{})
			ctx := context.Background()

			require.NoError(t, c.SetSecurity(ctx, ssid, "password1"))
			require.NoError(t, c.EnableAutoconnect(ctx, ssid))

			require.Len(t, exec.calls, 2)
			for _, cl := range exec.calls {
				assert.Equal(t, []string{"connection", "modify", "id", ssid}, cl.args[:4])
			}
		})
	}
}

func TestSetSecurityRedactsSecret(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]error{"connection modify": errors.New("exit status 10")}}
	c := NewClient(exec, Config{})

	err := c.SetSecurity(context.Background(), "HomeNet", "topsecret99")
	require.Error(t, err)

	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.NotContains(t, err.Error(), "topsecret99")
	assert.Contains(t, err.Error(), "HomeNet")
	assert.Contains(t, err.Error(), "exit status 10")
}

type blockingExecutor struct{}

func (blockingExecutor) Execute(ctx context.Context, _ string, _ ...string) ([]byte, error) {
	<-ctx.Done()
	return nil, errors.New("signal: killed")
}

func TestCommandTimeout(t *testing.T) {
	c := NewClient(blockingExecutor{}, Config{CommandTimeout: 10 * time.Millisecond})

	err := c.EnableAutoconnect(context.Background(), "HomeNet")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSplitTerse(t *testing.T) {
	assert.Equal(t, []string{"wlan0", "wifi"}, splitTerse("wlan0:wifi"))
	assert.Equal(t, []string{"a:b", `c\d`}, splitTerse(`a\:b:c\\d`))
	assert.Nil(t, splitTerse(""))
}
