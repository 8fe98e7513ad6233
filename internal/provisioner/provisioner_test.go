package provisioner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EternisAI/netharvest/internal/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetwork struct {
	device      string
	deviceErr   error
	existing    map[string]bool
	failAdd     map[string]bool
	failSecure  map[string]bool
	added       []string
	secured     map[string]string
	autoconnect []string
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		device:     "wlan0",
		existing:   map[string]bool{},
		failAdd:    map[string]bool{},
		failSecure: map[string]bool{},
		secured:    map[string]string{},
	}
}

func (f *fakeNetwork) WirelessDevice(context.Context) (string, error) {
	if f.deviceErr != nil {
		return "", f.deviceErr
	}
	return f.device, nil
}

func (f *fakeNetwork) ConnectionExists(_ context.Context, name string) (bool, error) {
	return f.existing[name], nil
}

func (f *fakeNetwork) AddConnection(_ context.Context, name, iface, ssid string) error {
	if f.failAdd[name] {
		return errors.New("nmcli add failed")
	}
	f.added = append(f.added, name+"@"+iface+"="+ssid)
	f.existing[name] = true
	return nil
}

func (f *fakeNetwork) SetSecurity(_ context.Context, name, psk string) error {
	if f.failSecure[name] {
		return errors.New("nmcli modify failed")
	}
	f.secured[name] = psk
	return nil
}

func (f *fakeNetwork) EnableAutoconnect(_ context.Context, name string) error {
	f.autoconnect = append(f.autoconnect, name)
	return nil
}

func TestApplyAddsAndUpdates(t *testing.T) {
	net := newFakeNetwork()
	net.existing["bob"] = true
	p := NewProvisioner(net, Config{})

	result, err := p.Apply(context.Background(), credential.NewSet("alice:password1", "bob:password2"))
	require.NoError(t, err)

	assert.Equal(t, "wlan0", result.Interface)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []string{"alice@wlan0=alice"}, net.added)
	assert.Equal(t, map[string]string{"alice": "password1", "bob": "password2"}, net.secured)
	assert.Equal(t, []string{"alice", "bob"}, net.autoconnect)
	assert.Equal(t, []string{"alice:password1", "bob:password2"}, result.Succeeded.Sorted())
	assert.Equal(t, []ItemResult{
		{SSID: "alice", Status: StatusAdded},
		{SSID: "bob", Status: StatusUpdated},
	}, result.Items)
}

func TestApplyContinuesPastFailures(t *testing.T) {
	net := newFakeNetwork()
	net.failAdd["bob"] = true
	p := NewProvisioner(net, Config{})

	result, err := p.Apply(context.Background(), credential.NewSet("alice:password1", "bob:password2", "carol:password3"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"alice:password1", "carol:password3"}, result.Succeeded.Sorted())
	assert.False(t, result.Succeeded.Contains("bob:password2"))
	assert.Contains(t, result.Items[1].Error, "failed to add connection")
}

func TestApplySecurityFailureIsNotSuccess(t *testing.T) {
	net := newFakeNetwork()
	net.failSecure["alice"] = true
	p := NewProvisioner(net, Config{})

	result, err := p.Apply(context.Background(), credential.NewSet("alice:password1"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Succeeded.Len())
}

func TestApplyRejectsInvalidCredentials(t *testing.T) {
	net := newFakeNetwork()
	p := NewProvisioner(net, Config{})

	result, err := p.Apply(context.Background(), credential.NewSet("short:pw", "ok:password1", "x:y:z"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rejected)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, []string{"ok:password1"}, result.Succeeded.Sorted())
	for _, item := range result.Items {
		assert.NotContains(t, item.SSID, "pw")
	}
}

func TestApplyNoInterface(t *testing.T) {
	net := newFakeNetwork()
	net.deviceErr = errors.New("no wireless device found")
	p := NewProvisioner(net, Config{})

	result, err := p.Apply(context.Background(), credential.NewSet("alice:password1"))
	assert.ErrorIs(t, err, ErrNoInterface)
	assert.Nil(t, result)
	assert.Empty(t, net.added)
}

func TestApplyPacesItems(t *testing.T) {
	net := newFakeNetwork()
	p := NewProvisioner(net, Config{ItemDelay: 20 * time.Millisecond})

	start := time.Now()
	_, err := p.Apply(context.Background(), credential.NewSet("a:password1", "b:password2", "c:password3"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestApplyCancelledKeepsPartialResult(t *testing.T) {
	net := newFakeNetwork()
	p := NewProvisioner(net, Config{ItemDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result, err := p.Apply(ctx, credential.NewSet("a:password1", "b:password2"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, result)
	assert.Equal(t, []string{"a:password1"}, result.Succeeded.Sorted())
}
