package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/EternisAI/netharvest/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvestAndProvision(t *testing.T, env *Env) {
	report, err := env.Pipeline.Run(context.Background(), pipeline.PhaseAll)
	require.NoError(t, err)

	assert.Equal(t, pipeline.OutcomeFullSuccess, report.Outcome)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Local)
	assert.Len(t, report.LocalErrors, 1)
	assert.Equal(t, 3, report.Merged)
	assert.Equal(t, 3, report.Provisioned)
	assert.Equal(t, "wlan0", report.Interface)

	want := "cafe:guestpass\nnet1:password1\nnet2:password2\n"
	assert.Equal(t, want, env.ReadFile(t, "networks"))
	assert.Equal(t, want, env.ReadFile(t, "networks_done"))
	assert.Equal(t, remoteDump, env.ReadFile(t, "remote.txt"))

	assert.Equal(t, []string{remoteCookie}, env.Cookies())
	assert.Equal(t, []string{want}, env.Uploads())

	calls := env.NmcliCalls(t)
	assert.Contains(t, calls, "-t -f DEVICE,TYPE device status")
	assert.Contains(t, calls, "connection add type wifi ifname wlan0 con-name cafe ssid cafe")
	assert.Contains(t, calls, "connection modify id net2 wifi-sec.key-mgmt wpa-psk wifi-sec.psk password2")
	assert.Contains(t, calls, "connection modify id net1 connection.autoconnect yes")
}

func TestRerunHasNoDelta(t *testing.T, env *Env) {
	before := len(env.NmcliCalls(t))

	report, err := env.Pipeline.Run(context.Background(), pipeline.PhaseAll)
	require.NoError(t, err)

	assert.Equal(t, pipeline.OutcomeNoDelta, report.Outcome)
	assert.Equal(t, 0, report.Delta)
	assert.Len(t, env.NmcliCalls(t), before, "no nmcli calls expected without a delta")
}

func TestRemoteOutage(t *testing.T, env *Env) {
	env.remoteDown.Store(true)
	defer env.remoteDown.Store(false)

	report, err := env.Pipeline.Run(context.Background(), pipeline.PhaseAll)
	require.NoError(t, err)

	assert.True(t, report.RemoteFailed)
	assert.Contains(t, report.FetchError, "502")
	assert.Equal(t, pipeline.OutcomeLocalOnly, report.Outcome)

	// Only the local list feeds the canonical set; processed keeps history.
	assert.Equal(t, "cafe:guestpass\nnet1:password1\n", env.ReadFile(t, "networks"))
	assert.Equal(t, "cafe:guestpass\nnet1:password1\nnet2:password2\n", env.ReadFile(t, "networks_done"))
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
