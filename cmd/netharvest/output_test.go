package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/EternisAI/netharvest/internal/credential"
	"github.com/EternisAI/netharvest/internal/pipeline"
	"github.com/EternisAI/netharvest/internal/provisioner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"text", "JSON", "yaml"} {
		_, err := parseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := parseFormat("toml")
	assert.Error(t, err)
}

func TestRenderReport_Text(t *testing.T) {
	var buf bytes.Buffer
	r := &pipeline.Report{
		RunID:         "run-1",
		Phases:        "harvest+provision",
		Outcome:       pipeline.OutcomePartial,
		Duration:      1500 * time.Millisecond,
		RemoteEnabled: true,
		RemoteFailed:  true,
		FetchError:    "connection refused",
		Provisioned:   1,
		Added:         1,
		Failed:        1,
		Items: []provisioner.ItemResult{
			{SSID: "cafe", Status: provisioner.StatusAdded},
			{SSID: "home", Status: provisioner.StatusFailed, Error: "nmcli exited 10"},
		},
	}

	require.NoError(t, renderReport(&buf, r, formatText))
	out := buf.String()

	assert.Contains(t, out, "partial-success")
	assert.Contains(t, out, "unavailable (connection refused)")
	assert.Contains(t, out, "failed home: nmcli exited 10")
	assert.NotContains(t, out, "added cafe")
}

func TestRenderReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, &pipeline.Report{RunID: "run-2", Outcome: pipeline.OutcomeNoDelta}, formatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-2", decoded["run_id"])
	assert.Equal(t, "no-delta", decoded["outcome"])
}

func TestRenderDelta_JSONMasked(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderDelta(&buf, credential.NewSet("b:password2", "a:password1"), formatJSON, false))

	assert.JSONEq(t, `{"pending":2,"credentials":["a:********","b:********"]}`, buf.String())
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "cafe:********", maskPassword("cafe:guestpass"))
	assert.Equal(t, "********", maskPassword("no-separator"))
}
