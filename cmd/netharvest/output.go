package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/EternisAI/netharvest/internal/credential"
	"github.com/EternisAI/netharvest/internal/pipeline"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"

	maskedPassword = "********"
)

func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(s); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text, json or yaml)", s)
	}
}

func encode(w io.Writer, v any, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func renderReport(w io.Writer, r *pipeline.Report, format string) error {
	if format != formatText {
		return encode(w, r, format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run:\t%s\n", r.RunID)
	fmt.Fprintf(tw, "Phases:\t%s\n", r.Phases)
	fmt.Fprintf(tw, "Outcome:\t%s\n", r.Outcome)
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration.Round(time.Millisecond))
	if r.Error != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", r.Error)
	}
	if r.RemoteEnabled {
		remote := fmt.Sprintf("%d", r.Fetched)
		if r.RemoteFailed {
			remote = "unavailable (" + r.FetchError + ")"
		}
		fmt.Fprintf(tw, "Remote:\t%s\n", remote)
	}
	fmt.Fprintf(tw, "Local:\t%d (%d malformed)\n", r.Local, len(r.LocalErrors))
	fmt.Fprintf(tw, "Canonical:\t%d\n", r.Merged)
	fmt.Fprintf(tw, "Pending:\t%d\n", r.Delta)
	if r.Interface != "" {
		fmt.Fprintf(tw, "Interface:\t%s\n", r.Interface)
	}
	fmt.Fprintf(tw, "Provisioned:\t%d (added %d, updated %d)\n", r.Provisioned, r.Added, r.Updated)
	fmt.Fprintf(tw, "Failed:\t%d\n", r.Failed)
	fmt.Fprintf(tw, "Rejected:\t%d\n", r.Rejected)
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, item := range r.Items {
		if item.Error == "" {
			continue
		}
		fmt.Fprintf(w, "  %s %s: %s\n", item.Status, item.SSID, item.Error)
	}
	return nil
}

type deltaView struct {
	Pending     int      `json:"pending" yaml:"pending"`
	Credentials []string `json:"credentials" yaml:"credentials"`
}

func renderDelta(w io.Writer, delta credential.Set, format string, showSecrets bool) error {
	entries := delta.Sorted()
	if entries == nil {
		entries = []string{}
	}
	if !showSecrets {
		for i, e := range entries {
			entries[i] = maskPassword(e)
		}
	}

	if format != formatText {
		return encode(w, deltaView{Pending: len(entries), Credentials: entries}, format)
	}

	for _, e := range entries {
		fmt.Fprintln(w, e)
	}
	fmt.Fprintf(w, "%d pending\n", len(entries))
	return nil
}

// maskPassword hides everything after the first separator.
func maskPassword(entry string) string {
	ssid, _, found := strings.Cut(entry, credential.Separator)
	if !found {
		return maskedPassword
	}
	return ssid + credential.Separator + maskedPassword
}
