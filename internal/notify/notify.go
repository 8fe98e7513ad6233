package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultSuccessStatus = http.StatusNoContent
	defaultTimeout       = 30 * time.Second
	formField            = "file"
)

type Config struct {
	WebhookURL    string        `mapstructure:"webhook_url"`
	SuccessStatus int           `mapstructure:"success_status"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Notifier forwards the canonical file to an external webhook as a multipart
// attachment.
type Notifier struct {
	config     Config
	httpClient *http.Client
}

func NewNotifier(config Config) *Notifier {
	if config.SuccessStatus == 0 {
		config.SuccessStatus = defaultSuccessStatus
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return &Notifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (n *Notifier) Enabled() bool {
	return n.config.WebhookURL != ""
}

// Send uploads the file at path. Any failure is returned for the caller to
// log; it never affects the outcome of a run.
func (n *Notifier) Send(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(formField, filepath.Base(path)+".txt")
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.WebhookURL, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != n.config.SuccessStatus {
		return fmt.Errorf("notification sink returned status %d, expected %d", resp.StatusCode, n.config.SuccessStatus)
	}

	slog.Info("Canonical set sent to notification sink", "bytes", len(data))
	return nil
}
