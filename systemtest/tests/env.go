package tests

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/EternisAI/netharvest/internal/fetcher"
	"github.com/EternisAI/netharvest/internal/nmcli"
	"github.com/EternisAI/netharvest/internal/notify"
	"github.com/EternisAI/netharvest/internal/pipeline"
	"github.com/EternisAI/netharvest/internal/provisioner"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	remoteCookie = "cookie-value"
	remoteDump   = "aa:bb:net1:password1\ncc:dd:net2:password2\ngarbage\n"
	localList    = "cafe:guestpass\nbroken-line\nnet1:password1\n"
)

// fakeNmcli logs its argument vector and reports a single wifi device.
const fakeNmcli = `#!/bin/sh
printf '%%s\n' "$*" >> %q
case "$*" in
  *"device status"*) printf 'lo:loopback\nwlan0:wifi\n' ;;
esac
`

// Env is a full pipeline wired to a stand-in remote source, a webhook sink and
// a shell-script nmcli executed through the real process executor.
type Env struct {
	DataDir  string
	NmcliLog string
	Paths    pipeline.PathsConfig
	Pipeline *pipeline.Pipeline

	remoteDown atomic.Bool

	mu      sync.Mutex
	uploads []string
	cookies []string
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	dir := t.TempDir()

	env := &Env{
		DataDir:  dir,
		NmcliLog: filepath.Join(dir, "nmcli.log"),
		Paths: pipeline.PathsConfig{
			DataDir:   dir,
			LocalList: "my-cracked.txt",
			Canonical: "networks",
			Processed: "networks_done",
			RawCache:  "remote.txt",
		},
	}

	nmcliPath := filepath.Join(dir, "nmcli")
	script := fmt.Sprintf(fakeNmcli, env.NmcliLog)
	require.NoError(t, os.WriteFile(nmcliPath, []byte(script), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my-cracked.txt"), []byte(localList), 0o600))

	remote := httptest.NewServer(env.remoteEngine())
	t.Cleanup(remote.Close)
	sink := httptest.NewServer(env.sinkEngine())
	t.Cleanup(sink.Close)

	network := nmcli.NewClient(&nmcli.NativeExecutor{}, nmcli.Config{Path: nmcliPath})
	env.Pipeline = pipeline.NewPipeline(env.Paths, pipeline.Deps{
		Fetcher: fetcher.NewFetcher(fetcher.Config{
			URL:   remote.URL + "/?api&dl=1",
			Token: remoteCookie,
		}, filepath.Join(dir, "remote.txt")),
		Provisioner: provisioner.NewProvisioner(network, provisioner.Config{}),
		Notifier:    notify.NewNotifier(notify.Config{WebhookURL: sink.URL + "/webhook"}),
	})
	return env
}

func (e *Env) remoteEngine() *gin.Engine {
	engine := gin.New()
	engine.GET("/", func(c *gin.Context) {
		if e.remoteDown.Load() {
			c.Status(http.StatusBadGateway)
			return
		}
		cookie, _ := c.Cookie("key")
		e.mu.Lock()
		e.cookies = append(e.cookies, cookie)
		e.mu.Unlock()
		c.String(http.StatusOK, remoteDump)
	})
	return engine
}

func (e *Env) sinkEngine() *gin.Engine {
	engine := gin.New()
	engine.POST("/webhook", func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)

		e.mu.Lock()
		e.uploads = append(e.uploads, string(body))
		e.mu.Unlock()
		c.Status(http.StatusNoContent)
	})
	return engine
}

func (e *Env) Uploads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.uploads...)
}

func (e *Env) Cookies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.cookies...)
}

func (e *Env) NmcliCalls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(e.NmcliLog)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return splitLines(string(data))
}

func (e *Env) ReadFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.DataDir, name))
	require.NoError(t, err)
	return string(data)
}
