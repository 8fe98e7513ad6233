package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	internalhttp "github.com/EternisAI/netharvest/internal/api/http"
	"github.com/EternisAI/netharvest/internal/fetcher"
	"github.com/EternisAI/netharvest/internal/nmcli"
	"github.com/EternisAI/netharvest/internal/notify"
	"github.com/EternisAI/netharvest/internal/pipeline"
	"github.com/EternisAI/netharvest/internal/provisioner"
	"github.com/EternisAI/netharvest/internal/scheduler"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log       LogConfig            `mapstructure:"log"`
	Remote    fetcher.Config       `mapstructure:"remote"`
	Paths     pipeline.PathsConfig `mapstructure:"paths"`
	Provision ProvisionConfig      `mapstructure:"provision"`
	Notify    notify.Config        `mapstructure:"notify"`
	Schedule  scheduler.Config     `mapstructure:"schedule"`
	Http      internalhttp.Config  `mapstructure:"http"`
}

type ProvisionConfig struct {
	NmcliPath      string        `mapstructure:"nmcli_path"`
	UseSudo        bool          `mapstructure:"use_sudo"`
	ItemDelay      time.Duration `mapstructure:"item_delay"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

func (c ProvisionConfig) nmcliConfig() nmcli.Config {
	return nmcli.Config{
		Path:           c.NmcliPath,
		UseSudo:        c.UseSudo,
		CommandTimeout: c.CommandTimeout,
	}
}

func (c ProvisionConfig) provisionerConfig() provisioner.Config {
	return provisioner.Config{ItemDelay: c.ItemDelay}
}

const redacted = "********"

var config Config

func setDefaults() {
	viper.SetDefault("log.level", LOG_LEVEL_INFO)

	viper.SetDefault("remote.url", "")
	viper.SetDefault("remote.token", "")
	viper.SetDefault("remote.timeout", 30*time.Second)
	viper.SetDefault("remote.retry_attempts", 3)
	viper.SetDefault("remote.retry_delay", 2*time.Second)
	viper.SetDefault("remote.max_body_bytes", 64<<20)

	viper.SetDefault("paths.data_dir", ".")
	viper.SetDefault("paths.local_list", "my-cracked.txt")
	viper.SetDefault("paths.canonical", "networks")
	viper.SetDefault("paths.processed", "networks_done")
	viper.SetDefault("paths.raw_cache", "")

	viper.SetDefault("provision.nmcli_path", "nmcli")
	viper.SetDefault("provision.use_sudo", false)
	viper.SetDefault("provision.item_delay", provisioner.DefaultItemDelay)
	viper.SetDefault("provision.command_timeout", 30*time.Second)

	viper.SetDefault("notify.webhook_url", "")
	viper.SetDefault("notify.success_status", 204)
	viper.SetDefault("notify.timeout", 30*time.Second)

	viper.SetDefault("schedule.interval", time.Hour)

	viper.SetDefault("http.port", 8080)
	viper.SetDefault("http.admin_api_key", "")
}

// InitConfig loads .env, the optional application.yaml and the environment
// into config. An explicit cfgFile must exist; the default search may find
// nothing.
func InitConfig(cfgFile string) error {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("application")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./cmd/netharvest")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "netharvest"))
		}
	}
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("remote.token", "REMOTE_TOKEN", "WPA_SEC_COOKIE", "COOKIE_VALUE")
	_ = viper.BindEnv("remote.url", "REMOTE_URL", "WPA_SEC_URL", "URL")
	_ = viper.BindEnv("notify.webhook_url", "NOTIFY_WEBHOOK_URL", "DISCORD_WEBHOOK_URL")
	_ = viper.BindEnv("paths.data_dir", "PATHS_DATA_DIR", "OUTPUT_DIR")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	initLogger(config.Log.Level)

	if used := viper.ConfigFileUsed(); used != "" {
		slog.Debug("Config file loaded", "path", used)
	}

	if strings.ToUpper(config.Log.Level) == LOG_LEVEL_DEBUG {
		configJSON, err := json.MarshalIndent(config.redacted(), "", "  ")
		if err == nil {
			fmt.Fprintln(logOutput, "Config loaded:")
			fmt.Fprintln(logOutput, string(configJSON))
		}
	}
	return nil
}

// redacted returns a copy safe to print.
func (c Config) redacted() Config {
	if c.Remote.Token != "" {
		c.Remote.Token = redacted
	}
	if c.Notify.WebhookURL != "" {
		c.Notify.WebhookURL = redacted
	}
	if c.Http.AdminAPIKey != "" {
		c.Http.AdminAPIKey = redacted
	}
	return c
}
