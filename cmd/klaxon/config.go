package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/klaxon/internal/filter"
	"github.com/tinytelemetry/klaxon/internal/model"
)

const (
	defaultBindHost        = "127.0.0.1"
	defaultAPIPort         = 7777
	defaultSummaryInterval = int(model.DefaultSummaryInterval / time.Second)
	defaultRateLimit       = int(model.DefaultRateLimitWindow / time.Second)
	defaultMaxLineLength   = model.DefaultMaxLineLength
)

// errConfig marks configuration failures; they exit with code 2 before any
// streaming begins.
var errConfig = errors.New("configuration error")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errConfig}, args...)...)
}

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	WatchAll        bool   `mapstructure:"all"`
	Containers      string `mapstructure:"containers"`
	Since           string `mapstructure:"since"`
	ErrorPattern    string `mapstructure:"error-pattern"`
	IgnorePattern   string `mapstructure:"ignore-pattern"`
	SummaryInterval int    `mapstructure:"summary-interval"`
	RateLimit       int    `mapstructure:"rate-limit"`
	MaxLineLength   int    `mapstructure:"max-line-length"`
	DockerHost      string `mapstructure:"docker-host"`
	APIEnabled      bool   `mapstructure:"api-enabled"`
	APIPort         int    `mapstructure:"api-port"`
	APIAddr         string `mapstructure:"api-addr"`
	WebhookURL      string `mapstructure:"-"` // env only, never a flag
	ConfigPath      string `mapstructure:"-"`
}

// cliFlags mirrors the flag set so explicitly passed flags can override
// config-file and environment values.
type cliFlags struct {
	fs  *flag.FlagSet
	cfg appConfig
}

func newCLIFlags(name string) *cliFlags {
	f := &cliFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.BoolVar(&f.cfg.WatchAll, "all", false, "watch every running container")
	f.fs.StringVar(&f.cfg.Containers, "containers", "", "comma-separated container names to watch")
	f.fs.StringVar(&f.cfg.Since, "since", "", "start of log window: <N>[smhd] relative or an absolute timestamp")
	f.fs.StringVar(&f.cfg.ErrorPattern, "error-pattern", model.DefaultErrorPattern, "case-insensitive pattern marking error-like lines")
	f.fs.StringVar(&f.cfg.IgnorePattern, "ignore-pattern", model.DefaultIgnorePattern, "case-insensitive pattern for lines to drop (empty disables)")
	f.fs.IntVar(&f.cfg.SummaryInterval, "summary-interval", defaultSummaryInterval, "seconds between summary digests")
	f.fs.IntVar(&f.cfg.RateLimit, "rate-limit", defaultRateLimit, "seconds between immediate alerts for the same error class")
	f.fs.IntVar(&f.cfg.MaxLineLength, "max-line-length", defaultMaxLineLength, "max rendered webhook alert length")
	f.fs.StringVar(&f.cfg.DockerHost, "docker-host", "", "container runtime address (default: environment / local socket)")
	f.fs.BoolVar(&f.cfg.APIEnabled, "api-enabled", true, "serve the status API")
	f.fs.IntVar(&f.cfg.APIPort, "api-port", defaultAPIPort, "status API port")
	return f
}

// loadConfig layers defaults, an optional YAML config file, KLAXON_* env
// vars, and explicitly set CLI flags (highest precedence), then validates.
func loadConfig(configPath string, flags *cliFlags) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetEnvPrefix("KLAXON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("all", false)
	v.SetDefault("containers", "")
	v.SetDefault("since", "")
	v.SetDefault("error-pattern", model.DefaultErrorPattern)
	v.SetDefault("ignore-pattern", model.DefaultIgnorePattern)
	v.SetDefault("summary-interval", defaultSummaryInterval)
	v.SetDefault("rate-limit", defaultRateLimit)
	v.SetDefault("max-line-length", defaultMaxLineLength)
	v.SetDefault("docker-host", "")
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, configErrorf("reading config file: %v", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configErrorf("parsing config: %v", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	// Explicitly set flags win over file and environment.
	flags.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "all":
			cfg.WatchAll = flags.cfg.WatchAll
		case "containers":
			cfg.Containers = flags.cfg.Containers
		case "since":
			cfg.Since = flags.cfg.Since
		case "error-pattern":
			cfg.ErrorPattern = flags.cfg.ErrorPattern
		case "ignore-pattern":
			cfg.IgnorePattern = flags.cfg.IgnorePattern
		case "summary-interval":
			cfg.SummaryInterval = flags.cfg.SummaryInterval
		case "rate-limit":
			cfg.RateLimit = flags.cfg.RateLimit
		case "max-line-length":
			cfg.MaxLineLength = flags.cfg.MaxLineLength
		case "docker-host":
			cfg.DockerHost = flags.cfg.DockerHost
		case "api-enabled":
			cfg.APIEnabled = flags.cfg.APIEnabled
		case "api-port":
			cfg.APIPort = flags.cfg.APIPort
		}
	})

	cfg.WebhookURL = resolveWebhookURL(os.Getenv)

	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// resolveWebhookURL reads the notification endpoint from the environment.
// KLAXON_WEBHOOK_URL takes priority over SLACK_WEBHOOK_URL.
func resolveWebhookURL(getenv func(string) string) string {
	if url := strings.TrimSpace(getenv("KLAXON_WEBHOOK_URL")); url != "" {
		return url
	}
	return strings.TrimSpace(getenv("SLACK_WEBHOOK_URL"))
}

func validateConfig(cfg *appConfig) error {
	watchNames := targetNames(cfg.Containers)
	if cfg.WatchAll && len(watchNames) > 0 {
		return configErrorf("-all and -containers are mutually exclusive")
	}
	if !cfg.WatchAll && len(watchNames) == 0 {
		return configErrorf("select sources with -all or -containers")
	}

	// Compile patterns now so a malformed pattern fails startup, not a line.
	if _, err := filter.New(cfg.ErrorPattern, cfg.IgnorePattern); err != nil {
		return configErrorf("%v", err)
	}

	if cfg.Since != "" {
		if _, err := parseSince(cfg.Since, time.Now()); err != nil {
			return configErrorf("%v", err)
		}
	}

	if cfg.SummaryInterval <= 0 {
		return configErrorf("summary-interval must be positive, got %d", cfg.SummaryInterval)
	}
	if cfg.RateLimit <= 0 {
		return configErrorf("rate-limit must be positive, got %d", cfg.RateLimit)
	}
	if cfg.MaxLineLength <= 0 {
		return configErrorf("max-line-length must be positive, got %d", cfg.MaxLineLength)
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return configErrorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}
	return nil
}

// targetNames splits the explicit container list, dropping empty entries.
func targetNames(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}
