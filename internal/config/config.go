// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autobrr/rtorrent-exporter/internal/domain"
)

const (
	envPrefix = "RTORRENT_EXPORTER__"
	appName   = "rtorrent-exporter"
)

var configKeys = []string{
	"address",
	"rtorrentUrl",
	"view",
	"rpcTimeout",
	"metricsBasicAuthUsers",
	"logLevel",
	"logPath",
	"logMaxSize",
	"logMaxBackups",
	"pprofEnabled",
	"httpTimeouts.readTimeout",
	"httpTimeouts.writeTimeout",
	"httpTimeouts.idleTimeout",
}

// flagKeys maps serve flags to the config keys they override.
var flagKeys = map[string]string{
	"address":     "address",
	"rtorrent":    "rtorrentUrl",
	"view":        "view",
	"rpc-timeout": "rpcTimeout",
	"log-path":    "logPath",
	"log-level":   "logLevel",
	"pprof":       "pprofEnabled",
}

type AppConfig struct {
	Config *domain.Config
	viper  *viper.Viper

	configMu sync.Mutex
	logMu    sync.Mutex
	logOut   *switchWriter
}

// Option adjusts how New resolves the configuration.
type Option func(c *AppConfig) error

// WithFlags binds the serve flags found in fs. A flag given on the command
// line wins over the environment and the config file; unset flags are ignored.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(c *AppConfig) error {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := c.viper.BindPFlag(key, f); err != nil {
				return errors.Wrapf(err, "unable to bind flag --%s", name)
			}
		}
		return nil
	}
}

// New loads defaults, then the TOML file at configDirOrPath if it exists, then
// RTORRENT_EXPORTER__* environment variables, then opts. An empty path selects
// the OS default config directory.
func New(configDirOrPath string, opts ...Option) (*AppConfig, error) {
	c := &AppConfig{
		viper:  viper.New(),
		Config: &domain.Config{},
	}

	c.defaults()

	if err := c.load(configDirOrPath); err != nil {
		return nil, err
	}

	c.loadFromEnv()

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}

	if err := validate(c.Config); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *AppConfig) defaults() {
	c.viper.SetDefault("address", "127.0.0.1:9091")
	c.viper.SetDefault("rtorrentUrl", "http://127.0.0.1:5000/RPC2")
	c.viper.SetDefault("view", "default")
	c.viper.SetDefault("rpcTimeout", 0)
	c.viper.SetDefault("metricsBasicAuthUsers", "")
	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
	c.viper.SetDefault("pprofEnabled", false)
	c.viper.SetDefault("httpTimeouts.readTimeout", 60)
	c.viper.SetDefault("httpTimeouts.writeTimeout", 120)
	c.viper.SetDefault("httpTimeouts.idleTimeout", 180)
}

func (c *AppConfig) load(configDirOrPath string) error {
	if configDirOrPath == "" {
		configDirOrPath = GetDefaultConfigDir()
	}
	configPath := c.resolveConfigPath(configDirOrPath)

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", configPath).Msg("No config file found, using defaults and environment")
			return nil
		}
		return errors.Wrapf(err, "unable to access config file %s", configPath)
	}

	c.viper.SetConfigFile(configPath)
	c.viper.SetConfigType("toml")
	if err := c.viper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "unable to read config file %s", configPath)
	}

	log.Debug().Str("path", configPath).Msg("Loaded config file")
	return nil
}

// resolveConfigPath maps a directory to <dir>/config.toml. Paths ending in
// .toml and existing regular files are used as is.
func (c *AppConfig) resolveConfigPath(configDirOrPath string) string {
	if strings.HasSuffix(strings.ToLower(configDirOrPath), ".toml") {
		return configDirOrPath
	}
	if info, err := os.Stat(configDirOrPath); err == nil && !info.IsDir() {
		return configDirOrPath
	}
	return filepath.Join(configDirOrPath, "config.toml")
}

func (c *AppConfig) loadFromEnv() {
	for _, key := range configKeys {
		c.viper.BindEnv(key, envPrefix+envName(key))
	}
}

// envName converts a viper key such as httpTimeouts.readTimeout into
// HTTP_TIMEOUTS__READ_TIMEOUT.
func envName(key string) string {
	parts := strings.Split(key, ".")
	for i, part := range parts {
		var b strings.Builder
		for j, r := range part {
			if unicode.IsUpper(r) && j > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToUpper(r))
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, "__")
}

func validate(cfg *domain.Config) error {
	cfg.RTorrentURL = strings.TrimSpace(cfg.RTorrentURL)
	u, err := url.Parse(cfg.RTorrentURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("rtorrentUrl must be an http(s) URL such as http://127.0.0.1:5000/RPC2")
	}

	if _, _, err := net.SplitHostPort(cfg.Address); err != nil {
		return errors.Wrapf(err, "invalid listen address %q", cfg.Address)
	}

	cfg.View = strings.TrimSpace(cfg.View)
	if cfg.View == "" {
		cfg.View = "default"
	}

	if cfg.RPCTimeout < 0 {
		return errors.Errorf("rpcTimeout must not be negative, got %d", cfg.RPCTimeout)
	}

	return nil
}

// RPCTimeout returns the per-call rTorrent timeout, zero when disabled.
func (c *AppConfig) RPCTimeout() time.Duration {
	return time.Duration(c.Config.RPCTimeout) * time.Second
}

// ConfigFileUsed returns the loaded config file, empty when running on
// defaults and environment only.
func (c *AppConfig) ConfigFileUsed() string {
	return c.viper.ConfigFileUsed()
}

// WatchConfig reloads log settings when the config file changes. Other keys
// take effect on restart.
func (c *AppConfig) WatchConfig() {
	if c.viper.ConfigFileUsed() == "" {
		return
	}

	c.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := c.reloadLogSettings(); err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("Failed to reload config")
			return
		}
		log.Info().Str("file", e.Name).Msg("Config file changed, log settings reloaded; other changes apply on restart")
	})
	c.viper.WatchConfig()
}

func (c *AppConfig) reloadLogSettings() error {
	var next domain.Config
	if err := c.viper.Unmarshal(&next); err != nil {
		return errors.Wrap(err, "unable to decode config")
	}

	c.configMu.Lock()
	c.Config.LogLevel = next.LogLevel
	c.Config.LogPath = next.LogPath
	c.Config.LogMaxSize = next.LogMaxSize
	c.Config.LogMaxBackups = next.LogMaxBackups
	c.configMu.Unlock()

	return c.ApplyLogConfig()
}

// GetDefaultConfigDir returns the OS-specific config directory.
func GetDefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		// container images mount their config volume here
		if xdg == "/config" {
			return xdg
		}
		return filepath.Join(xdg, appName)
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", appName)
}

const defaultConfigTemplate = `# config.toml - rtorrent-exporter

# Listen address for the metrics endpoint
address = "127.0.0.1:9091"

# rTorrent XML-RPC endpoint. Credentials in the URL are sent as basic auth.
rtorrentUrl = "http://127.0.0.1:5000/RPC2"

# rTorrent view the torrent statistics are computed over
view = "default"

# Timeout in seconds for each call to rTorrent, 0 disables
rpcTimeout = 0

# Protect /metrics with basic auth, comma separated user:password pairs
#metricsBasicAuthUsers = "prometheus:secret"

# Log level: ERROR, WARN, INFO, DEBUG, TRACE
logLevel = "INFO"

# Log file path, empty logs to stderr only
#logPath = "log/rtorrent-exporter.log"

# Log rotation: size in megabytes and number of rotated files kept
logMaxSize = 50
logMaxBackups = 3

# Serve pprof on :6060
#pprofEnabled = false

[httpTimeouts]
# Timeouts in seconds
readTimeout = 60
writeTimeout = 120
idleTimeout = 180
`

// WriteDefaultConfig writes the default config to configPath. An existing
// file is left untouched.
func WriteDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		log.Debug().Str("path", configPath).Msg("Config file already exists, skipping")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	log.Info().Str("path", configPath).Msg("Created default config file")
	return nil
}
