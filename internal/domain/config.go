// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// Config represents the application configuration
type Config struct {
	Address               string       `toml:"address" mapstructure:"address"`
	RTorrentURL           string       `toml:"rtorrentUrl" mapstructure:"rtorrentUrl"`
	View                  string       `toml:"view" mapstructure:"view"`
	RPCTimeout            int          `toml:"rpcTimeout" mapstructure:"rpcTimeout"` // seconds, 0 disables
	MetricsBasicAuthUsers string       `toml:"metricsBasicAuthUsers" mapstructure:"metricsBasicAuthUsers"`
	LogLevel              string       `toml:"logLevel" mapstructure:"logLevel"`
	LogPath               string       `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize            int          `toml:"logMaxSize" mapstructure:"logMaxSize"` // megabytes
	LogMaxBackups         int          `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	PprofEnabled          bool         `toml:"pprofEnabled" mapstructure:"pprofEnabled"`
	HTTPTimeouts          HTTPTimeouts `toml:"httpTimeouts" mapstructure:"httpTimeouts"`
}

// HTTPTimeouts represents HTTP server timeout configuration
type HTTPTimeouts struct {
	ReadTimeout  int `toml:"readTimeout" mapstructure:"readTimeout"`   // seconds
	WriteTimeout int `toml:"writeTimeout" mapstructure:"writeTimeout"` // seconds
	IdleTimeout  int `toml:"idleTimeout" mapstructure:"idleTimeout"`   // seconds
}
