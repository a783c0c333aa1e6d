package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent ollamaui configuration stored as
// config.toml in the .ollamaui/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Client  ClientConfig  `toml:"client"`
	Chat    ChatConfig    `toml:"chat"`
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Events  EventsConfig  `toml:"events"`
	Log     LogConfig     `toml:"log"`
}

// ClientConfig holds settings for reaching the model server.
type ClientConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	Model   string `toml:"model,omitempty"`

	// Timeout is a Go duration string (e.g. "5m").
	Timeout string `toml:"timeout,omitempty"`
}

// ChatConfig holds defaults for composing requests.
type ChatConfig struct {
	System     string `toml:"system,omitempty"`
	Stream     *bool  `toml:"stream"`
	Structured bool   `toml:"structured,omitempty"`
	SchemaFile string `toml:"schema_file,omitempty"`
}

// StreamEnabled reports whether responses should be streamed. Streaming is
// on unless explicitly disabled.
func (c ChatConfig) StreamEnabled() bool {
	return c.Stream == nil || *c.Stream
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig selects where exchange history is kept.
type StorageConfig struct {
	// Provider is one of "memory", "sqlite" or "postgres".
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig selects where completed exchanges are published.
type EventsConfig struct {
	// Provider is "none" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated list of host:port pairs.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers into its non-empty entries.
func (e EventsConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// LogConfig holds logging settings.
type LogConfig struct {
	JSON bool `toml:"json,omitempty"`

	// File receives JSON records in addition to the console output. Only
	// serve writes it.
	File string `toml:"file,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.base_url": {
		get: func(c *Config) string { return c.Client.BaseURL },
		set: func(c *Config, v string) error { c.Client.BaseURL = v; return nil },
	},
	"client.model": {
		get: func(c *Config) string { return c.Client.Model },
		set: func(c *Config, v string) error { c.Client.Model = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for client.timeout: %w", err)
			}
			c.Client.Timeout = v
			return nil
		},
	},
	"chat.system": {
		get: func(c *Config) string { return c.Chat.System },
		set: func(c *Config, v string) error { c.Chat.System = v; return nil },
	},
	"chat.stream": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.StreamEnabled()) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.stream: %w", err)
			}
			c.Chat.Stream = &b
			return nil
		},
	},
	"chat.structured": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.Structured) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.structured: %w", err)
			}
			c.Chat.Structured = b
			return nil
		},
	},
	"chat.schema_file": {
		get: func(c *Config) string { return c.Chat.SchemaFile },
		set: func(c *Config, v string) error { c.Chat.SchemaFile = v; return nil },
	},
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error {
			if !isOneOf(v, StorageProviders()) {
				return fmt.Errorf("invalid value for storage.provider: %q (available: %s)",
					v, strings.Join(StorageProviders(), ", "))
			}
			c.Storage.Provider = v
			return nil
		},
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error {
			if !isOneOf(v, EventProviders()) {
				return fmt.Errorf("invalid value for events.provider: %q (available: %s)",
					v, strings.Join(EventProviders(), ", "))
			}
			c.Events.Provider = v
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"log.json": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.JSON) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.json: %w", err)
			}
			c.Log.JSON = b
			return nil
		},
	},
	"log.file": {
		get: func(c *Config) string { return c.Log.File },
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
	},
}

// StorageProviders lists the supported storage.provider values.
func StorageProviders() []string {
	return []string{StorageMemory, StorageSQLite, StoragePostgres}
}

// EventProviders lists the supported events.provider values.
func EventProviders() []string {
	return []string{EventsNone, EventsKafka}
}

func isOneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
