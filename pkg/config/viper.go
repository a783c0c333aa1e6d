package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/ollamaui/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the OLLAMAUI_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (OLLAMAUI_CLIENT_MODEL, OLLAMAUI_SERVER_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: OLLAMAUI_CLIENT_BASE_URL, OLLAMAUI_STORAGE_PROVIDER, etc.
	v.SetEnvPrefix("OLLAMAUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("client.base_url", d.Client.BaseURL)
	v.SetDefault("client.model", d.Client.Model)
	v.SetDefault("client.timeout", d.Client.Timeout)

	v.SetDefault("chat.system", d.Chat.System)
	v.SetDefault("chat.stream", d.Chat.StreamEnabled())
	v.SetDefault("chat.structured", d.Chat.Structured)
	v.SetDefault("chat.schema_file", d.Chat.SchemaFile)

	v.SetDefault("server.listen", d.Server.Listen)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.file", d.Log.File)
}

// FromViper builds a Config from the merged viper view, so flag, env, file
// and default values all land in one struct.
func FromViper(v *viper.Viper) *Config {
	stream := v.GetBool("chat.stream")

	return &Config{
		Version: v.GetInt("version"),
		Client: ClientConfig{
			BaseURL: v.GetString("client.base_url"),
			Model:   v.GetString("client.model"),
			Timeout: v.GetString("client.timeout"),
		},
		Chat: ChatConfig{
			System:     v.GetString("chat.system"),
			Stream:     &stream,
			Structured: v.GetBool("chat.structured"),
			SchemaFile: v.GetString("chat.schema_file"),
		},
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
		Log: LogConfig{
			JSON: v.GetBool("log.json"),
			File: v.GetString("log.file"),
		},
	}
}
