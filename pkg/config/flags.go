package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --model
// on both "ollamaui chat" and "ollamaui serve").
type Flag struct {
	// Name is the long flag name (e.g. "base-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.base_url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagBaseURL      = "base-url"
	FlagModel        = "model"
	FlagTimeout      = "timeout"
	FlagSystem       = "system"
	FlagStream       = "stream"
	FlagStructured   = "structured"
	FlagSchemaFile   = "schema-file"
	FlagListen       = "listen"
	FlagStorage      = "storage"
	FlagSQLite       = "sqlite"
	FlagPostgresDSN  = "postgres-dsn"
	FlagEvents       = "events"
	FlagKafkaBrokers = "kafka-brokers"
	FlagKafkaTopic   = "kafka-topic"
	FlagJSONLogs     = "json-logs"
	FlagLogFile      = "log-file"
)

// Flags is the registry shared by every ollamaui command.
var Flags = FlagSet{
	FlagBaseURL: {
		Name:        "base-url",
		Shorthand:   "u",
		ViperKey:    "client.base_url",
		Description: "Ollama server URL",
	},
	FlagModel: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "client.model",
		Description: "Model to chat with",
	},
	FlagTimeout: {
		Name:        "timeout",
		ViperKey:    "client.timeout",
		Description: "Request timeout (e.g. 30s, 5m)",
	},
	FlagSystem: {
		Name:        "system",
		Shorthand:   "s",
		ViperKey:    "chat.system",
		Description: "System prompt sent before the user prompt",
	},
	FlagStream: {
		Name:        "stream",
		ViperKey:    "chat.stream",
		Description: "Stream the response as it is generated",
	},
	FlagStructured: {
		Name:        "structured",
		ViperKey:    "chat.structured",
		Description: "Constrain the response to a JSON schema",
	},
	FlagSchemaFile: {
		Name:        "schema-file",
		ViperKey:    "chat.schema_file",
		Description: "Path to a JSON or YAML schema for structured output",
	},
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "server.listen",
		Description: "Address for the web server to listen on",
	},
	FlagStorage: {
		Name:        "storage",
		ViperKey:    "storage.provider",
		Description: "History storage (memory, sqlite, postgres)",
	},
	FlagSQLite: {
		Name:        "sqlite",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to the SQLite history database",
	},
	FlagPostgresDSN: {
		Name:        "postgres-dsn",
		ViperKey:    "storage.postgres_dsn",
		Description: "PostgreSQL connection string for history storage",
	},
	FlagEvents: {
		Name:        "events",
		ViperKey:    "events.provider",
		Description: "Where completed exchanges are published (none, kafka)",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "events.brokers",
		Description: "Comma separated Kafka broker addresses",
	},
	FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "events.topic",
		Description: "Kafka topic for exchange events",
	},
	FlagJSONLogs: {
		Name:        "json-logs",
		ViperKey:    "log.json",
		Description: "Emit logs as JSON",
	},
	FlagLogFile: {
		Name:        "log-file",
		ViperKey:    "log.file",
		Description: "Also append JSON logs to this file",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	addStringFlag(cmd.Flags(), fs, key, target)
}

// AddPersistentStringFlag is AddStringFlag for a flag inherited by
// subcommands.
func AddPersistentStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	addStringFlag(cmd.PersistentFlags(), fs, key, target)
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	addBoolFlag(cmd.Flags(), fs, registryKey, target)
}

// AddPersistentBoolFlag is AddBoolFlag for a flag inherited by subcommands.
func AddPersistentBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	addBoolFlag(cmd.PersistentFlags(), fs, registryKey, target)
}

func addStringFlag(flags *pflag.FlagSet, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		flags.StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		flags.StringVar(target, def.Name, defaultVal, def.Description)
	}
}

func addBoolFlag(flags *pflag.FlagSet, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		flags.BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		flags.BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
