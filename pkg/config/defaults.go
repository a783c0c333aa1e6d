package config

// Storage and event provider names.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	EventsNone  = "none"
	EventsKafka = "kafka"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.2"
	defaultTimeout = "5m"

	defaultListen = ":8080"

	defaultStorageProvider = StorageSQLite
	defaultSQLiteFile      = "history.sqlite"

	defaultEventsProvider = EventsNone
	defaultEventsTopic    = "ollamaui.exchanges"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			BaseURL: defaultBaseURL,
			Model:   defaultModel,
			Timeout: defaultTimeout,
		},
		Server: ServerConfig{
			Listen: defaultListen,
		},
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
