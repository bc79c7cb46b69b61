package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/errors"
)

// Store backends selectable with the store key.
const (
	StoreAirtable = "airtable"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool

	// Config file
	ConfigFile string

	// Inputs
	SourcesDir     string
	Sources        map[string]string
	SeedURL        string
	IncludeUnknown bool
	Provenance     bool

	// Remote store
	Store           string
	AirtableAPIKey  string
	AirtableBaseKey string
	AirtableTable   string
	AirtableRate    float64
	SQLitePath      string
	SQLiteTable     string
	PreserveColumns []string
	Strategy        string

	// Outputs
	BackupURL   string
	MetricsFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (explicit, or .bankmap.yaml in $HOME or the working directory)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".bankmap")

		// A missing default config file is fine.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot read config file", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),

		ConfigFile: v.ConfigFileUsed(),

		SourcesDir:     v.GetString("sources_dir"),
		Sources:        v.GetStringMapString("sources"),
		SeedURL:        v.GetString("seed_url"),
		IncludeUnknown: v.GetBool("include_unknown"),
		Provenance:     v.GetBool("provenance"),

		Store:           strings.ToLower(v.GetString("store")),
		AirtableAPIKey:  v.GetString("airtable_api_key"),
		AirtableBaseKey: v.GetString("airtable_base_key"),
		AirtableTable:   v.GetString("airtable_table"),
		AirtableRate:    v.GetFloat64("airtable_rate"),
		SQLitePath:      v.GetString("sqlite_path"),
		SQLiteTable:     v.GetString("sqlite_table"),
		PreserveColumns: splitList(v.GetStringSlice("preserve_columns")),
		Strategy:        v.GetString("strategy"),

		BackupURL:   v.GetString("backup_url"),
		MetricsFile: v.GetString("metrics_file"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	return config, config.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources_dir", "file://./sources")
	v.SetDefault("store", StoreAirtable)
	v.SetDefault("airtable_table", constants.DefaultTable)
	v.SetDefault("airtable_rate", constants.DefaultRateLimit)
	v.SetDefault("sqlite_path", constants.DefaultSQLitePath)
	v.SetDefault("sqlite_table", constants.DefaultTable)
	v.SetDefault("strategy", "all")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreAirtable, StoreSQLite, StoreMemory:
	default:
		return errors.NewConfigError("store", "must be one of: airtable, sqlite, memory (got "+c.Store+")", nil)
	}
	if c.AirtableRate < 0 {
		return errors.NewConfigError("airtable_rate", "cannot be negative", nil)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags so that
// flags take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet bool, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// table is the label of the configured store, used in snapshot names.
func (c *Config) table() string {
	switch c.Store {
	case StoreSQLite:
		return c.SQLiteTable
	case StoreAirtable:
		return c.AirtableTable
	default:
		return constants.DefaultTable
	}
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// loadEnvFiles loads environment variables from .env files.
// Values already set in the environment win.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
