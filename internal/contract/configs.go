package contract

import (
	"fmt"
	"strings"

	"github.com/prpulse/prpulse/schema"
)

// Default values for configuration.
const (
	DefaultDaysBack   = 14
	MaxDaysBack       = 3650
	DefaultTopAuthors = 5
	DefaultKeepLatest = 3
	DefaultDataDir    = "output/data"
	DefaultLegacyDir  = "output"
)

// Config holds the runtime configuration for collection and reporting.
// This struct remains the "final, validated" config.
type Config struct {
	Org      string
	Repo     string // optional repository filter
	DaysBack int

	DataDir   string
	LegacyDir string

	MinPRs         int // repos with fewer PRs are dropped from report rollups
	TopAuthors     int
	LegacySnapshot bool // also write a flat snapshot file per collect run
	KeepLatest     int  // legacy snapshots preserved by cleanup

	Output     schema.OutputMode
	OutputFile string
	Width      int // terminal width override (0 = auto-detect)

	RunLogBackend   schema.DatabaseBackend
	RunLogDBConnect string // please use env var as this is plaintext

	UseColors bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config
// file). Viper unmarshals into this struct.
type ConfigRawInput struct {
	Org      string `mapstructure:"org"`
	Repo     string `mapstructure:"repo"`
	DaysBack int    `mapstructure:"days-back"`

	DataDir   string `mapstructure:"data-dir"`
	LegacyDir string `mapstructure:"legacy-dir"`

	MinPRs         int  `mapstructure:"min-prs"`
	TopAuthors     int  `mapstructure:"top-authors"`
	LegacySnapshot bool `mapstructure:"legacy-snapshot"`
	KeepLatest     int  `mapstructure:"keep-latest"`

	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Width      int    `mapstructure:"width"`

	RunLogBackend   string `mapstructure:"runlog-backend"`
	RunLogDBConnect string `mapstructure:"runlog-db-connect"`

	Color string `mapstructure:"color"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := resolveOrg(cfg, input); err != nil {
		return err
	}
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	return nil
}

// resolveOrg resolves the organization with no hardcoded fallback.
// Viper has already merged the flag, the PRPULSE_ORG environment variable
// and the config file into input.Org, in that priority order.
func resolveOrg(cfg *Config, input *ConfigRawInput) error {
	org := strings.TrimSpace(input.Org)
	if org == "" {
		return fmt.Errorf("organization not specified. Provide it via the --org flag, " +
			"the PRPULSE_ORG environment variable, or the 'org' key in .prpulse.yaml")
	}
	cfg.Org = org
	return nil
}

// validateSimpleInputs processes and validates all non-backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Repo = strings.TrimSpace(input.Repo)
	cfg.OutputFile = input.OutputFile
	cfg.LegacySnapshot = input.LegacySnapshot
	cfg.Width = input.Width

	// --- Time window validation ---
	if input.DaysBack <= 0 || input.DaysBack > MaxDaysBack {
		return fmt.Errorf("days-back must be between 1 and %d (received %d)", MaxDaysBack, input.DaysBack)
	}
	cfg.DaysBack = input.DaysBack

	// --- Report thresholds ---
	if input.MinPRs < 0 {
		return fmt.Errorf("min-prs cannot be negative (received %d)", input.MinPRs)
	}
	cfg.MinPRs = input.MinPRs

	if input.TopAuthors <= 0 {
		return fmt.Errorf("top-authors must be greater than 0 (received %d)", input.TopAuthors)
	}
	cfg.TopAuthors = input.TopAuthors

	if input.KeepLatest <= 0 {
		return fmt.Errorf("keep-latest must be greater than 0 (received %d)", input.KeepLatest)
	}
	cfg.KeepLatest = input.KeepLatest

	// --- Storage locations ---
	cfg.DataDir = input.DataDir
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	cfg.LegacyDir = input.LegacyDir
	if cfg.LegacyDir == "" {
		cfg.LegacyDir = DefaultLegacyDir
	}

	// --- Output validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be terminal, markdown", input.Output)
	}

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	return nil
}

// validateBackendConfig validates the run log backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backendStr := input.RunLogBackend
	if backendStr == "" {
		backendStr = string(schema.NoneBackend)
	}
	cfg.RunLogBackend = schema.DatabaseBackend(strings.ToLower(backendStr))
	if _, ok := schema.ValidDatabaseBackends[cfg.RunLogBackend]; !ok {
		return fmt.Errorf("invalid runlog backend '%s'. must be sqlite, mysql, postgresql, none", input.RunLogBackend)
	}
	cfg.RunLogDBConnect = input.RunLogDBConnect
	return ValidateDatabaseConnectionString(cfg.RunLogBackend, cfg.RunLogDBConnect)
}

// ValidateDatabaseConnectionString validates the format of database
// connection strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("runlog-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("runlog-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}
