package contract

import (
	"testing"

	"github.com/prpulse/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation, for tests to
// selectively break.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Org:        "acme",
		DaysBack:   14,
		TopAuthors: 5,
		KeepLatest: 3,
		Output:     "terminal",
		Color:      "yes",
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, "acme", cfg.Org)
	assert.Equal(t, 14, cfg.DaysBack)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultLegacyDir, cfg.LegacyDir)
	assert.Equal(t, schema.TerminalOut, cfg.Output)
	assert.Equal(t, schema.NoneBackend, cfg.RunLogBackend)
	assert.True(t, cfg.UseColors)
}

func TestProcessAndValidateMissingOrg(t *testing.T) {
	input := validInput()
	input.Org = "  "
	err := ProcessAndValidate(&Config{}, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--org")
	assert.Contains(t, err.Error(), "PRPULSE_ORG")
}

func TestProcessAndValidateBadDaysBack(t *testing.T) {
	for _, days := range []int{0, -5, MaxDaysBack + 1} {
		input := validInput()
		input.DaysBack = days
		assert.Error(t, ProcessAndValidate(&Config{}, input), "days-back %d should fail", days)
	}
}

func TestProcessAndValidateBadOutput(t *testing.T) {
	input := validInput()
	input.Output = "pdf"
	err := ProcessAndValidate(&Config{}, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestProcessAndValidateBackends(t *testing.T) {
	input := validInput()
	input.RunLogBackend = "sqlite"
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, schema.SQLiteBackend, cfg.RunLogBackend)

	input = validInput()
	input.RunLogBackend = "mysql"
	err := ProcessAndValidate(&Config{}, input)
	require.Error(t, err) // connection string required
	assert.Contains(t, err.Error(), "runlog-db-connect")

	input = validInput()
	input.RunLogBackend = "mysql"
	input.RunLogDBConnect = "user:pass@tcp(localhost:3306)/prpulse"
	assert.NoError(t, ProcessAndValidate(&Config{}, input))

	input = validInput()
	input.RunLogBackend = "duckdb"
	assert.Error(t, ProcessAndValidate(&Config{}, input))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	assert.NoError(t, ValidateDatabaseConnectionString(schema.SQLiteBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.NoneBackend, ""))

	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user:pass@localhost/db"))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user:pass@tcp(localhost:3306)/db"))

	assert.Error(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "postgres://localhost"))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost dbname=prpulse user=pg"))
}
