//go:build database

// Package integration contains database integration tests for prpulse.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags database ./integration
package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRunLogWithMySQL tests the prpulse run log with a MySQL backend.
func TestRunLogWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "prpulse",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/prpulse?parseTime=true", host, port.Port())

	// Set environment variables
	_ = os.Setenv("PRPULSE_RUNLOG_BACKEND", "mysql")
	_ = os.Setenv("PRPULSE_RUNLOG_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("PRPULSE_RUNLOG_BACKEND") }()
	defer func() { _ = os.Unsetenv("PRPULSE_RUNLOG_DB_CONNECT") }()

	// Run prpulse runlog migrate
	err = runPrpulseCommand(t, "runlog", "migrate")
	require.NoError(t, err)

	// Run prpulse runlog clear
	err = runPrpulseCommand(t, "runlog", "clear")
	require.NoError(t, err)

	// Run prpulse runlog status
	err = runPrpulseCommand(t, "runlog", "status")
	require.NoError(t, err)

	// Run prpulse runlog runs
	err = runPrpulseCommand(t, "runlog", "runs")
	require.NoError(t, err)
}

// TestRunLogWithPostgres tests the prpulse run log with a PostgreSQL backend.
func TestRunLogWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())

	// Set environment variables
	_ = os.Setenv("PRPULSE_RUNLOG_BACKEND", "postgresql")
	_ = os.Setenv("PRPULSE_RUNLOG_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("PRPULSE_RUNLOG_BACKEND") }()
	defer func() { _ = os.Unsetenv("PRPULSE_RUNLOG_DB_CONNECT") }()

	// Run prpulse runlog migrate
	err = runPrpulseCommand(t, "runlog", "migrate")
	require.NoError(t, err)

	// Run prpulse runlog clear
	err = runPrpulseCommand(t, "runlog", "clear")
	require.NoError(t, err)

	// Run prpulse runlog status
	err = runPrpulseCommand(t, "runlog", "status")
	require.NoError(t, err)

	// Run prpulse runlog runs
	err = runPrpulseCommand(t, "runlog", "runs")
	require.NoError(t, err)
}

func runPrpulseCommand(t *testing.T, args ...string) error {
	prpulsePath := getPrpulseBinary()
	cmd := exec.Command(prpulsePath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
