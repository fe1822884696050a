package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a ClickHouse container and returns a connection.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60 * time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	runTestMigrations(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// runTestMigrations creates the analytics tables. Statements are applied
// one at a time since the driver does not support multiquery Exec.
func runTestMigrations(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signal_history (
			mint          String,
			user_id       UInt64,
			signal_id     UInt64,
			status        LowCardinality(String),
			pattern_score Float64,
			kill_score    UInt8,
			confidence    Float64,
			price_usd     Float64,
			liquidity_usd Float64,
			timestamp_ms  UInt64
		) ENGINE = MergeTree()
		ORDER BY (mint, timestamp_ms)
	`)
	require.NoError(t, err, "failed to create signal_history")

	err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS autotrade_run_history (
			run_id                 UInt64,
			user_id                UInt64,
			mode                   LowCardinality(String),
			scanned                UInt32,
			buy_candidates         UInt32,
			skipped                UInt32,
			failed                 UInt32,
			simulated_exposure_usd Float64,
			avg_expected_pnl_pct   Float64,
			timestamp_ms           UInt64
		) ENGINE = MergeTree()
		ORDER BY (user_id, timestamp_ms)
	`)
	require.NoError(t, err, "failed to create autotrade_run_history")
}
