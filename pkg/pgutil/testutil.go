package pgutil

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/payflow-labs/payflow/pkg/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

const (
	testDBName = "payflow_test"
	testDBUser = "payflow"
	testDBPass = "payflow"
)

// SetupTestDB starts a throwaway PostgreSQL container and returns a
// connection plus its cleanup. Tests are skipped when no docker daemon is
// reachable so the suite stays runnable on machines without docker.
func SetupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()
	requireDockerAccess(t)
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase(testDBName),
		postgres.WithUsername(testDBUser),
		postgres.WithPassword(testDBPass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		t.Fatalf("failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     testDBUser,
		Password: testDBPass,
		Database: testDBName,
		SSLMode:  "disable",
	}

	db, err := connectWithBackoff(cfg, 10)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		t.Fatalf("failed to connect to test database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

// connectWithBackoff retries the first connection while the container's
// postgres finishes starting. Delays double from 100ms.
func connectWithBackoff(cfg *config.DatabaseConfig, attempts int) (*bun.DB, error) {
	var db *bun.DB
	var err error
	for i := 0; i < attempts; i++ {
		db, err = ConnectDB(cfg)
		if err == nil {
			return db, nil
		}
		time.Sleep(time.Duration(100*(1<<uint(i))) * time.Millisecond)
	}
	return nil, err
}

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping container-backed tests")
}

// AssertTableExists fails the test when tableName is missing from the public schema.
func AssertTableExists(t *testing.T, db *bun.DB, tableName string) {
	t.Helper()

	if !tableExists(t, db, tableName) {
		t.Errorf("table %s does not exist", tableName)
	}
}

// AssertTableNotExists fails the test when tableName is present in the public schema.
func AssertTableNotExists(t *testing.T, db *bun.DB, tableName string) {
	t.Helper()

	if tableExists(t, db, tableName) {
		t.Errorf("table %s should not exist but it does", tableName)
	}
}

func tableExists(t *testing.T, db *bun.DB, tableName string) bool {
	t.Helper()

	var exists bool
	err := db.NewSelect().
		ColumnExpr("EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = ? AND table_name = ?)", "public", tableName).
		Scan(context.Background(), &exists)
	if err != nil {
		t.Fatalf("failed to check if table %s exists: %v", tableName, err)
	}
	return exists
}

// AssertIndexExists fails the test when indexName is missing from the public schema.
func AssertIndexExists(t *testing.T, db *bun.DB, indexName string) {
	t.Helper()

	var exists bool
	err := db.NewSelect().
		ColumnExpr("EXISTS (SELECT 1 FROM pg_indexes WHERE schemaname = ? AND indexname = ?)", "public", indexName).
		Scan(context.Background(), &exists)
	if err != nil {
		t.Fatalf("failed to check if index %s exists: %v", indexName, err)
	}

	if !exists {
		t.Errorf("index %s does not exist", indexName)
	}
}
