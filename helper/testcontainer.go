package helper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MustStartPostgresContainer boots a disposable Postgres instance (with the
// pgvector extension available) for integration tests, mirroring the
// teacher's test bootstrap. It returns a teardown func and the host port the
// container published.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("database"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("start postgres container: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, "", fmt.Errorf("resolve mapped port: %w", err)
	}

	return container.Terminate, port.Port(), nil
}

// SetTestDatabaseConfigEnvs points NewDatabaseConfiguration at the container
// started by MustStartPostgresContainer for the duration of t.
func SetTestDatabaseConfigEnvs(t *testing.T, dbPort string) {
	t.Helper()
	t.Setenv("PGHOST", "localhost")
	t.Setenv("PGPORT", dbPort)
	t.Setenv("PGDATABASE", "database")
	t.Setenv("PGUSER", "user")
	t.Setenv("PGPASSWORD", "password")
	t.Setenv("PGSSLMODE", "disable")
	t.Setenv("PGSCHEMA", "public")
}
