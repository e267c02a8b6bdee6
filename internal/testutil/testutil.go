package testutil

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/g-but/fitfoot/internal/db"
	"github.com/g-but/fitfoot/internal/models"
)

// NewProduct is an active running shoe priced 179.99 with one size in stock.
// Options are applied in order on top of it.
func NewProduct(id string, opts ...func(*models.Product)) models.Product {
	p := models.Product{
		ID:          id,
		Title:       "Trail Runner " + id,
		Brand:       "Fitfoot",
		Category:    "running",
		ProductType: models.ProductTypeNew,
		Status:      models.ProductStatusActive,
		Price:       decimal.New(17999, -2),
		Variants: []models.Variant{
			{ID: id + "-42", Size: "42", Price: decimal.New(17999, -2), Inventory: 3},
		},
		Rating: 4.5,
	}

	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Return random free port on 127.0.0.1 address
func RandomPort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return 0, err
	}
	defer ln.Close() // nolint:errcheck

	addr := ln.Addr().(*net.TCPAddr)
	return addr.Port, nil
}

type PostgresContainer struct {
	DSN       string
	Pool      *pgxpool.Pool
	Terminate func()
}

// StartPostgresContainer runs postgres with the products schema applied.
// The test fails right away when docker is not usable. Call Terminate when done.
func StartPostgresContainer(t *testing.T) PostgresContainer {
	t.Helper()

	out, err := exec.Command("docker", "info", "--format", "{{.ServerVersion}}").CombinedOutput()
	if err != nil {
		t.Fatalf("docker is not available: %s", out)
	}

	// Run postgres in docker on random port
	port, err := RandomPort()
	require.NoError(t, err, "Error happened when acquiring random port to start postgres")

	container, err := postgres.Run(t.Context(),
		"postgres:17-alpine",
		postgres.WithDatabase("fitfoot-test"),
		postgres.WithUsername("fitfoot"),
		postgres.WithPassword("pwd"),
		postgres.BasicWaitStrategies(),
		testcontainers.CustomizeRequestOption(func(req *testcontainers.GenericContainerRequest) error {
			req.ExposedPorts = []string{fmt.Sprintf("%d:5432", port)}
			return nil
		}),
	)
	require.NoError(t, err, "postgres container did not start")

	dsn, err := container.ConnectionString(t.Context())
	require.NoError(t, err, "no connection string for postgres container")
	t.Logf("postgres started: %s", dsn)

	dbpool, err := db.ConnectAndMigrate(t.Context(), dsn)
	require.NoError(t, err, "products schema was not applied")

	return PostgresContainer{
		DSN:  dsn,
		Pool: dbpool,
		Terminate: func() {
			dbpool.Close()
			testcontainers.CleanupContainer(t, container)
		},
	}
}

type dbtx interface {
	Begin(context.Context) (pgx.Tx, error)
}

// WithTx runs testFunc inside a transaction that is always rolled back,
// so products written by one test never leak into another
func WithTx(dbtx dbtx, t *testing.T, testFunc func(tx pgx.Tx)) {
	tx, err := dbtx.Begin(t.Context())
	require.NoError(t, err)

	defer func() {
		err := tx.Rollback(t.Context())
		require.NoError(t, err)
	}()

	testFunc(tx)
}
