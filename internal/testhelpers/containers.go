// Package testhelpers starts throwaway database containers for integration
// tests. Each backend gets one container per test binary, shared by every
// test that asks for it.
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/connector"
)

const (
	PostgresImage = "postgres:16-alpine"
	MySQLImage    = "mysql:8.4"
	MongoImage    = "mongo:7"

	testUser     = "botdb"
	testPassword = "botdb_test_password"
	testDatabase = "botdb_test"
)

// TestDB is a running database container and the parameters to reach it.
type TestDB struct {
	Container testcontainers.Container
	Params    connector.Params
}

type shared struct {
	once sync.Once
	db   *TestDB
	err  error
}

func (s *shared) get(t *testing.T, setup func() (*TestDB, error)) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	s.once.Do(func() {
		s.db, s.err = setup()
	})
	if s.err != nil {
		t.Fatalf("Failed to setup test database: %v", s.err)
	}
	return s.db
}

var (
	sharedPostgres shared
	sharedMySQL    shared
	sharedMongo    shared
)

// GetPostgres returns a shared PostgreSQL container.
func GetPostgres(t *testing.T) *TestDB {
	return sharedPostgres.get(t, setupPostgres)
}

// GetMySQL returns a shared MySQL container.
func GetMySQL(t *testing.T) *TestDB {
	return sharedMySQL.get(t, setupMySQL)
}

// GetMongo returns a shared MongoDB container.
func GetMongo(t *testing.T) *TestDB {
	return sharedMongo.get(t, setupMongo)
}

func startContainer(ctx context.Context, req testcontainers.ContainerRequest, port, dbtype string) (*TestDB, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	p, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return nil, fmt.Errorf("parsing mapped port %q: %w", mapped.Port(), err)
	}

	return &TestDB{
		Container: container,
		Params: connector.Params{
			Host:     host,
			Port:     p,
			Username: testUser,
			Password: testPassword,
			Database: testDatabase,
			DBType:   dbtype,
		},
	}, nil
}

func setupPostgres() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDatabase,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	db, err := startContainer(ctx, req, "5432", connector.TypePostgres)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, PostgresURL(db.Params))
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	if err := retry(func() error { return pool.Ping(ctx) }); err != nil {
		return nil, fmt.Errorf("pinging PostgreSQL: %w", err)
	}
	for _, stmt := range PostgresFixture {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("loading fixture: %w", err)
		}
	}
	return db, nil
}

func setupMySQL() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        MySQLImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": testPassword,
			"MYSQL_DATABASE":      testDatabase,
			"MYSQL_USER":          testUser,
			"MYSQL_PASSWORD":      testPassword,
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").
			WithStartupTimeout(120 * time.Second),
	}
	db, err := startContainer(ctx, req, "3306", connector.TypeMySQL)
	if err != nil {
		return nil, err
	}

	cfg := mysql.NewConfig()
	cfg.User = testUser
	cfg.Passwd = testPassword
	cfg.Net = "tcp"
	cfg.Addr = db.Params.Address()
	cfg.DBName = testDatabase
	cfg.MultiStatements = true

	conn, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("building connector: %w", err)
	}
	sqlDB := sql.OpenDB(conn)
	defer sqlDB.Close()

	// The port opens before the init scripts finish creating the user.
	if err := retry(func() error { return sqlDB.PingContext(ctx) }); err != nil {
		return nil, fmt.Errorf("pinging MySQL: %w", err)
	}
	for _, stmt := range MySQLFixture {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("loading fixture: %w", err)
		}
	}
	return db, nil
}

func setupMongo() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        MongoImage,
		ExposedPorts: []string{"27017/tcp"},
		Env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": testUser,
			"MONGO_INITDB_ROOT_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("Waiting for connections").
			WithStartupTimeout(60 * time.Second),
	}
	db, err := startContainer(ctx, req, "27017", connector.TypeMongo)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(options.Client().ApplyURI(MongoURL(db.Params)))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	defer client.Disconnect(ctx) //nolint:errcheck

	if err := retry(func() error { return client.Ping(ctx, nil) }); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}
	if err := LoadMongoFixture(ctx, client.Database(testDatabase)); err != nil {
		return nil, fmt.Errorf("loading fixture: %w", err)
	}
	return db, nil
}

// PostgresURL returns a pgx connection string for p.
func PostgresURL(p connector.Params) string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		p.Username, p.Password, p.Address(), p.Database)
}

// MongoURL returns a driver URI for p.
func MongoURL(p connector.Params) string {
	return fmt.Sprintf("mongodb://%s:%s@%s/", p.Username, p.Password, p.Address())
}

func retry(fn func() error) error {
	var err error
	for i := 0; i < 30; i++ {
		if err = fn(); err == nil {
			return nil
		}
		time.Sleep(time.Second)
	}
	return err
}
