package connector

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/schema"
)

const postgresPrefix = "PostgreSQL error"

// Postgres introspects a PostgreSQL database. Tables are grouped by schema,
// skipping pg_catalog and information_schema.
type Postgres struct {
	params Params
	pool   *pgxpool.Pool
}

// NewPostgres creates an unconnected PostgreSQL connector.
func NewPostgres(p Params) *Postgres {
	return &Postgres{params: p}
}

// connString builds a URL-form connection string so credentials need no quoting.
func (p *Postgres) connString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   p.params.Address(),
		Path:   "/" + p.params.Database,
	}
	if p.params.Username != "" {
		u.User = url.UserPassword(p.params.Username, p.params.Password)
	}
	q := url.Values{}
	q.Set("sslmode", "prefer")
	q.Set("default_query_exec_mode", "simple_protocol")
	u.RawQuery = q.Encode()
	return u.String()
}

func (p *Postgres) Connect(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(p.connString())
	if err != nil {
		return p.fail(fmt.Errorf("parsing connection string: %w", err))
	}
	// One introspection, one connection.
	poolCfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return p.fail(fmt.Errorf("connecting: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return p.fail(fmt.Errorf("pinging: %w", err))
	}

	p.pool = pool
	return nil
}

func (p *Postgres) ListNamespaces(ctx context.Context) ([]string, error) {
	if p.pool == nil {
		return nil, p.fail(errNotConnected)
	}
	query := `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
		ORDER BY schema_name`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, p.fail(fmt.Errorf("listing schemas: %w", err))
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, p.fail(fmt.Errorf("scanning schema: %w", err))
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, p.fail(fmt.Errorf("listing schemas: %w", err))
	}
	return names, nil
}

func (p *Postgres) ListObjects(ctx context.Context) ([]ObjectRef, error) {
	if p.pool == nil {
		return nil, p.fail(errNotConnected)
	}
	query := `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		  AND table_type = 'BASE TABLE'
		ORDER BY table_schema, table_name`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, p.fail(fmt.Errorf("listing tables: %w", err))
	}
	defer rows.Close()

	var refs []ObjectRef
	for rows.Next() {
		var ref ObjectRef
		if err := rows.Scan(&ref.Namespace, &ref.Name); err != nil {
			return nil, p.fail(fmt.Errorf("scanning table: %w", err))
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, p.fail(fmt.Errorf("listing tables: %w", err))
	}
	return refs, nil
}

func (p *Postgres) DescribeObject(ctx context.Context, ref ObjectRef) ([]schema.Column, error) {
	if p.pool == nil {
		return nil, p.fail(errNotConnected)
	}
	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			column_default,
			character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := p.pool.Query(ctx, query, ref.Namespace, ref.Name)
	if err != nil {
		return nil, p.fail(fmt.Errorf("describing %s: %w", ref, err))
	}
	defer rows.Close()

	cols := []schema.Column{}
	for rows.Next() {
		var (
			name, dataType, nullable string
			def                      *string
			maxLen                   *int64
		)
		if err := rows.Scan(&name, &dataType, &nullable, &def, &maxLen); err != nil {
			return nil, p.fail(fmt.Errorf("scanning column of %s: %w", ref, err))
		}
		cols = append(cols, schema.NormalizeRelational(name, dataType, nullable, def, maxLen))
	}
	if err := rows.Err(); err != nil {
		return nil, p.fail(fmt.Errorf("describing %s: %w", ref, err))
	}
	return cols, nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

func (p *Postgres) fail(err error) error {
	return backendError(TypePostgres, postgresPrefix, err)
}
