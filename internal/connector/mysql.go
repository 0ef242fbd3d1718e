package connector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/schema"
)

const mysqlPrefix = "MySQL error"

// MySQL introspects the tables of one MySQL database.
type MySQL struct {
	params Params
	db     *sql.DB
}

// NewMySQL creates an unconnected MySQL connector.
func NewMySQL(p Params) *MySQL {
	return &MySQL{params: p}
}

func (m *MySQL) config() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = m.params.Username
	cfg.Passwd = m.params.Password
	cfg.Net = "tcp"
	cfg.Addr = m.params.Address()
	cfg.DBName = m.params.Database
	return cfg
}

func (m *MySQL) Connect(ctx context.Context) error {
	conn, err := mysql.NewConnector(m.config())
	if err != nil {
		return m.fail(fmt.Errorf("building connector: %w", err))
	}
	db := sql.OpenDB(conn)
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return m.fail(fmt.Errorf("pinging: %w", err))
	}

	m.db = db
	return nil
}

func (m *MySQL) ListObjects(ctx context.Context) ([]ObjectRef, error) {
	if m.db == nil {
		return nil, m.fail(errNotConnected)
	}
	rows, err := m.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, m.fail(fmt.Errorf("listing tables: %w", err))
	}
	defer rows.Close()

	var refs []ObjectRef
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, m.fail(fmt.Errorf("scanning table: %w", err))
		}
		refs = append(refs, ObjectRef{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, m.fail(fmt.Errorf("listing tables: %w", err))
	}
	return refs, nil
}

func (m *MySQL) DescribeObject(ctx context.Context, ref ObjectRef) ([]schema.Column, error) {
	if m.db == nil {
		return nil, m.fail(errNotConnected)
	}
	query := `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT,
			CHARACTER_MAXIMUM_LENGTH
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ?
		  AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := m.db.QueryContext(ctx, query, m.params.Database, ref.Name)
	if err != nil {
		return nil, m.fail(fmt.Errorf("describing %s: %w", ref, err))
	}
	defer rows.Close()

	cols := []schema.Column{}
	for rows.Next() {
		var (
			name, dataType, nullable string
			def                      sql.NullString
			maxLen                   sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &nullable, &def, &maxLen); err != nil {
			return nil, m.fail(fmt.Errorf("scanning column of %s: %w", ref, err))
		}
		var defPtr *string
		if def.Valid {
			defPtr = &def.String
		}
		var maxPtr *int64
		if maxLen.Valid {
			maxPtr = &maxLen.Int64
		}
		cols = append(cols, schema.NormalizeRelational(name, dataType, nullable, defPtr, maxPtr))
	}
	if err := rows.Err(); err != nil {
		return nil, m.fail(fmt.Errorf("describing %s: %w", ref, err))
	}
	return cols, nil
}

func (m *MySQL) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

func (m *MySQL) fail(err error) error {
	return backendError(TypeMySQL, mysqlPrefix, err)
}
