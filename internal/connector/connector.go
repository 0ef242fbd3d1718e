// Package connector reads table and column metadata out of live databases.
// Each backend implements Connector; Introspect drives one through a
// single connect, list, describe, close cycle.
package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/apperrors"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/schema"
)

// Params are the connection parameters a caller submits.
type Params struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	// Database is the database (or schema, for MySQL) to introspect.
	Database string `json:"schema" yaml:"schema"`
	// TableNames is accepted for compatibility and not used.
	TableNames []string `json:"tableNames" yaml:"tableNames"`
	DBType     string   `json:"dbtype" yaml:"dbtype"`
}

// UnmarshalJSON accepts port as a JSON integer or a numeric string.
func (p *Params) UnmarshalJSON(data []byte) error {
	type plain Params
	aux := struct {
		*plain
		Port json.Number `json:"port"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Port == "" {
		return nil
	}
	port, err := parsePort(aux.Port)
	if err != nil {
		return err
	}
	p.Port = port
	return nil
}

func parsePort(n json.Number) (int, error) {
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i, nil
	}
	if f, err := n.Float64(); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	return 0, fmt.Errorf("port: %q is not a valid integer", n.String())
}

// Address returns host:port.
func (p Params) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// ObjectRef names a table or collection, optionally inside a namespace.
type ObjectRef struct {
	Namespace string
	Name      string
}

func (r ObjectRef) String() string {
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "." + r.Name
}

// Connector speaks one backend's protocol.
type Connector interface {
	// Connect opens a single connection and verifies it is alive.
	Connect(ctx context.Context) error

	// ListObjects returns the user tables or collections.
	ListObjects(ctx context.Context) ([]ObjectRef, error)

	// DescribeObject returns the columns of one object in declaration order.
	DescribeObject(ctx context.Context, ref ObjectRef) ([]schema.Column, error)

	// Close releases the connection. Safe to call when Connect failed.
	Close() error
}

// NamespaceLister is implemented by backends that group tables under
// namespaces. Their results are nested one level deeper.
type NamespaceLister interface {
	ListNamespaces(ctx context.Context) ([]string, error)
}

// Timeouts bound each network step of an introspection.
type Timeouts struct {
	Connect time.Duration
	Query   time.Duration
}

// DefaultTimeouts are used when a caller leaves Timeouts zero.
var DefaultTimeouts = Timeouts{
	Connect: 10 * time.Second,
	Query:   30 * time.Second,
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Connect <= 0 {
		t.Connect = DefaultTimeouts.Connect
	}
	if t.Query <= 0 {
		t.Query = DefaultTimeouts.Query
	}
	return t
}

// Introspect connects, enumerates every object and describes it. The
// connector is closed on every path. Any failure discards what was read so
// far and is returned as an *apperrors.BackendError.
func Introspect(ctx context.Context, c Connector, timeouts Timeouts, logger *slog.Logger) (_ *schema.Schema, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	timeouts = timeouts.withDefaults()

	defer func() {
		if cerr := c.Close(); cerr != nil {
			logger.Warn("closing connection", "error", cerr)
		}
		if err != nil {
			err = asBackendError(err)
		}
	}()

	if err := withTimeout(ctx, timeouts.Connect, c.Connect); err != nil {
		return nil, err
	}

	var namespaces map[string]schema.Tables
	if nl, ok := c.(NamespaceLister); ok {
		var names []string
		err := withTimeout(ctx, timeouts.Query, func(ctx context.Context) error {
			var err error
			names, err = nl.ListNamespaces(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("listed namespaces", "count", len(names))
		namespaces = make(map[string]schema.Tables, len(names))
		for _, n := range names {
			namespaces[n] = schema.Tables{}
		}
	}

	var refs []ObjectRef
	err = withTimeout(ctx, timeouts.Query, func(ctx context.Context) error {
		var err error
		refs, err = c.ListObjects(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("listed objects", "count", len(refs))

	flat := schema.Tables{}
	for _, ref := range refs {
		var cols []schema.Column
		err := withTimeout(ctx, timeouts.Query, func(ctx context.Context) error {
			var err error
			cols, err = c.DescribeObject(ctx, ref)
			return err
		})
		if err != nil {
			return nil, err
		}
		if cols == nil {
			cols = []schema.Column{}
		}
		logger.Debug("described object", "object", ref.String(), "columns", len(cols))

		if namespaces == nil {
			flat[ref.Name] = cols
			continue
		}
		tables, ok := namespaces[ref.Namespace]
		if !ok {
			tables = schema.Tables{}
			namespaces[ref.Namespace] = tables
		}
		tables[ref.Name] = cols
	}

	if namespaces != nil {
		return schema.NewNamespaced(namespaces), nil
	}
	return schema.NewFlat(flat), nil
}

func withTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	if err := fn(ctx); err != nil {
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return err
		}
		var berr *apperrors.BackendError
		if errors.As(err, &berr) {
			return backendError(berr.Backend, berr.Prefix, fmt.Errorf("timed out after %s: %w", d, berr.Err))
		}
		return fmt.Errorf("timed out after %s: %w", d, err)
	}
	return nil
}

// asBackendError keeps a connector's own BackendError and wraps anything
// else so every introspection failure has the same kind.
func asBackendError(err error) error {
	var berr *apperrors.BackendError
	if errors.As(err, &berr) {
		return err
	}
	return &apperrors.BackendError{Prefix: "Database connection failed", Err: err}
}

var errNotConnected = errors.New("not connected; call Connect first")

func backendError(backend, prefix string, err error) error {
	return &apperrors.BackendError{Backend: backend, Prefix: prefix, Err: err}
}
