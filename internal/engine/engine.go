package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/apperrors"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/config"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/connector"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/logging"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/schema"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/session"
)

// SecretResolver turns a ${PROVIDER:ref} password into the secret itself.
type SecretResolver func(ctx context.Context, val string) (string, error)

// Engine is the core shared by the HTTP API and the CLI: it resolves a
// database type to a connector, introspects, and records sessions.
type Engine struct {
	Config *config.Config
	Logger *slog.Logger

	connectors *connector.Registry
	sessions   *session.Registry
	resolve    SecretResolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithConnectors replaces the default connector registry.
func WithConnectors(r *connector.Registry) Option {
	return func(e *Engine) { e.connectors = r }
}

// WithSessions replaces the default session registry.
func WithSessions(r *session.Registry) Option {
	return func(e *Engine) { e.sessions = r }
}

// WithSecretResolver replaces the resolver built from Config.Secrets.
func WithSecretResolver(fn SecretResolver) Option {
	return func(e *Engine) { e.resolve = fn }
}

// New creates a new Engine with the given config and logger.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		Config:  cfg,
		Logger:  logger,
		resolve: cfg.Secrets.Resolve,
	}
	for _, o := range opts {
		o(e)
	}
	if e.connectors == nil {
		e.connectors = connector.DefaultRegistry()
	}
	if e.sessions == nil {
		e.sessions = session.NewRegistry(session.WithRetainedCredentials(cfg.Sessions.RetainCredentials))
	}
	return e
}

// Sessions returns the session registry.
func (e *Engine) Sessions() *session.Registry {
	return e.sessions
}

// SupportedDatabases lists the accepted dbtype values.
func (e *Engine) SupportedDatabases() []string {
	return e.connectors.Supported()
}

// Connect introspects the database described by p and stores the result
// as a session, replacing any session with the same id.
func (e *Engine) Connect(ctx context.Context, p connector.Params) (*session.Session, error) {
	s, err := e.Discover(ctx, p)
	if err != nil {
		return nil, err
	}
	sess := e.sessions.Put(p, s)
	e.Logger.Info("session stored", "session_id", sess.ID, "tables", s.TableCount())
	return sess, nil
}

// Discover introspects the database described by p without storing anything.
func (e *Engine) Discover(ctx context.Context, p connector.Params) (*schema.Schema, error) {
	logger := e.Logger.With("dbtype", connector.NormalizeType(p.DBType), "address", p.Address(), "database", p.Database)

	c, err := e.connectors.Resolve(p)
	if err != nil {
		logger.Warn("rejected connection request", "error", err)
		return nil, err
	}
	if err := validateParams(p); err != nil {
		return nil, err
	}

	if e.Config.Connect.ResolveSecretRefs && config.IsSecretRef(p.Password) {
		secret, err := e.resolve(ctx, p.Password)
		if err != nil {
			logger.Error("resolving password reference", "error", logging.SanitizeError(err))
			return nil, apperrors.Validationf("Could not resolve password reference: %s", logging.SanitizeError(err))
		}
		p.Password = secret
		// The connector was built from the reference; rebuild it with the secret.
		if c, err = e.connectors.Resolve(p); err != nil {
			return nil, err
		}
	}

	logger.Info("connecting to database")
	start := time.Now()
	s, err := connector.Introspect(ctx, c, e.timeouts(), logger)
	if err != nil {
		logger.Error("introspection failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	logger.Info("introspection complete", "summary", s.Summary(), "duration", time.Since(start))
	return s, nil
}

// SetSchema replaces the schema of an existing session with a caller-supplied
// one and returns its table names in payload order. An unknown session is
// reported before the payload is looked at.
func (e *Engine) SetSchema(id string, payload []byte) ([]string, error) {
	if _, err := e.sessions.Get(id); err != nil {
		return nil, err
	}
	tables, order, err := schema.ParseOverride(payload)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.SetSchema(id, tables); err != nil {
		return nil, err
	}
	e.Logger.Info("session schema replaced", "session_id", id, "tables", len(order))
	if order == nil {
		order = []string{}
	}
	return order, nil
}

// DeleteSession removes a session.
func (e *Engine) DeleteSession(id string) error {
	if err := e.sessions.Delete(id); err != nil {
		return err
	}
	e.Logger.Info("session deleted", "session_id", id)
	return nil
}

func (e *Engine) timeouts() connector.Timeouts {
	return connector.Timeouts{
		Connect: e.Config.Connect.ConnectTimeout,
		Query:   e.Config.Connect.QueryTimeout,
	}
}

func validateParams(p connector.Params) error {
	var problems []string
	if p.Host == "" {
		problems = append(problems, "host is required")
	}
	if p.Port < 1 || p.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", p.Port))
	}
	if len(problems) > 0 {
		return apperrors.Validationf("Invalid connection parameters: %s", strings.Join(problems, "; "))
	}
	return nil
}
