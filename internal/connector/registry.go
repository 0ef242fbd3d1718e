package connector

import (
	"strings"
	"sync"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/apperrors"
)

// Database type tags.
const (
	TypePostgres = "postgresql"
	TypeMySQL    = "mysql"
	TypeMongo    = "mongodb"
)

// Factory builds an unconnected Connector for the given parameters.
type Factory func(Params) Connector

// Registry resolves a database type tag to the Connector that serves it.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	order     []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a Registry serving PostgreSQL, MySQL and MongoDB.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypePostgres, func(p Params) Connector { return NewPostgres(p) })
	r.Register(TypeMySQL, func(p Params) Connector { return NewMySQL(p) })
	r.Register(TypeMongo, func(p Params) Connector { return NewMongo(p) })
	return r
}

// Register adds or replaces the factory for dbtype.
func (r *Registry) Register(dbtype string, f Factory) {
	key := NormalizeType(dbtype)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; !exists {
		r.order = append(r.order, key)
	}
	r.factories[key] = f
}

// Resolve builds the Connector for p.DBType. An unknown type is a
// ValidationError and nothing is constructed.
func (r *Registry) Resolve(p Params) (Connector, error) {
	r.mu.RLock()
	f, ok := r.factories[NormalizeType(p.DBType)]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.Validationf("Unsupported database type: '%s'. Supported types are: %s",
			p.DBType, strings.Join(r.Supported(), ", "))
	}
	return f(p), nil
}

// Supported returns the registered type tags in registration order.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NormalizeType lower-cases and trims a database type tag.
func NormalizeType(dbtype string) string {
	return strings.ToLower(strings.TrimSpace(dbtype))
}
