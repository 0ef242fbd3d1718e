// Package session keeps introspected schemas in memory, keyed by the
// connection they came from.
package session

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/apperrors"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/connector"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/schema"
)

// Session binds a derived id to connection parameters and a cached schema.
type Session struct {
	ID        string
	Params    connector.Params
	Schema    *schema.Schema
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is the listing view of a session.
type Summary struct {
	SessionID        string `json:"session_id"`
	DBType           string `json:"dbtype"`
	Host             string `json:"host"`
	Port             int    `json:"port"`
	Schema           string `json:"schema"`
	HasSchemaDefined bool   `json:"has_schema_defined"`
}

// DeriveID returns host:port:database. Two callers connecting to the same
// database share an id; the later connect replaces the earlier session.
func DeriveID(p connector.Params) string {
	return p.Host + ":" + strconv.Itoa(p.Port) + ":" + p.Database
}

// Event kinds passed to an Observer.
const (
	EventCreated       = "session_created"
	EventSchemaUpdated = "session_schema_updated"
	EventDeleted       = "session_deleted"
)

// Observer is told about every change after it has been applied.
type Observer interface {
	SessionChanged(event string, s Summary)
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver registers o for change notifications.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observers = append(r.observers, o) }
}

// WithRetainedCredentials keeps passwords in stored sessions. By default
// they are cleared once introspection has used them.
func WithRetainedCredentials(retain bool) Option {
	return func(r *Registry) { r.retainCredentials = retain }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry owns every session. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	observers         []Observer
	retainCredentials bool
	now               func() time.Time
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Put stores a session for params, replacing any session with the same id.
func (r *Registry) Put(params connector.Params, s *schema.Schema) *Session {
	if !r.retainCredentials {
		params.Password = ""
	}
	params.TableNames = append([]string(nil), params.TableNames...)

	id := DeriveID(params)
	now := r.now()

	r.mu.Lock()
	sess := &Session{ID: id, Params: params, Schema: s, CreatedAt: now, UpdatedAt: now}
	r.sessions[id] = sess
	out := *sess
	r.mu.Unlock()

	r.notify(EventCreated, summarize(&out))
	return &out
}

// Get returns a copy of the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, notFound(id)
	}
	out := *sess
	return &out, nil
}

// List returns a summary of every session, ordered by id.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	out := make([]Summary, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, summarize(sess))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// SetSchema replaces the session's schema wholesale.
func (r *Registry) SetSchema(id string, tables schema.Tables) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return notFound(id)
	}
	sess.Schema = schema.NewFlat(tables)
	sess.UpdatedAt = r.now()
	sum := summarize(sess)
	r.mu.Unlock()

	r.notify(EventSchemaUpdated, sum)
	return nil
}

// Delete removes the session and its schema.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return notFound(id)
	}
	delete(r.sessions, id)
	sum := summarize(sess)
	r.mu.Unlock()

	r.notify(EventDeleted, sum)
	return nil
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SchemaCount returns the number of sessions that have a schema.
func (r *Registry) SchemaCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, sess := range r.sessions {
		if sess.Schema != nil {
			n++
		}
	}
	return n
}

func (r *Registry) notify(event string, s Summary) {
	for _, o := range r.observers {
		o.SessionChanged(event, s)
	}
}

func summarize(sess *Session) Summary {
	return Summary{
		SessionID:        sess.ID,
		DBType:           sess.Params.DBType,
		Host:             sess.Params.Host,
		Port:             sess.Params.Port,
		Schema:           sess.Params.Database,
		HasSchemaDefined: sess.Schema != nil,
	}
}

func notFound(id string) error {
	return fmt.Errorf("session %q: %w", id, apperrors.NotFound("Session not found"))
}
