package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/apperrors"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/connector"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/schema"
)

func params(host string, port int, db string) connector.Params {
	return connector.Params{
		Host: host, Port: port, Database: db,
		Username: "u", Password: "secret", DBType: "postgresql",
	}
}

func flat(tables ...string) *schema.Schema {
	t := schema.Tables{}
	for _, name := range tables {
		t[name] = []schema.Column{{Name: "id"}}
	}
	return schema.NewFlat(t)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) SessionChanged(event string, s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+" "+s.SessionID)
}

func TestDeriveID(t *testing.T) {
	assert.Equal(t, "localhost:5432:shop", DeriveID(params("localhost", 5432, "shop")))
}

func TestPutGet(t *testing.T) {
	r := NewRegistry()
	sess := r.Put(params("db", 5432, "shop"), flat("users"))
	assert.Equal(t, "db:5432:shop", sess.ID)

	got, err := r.Get("db:5432:shop")
	require.NoError(t, err)
	assert.Equal(t, "db", got.Params.Host)
	assert.Contains(t, got.Schema.Tables, "users")
}

func TestPut_ClearsPasswordByDefault(t *testing.T) {
	r := NewRegistry()
	r.Put(params("db", 1, "x"), flat())
	got, err := r.Get("db:1:x")
	require.NoError(t, err)
	assert.Empty(t, got.Params.Password)

	r = NewRegistry(WithRetainedCredentials(true))
	r.Put(params("db", 1, "x"), flat())
	got, err = r.Get("db:1:x")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Params.Password)
}

func TestPut_CollisionOverwrites(t *testing.T) {
	r := NewRegistry()
	first := params("db", 5432, "shop")
	second := first
	second.Username = "other"
	second.Password = "other-secret"

	r.Put(first, flat("a"))
	r.Put(second, flat("b"))

	assert.Equal(t, 1, r.Len())
	got, err := r.Get("db:5432:shop")
	require.NoError(t, err)
	assert.Equal(t, "other", got.Params.Username)
	assert.NotContains(t, got.Schema.Tables, "a")
	assert.Contains(t, got.Schema.Tables, "b")
}

func TestGet_NotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "Session not found", apperrors.PublicMessage(err))
}

func TestSetSchema_ReplacesWholesale(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(WithClock(func() time.Time { return clock }))
	r.Put(params("db", 1, "x"), flat("a", "b"))

	clock = clock.Add(time.Minute)
	require.NoError(t, r.SetSchema("db:1:x", schema.Tables{"c": {{Name: "k"}}}))

	got, err := r.Get("db:1:x")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got.Schema.Tables.Names())
	assert.False(t, got.Schema.Namespaced())
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestSetSchema_NotFound(t *testing.T) {
	r := NewRegistry()
	err := r.SetSchema("missing", schema.Tables{})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Zero(t, r.Len())
}

func TestDelete(t *testing.T) {
	r := NewRegistry()
	r.Put(params("db", 1, "x"), flat("a"))

	require.NoError(t, r.Delete("db:1:x"))
	_, err := r.Get("db:1:x")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	err = r.Delete("db:1:x")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestListSortedAndCounts(t *testing.T) {
	r := NewRegistry()
	r.Put(params("b", 1, "x"), flat("t"))
	r.Put(params("a", 1, "x"), nil)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a:1:x", list[0].SessionID)
	assert.False(t, list[0].HasSchemaDefined)
	assert.Equal(t, "b:1:x", list[1].SessionID)
	assert.True(t, list[1].HasSchemaDefined)
	assert.Equal(t, "postgresql", list[1].DBType)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.SchemaCount())
}

func TestObserverEvents(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry(WithObserver(rec))

	r.Put(params("db", 1, "x"), flat())
	require.NoError(t, r.SetSchema("db:1:x", schema.Tables{}))
	require.NoError(t, r.Delete("db:1:x"))
	_ = r.Delete("db:1:x")

	assert.Equal(t, []string{
		EventCreated + " db:1:x",
		EventSchemaUpdated + " db:1:x",
		EventDeleted + " db:1:x",
	}, rec.events)
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := params(fmt.Sprintf("h%d", i%10), 1, "x")
			r.Put(p, flat("t"))
			_ = r.SetSchema(DeriveID(p), schema.Tables{"u": nil})
			_ = r.List()
			if i%3 == 0 {
				_ = r.Delete(DeriveID(p))
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, r.Len(), 10)
}
