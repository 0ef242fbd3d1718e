package testhelpers

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// PostgresFixture creates two tables in public and one in a second schema.
var PostgresFixture = []string{
	`CREATE TABLE public.customers (
		id SERIAL PRIMARY KEY,
		email VARCHAR(120) NOT NULL,
		nickname TEXT,
		status VARCHAR(16) NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE public.orders (
		id BIGSERIAL PRIMARY KEY,
		customer_id INTEGER NOT NULL REFERENCES public.customers(id),
		total NUMERIC(10,2)
	)`,
	`CREATE SCHEMA audit`,
	`CREATE TABLE audit.events (
		id INTEGER NOT NULL,
		payload JSONB
	)`,
	`CREATE SCHEMA empty_ns`,
	`CREATE VIEW public.active_customers AS SELECT id FROM public.customers WHERE status = 'active'`,
}

// PostgresColumns lists the fixture's columns per namespace and table, in
// declaration order.
var PostgresColumns = map[string]map[string][]string{
	"public": {
		"customers": {"id", "email", "nickname", "status"},
		"orders":    {"id", "customer_id", "total"},
	},
	"audit": {
		"events": {"id", "payload"},
	},
	"empty_ns": {},
}

// MySQLFixture creates two tables in the test database.
var MySQLFixture = []string{
	`CREATE TABLE products (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		description TEXT
	)`,
	`CREATE TABLE tags (
		product_id INT NOT NULL,
		label VARCHAR(32)
	)`,
}

// MySQLColumns lists the fixture's columns per table in declaration order.
var MySQLColumns = map[string][]string{
	"products": {"id", "name", "price", "description"},
	"tags":     {"product_id", "label"},
}

// LoadMongoFixture creates one populated collection and one empty one.
func LoadMongoFixture(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("things").InsertOne(ctx, bson.D{
		{Key: "a", Value: int32(1)},
		{Key: "b", Value: "x"},
	})
	if err != nil {
		return err
	}
	return db.CreateCollection(ctx, "empty")
}

// MongoColumns lists the sampled fields per collection in document order.
var MongoColumns = map[string][]string{
	"things": {"_id", "a", "b"},
	"empty":  {},
}
