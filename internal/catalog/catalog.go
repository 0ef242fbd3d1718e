// Package catalog serves the static bot catalog and the example request
// payloads shown to API users.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/connector"
)

//go:embed bots.yaml
var builtinBots []byte

//go:embed setschema_example.json
var setSchemaExample []byte

// Bot describes one preconfigured chat bot.
type Bot struct {
	BotID         string `yaml:"bot_id" json:"bot_id"`
	BotType       string `yaml:"bot_type" json:"bot_type"`
	AgentType     string `yaml:"agent_type" json:"agent_type"`
	Theme         string `yaml:"theme" json:"theme"`
	Description   string `yaml:"description" json:"description"`
	URL           string `yaml:"url,omitempty" json:"url"`
	ChatHistoryDB string `yaml:"chat_history_db" json:"chat_history_db"`
	VectorDB      string `yaml:"vector_db" json:"vector_db"`
}

// Catalog is an immutable list of bots.
type Catalog struct {
	bots []Bot
}

type catalogFile struct {
	Bots []Bot `yaml:"bots"`
}

// Load returns the catalog from path, or the built-in one when path is empty.
func Load(path, baseURL string) (*Catalog, error) {
	data := builtinBots
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
	}
	return Parse(data, baseURL)
}

// Parse decodes a YAML catalog. Bots without a url get baseURL/bot_type.
func Parse(data []byte, baseURL string) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Bots))
	base := strings.TrimRight(baseURL, "/")
	for i := range f.Bots {
		b := &f.Bots[i]
		if b.BotID == "" {
			return nil, fmt.Errorf("catalog entry %d: missing bot_id", i)
		}
		if seen[b.BotID] {
			return nil, fmt.Errorf("catalog entry %d: duplicate bot_id %q", i, b.BotID)
		}
		seen[b.BotID] = true
		if b.URL == "" {
			b.URL = base + "/" + b.BotType
		}
	}
	if f.Bots == nil {
		f.Bots = []Bot{}
	}
	return &Catalog{bots: f.Bots}, nil
}

// Bots returns a copy of the catalog entries in file order.
func (c *Catalog) Bots() []Bot {
	out := make([]Bot, len(c.bots))
	copy(out, c.bots)
	return out
}

// ConnectExamples is the payload of GET /example/connectDB.
type ConnectExamples struct {
	Description string           `json:"description"`
	Postgres    connector.Params `json:"postgresql_example"`
	MySQL       connector.Params `json:"mysql_example"`
	Mongo       connector.Params `json:"mongodb_example"`
}

// ExampleConnect returns sample connectDB bodies for each backend.
func ExampleConnect() ConnectExamples {
	return ConnectExamples{
		Description: "Example request for connecting to different databases",
		Postgres: connector.Params{
			Host: "localhost", Port: 5432, Username: "myuser", Password: "mypassword",
			Database: "mydatabase", TableNames: []string{}, DBType: connector.TypePostgres,
		},
		MySQL: connector.Params{
			Host: "localhost", Port: 3306, Username: "root", Password: "password",
			Database: "mydb", TableNames: []string{}, DBType: connector.TypeMySQL,
		},
		Mongo: connector.Params{
			Host: "localhost", Port: 27017, Username: "admin", Password: "password",
			Database: "mydb", TableNames: []string{}, DBType: connector.TypeMongo,
		},
	}
}

// SetSchemaExample is the payload of GET /example/setsessionSchema.
type SetSchemaExample struct {
	Description string          `json:"description"`
	Method      string          `json:"method"`
	URL         string          `json:"url"`
	Body        json.RawMessage `json:"body"`
}

// ExampleSetSchema returns a sample setsessionSchema request.
func ExampleSetSchema() SetSchemaExample {
	return SetSchemaExample{
		Description: "Example request for setting session schema",
		Method:      "POST",
		URL:         "/setsessionSchema?session_id=localhost:5432:mydatabase",
		Body:        json.RawMessage(setSchemaExample),
	}
}
