package api

import (
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/schema"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/session"
)

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

// StatusResponse is returned by mutations that carry no data.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ConnectResponse is returned by POST /connectDB.
type ConnectResponse struct {
	Status     string         `json:"status"`
	SessionID  string         `json:"session_id"`
	SchemaInfo *schema.Schema `json:"schema_info"`
}

// SetSchemaResponse is returned by POST /setsessionSchema.
type SetSchemaResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	SessionID string   `json:"session_id"`
	Tables    []string `json:"tables"`
}

// SessionsResponse is returned by GET /sessions.
type SessionsResponse struct {
	ActiveSessions []string          `json:"active_sessions"`
	SessionDetails []session.Summary `json:"session_details"`
}

// ConnectionInfo is the credential-free view of a session's parameters.
type ConnectionInfo struct {
	DBType string `json:"dbtype"`
	Host   string `json:"host"`
	Schema string `json:"schema"`
}

// SessionSchemaResponse is returned by GET /session/{session_id}/schema.
type SessionSchemaResponse struct {
	SessionID      string         `json:"session_id"`
	Schema         *schema.Schema `json:"schema"`
	ConnectionInfo ConnectionInfo `json:"connection_info"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status             string   `json:"status"`
	ActiveSessions     int      `json:"active_sessions"`
	ConfiguredSchemas  int      `json:"configured_schemas"`
	SupportedDatabases []string `json:"supported_databases"`
}

// RootResponse is the service banner.
type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
