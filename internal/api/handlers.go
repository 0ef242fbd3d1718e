package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/apperrors"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/catalog"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/connector"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"/getbotsinfo":                 "Get information about available bots",
		"/connectDB":                   "Connect to a database and retrieve table information",
		"/setsessionSchema":            "Set schema for a database session",
		"/sessions":                    "Get all active database sessions",
		"/session/{session_id}/schema": "Get schema for a specific session",
		"/session/{session_id}":        "Delete a database session",
		"/health":                      "Health check endpoint",
		"/example/connectDB":           "Example request for connecting to databases",
		"/example/setsessionSchema":    "Example request for setting session schema",
	}
	if s.hub != nil {
		endpoints["/ws"] = "WebSocket stream of session events"
	}
	jsonResponse(w, http.StatusOK, RootResponse{
		Message:   "Welcome to Database Connections API",
		Version:   Version,
		Endpoints: endpoints,
	})
}

func (s *Server) handleGetBots(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.catalog.Bots())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connector.Params
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.engine.Connect(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, ConnectResponse{
		Status:     "success",
		SessionID:  sess.ID,
		SchemaInfo: sess.Schema,
	})
}

func (s *Server) handleSetSessionSchema(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		s.writeError(w, r, apperrors.Validationf("Missing required query parameter 'session_id'"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, apperrors.Validationf("Invalid request body: %v", err))
		return
	}

	tables, err := s.engine.SetSchema(id, body)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.writeError(w, r, apperrors.NotFound("Session not found. Please connect to database first."))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, SetSchemaResponse{
		Status:    "success",
		Message:   "Session schema set successfully",
		SessionID: id,
		Tables:    tables,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	details := s.engine.Sessions().List()
	ids := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.SessionID)
	}
	jsonResponse(w, http.StatusOK, SessionsResponse{
		ActiveSessions: ids,
		SessionDetails: details,
	})
}

func (s *Server) handleGetSessionSchema(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	sess, err := s.engine.Sessions().Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sess.Schema == nil {
		s.writeError(w, r, apperrors.NotFound("Session schema not defined"))
		return
	}

	jsonResponse(w, http.StatusOK, SessionSchemaResponse{
		SessionID: sess.ID,
		Schema:    sess.Schema,
		ConnectionInfo: ConnectionInfo{
			DBType: sess.Params.DBType,
			Host:   sess.Params.Host,
			Schema: sess.Params.Database,
		},
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	if err := s.engine.DeleteSession(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Session %s deleted successfully", id),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sessions := s.engine.Sessions()
	jsonResponse(w, http.StatusOK, HealthResponse{
		Status:             "healthy",
		ActiveSessions:     sessions.Len(),
		ConfiguredSchemas:  sessions.SchemaCount(),
		SupportedDatabases: s.engine.SupportedDatabases(),
	})
}

func (s *Server) handleExampleConnect(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, catalog.ExampleConnect())
}

func (s *Server) handleExampleSetSchema(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, catalog.ExampleSetSchema())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, http.StatusNotFound, "Not Found")
}

// decodeBody decodes a single JSON object into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validationf("Invalid request body: body is empty")
		}
		return apperrors.Validationf("Invalid request body: %v", err)
	}
	if dec.More() {
		return apperrors.Validationf("Invalid request body: unexpected data after object")
	}
	return nil
}
