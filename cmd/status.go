package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/api"
)

var statusURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health and sessions of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		base := statusURL
		if base == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			host := cfg.Server.BindAddr
			if host == "" || host == "0.0.0.0" || host == "::" {
				host = "localhost"
			}
			base = fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
		}
		base = strings.TrimRight(base, "/")

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		var health api.HealthResponse
		if err := getJSON(ctx, base+"/health", &health); err != nil {
			return err
		}
		var sessions api.SessionsResponse
		if err := getJSON(ctx, base+"/sessions", &sessions); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Server:     %s (%s)\n", base, health.Status)
		fmt.Fprintf(out, "Databases:  %s\n", strings.Join(health.SupportedDatabases, ", "))
		fmt.Fprintf(out, "Sessions:   %d (%d with schema)\n\n", health.ActiveSessions, health.ConfiguredSchemas)

		for _, s := range sessions.SessionDetails {
			mark := "  "
			if s.HasSchemaDefined {
				mark = "OK"
			}
			fmt.Fprintf(out, "  [%s] %-40s %s\n", mark, s.SessionID, s.DBType)
		}
		return nil
	},
}

func getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e api.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", url, e.Error)
		}
		return fmt.Errorf("%s: unexpected status %s", url, resp.Status)
	}
	return json.Unmarshal(body, v)
}

func init() {
	statusCmd.Flags().StringVar(&statusURL, "url", "", "server base URL (default: from server.bind_addr and server.port)")
	rootCmd.AddCommand(statusCmd)
}
