package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/api"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/catalog"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/engine"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/session"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/ws"
)

var (
	servePort int
	serveNoWS bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start the bot catalog and database session API. Sessions live in memory until deleted or the process exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		if serveNoWS {
			cfg.Server.DisableWebSocket = true
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		bots, err := catalog.Load(cfg.Catalog.File, cfg.Catalog.BaseURL)
		if err != nil {
			return err
		}

		// Graceful shutdown on signals
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sessionOpts := []session.Option{session.WithRetainedCredentials(cfg.Sessions.RetainCredentials)}
		serverOpts := []api.Option{api.WithCatalog(bots)}

		var sessions *session.Registry
		if !cfg.Server.DisableWebSocket {
			hub := ws.NewHub(logger,
				ws.WithSnapshot(func() (any, error) { return sessions.List(), nil }),
				ws.WithOriginPatterns(wsOriginPatterns(cfg.Server.AllowedOrigins)),
			)
			go hub.Run(ctx)
			sessionOpts = append(sessionOpts, session.WithObserver(hub))
			serverOpts = append(serverOpts, api.WithHub(hub))
		}
		sessions = session.NewRegistry(sessionOpts...)

		eng := engine.New(cfg, logger, engine.WithSessions(sessions))
		srv := api.New(eng, logger, cfg.Server, serverOpts...)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		fmt.Fprintf(os.Stderr, "botdb API: http://%s\n", cfg.Server.Addr())

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			logger.Info("shutting down server", "active_sessions", sessions.Len())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
		}

		return nil
	},
}

// wsOriginPatterns maps the CORS allow list onto WebSocket origin
// patterns. Host-only patterns are what the handshake matches against.
func wsOriginPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8820, "port for the API server (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveNoWS, "no-ws", false, "disable the /ws session event stream")
	rootCmd.AddCommand(serveCmd)
}
