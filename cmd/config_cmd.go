package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and validate the botdb configuration file and its environment overrides.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Current configuration:")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Server:\n")
		fmt.Fprintf(out, "    Address:          %s\n", cfg.Server.Addr())
		fmt.Fprintf(out, "    CORS:             %s\n", onOff(!cfg.Server.DisableCORS, strings.Join(cfg.Server.AllowedOrigins, ", ")))
		fmt.Fprintf(out, "    WebSocket:        %s\n", onOff(!cfg.Server.DisableWebSocket, "/ws"))
		fmt.Fprintf(out, "    Shutdown timeout: %s\n", cfg.Server.ShutdownTimeout)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Connect:\n")
		fmt.Fprintf(out, "    Connect timeout:  %s\n", cfg.Connect.ConnectTimeout)
		fmt.Fprintf(out, "    Query timeout:    %s\n", cfg.Connect.QueryTimeout)
		fmt.Fprintf(out, "    Secret refs:      %t\n", cfg.Connect.ResolveSecretRefs)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Sessions:\n")
		fmt.Fprintf(out, "    Keep passwords:   %t\n", cfg.Sessions.RetainCredentials)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Catalog:\n")
		fmt.Fprintf(out, "    Base URL:         %s\n", cfg.Catalog.BaseURL)
		fmt.Fprintf(out, "    File:             %s\n", orDefault(cfg.Catalog.File, "(built-in)"))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Secrets:\n")
		fmt.Fprintf(out, "    Vault address:    %s\n", orDefault(cfg.Secrets.VaultAddr, "(unset)"))
		fmt.Fprintf(out, "    Vault token:      %s\n", orDefault(maskSecret(cfg.Secrets.VaultToken), "(unset)"))
		fmt.Fprintf(out, "    AWS region:       %s\n", orDefault(cfg.Secrets.AWSRegion, "(sdk default)"))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Logging:\n")
		fmt.Fprintf(out, "    Level:            %s\n", cfg.Logging.Level)
		fmt.Fprintf(out, "    Format:           %s\n", cfg.Logging.Format)
		fmt.Fprintf(out, "    Directory:        %s\n", orDefault(cfg.Logging.Directory, "(stdout only)"))

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
		return nil
	},
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func onOff(on bool, detail string) string {
	if !on {
		return "disabled"
	}
	return "enabled (" + detail + ")"
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
