package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file interactively",
	Long:  `Walk through prompts to create a botdb configuration file at ~/.botdb/botdb.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Default()
		if err != nil {
			return err
		}

		reader := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "botdb Configuration Setup")
		fmt.Fprintln(out, "=========================")
		fmt.Fprintln(out)

		fmt.Fprintln(out, "Server")
		fmt.Fprintln(out, "------")
		cfg.Server.BindAddr = prompt(reader, out, "Bind address", cfg.Server.BindAddr)
		portStr := prompt(reader, out, "Port", strconv.Itoa(cfg.Server.Port))
		if cfg.Server.Port, err = strconv.Atoi(portStr); err != nil {
			return fmt.Errorf("invalid port: %s", portStr)
		}
		origins := prompt(reader, out, "Allowed CORS origins (comma separated)", strings.Join(cfg.Server.AllowedOrigins, ","))
		cfg.Server.AllowedOrigins = splitList(origins)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "Sessions")
		fmt.Fprintln(out, "--------")
		cfg.Sessions.RetainCredentials = promptBool(reader, out, "Keep passwords in session records", cfg.Sessions.RetainCredentials)
		cfg.Connect.ResolveSecretRefs = promptBool(reader, out, "Accept ${ENV|VAULT|AWS_SM:...} passwords from API callers", cfg.Connect.ResolveSecretRefs)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "Bot catalog")
		fmt.Fprintln(out, "-----------")
		cfg.Catalog.BaseURL = prompt(reader, out, "Chat base URL", cfg.Catalog.BaseURL)
		fmt.Fprintln(out)

		cfg.Logging.Level = prompt(reader, out, "Log level (debug/info/warn/error)", cfg.Logging.Level)

		if err := cfg.Validate(); err != nil {
			return err
		}

		cfgPath := config.ExpandHome(config.DefaultPath)
		if cfgFile != "" {
			cfgPath = cfgFile
		}

		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintf(out, "\nConfig written to %s\n", cfgPath)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  botdb config validate   Check the file")
		fmt.Fprintln(out, "  botdb serve             Start the API")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func prompt(reader *bufio.Reader, out io.Writer, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Fprintf(out, "  %s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func promptBool(reader *bufio.Reader, out io.Writer, label string, defaultVal bool) bool {
	def := "n"
	if defaultVal {
		def = "y"
	}
	switch strings.ToLower(prompt(reader, out, label+" (y/n)", def)) {
	case "y", "yes", "true":
		return true
	default:
		return false
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
