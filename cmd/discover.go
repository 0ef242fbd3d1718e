package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/connector"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/engine"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/logging"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/schema"
)

var (
	discoverParams connector.Params
	discoverOutput string
	discoverFormat string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Introspect a database and print its schema",
	Long: `Connect to a PostgreSQL, MySQL or MongoDB database, read its tables or
collections and their columns, and print the schema the API would cache.

The password may be a reference such as ${ENV:DB_PASSWORD},
${VAULT:secret/data/db#password} or ${AWS_SM:prod/db}.`,
	Example: `  botdb discover --dbtype postgresql --host localhost --port 5432 --user app --schema shop
  botdb discover --dbtype mongodb --host localhost --port 27017 --schema app -o app.json --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch discoverFormat {
		case schema.FormatYAML, schema.FormatJSON:
		default:
			return fmt.Errorf("unknown format %q (want yaml or json)", discoverFormat)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Connect.ResolveSecretRefs = true

		// stdout may carry the schema itself
		logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		eng := engine.New(cfg, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "Connecting to %s at %s/%s...\n",
			discoverParams.DBType, discoverParams.Address(), discoverParams.Database)
		s, err := eng.Discover(ctx, discoverParams)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, s.Summary())

		if discoverOutput != "" {
			if err := s.Write(discoverOutput, discoverFormat); err != nil {
				return fmt.Errorf("writing schema: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Schema written to %s\n", discoverOutput)
			return nil
		}

		var data []byte
		if discoverFormat == schema.FormatJSON {
			data, err = s.ToJSON()
		} else {
			data, err = s.ToYAML()
		}
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	f := discoverCmd.Flags()
	f.StringVar(&discoverParams.DBType, "dbtype", "", "database type: postgresql, mysql or mongodb")
	f.StringVar(&discoverParams.Host, "host", "localhost", "database host")
	f.IntVar(&discoverParams.Port, "port", 0, "database port")
	f.StringVar(&discoverParams.Username, "user", "", "username")
	f.StringVar(&discoverParams.Password, "password", "", "password or secret reference")
	f.StringVar(&discoverParams.Database, "schema", "", "database (MySQL, MongoDB) or catalog (PostgreSQL) name")
	f.StringVarP(&discoverOutput, "output", "o", "", "write the schema to this file instead of stdout")
	f.StringVar(&discoverFormat, "format", schema.FormatYAML, "output format: yaml or json")
	_ = discoverCmd.MarkFlagRequired("dbtype")
	_ = discoverCmd.MarkFlagRequired("port")
	rootCmd.AddCommand(discoverCmd)
}
