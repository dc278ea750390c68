package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/eddieafk/mapperql/graphql"
	"github.com/eddieafk/mapperql/handler"
	"github.com/eddieafk/mapperql/internal/movies"
	"github.com/eddieafk/mapperql/sqldriver"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the movies/people GraphQL endpoint over HTTP",
	Long: `serve wires a real sqldriver.DB (per --dsn) into graphql.Executor
and exposes it over handler.Server, the same wiring a production deployment
would use in place of a canned rowcursor.Table.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if dsn == "" {
		return fmt.Errorf("serve: --dsn is required")
	}

	reg, err := movies.Registry()
	if err != nil {
		return fmt.Errorf("serve: building registry: %w", err)
	}

	schema, err := graphql.LoadSchema(movieSchemaSDL)
	if err != nil {
		return fmt.Errorf("serve: loading schema: %w", err)
	}

	db, err := sqldriver.Open(dsn, sqldriver.EncoderRegistry{})
	if err != nil {
		return fmt.Errorf("serve: opening database: %w", err)
	}
	defer db.Close()

	executor := graphql.NewExecutor(schema, reg, db)
	srv := handler.New(executor)
	srv.UseExtension(handler.NewTracing())

	fmt.Printf("mapperql serving on %s\n", serveAddr)
	return http.ListenAndServe(serveAddr, srv)
}
