package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dsn string

// rootCmd is the base command when mapperql is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "mapperql",
	Short: "A GraphQL-to-SQL query engine",
	Long: `mapperql compiles a GraphQL selection into a single SQL statement
per root field, against a fixed movies/people mapping, and walks the result
set back out through a row-table cursor.`,
}

// Execute adds all child commands to rootCmd and runs it. Called once by
// main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL data source name (required by serve)")
}
