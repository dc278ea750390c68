package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eddieafk/mapperql/internal/movies"
	"github.com/eddieafk/mapperql/rowcursor"
)

var benchIterations int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure the plan/walk cost of the movieById fixture query",
	Long: `bench repeatedly elaborates, plans, and walks the
movieById(id) { title director { name } } query against a canned fixture
table, reporting throughput for the compile-plan-walk path in isolation
from any real SQL driver round trip.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchIterations, "n", "n", 10000, "number of iterations")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchIterations <= 0 {
		return fmt.Errorf("bench: -n must be positive")
	}

	start := time.Now()
	for i := 0; i < benchIterations; i++ {
		reg, mq, err := movies.PlanMovieByID("m-alien")
		if err != nil {
			return fmt.Errorf("bench: plan: %w", err)
		}

		c := rowcursor.NewRoot(mq, reg, "Movie", movies.FixtureTable(), false)
		if _, err := walk(c); err != nil {
			return fmt.Errorf("bench: walk: %w", err)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("%d iterations in %s (%.0f ops/s)\n", benchIterations, elapsed, float64(benchIterations)/elapsed.Seconds())
	return nil
}

// walk reads the fields the fixture query selects, matching the cost of
// stitching a response back together for a real caller.
func walk(c rowcursor.Cursor) (string, error) {
	title, err := c.Field("title")
	if err != nil {
		return "", err
	}
	titleLeaf, err := title.AsLeaf()
	if err != nil {
		return "", err
	}

	director, err := c.Field("director")
	if err != nil {
		return "", err
	}
	name, err := director.Field("name")
	if err != nil {
		return "", err
	}
	nameLeaf, err := name.AsLeaf()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%v/%v", titleLeaf.Value(), nameLeaf.Value()), nil
}
