package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/eddieafk/mapperql/algebra"
	"github.com/eddieafk/mapperql/graphql"
	"github.com/eddieafk/mapperql/internal/movies"
	"github.com/eddieafk/mapperql/mapping"
	"github.com/eddieafk/mapperql/planner"
	"github.com/eddieafk/mapperql/sqldriver"
)

var planQuery string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the SQL each root field of a query would compile to",
	Long: `plan runs a query through the same collect/elaborate/build stages
graphql.Executor uses, one statement per root field, and prints the
rendered SQL and bind arguments without ever opening a database connection.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planQuery, "query", "q", "", "GraphQL query text to plan (required)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if planQuery == "" {
		return fmt.Errorf("plan: --query is required")
	}

	reg, err := movies.Registry()
	if err != nil {
		return fmt.Errorf("plan: building registry: %w", err)
	}

	schema, err := graphql.LoadSchema(movieSchemaSDL)
	if err != nil {
		return fmt.Errorf("plan: loading schema: %w", err)
	}

	doc, errs := gqlparser.LoadQuery(schema.AST(), planQuery)
	if len(errs) > 0 {
		return fmt.Errorf("plan: parsing query: %w", errs[0])
	}
	if len(doc.Operations) == 0 {
		return fmt.Errorf("plan: no operation in query")
	}
	op := doc.Operations[0]

	fragments := make(map[string]*ast.FragmentDefinition, len(doc.Fragments))
	for _, f := range doc.Fragments {
		fragments[f.Name] = f
	}

	rootType := schema.QueryTypeName()
	collector := graphql.NewCollector(schema, fragments, nil, reg)
	query, err := collector.Collect(op.SelectionSet, rootType)
	if err != nil {
		return fmt.Errorf("plan: collecting query: %w", err)
	}

	rootOM, ok := reg.ObjectMappingFor(rootType, nil)
	if !ok {
		return fmt.Errorf("plan: no mapping registered for root type %q", rootType)
	}

	for _, sel := range rootFields(query) {
		fm, ok := rootOM.Field(sel.Name)
		if !ok {
			return fmt.Errorf("plan: no mapping registered for root field %q", sel.Name)
		}
		obj, ok := fm.(mapping.SqlObject)
		if !ok {
			return fmt.Errorf("plan: root field %q is not a queryable object", sel.Name)
		}

		selChild := sel.Child
		if obj.Filter != nil {
			selChild = algebra.Filter{Pred: obj.Filter, Child: selChild}
		}

		elaborated, err := planner.Elaborate(reg, selChild, nil, obj.TargetType, rootType)
		if err != nil {
			return fmt.Errorf("plan: elaborating %q: %w", sel.Name, err)
		}
		mq, err := planner.Build(reg, elaborated, nil, obj.TargetType)
		if err != nil {
			return fmt.Errorf("plan: building %q: %w", sel.Name, err)
		}

		frag, err := mq.Fragment(sqldriver.EncoderRegistry{}.EncoderFor)
		if err != nil {
			return fmt.Errorf("plan: fragmenting %q: %w", sel.Name, err)
		}
		sqlText, bindArgs, err := sqldriver.Render(sqldriver.Postgres{}, frag)
		if err != nil {
			return fmt.Errorf("plan: rendering %q: %w", sel.Name, err)
		}

		fmt.Printf("-- %s\n%s\n%v\n\n", sel.ResultName(), sqlText, bindArgs)
	}

	return nil
}

// rootFields peels apart the top-level field selections a collected query
// denotes, mirroring graphql.Executor's own split of an operation into one
// plan per root field (Group collapses a lone child into that child
// directly, per algebra.NewGroup).
func rootFields(q algebra.Query) []algebra.Select {
	switch v := q.(type) {
	case algebra.Select:
		return []algebra.Select{v}
	case algebra.Group:
		out := make([]algebra.Select, 0, len(v.Children))
		for _, c := range v.Children {
			if sel, ok := c.(algebra.Select); ok {
				out = append(out, sel)
			}
		}
		return out
	default:
		return nil
	}
}
