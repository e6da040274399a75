package main

import (
	"fmt"

	"github.com/spf13/cobra"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/metaschema"
)

var lintCmd = &cobra.Command{
	Use:   "lint schema.yaml [schema.json ...]",
	Short: "Check schema files against the dialect meta-schema",
	Long: `Lint schema files in two passes: first against the meta-schema of the
restricted dialect, catching unknown keywords and wrongly typed keyword
values, then by interpreting the document, catching semantic mistakes such
as constraints on $ref nodes or unparsable patterns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLint,
}

func runLint(cmd *cobra.Command, args []string) error {
	bad := 0
	for _, file := range args {
		problems, err := lintFile(file)
		if err != nil {
			return err
		}
		if len(problems) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", file)
			continue
		}
		bad++
		for _, p := range problems {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", file, p)
		}
	}
	if bad > 0 {
		return &dataFailure{msg: fmt.Sprintf("%d of %d schema files failed lint", bad, len(args))}
	}
	return nil
}

func lintFile(file string) ([]metaschema.Problem, error) {
	doc, err := loadDocument(file)
	if err != nil {
		return nil, err
	}
	problems := metaschema.Lint(doc)
	if len(problems) > 0 {
		return problems, nil
	}
	if _, err := goshape.FromMap(doc); err != nil {
		if se, ok := goshape.AsSchemaError(err); ok {
			return []metaschema.Problem{{Path: se.Path, Detail: se.Reason}}, nil
		}
		return []metaschema.Problem{{Detail: err.Error()}}, nil
	}
	return nil, nil
}
