package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/goshape/i18n"
)

var (
	lang  string
	quiet bool
)

var rootCmd = &cobra.Command{
	Use:   "goshape",
	Short: "Validate and lint JSON or YAML data against restricted OpenAPI schemas",
	Long: `goshape validates JSON documents against schemas written in the restricted
OpenAPI 3.0 dialect: coercion, composition via allOf and discriminators,
reference resolution, and accumulated path-annotated errors.

Commands:
- validate: check a data file against a schema, print the coerced result
- lint:     check schema files against the dialect meta-schema

Exit codes: 0 on success, 1 when the data (or linted schema) is invalid,
2 on schema or usage problems.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if quiet {
			level = slog.LevelError
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		if lang != "" {
			i18n.SetLanguage(lang)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "message language (en, ja)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress warnings, print results only")
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(lintCmd)
}

// dataFailure marks a failure caused by the checked input rather than by the
// schema or the invocation. Data failures exit 1, everything else exits 2.
type dataFailure struct{ msg string }

func (e *dataFailure) Error() string { return e.msg }

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var df *dataFailure
		if errors.As(err, &df) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
