package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/internal/decode"
)

var (
	validateSchemaFile string
	validateRef        string
	validateComponents string
	validateSelect     string
	validateSparse     bool
	validateRequest    bool
	validateResponse   bool
	validateExtra      string
	validateDupKeys    string
	validateBytes      bool
)

var validateCmd = &cobra.Command{
	Use:   "validate -s schema.yaml data.json",
	Short: "Validate a JSON document against a schema",
	Long: `Validate a JSON data file against a schema file. On success the coerced
result is printed: numeric strings become numbers, keys take their declared
case, defaults are filled in. On failure the standard error payload goes to
stderr and the command exits 1.

--ref validates against one named schema out of the file's
components/schemas table; the table also resolves $ref between its entries.
--components points at a separate OpenAPI document whose components/schemas
section resolves $ref instead. --select picks a subvalue out of the data
file by JSONPath before validating; duplicate key detection does not apply
then, because the selection works on the decoded value.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVarP(&validateSchemaFile, "schema", "s", "", "schema file, JSON or YAML")
	f.StringVar(&validateRef, "ref", "", "name of the schema to use from the file's components/schemas")
	f.StringVar(&validateComponents, "components", "", "OpenAPI document resolving $ref via components/schemas")
	f.StringVar(&validateSelect, "select", "", "JSONPath picking the value to validate")
	f.BoolVar(&validateSparse, "sparse", false, "sparse mode: missing fields are acceptable, defaults stay off")
	f.BoolVar(&validateRequest, "request", false, "request mode: readOnly properties are stripped")
	f.BoolVar(&validateResponse, "response", false, "response mode: writeOnly properties are stripped")
	f.StringVar(&validateExtra, "extra", "strip", "undeclared keys: strip, warn, or fail")
	f.StringVar(&validateDupKeys, "dup-keys", "ignore", "duplicate keys in the raw JSON: ignore, warn, or fail")
	f.BoolVar(&validateBytes, "byte-length", false, "count minLength/maxLength in bytes instead of code points")
	_ = validateCmd.MarkFlagRequired("schema")
}

func runValidate(cmd *cobra.Command, args []string) error {
	opt, err := buildOptions()
	if err != nil {
		return err
	}
	schema, err := loadTarget(&opt)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var clean any
	var val *goshape.Validation
	if validateSelect != "" {
		value, derr := decode.Value(data)
		if derr != nil {
			return fmt.Errorf("parse %s: %w", args[0], derr)
		}
		expr, perr := jp.ParseString(validateSelect)
		if perr != nil {
			return fmt.Errorf("bad --select expression: %w", perr)
		}
		got := expr.Get(value)
		if len(got) == 0 {
			return fmt.Errorf("--select %q matched nothing in %s", validateSelect, args[0])
		}
		clean, val, err = goshape.Check(ctx, schema, got[0], opt)
	} else {
		clean, val, err = goshape.CheckJSON(ctx, schema, data, opt)
	}
	if err != nil {
		return err
	}

	for _, w := range val.Warnings() {
		at := w.Path
		if at == "" {
			at = "/"
		}
		slog.Warn("validation warning", "at", at, "detail", w.Message)
	}
	if !val.Valid() {
		payload, merr := json.MarshalIndent(val, "", "  ")
		if merr != nil {
			return merr
		}
		fmt.Fprintln(cmd.ErrOrStderr(), string(payload))
		return &dataFailure{msg: fmt.Sprintf("validation failed with %d field errors (status %d)", len(val.Errors()), val.Status())}
	}
	out, merr := json.MarshalIndent(clean, "", "  ")
	if merr != nil {
		return merr
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// loadTarget resolves the schema under validation: the whole schema file, or
// with --ref one named entry of its components/schemas table, which then
// also serves as the ref lookup unless --components already did.
func loadTarget(opt *goshape.Options) (*goshape.Schema, error) {
	if validateRef == "" {
		return loadSchema(validateSchemaFile)
	}
	doc, err := loadDocument(validateSchemaFile)
	if err != nil {
		return nil, err
	}
	reg, err := goshape.RegistryFromComponents(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", validateSchemaFile, err)
	}
	names := reg.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("--ref %q: %s has no components/schemas table", validateRef, validateSchemaFile)
	}
	got, err := reg.Lookup(validateRef)
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, fmt.Errorf("--ref %q: no such schema in %s (have %s)", validateRef, validateSchemaFile, strings.Join(names, ", "))
	}
	if opt.Lookup == nil {
		opt.Lookup = reg.Lookup
	}
	return got.(*goshape.Schema), nil
}

func buildOptions() (goshape.Options, error) {
	opt := goshape.Options{
		Sparse:     validateSparse,
		Request:    validateRequest,
		Response:   validateResponse,
		ByteLength: validateBytes,
	}
	var err error
	if opt.Extra, err = policyFrom(validateExtra); err != nil {
		return opt, fmt.Errorf("--extra: %w", err)
	}
	if opt.DupKeys, err = policyFrom(validateDupKeys); err != nil {
		return opt, fmt.Errorf("--dup-keys: %w", err)
	}
	if validateComponents != "" {
		reg, rerr := loadComponents(validateComponents)
		if rerr != nil {
			return opt, rerr
		}
		opt.Lookup = reg.Lookup
	}
	return opt, nil
}

func policyFrom(s string) (goshape.ExtraPolicy, error) {
	switch s {
	case "strip", "ignore":
		return goshape.ExtraStrip, nil
	case "warn":
		return goshape.ExtraWarn, nil
	case "fail":
		return goshape.ExtraFail, nil
	}
	return 0, fmt.Errorf("unknown policy %q, want strip, warn, or fail", s)
}
