package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	goshape "github.com/reoring/goshape"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Usage: %s validate <file|->", os.Args[0])
			os.Exit(1)
		}
		filename := os.Args[2]
		if err := validateWidget(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Validation passed!")

	case "schema":
		if err := showSchema(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show schema: %v\n", err)
			os.Exit(1)
		}

	case "demo":
		if err := runDemo(); err != nil {
			fmt.Fprintf(os.Stderr, "Demo failed: %v\n", err)
			os.Exit(1)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`🎯 goshape Kubernetes CRD Validator Sample

Usage: %s <command> [args...]

Commands:
  validate <file|->     Validate a Widget resource from file or stdin
  schema                Show the schema extracted from the Widget CRD
  demo                  Run validation demo with sample files

Examples:
  %s validate valid-widget.yaml
  %s validate invalid-widget.yaml
  kubectl get widgets my-widget -o yaml | %s validate -
  %s demo

`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

// loadCRDSchema pulls the openAPIV3Schema out of the CRD manifest's storage
// version and interprets it as a canonical schema. The CRD validation subset
// is the same OpenAPI subset the engine speaks, so no translation is needed.
func loadCRDSchema() (*goshape.Schema, error) {
	crdData, err := os.ReadFile("widget-crd.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read CRD file: %w", err)
	}

	var crd map[string]any
	if err := yaml.Unmarshal(crdData, &crd); err != nil {
		return nil, fmt.Errorf("failed to parse CRD YAML: %w", err)
	}

	raw, version, err := openAPIV3SchemaOf(crd)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "📦 Using schema from CRD version %s\n", version)

	schema, err := goshape.FromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to interpret CRD schema: %w", err)
	}
	return schema, nil
}

// openAPIV3SchemaOf walks spec.versions and returns the schema of the
// storage version, falling back to the first version that carries one.
func openAPIV3SchemaOf(crd map[string]any) (map[string]any, string, error) {
	spec, ok := crd["spec"].(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("CRD has no spec")
	}
	versions, ok := spec["versions"].([]any)
	if !ok || len(versions) == 0 {
		return nil, "", fmt.Errorf("CRD has no spec.versions")
	}

	var fallback map[string]any
	var fallbackName string
	for _, v := range versions {
		version, ok := v.(map[string]any)
		if !ok {
			continue
		}
		name, _ := version["name"].(string)
		schemaWrap, ok := version["schema"].(map[string]any)
		if !ok {
			continue
		}
		raw, ok := schemaWrap["openAPIV3Schema"].(map[string]any)
		if !ok {
			continue
		}
		if storage, _ := version["storage"].(bool); storage {
			return raw, name, nil
		}
		if fallback == nil {
			fallback = raw
			fallbackName = name
		}
	}
	if fallback != nil {
		return fallback, fallbackName, nil
	}
	return nil, "", fmt.Errorf("CRD carries no openAPIV3Schema")
}

func validateWidget(filename string) error {
	ctx := context.Background()

	schema, err := loadCRDSchema()
	if err != nil {
		return err
	}

	// Read resource file
	var reader io.Reader
	if filename == "-" {
		reader = os.Stdin
		fmt.Fprintf(os.Stderr, "📖 Reading from stdin...\n")
	} else {
		file, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("failed to open file %s: %w", filename, err)
		}
		defer file.Close()
		reader = file
		fmt.Fprintf(os.Stderr, "📖 Validating %s...\n", filename)
	}

	yamlData, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var resource map[string]any
	if err := yaml.Unmarshal(yamlData, &resource); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Strip mode mirrors apiserver pruning: undeclared fields under loose
	// objects are dropped instead of rejected, and declared defaults are
	// filled in.
	result, err := goshape.Validate(ctx, schema, resource,
		goshape.Options{Extra: goshape.ExtraStrip})
	if err != nil {
		return handleValidationError(err)
	}

	fmt.Fprintf(os.Stderr, "🎉 Resource is valid!\n")

	// Pretty print the cleaned result
	clean, _ := result.(map[string]any)
	if metadata, ok := clean["metadata"].(map[string]any); ok {
		if name, ok := metadata["name"].(string); ok {
			fmt.Fprintf(os.Stderr, "   📛 Name: %s\n", name)
		}
		if namespace, ok := metadata["namespace"].(string); ok {
			fmt.Fprintf(os.Stderr, "   📁 Namespace: %s\n", namespace)
		}
	}

	if spec, ok := clean["spec"].(map[string]any); ok {
		if size, ok := spec["size"].(string); ok {
			fmt.Fprintf(os.Stderr, "   📏 Size: %s\n", size)
		}
		if replicas, ok := spec["replicas"]; ok {
			fmt.Fprintf(os.Stderr, "   🔢 Replicas: %v\n", replicas)
		}
	}

	return nil
}

func handleValidationError(err error) error {
	if report, ok := goshape.AsValidation(err); ok {
		issues := report.Errors()
		fmt.Fprintf(os.Stderr, "❌ Validation failed with %d issue(s):\n\n", len(issues))

		for i, issue := range issues {
			path := issue.Path
			if path == "" {
				path = "/"
			}
			fmt.Fprintf(os.Stderr, "  %d. 🚨 %s at %s\n", i+1, issue.Message, path)
			fmt.Fprintf(os.Stderr, "     Code: %s\n", issue.Code)
			fmt.Fprintf(os.Stderr, "\n")
		}
		return fmt.Errorf("validation failed with %d issue(s)", len(issues))
	}

	return fmt.Errorf("validation error: %w", err)
}

func showSchema() error {
	schema, err := loadCRDSchema()
	if err != nil {
		return err
	}

	m, err := schema.ToMap()
	if err != nil {
		return fmt.Errorf("failed to render schema: %w", err)
	}

	fmt.Println("📋 Canonical schema for Widget:")
	fmt.Println()

	// Convert to YAML for readability
	yamlData, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	fmt.Print(string(yamlData))
	return nil
}

func runDemo() error {
	fmt.Println("🎪 Running goshape CRD Validation Demo")
	fmt.Println("=====================================")
	fmt.Println()

	// Test valid widget
	fmt.Println("1️⃣ Testing valid Widget resource:")
	fmt.Println("----------------------------------")
	if err := validateWidget("valid-widget.yaml"); err != nil {
		return fmt.Errorf("valid widget test failed: %w", err)
	}
	fmt.Println()

	// Test invalid widget
	fmt.Println("2️⃣ Testing invalid Widget resource:")
	fmt.Println("------------------------------------")
	if err := validateWidget("invalid-widget.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "Expected validation failure: %v\n", err)
	}
	fmt.Println()

	// Show schema
	fmt.Println("3️⃣ Extracted schema:")
	fmt.Println("--------------------------")
	if err := showSchema(); err != nil {
		return fmt.Errorf("schema extraction failed: %w", err)
	}

	fmt.Println()
	fmt.Println("✨ Demo completed!")
	fmt.Println()
	fmt.Println("🎯 Key Learning Points:")
	fmt.Println("  - CRD openAPIV3Schema extraction and validation")
	fmt.Println("  - Default injection for required fields, like apiserver defaulting")
	fmt.Println("  - Strip mode as the analog of unknown-field pruning")
	fmt.Println("  - Detailed error reporting with JSON Pointer paths")

	return nil
}

func init() {
	// Setup logging for better debug experience
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
