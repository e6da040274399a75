package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/rule"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `json:"app" yaml:"app"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Features FeaturesConfig `json:"features" yaml:"features"`
}

type AppConfig struct {
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version" yaml:"version"`
	Environment string            `json:"environment" yaml:"environment"`
	Port        int               `json:"port" yaml:"port"`
	Host        string            `json:"host" yaml:"host"`
	TLS         TLSConfig         `json:"tls" yaml:"tls"`
	Cors        CorsConfig        `json:"cors" yaml:"cors"`
	Metadata    map[string]string `json:"metadata" yaml:"metadata"`
}

type TLSConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	CertFile string `json:"certFile" yaml:"certFile"`
	KeyFile  string `json:"keyFile" yaml:"keyFile"`
}

type CorsConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Origins []string `json:"origins" yaml:"origins"`
}

type DatabaseConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	Database     string `json:"database" yaml:"database"`
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password" yaml:"password"`
	MaxConns     int    `json:"maxConns" yaml:"maxConns"`
	MaxIdleConns int    `json:"maxIdleConns" yaml:"maxIdleConns"`
	SSLMode      string `json:"sslMode" yaml:"sslMode"`
}

type RedisConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database int    `json:"database" yaml:"database"`
	Password string `json:"password" yaml:"password"`
	PoolSize int    `json:"poolSize" yaml:"poolSize"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Output string `json:"output" yaml:"output"`
}

type FeaturesConfig struct {
	Analytics bool `json:"analytics" yaml:"analytics"`
	Debugging bool `json:"debugging" yaml:"debugging"`
}

// configSchema is the canonical schema for the whole configuration tree.
// Every field with a default is also required, so a minimal file comes back
// fully populated after validation.
const configSchema = `
type: object
additionalProperties: false
required: [app, database, redis, logging, features]
properties:
  app:
    type: object
    additionalProperties: false
    required: [name, version, environment, port, host, tls, cors, metadata]
    properties:
      name: {type: string, minLength: 1}
      version: {type: string, pattern: '^[0-9]+\.[0-9]+\.[0-9]+$'}
      environment:
        type: string
        enum: [development, staging, production]
        default: development
      port: {type: integer, minimum: 1, maximum: 65535, default: 8080}
      host: {type: string, default: 0.0.0.0}
      tls:
        type: object
        additionalProperties: false
        required: [enabled, certFile, keyFile]
        default: {}
        properties:
          enabled: {type: boolean, default: false}
          certFile: {type: string, default: ""}
          keyFile: {type: string, default: ""}
      cors:
        type: object
        additionalProperties: false
        required: [enabled, origins]
        default: {}
        properties:
          enabled: {type: boolean, default: true}
          origins:
            type: array
            items: {type: string}
            default: ["*"]
      metadata:
        type: object
        additionalProperties: {type: string}
        default: {}
  database:
    type: object
    additionalProperties: false
    required: [host, port, database, username, password, maxConns, maxIdleConns, sslMode]
    properties:
      host: {type: string, minLength: 1}
      port: {type: integer, minimum: 1, maximum: 65535, default: 5432}
      database: {type: string, minLength: 1}
      username: {type: string, minLength: 1}
      password: {type: string, default: ""}
      maxConns: {type: integer, minimum: 1, default: 10}
      maxIdleConns: {type: integer, minimum: 0, default: 5}
      sslMode:
        type: string
        enum: [disable, prefer, require]
        default: prefer
  redis:
    type: object
    additionalProperties: false
    required: [host, port, database, password, poolSize]
    default: {}
    properties:
      host: {type: string, default: localhost}
      port: {type: integer, minimum: 1, maximum: 65535, default: 6379}
      database: {type: integer, minimum: 0, default: 0}
      password: {type: string, default: ""}
      poolSize: {type: integer, minimum: 1, default: 10}
  logging:
    type: object
    additionalProperties: false
    required: [level, format, output]
    default: {}
    properties:
      level:
        type: string
        enum: [debug, info, warn, error]
        default: info
      format:
        type: string
        enum: [json, text]
        default: json
      output: {type: string, default: stdout}
  features:
    type: object
    additionalProperties: false
    required: [analytics, debugging]
    default: {}
    properties:
      analytics: {type: boolean, default: true}
      debugging: {type: boolean, default: false}
`

// ConfigManager handles configuration loading and validation
type ConfigManager struct {
	schema *goshape.Schema
	opt    goshape.Options
}

func NewConfigManager() *ConfigManager {
	schema, err := goshape.ParseSchemaYAML([]byte(configSchema))
	if err != nil {
		log.Fatalf("bad config schema: %v", err)
	}

	// Cross-field invariants the schema cannot say on its own.
	ext := goshape.NewExtensions().
		ValidatePath("", rule.If("/app/tls/enabled", rule.Eq, true).Then(
			rule.MustExpr("/app/tls", `app.tls.certFile != "" and app.tls.keyFile != ""`),
		)).
		ValidatePath("", rule.If("/app/cors/enabled", rule.Eq, true).Then(
			rule.AtLeastOne("/app/cors/origins"),
		)).
		ValidatePath("", rule.MustExpr("/database/maxIdleConns",
			"database.maxIdleConns <= database.maxConns")).
		ValidatePath("", rule.If("/app/environment", rule.Eq, "production").Then(
			rule.MustExpr("/features/debugging", "not features.debugging"),
			rule.MustExpr("/database/sslMode", `database.sslMode == "require"`),
		))

	return &ConfigManager{
		schema: schema,
		opt:    goshape.Options{Ext: ext},
	}
}

func (cm *ConfigManager) LoadConfig(env string) (Config, error) {
	ctx := context.Background()

	raw, err := cm.loadRaw("base.yaml")
	if err != nil {
		return Config{}, fmt.Errorf("failed to load base config: %w", err)
	}

	// Environment overlays win key by key, then the merged tree is
	// validated once so defaults fill whatever neither file set.
	envFile := fmt.Sprintf("%s.yaml", env)
	if cm.fileExists(envFile) {
		overlay, err := cm.loadRaw(envFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to load %s config: %w", env, err)
		}
		raw = mergeTrees(raw, overlay)
	}

	clean, err := goshape.Validate(ctx, cm.schema, raw, cm.opt)
	if err != nil {
		return Config{}, err
	}

	return toConfig(clean)
}

func (cm *ConfigManager) ValidateConfig(env string) error {
	_, err := cm.LoadConfig(env)
	if err != nil {
		var verr *goshape.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "Configuration for environment '%s' is invalid:\n", env)
			for _, fe := range verr.Validation.Errors() {
				path := fe.Path
				if path == "" {
					path = "/"
				}
				fmt.Fprintf(os.Stderr, "  %s: %s\n", path, fe.Message)
			}
		}
		return err
	}

	fmt.Printf("✅ Configuration for environment '%s' is valid!\n", env)
	return nil
}

func (cm *ConfigManager) ShowConfig(env string, maskSecrets bool) error {
	config, err := cm.LoadConfig(env)
	if err != nil {
		return err
	}

	if maskSecrets {
		config = cm.maskSecrets(config)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Printf("📋 Configuration for environment: %s\n", env)
	fmt.Println("=" + strings.Repeat("=", len(env)+25))
	fmt.Print(string(data))

	return nil
}

func (cm *ConfigManager) ShowSchema() error {
	m, err := cm.schema.ToMap()
	if err != nil {
		return fmt.Errorf("failed to render schema: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	fmt.Println("📋 Configuration schema (canonical form):")
	fmt.Print(string(data))
	return nil
}

func (cm *ConfigManager) GenerateTemplate() error {
	// Generate template configurations
	templates := map[string]string{
		"base.yaml": `# Base configuration (common settings)
app:
  name: "MyWebApp"
  version: "1.0.0"
  host: "0.0.0.0"
  port: 8080
  tls:
    enabled: false
  cors:
    enabled: true
    origins: ["*"]

database:
  host: "localhost"
  port: 5432
  database: "myapp"
  username: "postgres"
  maxConns: 10
  maxIdleConns: 5
  sslMode: "prefer"

redis:
  host: "localhost"
  port: 6379
  database: 0
  poolSize: 10

logging:
  level: "info"
  format: "json"
  output: "stdout"

features:
  analytics: true
  debugging: false
`,
		"development.yaml": `# Development environment overrides
app:
  environment: "development"
  port: 3000

database:
  password: "${DB_PASSWORD:-dev_password}"
  sslMode: "disable"

redis:
  password: "${REDIS_PASSWORD:-}"

logging:
  level: "debug"

features:
  debugging: true
`,
		"staging.yaml": `# Staging environment overrides
app:
  environment: "staging"
  port: 8080
  cors:
    origins: ["https://staging.example.com"]

database:
  host: "${DB_HOST:-staging-db.example.com}"
  password: "${DB_PASSWORD}"
  sslMode: "require"

redis:
  host: "${REDIS_HOST:-staging-redis.example.com}"
  password: "${REDIS_PASSWORD}"

logging:
  level: "info"
`,
		"production.yaml": `# Production environment overrides
app:
  environment: "production"
  port: 80
  tls:
    enabled: true
    certFile: "${TLS_CERT_FILE}"
    keyFile: "${TLS_KEY_FILE}"
  cors:
    origins: ["https://example.com", "https://app.example.com"]

database:
  host: "${DB_HOST}"
  password: "${DB_PASSWORD}"
  maxConns: 50
  maxIdleConns: 10
  sslMode: "require"

redis:
  host: "${REDIS_HOST}"
  password: "${REDIS_PASSWORD}"
  poolSize: 50

logging:
  level: "warn"
  output: "${LOG_OUTPUT:-stdout}"

features:
  debugging: false
`,
	}

	for filename, content := range templates {
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		fmt.Printf("📝 Generated %s\n", filename)
	}

	fmt.Println("✅ Template configuration files generated!")
	fmt.Println("\n📖 Next steps:")
	fmt.Println("1. Edit the configuration files as needed")
	fmt.Println("2. Set required environment variables")
	fmt.Println("3. Validate with: go run . validate --env=development")

	return nil
}

// loadRaw reads a YAML file, expands environment variables, and decodes it
// into a generic tree.
func (cm *ConfigManager) loadRaw(filename string) (map[string]any, error) {
	if !cm.fileExists(filename) {
		return nil, fmt.Errorf("file %s does not exist", filename)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	data = cm.expandEnvVars(data)

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", filename, err)
	}
	return tree, nil
}

func (cm *ConfigManager) fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

func (cm *ConfigManager) expandEnvVars(data []byte) []byte {
	content := string(data)

	// Match ${VAR} and ${VAR:-default} patterns
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	result := re.ReplaceAllStringFunc(content, func(match string) string {
		// Remove ${ and }
		varExpr := match[2 : len(match)-1]

		// Check for default value syntax
		if strings.Contains(varExpr, ":-") {
			parts := strings.SplitN(varExpr, ":-", 2)
			varName := parts[0]
			defaultValue := parts[1]

			if value := os.Getenv(varName); value != "" {
				return value
			}
			return defaultValue
		}

		// Simple variable substitution
		return os.Getenv(varExpr)
	})

	return []byte(result)
}

// mergeTrees overlays override onto base, descending into nested maps.
// Scalars and arrays from the overlay replace the base value wholesale.
func mergeTrees(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range override {
		bm, baseIsMap := out[k].(map[string]any)
		om, overIsMap := ov.(map[string]any)
		if baseIsMap && overIsMap {
			out[k] = mergeTrees(bm, om)
			continue
		}
		out[k] = ov
	}
	return out
}

// toConfig moves the cleaned generic tree into the typed representation.
func toConfig(clean any) (Config, error) {
	data, err := json.Marshal(clean)
	if err != nil {
		return Config{}, fmt.Errorf("failed to encode cleaned config: %w", err)
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to decode cleaned config: %w", err)
	}
	return config, nil
}

func (cm *ConfigManager) maskSecrets(config Config) Config {
	masked := config

	// Mask sensitive information
	if masked.Database.Password != "" {
		masked.Database.Password = "***masked***"
	}
	if masked.Redis.Password != "" {
		masked.Redis.Password = "***masked***"
	}
	if masked.App.TLS.KeyFile != "" {
		masked.App.TLS.KeyFile = "***masked***"
	}

	return masked
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cm := NewConfigManager()
	command := os.Args[1]

	switch command {
	case "validate":
		env := getEnvFlag()
		if err := cm.ValidateConfig(env); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Validation failed: %v\n", err)
			os.Exit(1)
		}

	case "show":
		env := getEnvFlag()
		maskSecrets := !getBoolFlag("--no-mask")
		if err := cm.ShowConfig(env, maskSecrets); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Show failed: %v\n", err)
			os.Exit(1)
		}

	case "generate":
		if getBoolFlag("--template") {
			if err := cm.GenerateTemplate(); err != nil {
				fmt.Fprintf(os.Stderr, "❌ Generate failed: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Fprintf(os.Stderr, "❌ Use --template flag to generate template files\n")
			os.Exit(1)
		}

	case "schema":
		if err := cm.ShowSchema(); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Schema failed: %v\n", err)
			os.Exit(1)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`🎯 goshape Config Manager Sample

Usage: %s <command> [flags...]

Commands:
  validate [--env=<env>]           Validate configuration for environment
  show [--env=<env>] [--no-mask]   Show configuration (default: mask secrets)
  generate --template              Generate template configuration files
  schema                           Show the canonical schema

Flags:
  --env=<environment>      Environment (default: development)
  --no-mask               Don't mask sensitive information
  --template              Generate template files

Examples:
  %s validate --env=development
  %s show --env=staging
  %s show --env=production --no-mask
  %s generate --template
  %s schema

Environment Files:
  base.yaml               Base configuration (required)
  <environment>.yaml      Environment-specific overrides (optional)

`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func getEnvFlag() string {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "--env=") {
			return strings.TrimPrefix(arg, "--env=")
		}
	}
	return "development"
}

func getBoolFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
