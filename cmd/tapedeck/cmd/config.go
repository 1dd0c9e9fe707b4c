package cmd

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tapedeck/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing tapedeck configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the effective configuration",
	Long: `Dump the effective configuration values in YAML format.

This shows all available configuration options with the values currently in
effect (defaults, config file, and environment merged). You can redirect this
output to a file to create a configuration template:

  tapedeck config dump > config.yaml

Configuration can be set via:
  - Config file (config.yaml, .tapedeck.yaml, /etc/tapedeck/config.yaml)
  - Environment variables (TAPEDECK_SERVER_PORT, TAPEDECK_DATABASE_DSN, etc.)
  - Command-line flags (for some options)

Environment variables use the TAPEDECK_ prefix and underscores for nesting.
Example: server.port -> TAPEDECK_SERVER_PORT`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

// toMap converts a struct to a map, formatting durations and sizes for human
// readability.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("mapstructure")
		if key == "" {
			key = fieldType.Tag.Get("yaml")
		}
		if key == "" {
			key = fieldType.Name
		}

		switch v := field.Interface().(type) {
		case time.Duration:
			result[key] = v.String()
		case config.Duration:
			result[key] = v.String()
		case config.ByteSize:
			result[key] = v.String()
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = field.Interface()
			}
		}
	}
	return result
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	yamlData, err := yaml.Marshal(toMap(cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Println("# tapedeck Configuration File")
	fmt.Println("# ============================")
	fmt.Println("#")
	fmt.Println("# Values shown are the currently effective configuration.")
	fmt.Println("# Duration format: 30s, 5m, 1h, 30d")
	fmt.Println("# Size format: 5MB, 1GB")
	fmt.Println("#")
	fmt.Println("# Environment variable overrides:")
	fmt.Println("#   TAPEDECK_SERVER_HOST, TAPEDECK_SERVER_PORT")
	fmt.Println("#   TAPEDECK_DATABASE_DRIVER, TAPEDECK_DATABASE_DSN")
	fmt.Println("#   TAPEDECK_STORAGE_BASE_DIR, TAPEDECK_ENGINE_KEEP_WINDOW")
	fmt.Println("#   TAPEDECK_LOGGING_LEVEL, TAPEDECK_LOGGING_FORMAT")
	fmt.Println("#   etc.")
	fmt.Println("#")
	fmt.Println("")
	fmt.Print(string(yamlData))

	return nil
}
