package config

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// BacktestConfig is the outer run configuration. Strategy parameters
// live in Params and flow into the Context unchanged.
type BacktestConfig struct {
	InitialCapital  float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0"`
	MaxPositions    int                        `yaml:"max_positions" json:"max_positions" validate:"gt=0" jsonschema:"title=Max Positions,description=Maximum number of concurrently held positions,minimum=1"`
	Symbols         []string                   `yaml:"symbols" json:"symbols" validate:"min=1" jsonschema:"title=Symbols,description=Instrument universe for the run"`
	BenchmarkSymbol string                     `yaml:"benchmark_symbol" json:"benchmark_symbol" jsonschema:"title=Benchmark Symbol,description=Symbol used for relative strength,default=SPY"`
	StartTime       optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start date for the backtest period"`
	EndTime         optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end date for the backtest period"`
	Params          map[string]any             `yaml:"params" json:"params" jsonschema:"title=Strategy Parameters,description=Flat strategy parameter map with per-key defaults"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestConfig
func (c *BacktestConfig) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		InitialCapital  float64        `yaml:"initial_capital"`
		MaxPositions    int            `yaml:"max_positions"`
		Symbols         []string       `yaml:"symbols"`
		BenchmarkSymbol string         `yaml:"benchmark_symbol"`
		StartTime       *time.Time     `yaml:"start_time"`
		EndTime         *time.Time     `yaml:"end_time"`
		Params          map[string]any `yaml:"params"`
	}

	var config Config
	if err := value.Decode(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.MaxPositions = config.MaxPositions
	c.Symbols = config.Symbols
	c.BenchmarkSymbol = config.BenchmarkSymbol
	c.Params = config.Params
	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}
	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// ParseConfig decodes and validates a YAML backtest configuration.
func ParseConfig(data []byte) (BacktestConfig, error) {
	var config BacktestConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return BacktestConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	if config.BenchmarkSymbol == "" {
		config.BenchmarkSymbol = "SPY"
	}

	validate := validator.New()
	if err := validate.Struct(&config); err != nil {
		return BacktestConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	return config, nil
}

// Context folds the run-level settings into the flat parameter map the
// pipeline stages consume.
func (c *BacktestConfig) Context() Context {
	params := make(map[string]any, len(c.Params)+2)
	for key, value := range c.Params {
		params[key] = value
	}
	params["initial_capital"] = c.InitialCapital
	params["max_positions"] = c.MaxPositions

	return NewContext(params)
}

// GenerateSchema generates a JSON schema for the BacktestConfig
func (c *BacktestConfig) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "ensemble-backtest-config"
	schema.Description = "Configuration schema for the ensemble portfolio backtest"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestConfig
func (c *BacktestConfig) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
