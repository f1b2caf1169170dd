package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gomaic/domain/cohort"
	"gomaic/domain/scan"
	"gomaic/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Scan     scan.Config  `yaml:"scan"`
	Output   OutputConfig `yaml:"output"`
	LogLevel string       `yaml:"log_level" validate:"omitempty,oneof=ERROR WARN INFO DEBUG TRACE error warn info debug trace"`
}

// OutputConfig holds where scan results go
type OutputConfig struct {
	XLSXPath string `yaml:"xlsx"`
	JSON     bool   `yaml:"json"`
}

// ReferenceCorrelations is the default correlation grid.
var ReferenceCorrelations = []float64{-0.9, -0.7, -0.5, -0.3, -0.1, 0, 0.1, 0.3, 0.5, 0.7, 0.9}

// DefaultScan returns the reference scenario: two cohorts of 1000 with SD 2,
// means (0,0) and (2,2), group A reweighted to group B.
func DefaultScan() scan.Config {
	return scan.Config{
		Correlations:  append([]float64(nil), ReferenceCorrelations...),
		SampleSize:    1000,
		StdDevs:       [2]float64{2, 2},
		MeanA:         [2]float64{0, 0},
		MeanB:         [2]float64{2, 2},
		Tolerance:     1e-8,
		MaxIterations: 200,
		ReweightGroup: cohort.GroupSource,
		Seed:          42,
		Workers:       1,
		Solver:        scan.SolverNewton,
	}
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Scan:     DefaultScan(),
		LogLevel: "INFO",
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// MAIC_* environment variables (a .env file is read first if present), in that
// order of precedence, then validates it.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if path == "" {
		path = os.Getenv("MAIC_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, errors.Wrap(err, "failed to load scenario file")
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, errors.Wrap(err, "failed to load environment configuration")
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("read %s: %v", path, err))
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("parse %s: %v", path, err))
	}
	return nil
}

func applyEnv(config *Config) error {
	s := &config.Scan
	var err error

	if s.Correlations, err = getEnvFloatsOrDefault("MAIC_CORRELATIONS", s.Correlations); err != nil {
		return err
	}
	if s.SampleSize, err = getEnvIntOrDefault("MAIC_SAMPLE_SIZE", s.SampleSize); err != nil {
		return err
	}
	if s.StdDevs, err = getEnvPairOrDefault("MAIC_STD_DEVS", s.StdDevs); err != nil {
		return err
	}
	if s.MeanA, err = getEnvPairOrDefault("MAIC_MEAN_A", s.MeanA); err != nil {
		return err
	}
	if s.MeanB, err = getEnvPairOrDefault("MAIC_MEAN_B", s.MeanB); err != nil {
		return err
	}
	if s.Tolerance, err = getEnvFloatOrDefault("MAIC_TOLERANCE", s.Tolerance); err != nil {
		return err
	}
	if s.MaxIterations, err = getEnvIntOrDefault("MAIC_MAX_ITERATIONS", s.MaxIterations); err != nil {
		return err
	}
	group, err := getEnvIntOrDefault("MAIC_REWEIGHT_GROUP", int(s.ReweightGroup))
	if err != nil {
		return err
	}
	s.ReweightGroup = cohort.Group(group)
	seed, err := getEnvIntOrDefault("MAIC_SEED", int(s.Seed))
	if err != nil {
		return err
	}
	s.Seed = int64(seed)
	if s.Workers, err = getEnvIntOrDefault("MAIC_WORKERS", s.Workers); err != nil {
		return err
	}
	s.Solver = getEnvOrDefault("MAIC_SOLVER", s.Solver)

	config.Output.XLSXPath = getEnvOrDefault("MAIC_XLSX", config.Output.XLSXPath)
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", config.LogLevel)
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the scan configuration. Correlation values are not range
// checked here: out-of-range values fail per row during the scan.
func Validate(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return errors.ConfigInvalid(describe(err))
	}
	return nil
}

// ValidateScan checks a bare scan config.
func ValidateScan(s scan.Config) error {
	if err := validate.Struct(s); err != nil {
		return errors.ConfigInvalid(describe(err))
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return strings.Join(parts, "; ")
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return intValue, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	return floatValue, nil
}

func getEnvFloatsOrDefault(key string, defaultValue []float64) ([]float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	out, err := ParseFloatList(value)
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("%s: %v", key, err))
	}
	return out, nil
}

func getEnvPairOrDefault(key string, defaultValue [2]float64) ([2]float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	vals, err := ParseFloatList(value)
	if err != nil || len(vals) != 2 {
		return defaultValue, errors.ConfigInvalid(fmt.Sprintf("%s must be two comma-separated numbers, got %q", key, value))
	}
	return [2]float64{vals[0], vals[1]}, nil
}

// ParseFloatList parses "a,b,c" into floats, keeping the given order.
func ParseFloatList(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", f)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}
