package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var defaultSchema string

type Config struct {
	// Flock
	Population int `json:"population"` // clamped to [1, behavior.MaxBoids]

	// Per-block tunables
	Damping        float64 `json:"damping"`
	CohesionGain   float64 `json:"cohesionGain"`
	SeparationGain float64 `json:"separationGain"`
	AlignmentGain  float64 `json:"alignmentGain"`

	// Host
	Seed       uint64  `json:"seed"`
	SampleRate int     `json:"sampleRate"`
	BlockSize  int     `json:"blockSize"`
	Voices     int     `json:"voices"`
	Volume     float64 `json:"volume"` // 0..1, applied when mixing voices
}

// DefaultConfig returns gains under which a full flock stays within a few
// hundredths of the containment cube.
func DefaultConfig() *Config {
	return &Config{
		Population:     10,
		Damping:        0.99,
		CohesionGain:   0.005,
		SeparationGain: 0.001,
		AlignmentGain:  0.005,
		Seed:           1,
		SampleRate:     44100,
		BlockSize:      64,
		Voices:         1,
		Volume:         0.5,
	}
}

// Settings returns the four coefficients a voice re-reads every block.
func (c *Config) Settings() behavior.Settings {
	return behavior.Settings{
		Damping:    c.Damping,
		Cohesion:   c.CohesionGain,
		Separation: c.SeparationGain,
		Alignment:  c.AlignmentGain,
	}
}

// LoadConfig loads configuration from a JSON or YAML file and validates it against the schema.
// An empty schemaFile selects the schema embedded in this package.
// Optional host fields missing from the file keep their DefaultConfig value.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	var sch *jsonschema.Schema
	var err error
	if schemaFile == "" {
		sch, err = jsonschema.CompileString("config.schema.json", defaultSchema)
	} else {
		sch, err = jsonschema.Compile(schemaFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		if b, err = yamlToJSON(b); err != nil {
			return nil, err
		}
	}

	// 3. Validate
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into Struct
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// yamlToJSON re-encodes a YAML document as JSON so that both formats go
// through the same schema validation.
func yamlToJSON(b []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode config yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert config yaml: %w", err)
	}
	return out, nil
}

// ApplyEnv overrides cfg with the BOIDS_* environment variables.
// Values that do not parse are ignored.
func ApplyEnv(cfg *Config) {
	if population := os.Getenv("BOIDS_POPULATION"); population != "" {
		if val, err := strconv.Atoi(population); err == nil {
			cfg.Population = val
		}
	}

	if seed := os.Getenv("BOIDS_SEED"); seed != "" {
		if val, err := strconv.ParseUint(seed, 10, 64); err == nil {
			cfg.Seed = val
		}
	}

	if sampleRate := os.Getenv("BOIDS_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}
}
