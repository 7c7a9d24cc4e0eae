package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/quartic/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultName       = "quartic"
	DefaultIntegrator = "rk45"
	DefaultEndTime    = 10.0
	DefaultMaxStep    = 0.01
	DefaultRtol       = 1e-3
	DefaultAtol       = 1e-6
	DefaultPosition   = 1.0
	DefaultMomentum   = 0.0
	DefaultCSV        = "fourth_power_single_particle_data.csv"
	DefaultDataDir    = ".quartic"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Name       string          `yaml:"name"`
	Integrator string          `yaml:"integrator"`
	EndTime    float64         `yaml:"end_time"`
	MaxStep    float64         `yaml:"max_step"`
	Rtol       float64         `yaml:"rtol"`
	Atol       float64         `yaml:"atol"`
	InitState  InitStateConfig `yaml:"init_state"`
	Output     OutputConfig    `yaml:"output"`
}

type InitStateConfig struct {
	Position float64 `yaml:"position"`
	Momentum float64 `yaml:"momentum"`
}

// OutputConfig names the artifacts of a run. Empty paths are skipped,
// except CSV which is always written.
type OutputConfig struct {
	CSV     string `yaml:"csv"`
	Figure  string `yaml:"figure,omitempty"`
	Phase   string `yaml:"phase,omitempty"`
	Parquet string `yaml:"parquet,omitempty"`
	DataDir string `yaml:"data_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       DefaultName,
		Integrator: DefaultIntegrator,
		EndTime:    DefaultEndTime,
		MaxStep:    DefaultMaxStep,
		Rtol:       DefaultRtol,
		Atol:       DefaultAtol,
		InitState: InitStateConfig{
			Position: DefaultPosition,
			Momentum: DefaultMomentum,
		},
		Output: OutputConfig{
			CSV:     DefaultCSV,
			DataDir: DefaultDataDir,
		},
	}
}

// Load overlays the YAML file at path on the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (c *Config) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalid)
	case c.Integrator == "":
		return fmt.Errorf("%w: integrator is empty", ErrInvalid)
	case !finite(c.EndTime) || c.EndTime < 0:
		return fmt.Errorf("%w: end_time %v must be finite and non-negative", ErrInvalid, c.EndTime)
	case !finite(c.MaxStep) || c.MaxStep <= 0:
		return fmt.Errorf("%w: max_step %v must be positive", ErrInvalid, c.MaxStep)
	case !finite(c.Rtol) || c.Rtol <= 0:
		return fmt.Errorf("%w: rtol %v must be positive", ErrInvalid, c.Rtol)
	case !finite(c.Atol) || c.Atol <= 0:
		return fmt.Errorf("%w: atol %v must be positive", ErrInvalid, c.Atol)
	case !finite(c.InitState.Position) || !finite(c.InitState.Momentum):
		return fmt.Errorf("%w: init_state must be finite", ErrInvalid)
	case c.Output.CSV == "":
		return fmt.Errorf("%w: output.csv is empty", ErrInvalid)
	}
	return nil
}

// SimConfig converts the file-level settings into solver settings.
func (c *Config) SimConfig() dynamo.Config {
	sc := dynamo.DefaultConfig()
	sc.Duration = c.EndTime
	sc.MaxStep = c.MaxStep
	sc.Rtol = c.Rtol
	sc.Atol = c.Atol
	return sc
}

func (c *Config) InitialState() dynamo.State {
	return dynamo.State{c.InitState.Position, c.InitState.Momentum}
}
