package config

import "sort"

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"instant": with(func(c *Config) {
		c.Name = "instant"
		c.EndTime = 0
	}),
	"rest": with(func(c *Config) {
		c.Name = "rest"
		c.InitState = InitStateConfig{Position: 0, Momentum: 0}
	}),
	"high_energy": with(func(c *Config) {
		c.Name = "high_energy"
		c.InitState = InitStateConfig{Position: 2, Momentum: 0}
	}),
	"reference_rk4": with(func(c *Config) {
		c.Name = "reference_rk4"
		c.Integrator = "rk4"
	}),
	"symplectic": with(func(c *Config) {
		c.Name = "symplectic"
		c.Integrator = "leapfrog"
		c.EndTime = 100
	}),
}

func with(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *cfg
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
