package maincmd

import "github.com/caarlos0/env/v6"

// Config holds the resource limits and GC tuning knobs that the spec leaves
// to the host driver, loaded from the environment so scripts and test
// fixtures can tighten them without recompiling the CLI.
type Config struct {
	StressGC       bool `env:"GLOX_STRESS_GC" envDefault:"false"`
	HeapGrowFactor int  `env:"GLOX_HEAP_GROW_FACTOR" envDefault:"2"`
	MaxStack       int  `env:"GLOX_MAX_STACK" envDefault:"16384"`
	MaxFrames      int  `env:"GLOX_MAX_FRAMES" envDefault:"64"`
	MaxSteps       int  `env:"GLOX_MAX_STEPS" envDefault:"0"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
