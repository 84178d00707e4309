package edgefilter

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/BurntSushi/toml"

	"github.com/wbrown/edgefilter/imageutil"
)

// Kernel weight domains understood by Config.
const (
	VariantFloat = "float"
	VariantInt   = "int"
)

// ErrInvalidConfig is returned for configurations that cannot produce a
// filter.
var ErrInvalidConfig = errors.New("invalid filter config")

// Config describes a filter. It is usually loaded from a TOML file:
//
//	variant  = "int"
//	channels = 3
//	weights  = [[1, 1, 1], [1, -8, 1], [1, 1, 1]]
//
// Fields left out take the defaults of the chosen variant.
type Config struct {
	Variant  string      `toml:"variant"`
	Channels int         `toml:"channels"`
	Weights  [][]float64 `toml:"weights"`
}

// DefaultConfig returns the built-in Laplacian configuration for variant:
// four channels for VariantFloat, three for VariantInt.
func DefaultConfig(variant string) Config {
	cfg := Config{Variant: variant}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Variant == "" {
		c.Variant = VariantFloat
	}
	if c.Channels == 0 {
		c.Channels = 4
		if c.Variant == VariantInt {
			c.Channels = 3
		}
	}
	if c.Weights == nil {
		c.Weights = imageutil.LaplacianFloat().Rows()
	}
}

// ParseConfig decodes a TOML configuration and validates it.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and validates a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the variant, the channel count and the kernel shape.
// Integer variants additionally require whole-number weights.
func (c Config) Validate() error {
	if c.Variant != VariantFloat && c.Variant != VariantInt {
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidConfig, c.Variant)
	}
	if c.Channels != 3 && c.Channels != 4 {
		return fmt.Errorf("%w: channels %d, want 3 or 4", ErrInvalidConfig, c.Channels)
	}
	if _, err := imageutil.NewKernel(c.Weights); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for y, row := range c.Weights {
		for x, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("%w: weight at (%d,%d) is not finite", ErrInvalidConfig, x, y)
			}
		}
	}
	if c.Variant == VariantInt {
		if _, err := c.intWeights(); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) intWeights() ([][]int64, error) {
	rows := make([][]int64, len(c.Weights))
	for y, row := range c.Weights {
		rows[y] = make([]int64, len(row))
		for x, w := range row {
			if w != math.Trunc(w) || math.Abs(w) > 1<<31 {
				return nil, fmt.Errorf("%w: weight %v at (%d,%d) is not a usable integer",
					ErrInvalidConfig, w, x, y)
			}
			rows[y][x] = int64(w)
		}
	}
	return rows, nil
}

// NewFilter builds the engine the configuration describes.
func (c Config) NewFilter() (Filter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.Variant == VariantInt {
		rows, err := c.intWeights()
		if err != nil {
			return nil, err
		}
		engine, err := NewEngine(imageutil.MustKernel(rows), c.Channels)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}

	engine, err := NewEngine(imageutil.MustKernel(c.Weights), c.Channels)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// Encode writes the configuration as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
