package bencode

import (
	"fmt"
	"slices"
)

// Config is the declarative form of the codec options, e.g. for loading from a
// configuration file.
type Config struct {
	// Enable the text extension
	Text bool `mapstructure:"text" yaml:"text"`

	// Enable the float extension
	Float bool `mapstructure:"float" yaml:"float"`

	// Enable the null extension
	None bool `mapstructure:"none" yaml:"none"`

	// Wrap decoded values into Decorated
	Decorate bool `mapstructure:"decorate" yaml:"decorate"`

	// Permissible dictionary key kinds: int, bytes, text, float or none
	KeyKinds []string `mapstructure:"key_kinds" yaml:"key_kinds"`

	// Maximum nesting depth on decode, zero for no limit
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`
}

var scalarKinds = []Kind{KindInt, KindBytes, KindText, KindFloat, KindNone}

// DefaultConfig returns the configuration of the strict codec.
func DefaultConfig() Config {
	return Config{KeyKinds: []string{string(KindBytes)}}
}

// Options converts the configuration into codec options.
func (c Config) Options() ([]Option, error) {
	var opts []Option

	if c.Text {
		opts = append(opts, WithText())
	}

	if c.Float {
		opts = append(opts, WithFloat())
	}

	if c.None {
		opts = append(opts, WithNone())
	}

	if c.Decorate {
		opts = append(opts, WithDecoration())
	}

	if c.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth %d must not be negative", c.MaxDepth)
	}

	if c.MaxDepth > 0 {
		opts = append(opts, WithMaxDepth(c.MaxDepth))
	}

	if len(c.KeyKinds) > 0 {
		var kinds []Kind
		for _, name := range c.KeyKinds {
			kind := Kind(name)
			if !slices.Contains(scalarKinds, kind) {
				return nil, fmt.Errorf("key kind %q: %w", name, ErrNotSupported)
			}

			kinds = append(kinds, kind)
		}

		opts = append(opts, WithKeyKinds(kinds...))
	}

	return opts, nil
}

// NewFromConfig creates a codec from a configuration. Additional options are applied
// after the ones derived from the configuration.
func NewFromConfig(c Config, opts ...Option) (*Codec, error) {
	configured, err := c.Options()
	if err != nil {
		return nil, fmt.Errorf("codec config: %w", err)
	}

	return New(append(configured, opts...)...), nil
}
