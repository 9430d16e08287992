package ftl

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Reference geometry of the simulated SSD.
const (
	DefaultNumBlocks  = 512
	DefaultNumLogical = 256
	DefaultBlockSize  = 4096
	DefaultLifespan   = 5
	DefaultFillByte   = 0xAB
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid ftl config")

var validate = validator.New()

// Config holds the geometry and wear limits of one simulation run. A Config
// is fixed for the lifetime of a run.
type Config struct {
	NumBlocks  int  `yaml:"num_blocks" validate:"min=2"`
	NumLogical int  `yaml:"num_logical" validate:"min=1"`
	BlockSize  int  `yaml:"block_size" validate:"min=1"`
	Lifespan   int  `yaml:"lifespan" validate:"min=1"`
	FillByte   byte `yaml:"fill_byte"`
}

// DefaultConfig returns the reference configuration: 512 blocks of 4 KiB,
// 256 logical addresses and a lifespan of 5 writes.
func DefaultConfig() Config {
	return Config{
		NumBlocks:  DefaultNumBlocks,
		NumLogical: DefaultNumLogical,
		BlockSize:  DefaultBlockSize,
		Lifespan:   DefaultLifespan,
		FillByte:   DefaultFillByte,
	}
}

// Capacity returns the number of bytes the physical pool spans.
func (c Config) Capacity() uint64 {
	return uint64(c.NumBlocks) * uint64(c.BlockSize)
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s must be %s %s, got %v",
			ErrInvalidConfig, fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}

	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their reference values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
