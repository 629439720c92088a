package experiment

import (
	"os"

	"gopkg.in/yaml.v3"

	recalErrors "github.com/creditlab/recal/pkg/errors"
	"github.com/creditlab/recal/simulate"
)

// Config is the full input surface of one experiment run: the seed, the
// two population processes and the calibration train ratio. A Config
// fully determines the run; two runs with equal Configs produce
// bit-identical reports.
type Config struct {
	Seed uint64 `yaml:"seed" json:"seed"`

	Industry simulate.Config `yaml:"industry" json:"industry"`
	Company  simulate.Config `yaml:"company" json:"company"`

	TrainRatio float64 `yaml:"train_ratio" json:"train_ratio"`
}

// Default returns the reference configuration: seed 1, the default
// industry and company populations, a 0.1 calibration train ratio.
func Default() Config {
	return Config{
		Seed:       1,
		Industry:   simulate.IndustryDefaults(),
		Company:    simulate.CompanyDefaults(),
		TrainRatio: 0.1,
	}
}

// Validate rejects configurations the pipeline cannot run. Called by
// Run before any simulation starts.
func (c Config) Validate() error {
	if err := c.Industry.Validate(); err != nil {
		return recalErrors.Wrap(err, "industry config")
	}
	if err := c.Company.Validate(); err != nil {
		return recalErrors.Wrap(err, "company config")
	}
	if c.TrainRatio <= 0 || c.TrainRatio >= 1 {
		return recalErrors.NewValidationError("train_ratio", "must be in (0, 1)", c.TrainRatio)
	}
	return nil
}

// Load reads a Config from a YAML file. Fields omitted in the file keep
// their Default values.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, recalErrors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, recalErrors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}
