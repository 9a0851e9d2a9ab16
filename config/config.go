// Package config describes conformance-run scenarios for the
// trapcheck harness. The tracee itself takes no configuration.
package config

import (
	"fmt"
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v2"
)

// DefaultStepLimit bounds the instruction scan used to time a counter
// mutation between the two traps.
const DefaultStepLimit = 10000

// Config defines one conformance run of the tracee fixture.
type Config struct {
	// MutateCounter is a value to write into the tracee's shared
	// counter after the tracee's own store, before the propagation
	// step runs. Nil leaves the counter alone.
	MutateCounter *int64 `yaml:"mutate-counter,omitempty"`

	// StepLimit is the maximum number of single steps used to catch
	// the counter store between the two traps.
	StepLimit int `yaml:"step-limit"`

	// FixturePath is the path of a prebuilt tracee binary. Empty
	// means the harness builds one itself.
	FixturePath string `yaml:"fixture-path,omitempty"`
}

// Default returns the configuration for an unmutated controlled run.
func Default() *Config {
	return &Config{StepLimit: DefaultStepLimit}
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unable to decode config file: %v", err)
	}
	if c.StepLimit <= 0 {
		c.StepLimit = DefaultStepLimit
	}
	return c, nil
}

// SaveConfig will marshal and save the config struct to disk.
func SaveConfig(path string, conf *Config) error {
	out, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}
