package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// config is the optional .nanocc.yaml project configuration file:
// the diagnostic knobs (ignore_warnings, show_location) and the
// colored-dump knob. The driver reads only ColoredDump (main.go);
// IgnoreWarnings and ShowLocation are parsed but not applied, so
// warnings and locations are rendered regardless of their values.
type config struct {
	IgnoreWarnings bool `yaml:"ignore_warnings"`
	ShowLocation   bool `yaml:"show_location"`
	ColoredDump    bool `yaml:"colored_dump"`
}

// loadConfig reads .nanocc.yaml from the current directory, returning
// the zero-value config if the file does not exist.
func loadConfig() (config, error) {
	var cfg config
	data, err := os.ReadFile(".nanocc.yaml")
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
