// Package config defines the data structures related to configuration and
// includes functions for loading deal files and resolving per-deal inputs.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/sensitivity"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/waterfall"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for the waterfall calculator.
type Configuration struct {
	Common  Common        `yaml:"common,omitempty"`
	Deals   []Deal        `yaml:"deals"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// Common holds terms shared by every deal. A deal inherits any input it
// leaves at zero, and the guilds or selections block it omits entirely.
type Common struct {
	Inputs     waterfall.Inputs            `yaml:"inputs,omitempty" mapstructure:"inputs"`
	Guilds     waterfall.GuildState        `yaml:"guilds,omitempty" mapstructure:"guilds"`
	Selections waterfall.CapitalSelections `yaml:"selections,omitempty" mapstructure:"selections"`
}

// Deal is one named set of deal terms to run through the waterfall.
type Deal struct {
	Name           string                       `yaml:"name"`
	Active         bool                         `yaml:"active"`
	Inputs         waterfall.Inputs             `yaml:"inputs,omitempty" mapstructure:"inputs"`
	Guilds         *waterfall.GuildState        `yaml:"guilds,omitempty" mapstructure:"guilds"`
	Selections     *waterfall.CapitalSelections `yaml:"selections,omitempty" mapstructure:"selections"`
	TargetMultiple float64                      `yaml:"targetMultiple,omitempty" mapstructure:"targetMultiple"`
	Sweep          sensitivity.SweepRange       `yaml:"sweep,omitempty" mapstructure:"sweep"`
	Goals          []sensitivity.Goal           `yaml:"goals,omitempty" mapstructure:"goals"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// deal file there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted deal file from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if err := configuration.normalize(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

func (c *Configuration) normalize() error {
	if err := checkFinite(c.Common.Inputs); err != nil {
		return fmt.Errorf("common inputs: %w", err)
	}
	for i := range c.Deals {
		deal := &c.Deals[i]
		deal.Name = strings.TrimSpace(deal.Name)
		if deal.Name == "" {
			return fmt.Errorf("deal %d is missing a name", i+1)
		}
		if err := checkFinite(deal.Inputs); err != nil {
			return fmt.Errorf("deal %s inputs: %w", deal.Name, err)
		}
		if !mathutil.IsFinite(deal.TargetMultiple) {
			return fmt.Errorf("deal %s targetMultiple must be finite, got %v", deal.Name, deal.TargetMultiple)
		}
		for j := range deal.Goals {
			if err := deal.Goals[j].Validate(); err != nil {
				return fmt.Errorf("deal %s goal %d: %w", deal.Name, j+1, err)
			}
		}
		if !deal.Sweep.IsZero() {
			if err := deal.Sweep.Validate(); err != nil {
				return fmt.Errorf("deal %s sweep: %w", deal.Name, err)
			}
		}
	}
	return nil
}

// ActiveDeals returns the deals marked active, in file order.
func (c *Configuration) ActiveDeals() []Deal {
	var deals []Deal
	for _, deal := range c.Deals {
		if deal.Active {
			deals = append(deals, deal)
		}
	}
	return deals
}
