// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package config holds the run configuration: defaults, an optional YAML
// file, and command line overrides applied on top.
package config

import (
	"fmt"
	"io/ioutil"

	"github.com/patrickbr/stoptagger/proj"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultMaxDist    = 100.0
	DefaultProjection = proj.EPSG3067
	DefaultReportDir  = "."
	DefaultLogFile    = "stoptagger.log"
	DefaultLogLevel   = "info"
)

// Config is the run configuration
type Config struct {
	// matches farther apart than this (in meters) are rejected, 0 disables
	// the check
	MaxDist    float64 `yaml:"max_dist"`
	Projection string  `yaml:"projection"`
	ReportDir  string  `yaml:"report_dir"`
	LogFile    string  `yaml:"log_file"`
	LogLevel   string  `yaml:"log_level"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		MaxDist:    DefaultMaxDist,
		Projection: DefaultProjection,
		ReportDir:  DefaultReportDir,
		LogFile:    DefaultLogFile,
		LogLevel:   DefaultLogLevel,
	}
}

// Load reads a YAML config file on top of the defaults. Keys missing in
// the file keep their default value.
func Load(path string) (Config, error) {
	conf := Default()

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return conf, errors.Wrap(err, "reading config")
	}

	if err := yaml.UnmarshalStrict(data, &conf); err != nil {
		return conf, errors.Wrapf(err, "parsing config '%s'", path)
	}

	return conf, nil
}

// Overrides are values given on the command line. Nil fields are not set.
type Overrides struct {
	MaxDist    *float64
	Projection *string
	ReportDir  *string
	LogFile    *string
	LogLevel   *string
}

// Apply returns conf with all set overrides applied
func (o Overrides) Apply(conf Config) Config {
	if o.MaxDist != nil {
		conf.MaxDist = *o.MaxDist
	}
	if o.Projection != nil {
		conf.Projection = *o.Projection
	}
	if o.ReportDir != nil {
		conf.ReportDir = *o.ReportDir
	}
	if o.LogFile != nil {
		conf.LogFile = *o.LogFile
	}
	if o.LogLevel != nil {
		conf.LogLevel = *o.LogLevel
	}
	return conf
}

// Check validates conf
func (c Config) Check() []error {
	errs := []error{}
	if c.MaxDist < 0 {
		errs = append(errs, fmt.Errorf("max_dist must not be negative, got %f", c.MaxDist))
	}
	if _, err := proj.ByName(c.Projection); err != nil {
		errs = append(errs, err)
	}
	if len(c.LogFile) == 0 {
		errs = append(errs, errors.New("log_file must not be empty"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level '%s'", c.LogLevel))
	}
	return errs
}
