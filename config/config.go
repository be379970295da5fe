// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the settings of the anonize command.
//
// Each setting is a field of Config that carries a yaml tag, for the
// optional configuration file, and a flag tag of the form
// "name,default,usage" understood by v.io/x/lib/cmd/flagvar. A setting takes
// the first of these that applies: a flag given on the command line, the
// configuration file, the default in the flag tag.
package config

import (
	"bytes"
	"io"
	"os"
	"reflect"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
	"v.io/x/lib/cmd/flagvar"
	"v.io/x/lib/cmd/pflagvar"

	"v.io/x/anonize/pairing"
)

const flagTag = "flag"

// Config is the complete configuration of an anonize run.
type Config struct {
	Curve        string `yaml:"curve" flag:"curve,bn256,pairing group: bn256 or bls12-381"`
	Participants int    `yaml:"participants" flag:"participants,5,number of participants to register"`
	Workers      int    `yaml:"workers" flag:"workers,1,goroutines used to compute signatures"`
	Trials       int    `yaml:"trials" flag:"trials,100,number of benchmark trials"`

	SQLConfig string `yaml:"sql-config" flag:"sql-config,,JSON file describing the MySQL bulletin board; empty disables publishing"`

	GCMProject  string `yaml:"gcm-project" flag:"gcm-project,,Google Cloud project to push metrics to; empty disables metrics"`
	GCMKeyFile  string `yaml:"gcm-key-file" flag:"gcm-key-file,,service account key for metrics; empty uses the default credentials"`
	GCMInstance string `yaml:"gcm-instance" flag:"gcm-instance,,value of the instance label on pushed metrics"`
}

// RegisterFlags registers a flag for every field of c on fs and sets each
// field to its default.
func RegisterFlags(fs *pflag.FlagSet, c *Config) error {
	return pflagvar.RegisterFlagsInStruct(fs, flagTag, c, nil, nil)
}

// Default returns a Config holding the default of every setting.
func Default() *Config {
	c := &Config{}
	if err := RegisterFlags(pflag.NewFlagSet("defaults", pflag.ContinueOnError), c); err != nil {
		panic(err)
	}
	return c
}

// flagNames returns the names of the flags registered for Config.
func flagNames() []string {
	typ := reflect.TypeOf(Config{})
	var names []string
	for i := 0; i < typ.NumField(); i++ {
		tag, ok := typ.Field(i).Tag.Lookup(flagTag)
		if !ok {
			continue
		}
		name, _, _, err := flagvar.ParseFlagTag(tag)
		if err != nil {
			panic(err)
		}
		names = append(names, name)
	}
	return names
}

// decode overlays the YAML document in data onto c. Keys that do not name a
// setting are an error.
func decode(data []byte, c *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Load reads the configuration file at path over the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := decode(data, c); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return c, nil
}

// Merge applies the configuration file at path to c, which must have been
// registered with fs and parsed, without overriding any setting given
// explicitly on the command line. An empty path leaves c unchanged.
func (c *Config) Merge(path string, fs *pflag.FlagSet) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	explicit := map[string]string{}
	for _, name := range flagNames() {
		if f := fs.Lookup(name); f != nil && f.Changed {
			explicit[name] = f.Value.String()
		}
	}
	if err := decode(data, c); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return errors.Wrapf(err, "restoring --%s", name)
		}
	}
	return nil
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	if _, err := pairing.ByName(c.Curve); err != nil {
		return errors.Wrap(err, "curve")
	}
	switch {
	case c.Participants < 0:
		return errors.Errorf("participants must not be negative, got %d", c.Participants)
	case c.Workers < 0:
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	case c.Trials < 1:
		return errors.Errorf("trials must be positive, got %d", c.Trials)
	}
	return nil
}

// Group returns the pairing group named by Curve.
func (c *Config) Group() (pairing.Group, error) {
	return pairing.ByName(c.Curve)
}
