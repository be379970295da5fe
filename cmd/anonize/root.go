// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"crypto/rand"
	"flag"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"v.io/x/lib/vlog"

	"v.io/x/anonize/config"
	"v.io/x/anonize/metrics"
	"v.io/x/anonize/pairing"
)

// app is the state shared by all subcommands.
type app struct {
	cfg        *config.Config
	configPath string
	rand       io.Reader
	group      pairing.Group
	recorder   *metrics.Recorder
}

func newApp() *app {
	return &app{
		cfg:      &config.Config{},
		rand:     rand.Reader,
		recorder: &metrics.Recorder{},
	}
}

var (
	configureLogging    sync.Once
	configureLoggingErr error
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "anonize",
		Short:         "Anonymous survey authorities",
		Long:          "Anonize issues per-survey signatures on registered identities, so that participants can later answer a survey anonymously.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureLogging.Do(func() {
				configureLoggingErr = vlog.ConfigureLibraryLoggerFromFlags()
			})
			if configureLoggingErr != nil {
				return errors.Wrap(configureLoggingErr, "configuring logging")
			}
			if err := a.cfg.Merge(a.configPath, cmd.Flags()); err != nil {
				return err
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			group, err := a.cfg.Group()
			if err != nil {
				return err
			}
			a.group = group
			vlog.VI(1).Infof("config: %+v", *a.cfg)
			return nil
		},
	}

	pfs := root.PersistentFlags()
	pfs.StringVar(&a.configPath, "config", "", "YAML configuration file")
	if err := config.RegisterFlags(pfs, a.cfg); err != nil {
		panic(err)
	}
	logging := flag.NewFlagSet("logging", flag.ContinueOnError)
	vlog.RegisterLoggingFlags(logging, &vlog.CommandLineLoggingFlags, "")
	pfs.AddGoFlagSet(logging)

	root.AddCommand(
		newDemoCmd(a),
		newKeygenCmd(a),
		newBenchCmd(a),
		newCurvesCmd(),
		newVersionCmd(),
	)
	return root
}
