// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command anonize runs the registration and survey authorities of the
// anonymous survey protocol.
//
// Usage:
//
//	anonize demo     [flags]
//	anonize keygen   [flags]
//	anonize bench    [flags]
//	anonize curves
//	anonize version
//
// Settings may also be read from a YAML file given with --config; flags
// given on the command line take precedence over the file.
package main

import (
	"os"

	"v.io/x/lib/vlog"
)

func main() {
	cmd := newRootCmd(newApp())
	if err := cmd.Execute(); err != nil {
		vlog.Errorf("anonize: %v", err)
		vlog.FlushLog()
		os.Exit(1)
	}
	vlog.FlushLog()
}
