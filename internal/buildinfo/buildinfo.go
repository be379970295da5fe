// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildinfo describes the running anonize binary.
package buildinfo

import (
	"encoding/json"
	"runtime"
	"runtime/debug"

	"v.io/x/anonize/pairing"
)

// These variables are filled in at link time, using:
//
//	-ldflags "-X v.io/x/anonize/internal/buildinfo.commit=<value>"
var commit, timestamp string

// T describes binary metadata.
type T struct {
	GoVersion      string   `json:"goVersion"`
	ModuleVersion  string   `json:"moduleVersion,omitempty"`
	Commit         string   `json:"commit,omitempty"`
	BuildTimestamp string   `json:"buildTimestamp,omitempty"`
	Curves         []string `json:"curves"`
}

// Info returns metadata about the current binary.
func Info() *T {
	t := &T{
		GoVersion:      runtime.Version(),
		Commit:         commit,
		BuildTimestamp: timestamp,
		Curves:         pairing.Names(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		t.ModuleVersion = bi.Main.Version
	}
	return t
}

// String returns the metadata as a JSON object.
func (t *T) String() string {
	data, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	return string(data)
}
