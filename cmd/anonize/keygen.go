// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"v.io/x/anonize/authority"
)

func newKeygenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate public parameters and the two authorities' verification keys",
		Long: `Keygen draws a generator pair and a key for each authority and prints the
encoded parameters and verification keys in hex, one per line. Secret keys
are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			params, err := authority.NewParams(a.rand, a.group)
			if err != nil {
				return err
			}
			data, err := authority.MarshalParams(params)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "params %s\n", hex.EncodeToString(data))
			for _, role := range []string{"ra", "sa"} {
				start := time.Now()
				kp, err := authority.NewKeyPair(a.rand, params)
				if err != nil {
					return err
				}
				a.recorder.ObserveKeygen(time.Since(start))
				data, err := authority.MarshalVerificationKey(kp.VerificationKey())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", role, hex.EncodeToString(data))
			}
			return a.pushMetrics(cmd.Context())
		},
	}
}
