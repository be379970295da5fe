// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"v.io/x/anonize/pairing"
)

func newCurvesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curves",
		Short: "List the supported pairing groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range pairing.Names() {
				group, err := pairing.ByName(name)
				if err != nil {
					return err
				}
				def := ""
				if name == pairing.DefaultGroupName {
					def = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s: G1 %d bytes, G2 %d bytes, GT %d bytes\n",
					name, def, group.G1Size(), group.G2Size(), group.GTSize())
			}
			return nil
		},
	}
}
