// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"
	"math/big"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"v.io/x/lib/vlog"

	"v.io/x/anonize/authority"
)

// benchSizes are the survey sizes timed by bench.
var benchSizes = []int{5, 100}

func newBenchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Time key generation and survey issuance",
		Long: `Bench times --trials key generations and --trials issuances of surveys with
5 and 100 identities, using --workers goroutines for issuance, and prints the
mean and sample standard deviation of each.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := authority.NewParams(a.rand, a.group)
			if err != nil {
				return err
			}
			var rows []benchRow

			keygen := make([]time.Duration, a.cfg.Trials)
			for i := range keygen {
				start := time.Now()
				if _, err := authority.NewKeyPair(a.rand, params); err != nil {
					return err
				}
				keygen[i] = time.Since(start)
				a.recorder.ObserveKeygen(keygen[i])
			}
			rows = append(rows, newBenchRow("keygen", keygen))

			ra, err := authority.NewRegistrationAuthority(a.rand, params)
			if err != nil {
				return err
			}
			sa, err := authority.NewSurveyAuthority(a.rand, params, authority.IssueOptions{Workers: a.cfg.Workers})
			if err != nil {
				return err
			}
			for _, size := range benchSizes {
				ids := make([]*big.Int, size)
				for i := range ids {
					if ids[i], err = a.group.RandomScalar(a.rand); err != nil {
						return err
					}
				}
				issue := make([]time.Duration, a.cfg.Trials)
				for i := range issue {
					start := time.Now()
					if _, _, err := sa.NewSurvey(a.rand, ra.VerificationKey(), ids); err != nil {
						return err
					}
					issue[i] = time.Since(start)
					a.recorder.ObserveIssue(issue[i], size)
				}
				rows = append(rows, newBenchRow(fmt.Sprintf("issue %d", size), issue))
				vlog.VI(1).Infof("benchmarked issuance of %d identities", size)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(tw, "operation\ttrials\tmean (ms)\tstddev (ms)\n")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\n", r.name, r.trials, r.mean, r.stddev)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return a.pushMetrics(cmd.Context())
		},
	}
}

type benchRow struct {
	name         string
	trials       int
	mean, stddev float64
}

func newBenchRow(name string, samples []time.Duration) benchRow {
	ms := make([]float64, len(samples))
	for i, d := range samples {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	mean, stddev := meanStddev(ms)
	return benchRow{name: name, trials: len(samples), mean: mean, stddev: stddev}
}

// meanStddev returns the mean and the sample standard deviation of xs. The
// deviation of fewer than two samples is 0.
func meanStddev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}
