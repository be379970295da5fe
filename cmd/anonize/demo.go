// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"v.io/x/lib/timing"
	"v.io/x/lib/vlog"

	"v.io/x/anonize/authority"
	"v.io/x/anonize/registry"
)

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run both authorities through registration and one survey",
		Long: `Demo creates a registration authority and a survey authority over a fresh
generator pair, prints their verification keys, registers --participants
participants, re-identifies the first of them and issues one survey to every
registered identity.

When --sql-config is set the keys and the survey entries are published to
the bulletin board. When --gcm-project is set the run's metrics are pushed to
Cloud Monitoring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDemo(cmd)
		},
	}
}

type demoResult struct {
	ra      *authority.RegistrationAuthority
	sa      *authority.SurveyAuthority
	vid     string
	entries int
}

func (a *app) runDemo(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	timer := timing.NewTimer("demo")
	defer func() {
		timer.Finish()
		vlog.VI(1).Infof("timing:\n%s", timer.String())
	}()

	fmt.Fprintf(out, "group = %s\norder = %s\n\n", a.group.Name(), a.group.Order())

	timer.Push("setup")
	params, err := authority.NewParams(a.rand, a.group)
	if err != nil {
		return err
	}
	start := time.Now()
	ra, err := authority.NewRegistrationAuthority(a.rand, params)
	if err != nil {
		return err
	}
	a.recorder.ObserveKeygen(time.Since(start))
	start = time.Now()
	sa, err := authority.NewSurveyAuthority(a.rand, params, authority.IssueOptions{Workers: a.cfg.Workers})
	if err != nil {
		return err
	}
	a.recorder.ObserveKeygen(time.Since(start))
	timer.Pop()

	printKey(out, "Registration Authority (RA)", ra.VerificationKey())
	printKey(out, "Survey Authority (SA)", sa.VerificationKey())

	timer.Push("register")
	participants := make([]*registry.Participant, a.cfg.Participants)
	for i := range participants {
		p, err := registry.NewParticipant(a.rand, a.group)
		if err != nil {
			return err
		}
		if err := p.Register(ra.Registry()); err != nil {
			return err
		}
		participants[i] = p
	}
	if len(participants) > 0 {
		old, err := participants[0].ReIdentify(a.rand, ra.Registry())
		if err != nil {
			return err
		}
		fresh := participants[0].ID()
		fmt.Fprintf(out, "re-identified participant 0: %s -> %s\n\n", short(old.Text(16)), short(fresh.Text(16)))
	}
	a.recorder.SetRegistrySize(ra.Registry().Len())
	timer.Pop()

	timer.Push("issue")
	ids := ra.Identities()
	start = time.Now()
	vid, entries, err := sa.NewSurvey(a.rand, ra.VerificationKey(), ids)
	if err != nil {
		return err
	}
	a.recorder.ObserveIssue(time.Since(start), len(ids))
	timer.Pop()

	res := &demoResult{ra: ra, sa: sa, vid: vid.Text(16), entries: len(entries)}
	if err := printSummary(out, a, res); err != nil {
		return err
	}

	if a.cfg.SQLConfig != "" {
		timer.Push("publish")
		err := a.publish(cmd.Context(), ra, sa, vid, entries)
		timer.Pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\npublished %d entries to the bulletin board\n", len(entries))
	}
	return a.pushMetrics(cmd.Context())
}

func printKey(out io.Writer, title string, vk *authority.VerificationKey) {
	fmt.Fprintln(out, title)
	fmt.Fprintf(out, "u = %s\n", hex.EncodeToString(vk.U.Marshal()))
	fmt.Fprintf(out, "v = %s\n", hex.EncodeToString(vk.V.Marshal()))
	fmt.Fprintf(out, "h = %s\n", hex.EncodeToString(vk.H.Marshal()))
	fmt.Fprintln(out)
}

// short abbreviates a long hex string for display.
func short(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:16] + "..."
}

func printSummary(out io.Writer, a *app, res *demoResult) error {
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	snap := a.recorder.Snapshot()
	fmt.Fprintf(tw, "group\t%s\n", a.group.Name())
	fmt.Fprintf(tw, "workers\t%d\n", a.cfg.Workers)
	fmt.Fprintf(tw, "registered identities\t%d\n", res.ra.Registry().Len())
	fmt.Fprintf(tw, "survey\t%s\n", short(res.vid))
	fmt.Fprintf(tw, "entries\t%d\n", res.entries)
	fmt.Fprintf(tw, "surveys owned by SA\t%d\n", len(res.sa.Surveys()))
	fmt.Fprintf(tw, "mean keygen (ms)\t%.3f\n", snap["keygen-latency"])
	fmt.Fprintf(tw, "issue (ms)\t%.3f\n", snap["issue-latency"])
	return tw.Flush()
}
