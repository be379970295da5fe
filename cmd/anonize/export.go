// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"math/big"
	"os"

	"v.io/x/lib/vlog"

	"v.io/x/anonize/authority"
	"v.io/x/anonize/ledger"
	"v.io/x/anonize/metrics"
	"v.io/x/anonize/publish"
)

// publish writes both verification keys and the entries of survey vid to
// the bulletin board described by --sql-config.
func (a *app) publish(ctx context.Context, ra *authority.RegistrationAuthority, sa *authority.SurveyAuthority, vid *big.Int, entries []ledger.Entry) error {
	sqlConfig, err := publish.ParseSqlConfigFromFile(a.cfg.SQLConfig)
	if err != nil {
		return err
	}
	db, err := publish.NewSqlDBConn(sqlConfig)
	if err != nil {
		return err
	}
	defer db.Close()
	return publishTo(ctx, publish.NewBoard(db), ra, sa, vid, entries)
}

func publishTo(ctx context.Context, board *publish.Board, ra *authority.RegistrationAuthority, sa *authority.SurveyAuthority, vid *big.Int, entries []ledger.Entry) error {
	if err := board.CreateTables(ctx); err != nil {
		return err
	}
	if _, err := board.PublishKey(ctx, publish.RoleRegistration, ra.VerificationKey()); err != nil {
		return err
	}
	saKeyID, err := board.PublishKey(ctx, publish.RoleSurvey, sa.VerificationKey())
	if err != nil {
		return err
	}
	return board.PublishSurvey(ctx, saKeyID, sa.VerificationKey().Group, vid, entries)
}

// pushMetrics pushes the recorded metrics when --gcm-project is set.
func (a *app) pushMetrics(ctx context.Context) error {
	if a.cfg.GCMProject == "" {
		return nil
	}
	s, err := metrics.Authenticate(ctx, a.cfg.GCMKeyFile)
	if err != nil {
		return err
	}
	if err := metrics.CreateDescriptors(ctx, s, a.cfg.GCMProject); err != nil {
		return err
	}
	labels := metrics.Labels{Instance: a.cfg.GCMInstance, Curve: a.group.Name()}
	if labels.Instance == "" {
		if labels.Instance, err = os.Hostname(); err != nil {
			vlog.Errorf("Hostname() failed: %v", err)
			labels.Instance = "unknown"
		}
	}
	return metrics.Push(ctx, s, a.cfg.GCMProject, a.recorder, labels)
}
