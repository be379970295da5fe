// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package publish writes verification keys and issued survey entries to a
// MySQL bulletin board, where participants can fetch the signature issued
// for their identity. Secret keys are never written.
package publish

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"v.io/x/lib/vlog"

	"v.io/x/anonize/authority"
	"v.io/x/anonize/ledger"
	"v.io/x/anonize/pairing"
)

// Role names the authority a published key belongs to.
type Role string

const (
	RoleRegistration Role = "ra"
	RoleSurvey       Role = "sa"
)

// Execer is the subset of *sql.DB used by Board.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS anonize_keys (
	key_id CHAR(64) NOT NULL,
	role VARCHAR(8) NOT NULL,
	curve VARCHAR(16) NOT NULL,
	vk BLOB NOT NULL,
	PRIMARY KEY (key_id)
) ` + SqlCreateTableSuffix,
	`CREATE TABLE IF NOT EXISTS anonize_entries (
	vid VARCHAR(80) NOT NULL,
	id VARCHAR(80) NOT NULL,
	sa_key_id CHAR(64) NOT NULL,
	curve VARCHAR(16) NOT NULL,
	entry BLOB NOT NULL,
	PRIMARY KEY (vid, id)
) ` + SqlCreateTableSuffix,
}

// Board publishes to the tables anonize_keys and anonize_entries.
type Board struct {
	db Execer
}

// NewBoard returns a Board writing through db.
func NewBoard(db Execer) *Board {
	return &Board{db: db}
}

// CreateTables creates the board's tables if they do not exist.
func (b *Board) CreateTables(ctx context.Context) error {
	for _, stmt := range createTables {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "creating tables")
		}
	}
	return nil
}

// KeyID returns the identifier under which vk is published: the hex SHA-256
// of its encoding.
func KeyID(vk *authority.VerificationKey) (string, error) {
	keyID, _, err := encodeKey(vk)
	return keyID, err
}

func encodeKey(vk *authority.VerificationKey) (string, []byte, error) {
	data, err := authority.MarshalVerificationKey(vk)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), data, nil
}

// PublishKey writes vk under role and returns its key identifier.
// Publishing the same key again is a no-op.
func (b *Board) PublishKey(ctx context.Context, role Role, vk *authority.VerificationKey) (string, error) {
	keyID, data, err := encodeKey(vk)
	if err != nil {
		return "", err
	}
	_, err = b.db.ExecContext(ctx,
		"INSERT INTO anonize_keys (key_id, role, curve, vk) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE role = VALUES(role)",
		keyID, string(role), vk.Group.Name(), data)
	if err != nil {
		return "", errors.Wrapf(err, "publishing %s key", role)
	}
	vlog.VI(1).Infof("published %s key %s", role, keyID)
	return keyID, nil
}

// PublishSurvey writes the entries issued for survey vid by the survey
// authority whose key was published as saKeyID. An entry already on the
// board for the same survey and identity is replaced. All entries are
// written by a single statement.
func (b *Board) PublishSurvey(ctx context.Context, saKeyID string, group pairing.Group, vid *big.Int, entries []ledger.Entry) error {
	if len(entries) == 0 {
		vlog.VI(1).Infof("survey %s has no entries to publish", vid.Text(16))
		return nil
	}
	var (
		rows = make([]string, 0, len(entries))
		args = make([]interface{}, 0, 5*len(entries))
		v    = vid.Text(16)
	)
	for _, e := range entries {
		data, err := authority.MarshalEntry(group, e)
		if err != nil {
			return errors.Wrapf(err, "encoding entry for %s", e.ID.Text(16))
		}
		rows = append(rows, "(?, ?, ?, ?, ?)")
		args = append(args, v, e.ID.Text(16), saKeyID, group.Name(), data)
	}
	query := fmt.Sprintf(
		"INSERT INTO anonize_entries (vid, id, sa_key_id, curve, entry) VALUES %s ON DUPLICATE KEY UPDATE sa_key_id = VALUES(sa_key_id), curve = VALUES(curve), entry = VALUES(entry)",
		strings.Join(rows, ", "))
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "publishing survey %s", v)
	}
	vlog.VI(1).Infof("published %d entries of survey %s", len(entries), v)
	return nil
}
