// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package registry

import (
	"io"
	"math/big"

	"github.com/pkg/errors"

	"v.io/x/anonize/pairing"
)

// Participant holds a single participant's identity. The identity is only
// ever changed by ReIdentify.
type Participant struct {
	id *big.Int
}

// NewParticipant returns a participant with a random identity.
func NewParticipant(rand io.Reader, group pairing.Group) (*Participant, error) {
	id, err := group.RandomScalar(rand)
	if err != nil {
		return nil, errors.Wrap(err, "drawing participant identity")
	}
	return &Participant{id: id}, nil
}

// ID returns a copy of the participant's current identity.
func (p *Participant) ID() *big.Int {
	return new(big.Int).Set(p.id)
}

// Register adds the participant's identity to reg.
func (p *Participant) Register(reg *Registry) error {
	return reg.Register(p.id)
}

// ReIdentify swaps the participant's identity for a fresh one in reg and
// returns the identity that was given up.
func (p *Participant) ReIdentify(rand io.Reader, reg *Registry) (*big.Int, error) {
	old, fresh, err := reg.ReIdentify(rand, p.id)
	if err != nil {
		return nil, err
	}
	p.id = fresh
	return old, nil
}
