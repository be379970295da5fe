// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package authority implements the two authorities of the anonymous survey
// protocol and the signatures the survey authority issues.
//
// The registration authority (RA) keeps the list of participant identities.
// The survey authority (SA) creates surveys and, for each survey, issues to
// every requested identity a signature under a variant of the Boneh-Boyen
// identity-based signature scheme in which the signed "identity" is the pair
// (survey identifier, participant identity).
//
// Both authorities hold a key pair produced by the same GenerateKey routine.
// The groups are written additively, so g^x in the literature corresponds to
// g.ScalarMult(x) here, while the target group GT is multiplicative.
package authority

import (
	"io"
	"math/big"

	"github.com/pkg/errors"

	"v.io/x/anonize/ledger"
	"v.io/x/anonize/pairing"
	"v.io/x/anonize/registry"
)

// Params are the public parameters shared by all parties: a pairing group
// and a generator of each of its source groups.
type Params struct {
	Group pairing.Group
	G     pairing.G1
	G2    pairing.G2
}

// NewParams picks a fresh generator pair in group.
func NewParams(rand io.Reader, group pairing.Group) (*Params, error) {
	g, g2, err := pairing.GeneratorPair(group, rand)
	if err != nil {
		return nil, err
	}
	return &Params{Group: group, G: g, G2: g2}, nil
}

// VerificationKey is the public half of an authority's key pair.
//
// U, V and H are random elements of G1 chosen once per authority and
// PK = e(g, g2)^x for the authority's secret x.
type VerificationKey struct {
	Group   pairing.Group
	U, V, H pairing.G1
	PK      pairing.GT
}

// GenerateKey returns a verification key and the matching secret scalar.
// RA and SA keys are generated identically and independently.
func GenerateKey(rand io.Reader, params *Params) (*VerificationKey, *big.Int, error) {
	group := params.Group
	var r [3]*big.Int
	for i := range r {
		k, err := group.RandomScalar(rand)
		if err != nil {
			return nil, nil, errors.Wrap(err, "drawing verification key")
		}
		r[i] = k
	}
	x, err := group.RandomScalar(rand)
	if err != nil {
		return nil, nil, errors.Wrap(err, "drawing secret key")
	}
	vk := &VerificationKey{
		Group: group,
		U:     params.G.ScalarMult(r[0]),
		V:     params.G.ScalarMult(r[1]),
		H:     params.G.ScalarMult(r[2]),
		PK:    group.Pair(params.G, params.G2).Exp(x),
	}
	return vk, x, nil
}

// KeyPair is a verification key together with its secret scalar. The
// secret never leaves the KeyPair.
type KeyPair struct {
	vk *VerificationKey
	x  *big.Int
}

// NewKeyPair generates a key pair with GenerateKey.
func NewKeyPair(rand io.Reader, params *Params) (*KeyPair, error) {
	vk, x, err := GenerateKey(rand, params)
	if err != nil {
		return nil, err
	}
	return &KeyPair{vk: vk, x: x}, nil
}

// VerificationKey returns the public half of the key pair.
func (k *KeyPair) VerificationKey() *VerificationKey { return k.vk }

// WellFormed reports whether PK = e(g, g2)^x.
func (k *KeyPair) WellFormed(params *Params) bool {
	if params.Group.Name() != k.vk.Group.Name() {
		return false
	}
	return k.vk.PK.Equal(params.Group.Pair(params.G, params.G2).Exp(k.x))
}

func checkGroup(params *Params, vks ...*VerificationKey) error {
	for _, vk := range vks {
		if vk.Group.Name() != params.Group.Name() {
			return errors.Wrapf(ErrGroupMismatch, "key over %s, params over %s", vk.Group.Name(), params.Group.Name())
		}
	}
	return nil
}

// RegistrationAuthority authenticates participants and keeps the registry of
// their identities.
type RegistrationAuthority struct {
	*KeyPair
	params *Params
	reg    *registry.Registry
}

// NewRegistrationAuthority generates a fresh key pair and an empty registry.
func NewRegistrationAuthority(rand io.Reader, params *Params) (*RegistrationAuthority, error) {
	kp, err := NewKeyPair(rand, params)
	if err != nil {
		return nil, errors.Wrap(err, "registration authority")
	}
	return &RegistrationAuthority{KeyPair: kp, params: params, reg: registry.New(params.Group)}, nil
}

// Registry returns the authority's identity registry.
func (ra *RegistrationAuthority) Registry() *registry.Registry { return ra.reg }

// Register adds id to the registry.
func (ra *RegistrationAuthority) Register(id *big.Int) error { return ra.reg.Register(id) }

// ReIdentify replaces old with a fresh identity; see registry.Registry.ReIdentify.
func (ra *RegistrationAuthority) ReIdentify(rand io.Reader, old *big.Int) (discarded, fresh *big.Int, err error) {
	return ra.reg.ReIdentify(rand, old)
}

// Identities returns the currently registered identities in order.
func (ra *RegistrationAuthority) Identities() []*big.Int { return ra.reg.IDs() }

// SurveyAuthority creates surveys and issues their signatures. Every survey
// it creates is recorded in its own ledger.
type SurveyAuthority struct {
	*KeyPair
	params *Params
	ledger *ledger.Ledger
	opts   IssueOptions
}

// NewSurveyAuthority generates a fresh key pair and an empty ledger.
func NewSurveyAuthority(rand io.Reader, params *Params, opts IssueOptions) (*SurveyAuthority, error) {
	kp, err := NewKeyPair(rand, params)
	if err != nil {
		return nil, errors.Wrap(err, "survey authority")
	}
	return &SurveyAuthority{KeyPair: kp, params: params, ledger: ledger.New(), opts: opts}, nil
}

// NewSurvey creates a survey and issues a signature to each of ids under the
// registration authority's key vkRA. The identities are not checked against
// any registry.
func (sa *SurveyAuthority) NewSurvey(rand io.Reader, vkRA *VerificationKey, ids []*big.Int) (*big.Int, []ledger.Entry, error) {
	return Issue(rand, sa.params, sa.x, sa.vk, vkRA, ids, sa.ledger, sa.opts)
}

// Entries returns the entries issued for survey vid.
func (sa *SurveyAuthority) Entries(vid *big.Int) ([]ledger.Entry, bool) {
	return sa.ledger.EntriesFor(vid)
}

// Surveys returns the surveys created by this authority, oldest first.
func (sa *SurveyAuthority) Surveys() []*big.Int { return sa.ledger.Surveys() }

// Ledger returns the authority's ledger.
func (sa *SurveyAuthority) Ledger() *ledger.Ledger { return sa.ledger }
