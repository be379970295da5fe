// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pairing provides the bilinear groups used by the anonymous survey
// protocol.
//
// A pairing group consists of two additive cyclic groups G1 and G2 of the same
// prime order q, a multiplicative target group GT and a bilinear map
//
//	e: G1 × G2 → GT,  e(a·P, b·Q) = e(P, Q)^(ab)
//
// The protocol itself is written against the Group, G1, G2 and GT interfaces
// defined here and two implementations are provided: BN256 (backed by
// golang.org/x/crypto/bn256) and BLS12381 (backed by gnark-crypto).
//
// Elements are immutable: every operation returns a new element and leaves
// its receiver and arguments untouched. Elements from different groups must
// not be combined; doing so panics.
//
// All randomness is drawn from an io.Reader supplied by the caller. Production
// code passes crypto/rand.Reader. A failing reader is reported as an error and
// never replaced by a fixed value.
package pairing

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// G1 is an element of the first source group.
type G1 interface {
	// Add returns the group sum of the receiver and p.
	Add(p G1) G1
	// ScalarMult returns k·P where P is the receiver.
	ScalarMult(k *big.Int) G1
	// IsIdentity reports whether the receiver is the identity ("zero").
	IsIdentity() bool
	Equal(p G1) bool
	// Marshal returns the fixed-size encoding of the element.
	Marshal() []byte
	String() string
}

// G2 is an element of the second source group.
type G2 interface {
	Add(p G2) G2
	ScalarMult(k *big.Int) G2
	IsIdentity() bool
	Equal(p G2) bool
	Marshal() []byte
	String() string
}

// GT is an element of the multiplicative target group.
type GT interface {
	// Mul returns the group product of the receiver and x.
	Mul(x GT) GT
	// Exp returns x^k where x is the receiver.
	Exp(k *big.Int) GT
	Equal(x GT) bool
	Marshal() []byte
	String() string
}

// Group is a pairing-friendly group triple together with its pairing.
type Group interface {
	// Name returns the name under which the group is registered with ByName.
	Name() string
	// Order returns q, the prime order of G1, G2 and GT.
	Order() *big.Int

	// RandomScalar returns a scalar drawn uniformly from [0, q).
	RandomScalar(rand io.Reader) (*big.Int, error)
	// RandomG1 returns a uniformly distributed element of G1.
	RandomG1(rand io.Reader) (G1, error)
	// RandomG2 returns a uniformly distributed element of G2.
	RandomG2(rand io.Reader) (G2, error)

	// Pair computes e(p, q).
	Pair(p G1, q G2) GT

	UnmarshalG1(data []byte) (G1, error)
	UnmarshalG2(data []byte) (G2, error)
	UnmarshalGT(data []byte) (GT, error)

	// Sizes of the encodings returned by Marshal.
	G1Size() int
	G2Size() int
	GTSize() int
}

// DefaultGroupName is the group used when none is configured.
const DefaultGroupName = "bn256"

var groups = map[string]func() Group{
	"bn256":     BN256,
	"bls12-381": BLS12381,
}

// ByName returns the group registered under name.
func ByName(name string) (Group, error) {
	newGroup, ok := groups[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownGroup, "%q", name)
	}
	return newGroup(), nil
}

// Names returns the names accepted by ByName in a stable order.
func Names() []string {
	return []string{"bn256", "bls12-381"}
}

// GeneratorPair returns a pair (g, g2) of generators of G1 and G2.
//
// Since both groups have prime order, every element other than the identity
// generates the group. Each element is therefore drawn at random and redrawn,
// independently, for as long as it is the identity.
func GeneratorPair(group Group, rand io.Reader) (G1, G2, error) {
	var (
		g   G1
		g2  G2
		err error
	)
	for g == nil || g.IsIdentity() {
		if g, err = group.RandomG1(rand); err != nil {
			return nil, nil, errors.Wrap(err, "drawing G1 generator")
		}
	}
	for g2 == nil || g2.IsIdentity() {
		if g2, err = group.RandomG2(rand); err != nil {
			return nil, nil, errors.Wrap(err, "drawing G2 generator")
		}
	}
	return g, g2, nil
}

// randomScalar returns an integer drawn uniformly from [0, order).
func randomScalar(r io.Reader, order *big.Int) (*big.Int, error) {
	k, err := rand.Int(r, order)
	if err != nil {
		return nil, errors.Wrap(err, "reading randomness")
	}
	return k, nil
}

// ScalarSize returns the number of bytes needed to encode any scalar of group.
func ScalarSize(group Group) int {
	return (group.Order().BitLen() + 7) / 8
}

// ReduceScalar returns k reduced into [0, q), where q is the order of group.
// Integers that differ by a multiple of q name the same scalar and reduce to
// the same value, and a negative k reduces to q - (|k| mod q).
func ReduceScalar(group Group, k *big.Int) (*big.Int, error) {
	if k == nil {
		return nil, ErrNilScalar
	}
	return new(big.Int).Mod(k, group.Order()), nil
}

// MarshalScalar returns the fixed-size big-endian encoding of k, reduced
// modulo the order of group.
func MarshalScalar(group Group, k *big.Int) []byte {
	out := make([]byte, ScalarSize(group))
	return new(big.Int).Mod(k, group.Order()).FillBytes(out)
}

// UnmarshalScalar parses the encoding produced by MarshalScalar.
func UnmarshalScalar(group Group, data []byte) (*big.Int, error) {
	if len(data) != ScalarSize(group) {
		return nil, errors.Wrapf(ErrInvalidEncoding, "scalar is %d bytes, expected %d", len(data), ScalarSize(group))
	}
	k := new(big.Int).SetBytes(data)
	if k.Cmp(group.Order()) >= 0 {
		return nil, errors.Wrap(ErrInvalidEncoding, "scalar is not reduced")
	}
	return k, nil
}
