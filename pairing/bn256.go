// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pairing

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bn256"
)

const (
	bn256G1Size = 64
	bn256G2Size = 128
	bn256GTSize = 384
)

// BN256 returns the Barreto-Naehrig group implemented by
// golang.org/x/crypto/bn256.
func BN256() Group { return bnGroup{} }

type bnGroup struct{}

type (
	bnG1 struct{ p *bn256.G1 }
	bnG2 struct{ p *bn256.G2 }
	bnGT struct {
		v   *bn256.GT
		enc []byte
	}
)

func (bnGroup) Name() string    { return "bn256" }
func (bnGroup) Order() *big.Int { return new(big.Int).Set(bn256.Order) }
func (bnGroup) G1Size() int     { return bn256G1Size }
func (bnGroup) G2Size() int     { return bn256G2Size }
func (bnGroup) GTSize() int     { return bn256GTSize }

func (bnGroup) RandomScalar(rand io.Reader) (*big.Int, error) {
	return randomScalar(rand, bn256.Order)
}

func (bnGroup) RandomG1(rand io.Reader) (G1, error) {
	_, p, err := bn256.RandomG1(rand)
	if err != nil {
		return nil, errors.Wrap(err, "reading randomness")
	}
	return newBNG1(p), nil
}

func (bnGroup) RandomG2(rand io.Reader) (G2, error) {
	_, p, err := bn256.RandomG2(rand)
	if err != nil {
		return nil, errors.Wrap(err, "reading randomness")
	}
	return newBNG2(p), nil
}

func (bnGroup) Pair(p G1, q G2) GT {
	return newBNGT(bn256.Pair(toBNG1(p).p, toBNG2(q).p))
}

func (bnGroup) UnmarshalG1(data []byte) (G1, error) {
	if len(data) != bn256G1Size {
		return nil, errors.Wrapf(ErrInvalidEncoding, "G1 is %d bytes, expected %d", len(data), bn256G1Size)
	}
	p, ok := new(bn256.G1).Unmarshal(data)
	if !ok {
		return nil, errors.Wrap(ErrInvalidEncoding, "G1 point is not on the curve")
	}
	return newBNG1(p), nil
}

func (bnGroup) UnmarshalG2(data []byte) (G2, error) {
	if len(data) != bn256G2Size {
		return nil, errors.Wrapf(ErrInvalidEncoding, "G2 is %d bytes, expected %d", len(data), bn256G2Size)
	}
	p, ok := new(bn256.G2).Unmarshal(data)
	if !ok {
		return nil, errors.Wrap(ErrInvalidEncoding, "G2 point is not on the curve")
	}
	return newBNG2(p), nil
}

func (bnGroup) UnmarshalGT(data []byte) (GT, error) {
	if len(data) != bn256GTSize {
		return nil, errors.Wrapf(ErrInvalidEncoding, "GT is %d bytes, expected %d", len(data), bn256GTSize)
	}
	v, ok := new(bn256.GT).Unmarshal(data)
	if !ok {
		return nil, errors.Wrap(ErrInvalidEncoding, "malformed GT element")
	}
	return newBNGT(v), nil
}

// Marshal converts a point to affine form in place. Doing it once on
// construction keeps later reads free of writes, so elements can be shared
// between goroutines.
func newBNG1(p *bn256.G1) bnG1 {
	p.Marshal()
	return bnG1{p}
}

func newBNG2(p *bn256.G2) bnG2 {
	p.Marshal()
	return bnG2{p}
}

// GT's Marshal always writes, so the encoding is computed once and kept.
func newBNGT(v *bn256.GT) bnGT {
	return bnGT{v: v, enc: v.Marshal()}
}

func toBNG1(p G1) bnG1 {
	b, ok := p.(bnG1)
	if !ok {
		panic(fmt.Sprintf("pairing: %T is not a bn256 G1 element", p))
	}
	return b
}

func toBNG2(p G2) bnG2 {
	b, ok := p.(bnG2)
	if !ok {
		panic(fmt.Sprintf("pairing: %T is not a bn256 G2 element", p))
	}
	return b
}

func toBNGT(x GT) bnGT {
	b, ok := x.(bnGT)
	if !ok {
		panic(fmt.Sprintf("pairing: %T is not a bn256 GT element", x))
	}
	return b
}

// The point at infinity marshals to all zeroes.
func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func (a bnG1) Add(p G1) G1 {
	return newBNG1(new(bn256.G1).Add(a.p, toBNG1(p).p))
}

func (a bnG1) ScalarMult(k *big.Int) G1 {
	return newBNG1(new(bn256.G1).ScalarMult(a.p, k))
}

func (a bnG1) IsIdentity() bool { return allZero(a.p.Marshal()) }
func (a bnG1) Equal(p G1) bool  { return bytes.Equal(a.p.Marshal(), toBNG1(p).p.Marshal()) }
func (a bnG1) Marshal() []byte  { return a.p.Marshal() }
func (a bnG1) String() string   { return a.p.String() }

func (a bnG2) Add(p G2) G2 {
	return newBNG2(new(bn256.G2).Add(a.p, toBNG2(p).p))
}

func (a bnG2) ScalarMult(k *big.Int) G2 {
	return newBNG2(new(bn256.G2).ScalarMult(a.p, k))
}

func (a bnG2) IsIdentity() bool { return allZero(a.p.Marshal()) }
func (a bnG2) Equal(p G2) bool  { return bytes.Equal(a.p.Marshal(), toBNG2(p).p.Marshal()) }
func (a bnG2) Marshal() []byte  { return a.p.Marshal() }
func (a bnG2) String() string   { return a.p.String() }

// bn256 writes GT additively: Add is the group operation and ScalarMult is
// exponentiation.
func (a bnGT) Mul(x GT) GT {
	return newBNGT(new(bn256.GT).Add(a.v, toBNGT(x).v))
}

func (a bnGT) Exp(k *big.Int) GT {
	return newBNGT(new(bn256.GT).ScalarMult(a.v, k))
}

func (a bnGT) Equal(x GT) bool { return bytes.Equal(a.enc, toBNGT(x).enc) }
func (a bnGT) Marshal() []byte { return append([]byte(nil), a.enc...) }
func (a bnGT) String() string  { return a.v.String() }
