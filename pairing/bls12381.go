// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pairing

import (
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/pkg/errors"
)

const (
	bls12381G1Size = bls12381.SizeOfG1AffineCompressed
	bls12381G2Size = bls12381.SizeOfG2AffineCompressed
	bls12381GTSize = bls12381.SizeOfGT
)

// BLS12381 returns the BLS12-381 group implemented by gnark-crypto. Source
// group elements use the compressed encoding.
func BLS12381() Group { return blsGroup{} }

type blsGroup struct{}

type (
	blsG1 struct{ p bls12381.G1Affine }
	blsG2 struct{ p bls12381.G2Affine }
	blsGT struct{ v bls12381.GT }
)

func (blsGroup) Name() string    { return "bls12-381" }
func (blsGroup) Order() *big.Int { return fr.Modulus() }
func (blsGroup) G1Size() int     { return bls12381G1Size }
func (blsGroup) G2Size() int     { return bls12381G2Size }
func (blsGroup) GTSize() int     { return bls12381GTSize }

func (blsGroup) RandomScalar(rand io.Reader) (*big.Int, error) {
	return randomScalar(rand, fr.Modulus())
}

// RandomG1 returns k·g1 for the standard generator g1 and a uniform k.
func (blsGroup) RandomG1(rand io.Reader) (G1, error) {
	k, err := randomScalar(rand, fr.Modulus())
	if err != nil {
		return nil, err
	}
	_, _, g1, _ := bls12381.Generators()
	r := &blsG1{}
	r.p.ScalarMultiplication(&g1, k)
	return r, nil
}

func (blsGroup) RandomG2(rand io.Reader) (G2, error) {
	k, err := randomScalar(rand, fr.Modulus())
	if err != nil {
		return nil, err
	}
	_, _, _, g2 := bls12381.Generators()
	r := &blsG2{}
	r.p.ScalarMultiplication(&g2, k)
	return r, nil
}

func (blsGroup) Pair(p G1, q G2) GT {
	gt, err := bls12381.Pair([]bls12381.G1Affine{toBLSG1(p).p}, []bls12381.G2Affine{toBLSG2(q).p})
	if err != nil {
		// Only reachable with mismatched slice lengths.
		panic(err)
	}
	return &blsGT{gt}
}

func (blsGroup) UnmarshalG1(data []byte) (G1, error) {
	if len(data) != bls12381G1Size {
		return nil, errors.Wrapf(ErrInvalidEncoding, "G1 is %d bytes, expected %d", len(data), bls12381G1Size)
	}
	r := &blsG1{}
	if _, err := r.p.SetBytes(data); err != nil {
		return nil, errors.Wrap(ErrInvalidEncoding, err.Error())
	}
	return r, nil
}

func (blsGroup) UnmarshalG2(data []byte) (G2, error) {
	if len(data) != bls12381G2Size {
		return nil, errors.Wrapf(ErrInvalidEncoding, "G2 is %d bytes, expected %d", len(data), bls12381G2Size)
	}
	r := &blsG2{}
	if _, err := r.p.SetBytes(data); err != nil {
		return nil, errors.Wrap(ErrInvalidEncoding, err.Error())
	}
	return r, nil
}

func (blsGroup) UnmarshalGT(data []byte) (GT, error) {
	if len(data) != bls12381GTSize {
		return nil, errors.Wrapf(ErrInvalidEncoding, "GT is %d bytes, expected %d", len(data), bls12381GTSize)
	}
	r := &blsGT{}
	if err := r.v.SetBytes(data); err != nil {
		return nil, errors.Wrap(ErrInvalidEncoding, err.Error())
	}
	return r, nil
}

func toBLSG1(p G1) *blsG1 {
	b, ok := p.(*blsG1)
	if !ok {
		panic(fmt.Sprintf("pairing: %T is not a bls12-381 G1 element", p))
	}
	return b
}

func toBLSG2(p G2) *blsG2 {
	b, ok := p.(*blsG2)
	if !ok {
		panic(fmt.Sprintf("pairing: %T is not a bls12-381 G2 element", p))
	}
	return b
}

func toBLSGT(x GT) *blsGT {
	b, ok := x.(*blsGT)
	if !ok {
		panic(fmt.Sprintf("pairing: %T is not a bls12-381 GT element", x))
	}
	return b
}

func (a *blsG1) Add(p G1) G1 {
	var sum, q bls12381.G1Jac
	sum.FromAffine(&a.p)
	q.FromAffine(&toBLSG1(p).p)
	sum.AddAssign(&q)
	r := &blsG1{}
	r.p.FromJacobian(&sum)
	return r
}

func (a *blsG1) ScalarMult(k *big.Int) G1 {
	r := &blsG1{}
	r.p.ScalarMultiplication(&a.p, k)
	return r
}

func (a *blsG1) IsIdentity() bool { return a.p.IsInfinity() }
func (a *blsG1) Equal(p G1) bool  { return a.p.Equal(&toBLSG1(p).p) }
func (a *blsG1) String() string   { return a.p.String() }

func (a *blsG1) Marshal() []byte {
	b := a.p.Bytes()
	return b[:]
}

func (a *blsG2) Add(p G2) G2 {
	var sum, q bls12381.G2Jac
	sum.FromAffine(&a.p)
	q.FromAffine(&toBLSG2(p).p)
	sum.AddAssign(&q)
	r := &blsG2{}
	r.p.FromJacobian(&sum)
	return r
}

func (a *blsG2) ScalarMult(k *big.Int) G2 {
	r := &blsG2{}
	r.p.ScalarMultiplication(&a.p, k)
	return r
}

func (a *blsG2) IsIdentity() bool { return a.p.IsInfinity() }
func (a *blsG2) Equal(p G2) bool  { return a.p.Equal(&toBLSG2(p).p) }
func (a *blsG2) String() string   { return a.p.String() }

func (a *blsG2) Marshal() []byte {
	b := a.p.Bytes()
	return b[:]
}

func (a *blsGT) Mul(x GT) GT {
	r := &blsGT{}
	r.v.Mul(&a.v, &toBLSGT(x).v)
	return r
}

func (a *blsGT) Exp(k *big.Int) GT {
	r := &blsGT{}
	r.v.Exp(a.v, k)
	return r
}

func (a *blsGT) Equal(x GT) bool { return a.v.Equal(&toBLSGT(x).v) }
func (a *blsGT) String() string  { return a.v.String() }

func (a *blsGT) Marshal() []byte {
	b := a.v.Bytes()
	return b[:]
}
