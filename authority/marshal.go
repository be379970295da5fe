// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package authority

import (
	"bytes"

	"github.com/pkg/errors"

	"v.io/x/anonize/ledger"
	"v.io/x/anonize/pairing"
)

var magicNumber = []byte{0x1b, 0xe1} // prefix that appears in the marshaled form: 2 bytes

type marshaledType byte

const (
	// types of encoded bytes, 1 byte
	typeParams          marshaledType = 0
	typeVerificationKey marshaledType = 1
	typeEntry           marshaledType = 2

	// magic number, type and group tag
	headerSize = 4
)

// Group tags, 1 byte. Tags are part of the encoding and must never be reused.
var (
	groupTags = map[string]byte{
		"bn256":     1,
		"bls12-381": 2,
	}
	tagGroups = map[byte]string{
		1: "bn256",
		2: "bls12-381",
	}
)

func writeHeader(typ marshaledType, group pairing.Group) ([]byte, error) {
	tag, ok := groupTags[group.Name()]
	if !ok {
		return nil, errors.Wrapf(pairing.ErrUnknownGroup, "%q has no encoding tag", group.Name())
	}
	ret := make([]byte, headerSize)
	copy(ret, magicNumber)
	ret[len(magicNumber)] = byte(typ)
	ret[len(magicNumber)+1] = tag
	return ret, nil
}

// readHeader parses hdr, checks that it announces a message of type want and
// returns the group and the remainder of the message, excluding the header.
func readHeader(hdr []byte, want marshaledType) (pairing.Group, []byte, error) {
	if len(hdr) < headerSize {
		return nil, nil, errors.Wrap(errBadHeader, "header is too small")
	}
	if !bytes.Equal(hdr[0:len(magicNumber)], magicNumber) {
		return nil, nil, errors.Wrap(errBadHeader, "invalid magic number")
	}
	if typ := marshaledType(hdr[len(magicNumber)]); typ != want {
		return nil, nil, errors.Wrapf(errBadHeader, "got message type %d, want %d", typ, want)
	}
	name, ok := tagGroups[hdr[len(magicNumber)+1]]
	if !ok {
		return nil, nil, errors.Wrapf(pairing.ErrUnknownGroup, "group tag %d", hdr[len(magicNumber)+1])
	}
	group, err := pairing.ByName(name)
	if err != nil {
		return nil, nil, err
	}
	return group, hdr[headerSize:], nil
}

func join(header []byte, fields ...[]byte) []byte {
	n := len(header)
	for _, f := range fields {
		n += len(f)
	}
	ret := make([]byte, 0, n)
	ret = append(ret, header...)
	for _, f := range fields {
		ret = append(ret, f...)
	}
	return ret
}

// reader hands out consecutive fields of a message body whose total size
// has already been checked.
type reader struct {
	data []byte
}

func (r *reader) advance(n int) []byte {
	ret := r.data[0:n]
	r.data = r.data[n:]
	return ret
}

// MarshalParams encodes p into a byte slice.
func MarshalParams(p *Params) ([]byte, error) {
	hdr, err := writeHeader(typeParams, p.Group)
	if err != nil {
		return nil, err
	}
	return join(hdr, p.G.Marshal(), p.G2.Marshal()), nil
}

// UnmarshalParams parses an encoded Params object.
func UnmarshalParams(data []byte) (*Params, error) {
	group, body, err := readHeader(data, typeParams)
	if err != nil {
		return nil, err
	}
	if len(body) != group.G1Size()+group.G2Size() {
		return nil, errors.Wrap(pairing.ErrInvalidEncoding, "invalid params size")
	}
	r := &reader{body}
	p := &Params{Group: group}
	if p.G, err = group.UnmarshalG1(r.advance(group.G1Size())); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal g")
	}
	if p.G2, err = group.UnmarshalG2(r.advance(group.G2Size())); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal g2")
	}
	if p.G.IsIdentity() || p.G2.IsIdentity() {
		return nil, errors.Wrap(pairing.ErrInvalidEncoding, "generator is the identity")
	}
	return p, nil
}

// MarshalVerificationKey encodes vk into a byte slice.
func MarshalVerificationKey(vk *VerificationKey) ([]byte, error) {
	hdr, err := writeHeader(typeVerificationKey, vk.Group)
	if err != nil {
		return nil, err
	}
	return join(hdr, vk.U.Marshal(), vk.V.Marshal(), vk.H.Marshal(), vk.PK.Marshal()), nil
}

// UnmarshalVerificationKey parses an encoded VerificationKey.
func UnmarshalVerificationKey(data []byte) (*VerificationKey, error) {
	group, body, err := readHeader(data, typeVerificationKey)
	if err != nil {
		return nil, err
	}
	if len(body) != 3*group.G1Size()+group.GTSize() {
		return nil, errors.Wrap(pairing.ErrInvalidEncoding, "invalid verification key size")
	}
	r := &reader{body}
	vk := &VerificationKey{Group: group}
	for _, f := range []struct {
		name string
		dst  *pairing.G1
	}{{"u", &vk.U}, {"v", &vk.V}, {"h", &vk.H}} {
		if *f.dst, err = group.UnmarshalG1(r.advance(group.G1Size())); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal %s", f.name)
		}
	}
	if vk.PK, err = group.UnmarshalGT(r.advance(group.GTSize())); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal pk")
	}
	return vk, nil
}

// MarshalEntry encodes a signature entry issued over group.
func MarshalEntry(group pairing.Group, e ledger.Entry) ([]byte, error) {
	hdr, err := writeHeader(typeEntry, group)
	if err != nil {
		return nil, err
	}
	return join(hdr, pairing.MarshalScalar(group, e.ID), e.Sigma1.Marshal(), e.Sigma2.Marshal()), nil
}

// UnmarshalEntry parses an encoded signature entry.
func UnmarshalEntry(data []byte) (ledger.Entry, error) {
	group, body, err := readHeader(data, typeEntry)
	if err != nil {
		return ledger.Entry{}, err
	}
	if len(body) != pairing.ScalarSize(group)+group.G1Size()+group.G2Size() {
		return ledger.Entry{}, errors.Wrap(pairing.ErrInvalidEncoding, "invalid entry size")
	}
	r := &reader{body}
	var e ledger.Entry
	if e.ID, err = pairing.UnmarshalScalar(group, r.advance(pairing.ScalarSize(group))); err != nil {
		return ledger.Entry{}, errors.Wrap(err, "failed to unmarshal id")
	}
	if e.Sigma1, err = group.UnmarshalG1(r.advance(group.G1Size())); err != nil {
		return ledger.Entry{}, errors.Wrap(err, "failed to unmarshal sigma1")
	}
	if e.Sigma2, err = group.UnmarshalG2(r.advance(group.G2Size())); err != nil {
		return ledger.Entry{}, errors.Wrap(err, "failed to unmarshal sigma2")
	}
	return e, nil
}
