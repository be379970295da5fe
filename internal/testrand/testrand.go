// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testrand provides deterministic and failing randomness sources
// for tests. Nothing here is suitable for production use.
package testrand

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20"
)

// Reader is a deterministic keystream generator seeded from a string.
// Two readers built from the same seed produce the same bytes.
type Reader struct {
	c *chacha20.Cipher
}

// New returns a Reader seeded with seed.
func New(seed string) *Reader {
	key := sha256.Sum256([]byte(seed))
	c, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		panic(err)
	}
	return &Reader{c}
}

func (r *Reader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.c.XORKeyStream(p, p)
	return len(p), nil
}

// ErrExhausted is returned by readers built with Failing.
var ErrExhausted = errors.New("testrand: randomness source exhausted")

// Failing returns a reader that yields n bytes from a seeded Reader and then
// fails every subsequent read with ErrExhausted.
func Failing(n int) io.Reader {
	return &failing{r: New("failing"), left: n}
}

type failing struct {
	r    *Reader
	left int
}

func (f *failing) Read(p []byte) (int, error) {
	if f.left <= 0 {
		return 0, ErrExhausted
	}
	if len(p) > f.left {
		p = p[:f.left]
	}
	n, _ := f.r.Read(p)
	f.left -= n
	return n, nil
}
