// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package authority

import (
	"io"
	"math/big"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"

	"v.io/x/anonize/ledger"
	"v.io/x/anonize/pairing"
)

// IssueOptions control how signatures are computed. They never change the
// result for a given source of randomness.
type IssueOptions struct {
	// Workers is the number of goroutines computing signatures. Values below
	// 2 compute them on the calling goroutine.
	Workers int
}

// Issue creates a new survey and signs each of ids for it with the survey
// authority's secret sk.
//
// For survey identifier vid and a fresh random r per identity, the
// signature on id is
//
//	σ1 = g·sk + (U_SA·vid + V_SA·id + H_RA)·r
//	σ2 = g2·r
//
// Identities are reduced modulo the group order first, so integers naming
// the same scalar share one entry; a nil identity is an error. Each entry is
// recorded in l (which may be nil) and the survey's entries are returned,
// one per distinct identity. A repeated identity receives an
// independent signature that replaces the earlier one. Issuing twice with the
// same arguments creates two unrelated surveys.
//
// All randomness is read from rand before any signature is computed, so the
// outcome depends only on rand and not on opts.Workers.
func Issue(rand io.Reader, params *Params, sk *big.Int, vkSA, vkRA *VerificationKey, ids []*big.Int, l *ledger.Ledger, opts IssueOptions) (*big.Int, []ledger.Entry, error) {
	if err := checkGroup(params, vkSA, vkRA); err != nil {
		return nil, nil, err
	}
	group := params.Group
	reduced := make([]*big.Int, len(ids))
	for i, id := range ids {
		k, err := pairing.ReduceScalar(group, id)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "identity %d", i)
		}
		reduced[i] = k
	}
	ids = reduced
	vid, err := group.RandomScalar(rand)
	if err != nil {
		return nil, nil, errors.Wrap(err, "drawing survey identifier")
	}
	rs := make([]*big.Int, len(ids))
	for i := range rs {
		if rs[i], err = group.RandomScalar(rand); err != nil {
			return nil, nil, errors.Wrapf(err, "drawing randomness for signature %d", i)
		}
	}

	var (
		signVal = params.G.ScalarMult(sk)
		// U_SA·vid + H_RA does not depend on the identity.
		fixed   = vkSA.U.ScalarMult(vid).Add(vkRA.H)
		entries = make([]ledger.Entry, len(ids))
	)
	sign := func(i int) {
		r := rs[i]
		userVal := vkSA.V.ScalarMult(ids[i])
		entries[i] = ledger.Entry{
			ID:     ids[i],
			Sigma1: signVal.Add(fixed.Add(userVal).ScalarMult(r)),
			Sigma2: params.G2.ScalarMult(r),
		}
	}
	if err := forEach(len(ids), opts.Workers, sign); err != nil {
		return nil, nil, err
	}

	if l == nil {
		l = ledger.New()
	}
	l.Create(vid)
	replaced := 0
	for _, e := range entries {
		if l.Record(vid, e) {
			replaced++
		}
	}
	out, _ := l.EntriesFor(vid)
	vlog.VI(1).Infof("issued survey %x: %d signatures, %d distinct identities, %d replaced", vid.Bytes(), len(ids), len(out), replaced)
	return vid, out, nil
}

// forEach calls fn(i) for every i in [0, n), on an ants pool when workers > 1.
func forEach(n, workers int, fn func(int)) error {
	if workers < 2 || n < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return nil
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return errors.Wrap(err, "creating worker pool")
	}
	defer pool.Release()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i // per-iteration copy; module targets go 1.21 loop semantics
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			fn(i)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return errors.Wrap(err, "submitting signature task")
		}
	}
	wg.Wait()
	return nil
}
