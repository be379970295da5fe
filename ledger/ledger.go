// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ledger records, per survey, the signatures a survey authority has
// issued to participant identities.
//
// A Ledger maps a survey identifier (vid) to the entries issued for that
// survey, keyed by participant identity. Recording an entry for an identity
// that already has one in the same survey replaces it. Nothing is ever
// removed.
//
// Writes are serialized; a Ledger may be shared by goroutines.
package ledger

import (
	"math/big"
	"sync"

	"v.io/x/lib/vlog"

	"v.io/x/anonize/pairing"
)

// Entry is the signature issued to one identity for one survey.
type Entry struct {
	ID     *big.Int
	Sigma1 pairing.G1
	Sigma2 pairing.G2
}

func (e Entry) clone() Entry {
	e.ID = new(big.Int).Set(e.ID)
	return e
}

type survey struct {
	vid     *big.Int
	order   []string
	entries map[string]Entry
}

// Ledger is the per-authority survey store. The zero value is not usable;
// use New.
type Ledger struct {
	mu      sync.RWMutex
	surveys map[string]*survey
	order   []string
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{surveys: make(map[string]*survey)}
}

// Keys are reduced scalars, which are non-negative, so Bytes is a canonical
// encoding. Issue reduces identities before recording them.
func key(k *big.Int) string {
	return string(k.Bytes())
}

func (l *Ledger) surveyLocked(vid *big.Int) *survey {
	k := key(vid)
	s, ok := l.surveys[k]
	if !ok {
		s = &survey{vid: new(big.Int).Set(vid), entries: make(map[string]Entry)}
		l.surveys[k] = s
		l.order = append(l.order, k)
	}
	return s
}

// Create registers a survey with no entries. It returns false if the
// survey already exists, in which case the ledger is unchanged.
func (l *Ledger) Create(vid *big.Int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.surveys[key(vid)]; ok {
		return false
	}
	l.surveyLocked(vid)
	return true
}

// Record inserts the entry for (vid, e.ID), creating the survey if needed,
// and reports whether it replaced an earlier entry.
func (l *Ledger) Record(vid *big.Int, e Entry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.surveyLocked(vid)
	k := key(e.ID)
	_, replaced := s.entries[k]
	if replaced {
		vlog.VI(1).Infof("ledger: survey %x: replacing entry for a repeated identity", vid.Bytes())
	} else {
		s.order = append(s.order, k)
	}
	s.entries[k] = e.clone()
	return replaced
}

// EntriesFor returns the entries of survey vid in the order their
// identities were first recorded. The second result is false if the
// survey does not exist.
func (l *Ledger) EntriesFor(vid *big.Int) ([]Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.surveys[key(vid)]
	if !ok {
		return nil, false
	}
	out := make([]Entry, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.entries[k].clone())
	}
	return out, true
}

// Lookup returns the entry issued to id in survey vid.
func (l *Ledger) Lookup(vid, id *big.Int) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.surveys[key(vid)]
	if !ok {
		return Entry{}, false
	}
	e, ok := s.entries[key(id)]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Surveys returns the identifiers of all surveys in creation order.
func (l *Ledger) Surveys() []*big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*big.Int, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, new(big.Int).Set(l.surveys[k].vid))
	}
	return out
}

// Len returns the number of surveys.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.surveys)
}
