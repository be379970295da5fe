// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package registry implements the registration authority's list of
// currently authorized participant identities.
package registry

import (
	"io"
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"v.io/x/lib/vlog"

	"v.io/x/anonize/pairing"
)

// Registry is an ordered list of identities. Registering the same identity
// twice is allowed and leaves two copies in the list.
type Registry struct {
	group pairing.Group

	mu  sync.Mutex
	ids []*big.Int
}

// New returns an empty registry whose identities are scalars of group.
func New(group pairing.Group) *Registry {
	return &Registry{group: group}
}

// Group returns the group identities are drawn from.
func (r *Registry) Group() pairing.Group { return r.group }

// Register appends id, reduced modulo the group order.
func (r *Registry) Register(id *big.Int) error {
	k, err := pairing.ReduceScalar(r.group, id)
	if err != nil {
		return errors.Wrap(err, "registering identity")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, k)
	vlog.VI(2).Infof("registry: %d identities", len(r.ids))
	return nil
}

// ReIdentify replaces old with a freshly drawn identity. The first
// occurrence of old, if any, is removed and the fresh identity is appended
// whether or not old was present. It returns old and the new identity.
//
// Surveys issued before the call keep referring to old.
func (r *Registry) ReIdentify(rand io.Reader, old *big.Int) (discarded, fresh *big.Int, err error) {
	if old, err = pairing.ReduceScalar(r.group, old); err != nil {
		return nil, nil, errors.Wrap(err, "re-identifying")
	}
	fresh, err = r.group.RandomScalar(rand)
	if err != nil {
		return nil, nil, errors.Wrap(err, "drawing replacement identity")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(old); i >= 0 {
		r.ids = append(r.ids[:i], r.ids[i+1:]...)
	} else {
		vlog.VI(1).Infof("registry: re-identified an identity that was not registered")
	}
	r.ids = append(r.ids, new(big.Int).Set(fresh))
	return old, fresh, nil
}

func (r *Registry) indexLocked(id *big.Int) int {
	for i, v := range r.ids {
		if v.Cmp(id) == 0 {
			return i
		}
	}
	return -1
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id *big.Int) bool {
	k, err := pairing.ReduceScalar(r.group, id)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexLocked(k) >= 0
}

// IDs returns a copy of the registered identities in registration order.
func (r *Registry) IDs() []*big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*big.Int, len(r.ids))
	for i, v := range r.ids {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

// Len returns the number of registered identities, counting duplicates.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
